package store_test

import (
	"context"
	"testing"

	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/tests/testutil"
)

func TestInsertDependencyEdgeIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := newTask(t, s, "a")
	b := newTask(t, s, "b")

	for i := 0; i < 2; i++ {
		if err := s.InsertDependencyEdge(ctx, a.ID, b.ID); err != nil {
			t.Fatalf("InsertDependencyEdge() #%d err = %v, want nil", i+1, err)
		}
	}

	ids, err := s.PrerequisiteIDs(ctx, a.ID)
	if err != nil {
		t.Fatalf("PrerequisiteIDs() err = %v, want nil", err)
	}
	if len(ids) != 1 || ids[0] != b.ID {
		t.Errorf("PrerequisiteIDs() = %v, want [%s]", ids, b.ID)
	}
}

func TestInsertDependencyEdgeRevivesTombstoned(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := newTask(t, s, "a")
	b := newTask(t, s, "b")

	if err := s.InsertDependencyEdge(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("InsertDependencyEdge() err = %v, want nil", err)
	}
	if err := s.SetEdgesActiveByPrerequisite(ctx, b.ID, false); err != nil {
		t.Fatalf("SetEdgesActiveByPrerequisite(false) err = %v, want nil", err)
	}

	prereqs, err := s.Prerequisites(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("Prerequisites() err = %v, want nil", err)
	}
	if len(prereqs) != 0 {
		t.Fatalf("Prerequisites() with tombstoned edge = %d rows, want 0", len(prereqs))
	}

	if err := s.InsertDependencyEdge(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("re-InsertDependencyEdge() err = %v, want nil", err)
	}
	prereqs, err = s.Prerequisites(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("Prerequisites() err = %v, want nil", err)
	}
	if len(prereqs) != 1 {
		t.Errorf("Prerequisites() after revival = %d rows, want 1", len(prereqs))
	}
}

func TestActiveFilterExcludesTrashedEndpoints(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := newTask(t, s, "a")
	b := newTask(t, s, "b")
	if err := s.InsertDependencyEdge(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("InsertDependencyEdge() err = %v, want nil", err)
	}

	if err := s.SoftDeleteTask(ctx, b.ID); err != nil {
		t.Fatalf("SoftDeleteTask() err = %v, want nil", err)
	}

	active, err := s.Prerequisites(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("Prerequisites(active) err = %v, want nil", err)
	}
	if len(active) != 0 {
		t.Errorf("Prerequisites(active) with trashed prerequisite = %d rows, want 0", len(active))
	}

	all, err := s.Prerequisites(ctx, a.ID, false)
	if err != nil {
		t.Fatalf("Prerequisites(all) err = %v, want nil", err)
	}
	if len(all) != 1 {
		t.Errorf("Prerequisites(all) = %d rows, want 1", len(all))
	}
}

func TestCountIncompletePrerequisites(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "task")
	p1 := newTask(t, s, "p1")
	p2 := newTask(t, s, "p2")
	for _, p := range []*model.Task{p1, p2} {
		if err := s.InsertDependencyEdge(ctx, task.ID, p.ID); err != nil {
			t.Fatalf("InsertDependencyEdge() err = %v, want nil", err)
		}
	}

	n, err := s.CountIncompletePrerequisites(ctx, task.ID)
	if err != nil {
		t.Fatalf("CountIncompletePrerequisites() err = %v, want nil", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	if err := s.SetTaskStatus(ctx, p1.ID, model.StatusCompleted); err != nil {
		t.Fatalf("SetTaskStatus() err = %v, want nil", err)
	}
	if n, _ = s.CountIncompletePrerequisites(ctx, task.ID); n != 1 {
		t.Errorf("count after completing p1 = %d, want 1", n)
	}

	// A tombstoned edge no longer counts.
	if err := s.SetEdgesActiveByPrerequisite(ctx, p2.ID, false); err != nil {
		t.Fatalf("SetEdgesActiveByPrerequisite() err = %v, want nil", err)
	}
	if n, _ = s.CountIncompletePrerequisites(ctx, task.ID); n != 0 {
		t.Errorf("count after excluding p2 = %d, want 0", n)
	}
}

func TestDetachEdgesByPrerequisite(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := newTask(t, s, "a")
	b := newTask(t, s, "b")
	p := newTask(t, s, "p")
	for _, dep := range []*model.Task{a, b} {
		if err := s.InsertDependencyEdge(ctx, dep.ID, p.ID); err != nil {
			t.Fatalf("InsertDependencyEdge() err = %v, want nil", err)
		}
	}

	if err := s.DetachEdgesByPrerequisite(ctx, p.ID); err != nil {
		t.Fatalf("DetachEdgesByPrerequisite() err = %v, want nil", err)
	}

	for _, dep := range []*model.Task{a, b} {
		ids, err := s.PrerequisiteIDs(ctx, dep.ID)
		if err != nil {
			t.Fatalf("PrerequisiteIDs() err = %v, want nil", err)
		}
		if len(ids) != 0 {
			t.Errorf("PrerequisiteIDs(%s) = %v, want empty", dep.Title, ids)
		}
	}
}

func TestDependents(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	p := newTask(t, s, "p")
	a := newTask(t, s, "a")
	b := newTask(t, s, "b")
	for _, dep := range []*model.Task{a, b} {
		if err := s.InsertDependencyEdge(ctx, dep.ID, p.ID); err != nil {
			t.Fatalf("InsertDependencyEdge() err = %v, want nil", err)
		}
	}

	got, err := s.Dependents(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("Dependents() err = %v, want nil", err)
	}
	if len(got) != 2 {
		t.Fatalf("Dependents() = %d rows, want 2", len(got))
	}

	if err := s.SoftDeleteTask(ctx, a.ID); err != nil {
		t.Fatalf("SoftDeleteTask() err = %v, want nil", err)
	}
	got, err = s.Dependents(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("Dependents() err = %v, want nil", err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("Dependents() after trashing a = %d rows, want just b", len(got))
	}
}
