package deps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/task-tracker/internal/deps"
	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
	"github.com/nhle/task-tracker/tests/testutil"
)

func createTask(t *testing.T, s store.Store, title string) *model.Task {
	t.Helper()

	task := &model.Task{Title: title, Type: model.TypeFeature, CreatedBy: "alice"}
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask() err = %v, want nil", err)
	}
	return task
}

func TestAddDependency(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := deps.NewGraph(s, true)
	ctx := context.Background()

	a := createTask(t, s, "a")
	b := createTask(t, s, "b")

	if err := g.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency() err = %v, want nil", err)
	}

	prereqs, err := g.Prerequisites(ctx, a.ID, true)
	if err != nil {
		t.Fatalf("Prerequisites() err = %v, want nil", err)
	}
	if len(prereqs) != 1 || prereqs[0].ID != b.ID {
		t.Errorf("Prerequisites() = %+v, want [b]", prereqs)
	}
}

func TestAddDependencyUnknownPrerequisite(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := deps.NewGraph(s, true)

	a := createTask(t, s, "a")
	err := g.AddDependency(context.Background(), a.ID, "no-such-task")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("AddDependency() err = %v, want ErrNotFound", err)
	}
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := deps.NewGraph(s, true)
	ctx := context.Background()

	a := createTask(t, s, "a")
	b := createTask(t, s, "b")
	c := createTask(t, s, "c")

	if err := g.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency(a, b) err = %v, want nil", err)
	}
	if err := g.AddDependency(ctx, b.ID, c.ID); err != nil {
		t.Fatalf("AddDependency(b, c) err = %v, want nil", err)
	}

	// Self-loop and transitive closure both count.
	if err := g.AddDependency(ctx, a.ID, a.ID); !errors.Is(err, deps.ErrCycle) {
		t.Errorf("AddDependency(a, a) err = %v, want ErrCycle", err)
	}
	if err := g.AddDependency(ctx, c.ID, a.ID); !errors.Is(err, deps.ErrCycle) {
		t.Errorf("AddDependency(c, a) err = %v, want ErrCycle", err)
	}

	// The rejected edge must not be persisted.
	ids, err := s.PrerequisiteIDs(ctx, c.ID)
	if err != nil {
		t.Fatalf("PrerequisiteIDs() err = %v, want nil", err)
	}
	if len(ids) != 0 {
		t.Errorf("PrerequisiteIDs(c) = %v, want empty after rejection", ids)
	}
}

func TestAddDependencyWarnModeAcceptsCycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := deps.NewGraph(s, false)
	ctx := context.Background()

	a := createTask(t, s, "a")
	b := createTask(t, s, "b")

	if err := g.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency(a, b) err = %v, want nil", err)
	}
	if err := g.AddDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("AddDependency(b, a) in warn mode err = %v, want nil", err)
	}

	ids, err := s.PrerequisiteIDs(ctx, b.ID)
	if err != nil {
		t.Fatalf("PrerequisiteIDs() err = %v, want nil", err)
	}
	if len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("PrerequisiteIDs(b) = %v, want [a]", ids)
	}
}

func TestReplaceDependencies(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := deps.NewGraph(s, true)
	ctx := context.Background()

	task := createTask(t, s, "task")
	p1 := createTask(t, s, "p1")
	p2 := createTask(t, s, "p2")
	p3 := createTask(t, s, "p3")

	if err := g.ReplaceDependencies(ctx, task.ID, []string{p1.ID, p2.ID}); err != nil {
		t.Fatalf("ReplaceDependencies() err = %v, want nil", err)
	}

	// Swap p1 for p3; unknown ids are skipped without failing.
	if err := g.ReplaceDependencies(ctx, task.ID, []string{p2.ID, p3.ID, "ghost"}); err != nil {
		t.Fatalf("second ReplaceDependencies() err = %v, want nil", err)
	}

	ids, err := s.PrerequisiteIDs(ctx, task.ID)
	if err != nil {
		t.Fatalf("PrerequisiteIDs() err = %v, want nil", err)
	}
	want := map[string]bool{p2.ID: true, p3.ID: true}
	if len(ids) != 2 || !want[ids[0]] || !want[ids[1]] {
		t.Errorf("PrerequisiteIDs() = %v, want {p2, p3}", ids)
	}

	// Same set again is a no-op.
	if err := g.ReplaceDependencies(ctx, task.ID, []string{p2.ID, p3.ID}); err != nil {
		t.Fatalf("idempotent ReplaceDependencies() err = %v, want nil", err)
	}
}

func TestHasIncompletePrerequisite(t *testing.T) {
	s := testutil.NewTestStore(t)
	g := deps.NewGraph(s, true)
	ctx := context.Background()

	task := createTask(t, s, "task")
	prereq := createTask(t, s, "prereq")
	if err := g.AddDependency(ctx, task.ID, prereq.ID); err != nil {
		t.Fatalf("AddDependency() err = %v, want nil", err)
	}

	blocked, err := g.HasIncompletePrerequisite(ctx, task.ID)
	if err != nil {
		t.Fatalf("HasIncompletePrerequisite() err = %v, want nil", err)
	}
	if !blocked {
		t.Error("HasIncompletePrerequisite() = false, want true")
	}

	if err := s.SetTaskStatus(ctx, prereq.ID, model.StatusCompleted); err != nil {
		t.Fatalf("SetTaskStatus() err = %v, want nil", err)
	}
	blocked, err = g.HasIncompletePrerequisite(ctx, task.ID)
	if err != nil {
		t.Fatalf("HasIncompletePrerequisite() err = %v, want nil", err)
	}
	if blocked {
		t.Error("HasIncompletePrerequisite() after completion = true, want false")
	}
}
