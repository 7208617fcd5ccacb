package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
	"github.com/nhle/task-tracker/tests/testutil"
)

func newTask(t *testing.T, s store.Store, title string) *model.Task {
	t.Helper()

	task := &model.Task{
		Title:     title,
		Type:      model.TypeFeature,
		CreatedBy: "alice",
	}
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask() err = %v, want nil", err)
	}
	return task
}

func TestCreateTaskDefaults(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "first")
	if task.ID == "" {
		t.Fatal("CreateTask() left ID empty")
	}
	if task.Status != model.StatusOpen {
		t.Errorf("Status = %q, want %q", task.Status, model.StatusOpen)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want %q", task.Priority, model.PriorityMedium)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() err = %v, want nil", err)
	}
	if got.Title != "first" {
		t.Errorf("Title = %q, want %q", got.Title, "first")
	}
}

func TestCreateTaskEmptyTitle(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.CreateTask(context.Background(), &model.Task{
		Type:      model.TypeBug,
		CreatedBy: "alice",
	})
	if err == nil {
		t.Fatal("CreateTask() err = nil, want error for empty title")
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetTask(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetTask() err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "before")
	task.Title = "after"
	task.Priority = model.PriorityHigh
	if err := s.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask() err = %v, want nil", err)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() err = %v, want nil", err)
	}
	if got.Title != "after" || got.Priority != model.PriorityHigh {
		t.Errorf("got %q/%q, want after/high", got.Title, got.Priority)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.UpdateTask(context.Background(), &model.Task{ID: "nope", Title: "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("UpdateTask() err = %v, want ErrNotFound", err)
	}
}

func TestSoftDeleteHidesTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "doomed")
	if err := s.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("SoftDeleteTask() err = %v, want nil", err)
	}

	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetTask() after delete err = %v, want ErrNotFound", err)
	}

	trashed, err := s.GetTrashedTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTrashedTask() err = %v, want nil", err)
	}
	if trashed.DeletedAt == nil {
		t.Error("GetTrashedTask() DeletedAt = nil, want set")
	}

	// Deleting twice is NotFound: the row is already hidden.
	if err := s.SoftDeleteTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second SoftDeleteTask() err = %v, want ErrNotFound", err)
	}
}

func TestRestoreTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "phoenix")

	// Restoring a live task is NotFound.
	if err := s.RestoreTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("RestoreTask() on live task err = %v, want ErrNotFound", err)
	}

	if err := s.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("SoftDeleteTask() err = %v, want nil", err)
	}
	if err := s.RestoreTask(ctx, task.ID); err != nil {
		t.Fatalf("RestoreTask() err = %v, want nil", err)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() after restore err = %v, want nil", err)
	}
	if got.DeletedAt != nil {
		t.Error("DeletedAt after restore != nil")
	}
}

func TestHardDeleteTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "gone")
	if err := s.HardDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("HardDeleteTask() err = %v, want nil", err)
	}
	if _, err := s.GetTrashedTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetTrashedTask() after hard delete err = %v, want ErrNotFound", err)
	}
	if err := s.HardDeleteTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second HardDeleteTask() err = %v, want ErrNotFound", err)
	}
}

func TestSetTaskStatusReachesTrashedRows(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "hidden")
	if err := s.SoftDeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("SoftDeleteTask() err = %v, want nil", err)
	}

	if err := s.SetTaskStatus(ctx, task.ID, model.StatusBlocked); err != nil {
		t.Fatalf("SetTaskStatus() on trashed row err = %v, want nil", err)
	}

	trashed, err := s.GetTrashedTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTrashedTask() err = %v, want nil", err)
	}
	if trashed.Status != model.StatusBlocked {
		t.Errorf("Status = %q, want %q", trashed.Status, model.StatusBlocked)
	}
}

func TestListTasksFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	bug := &model.Task{Title: "bug", Type: model.TypeBug, Priority: model.PriorityHigh, CreatedBy: "alice"}
	feat := &model.Task{Title: "feat", Type: model.TypeFeature, CreatedBy: "bob"}
	assignee := "carol"
	chore := &model.Task{Title: "chore", Type: model.TypeImprovement, CreatedBy: "alice", AssignedTo: &assignee}
	for _, task := range []*model.Task{bug, feat, chore} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask() err = %v, want nil", err)
		}
	}

	typ := model.TypeBug
	got, err := s.ListTasks(ctx, store.TaskFilter{Type: &typ})
	if err != nil {
		t.Fatalf("ListTasks(type) err = %v, want nil", err)
	}
	if len(got) != 1 || got[0].ID != bug.ID {
		t.Errorf("ListTasks(type=bug) = %d rows, want just the bug", len(got))
	}

	got, err = s.ListTasks(ctx, store.TaskFilter{Assignee: &assignee})
	if err != nil {
		t.Fatalf("ListTasks(assignee) err = %v, want nil", err)
	}
	if len(got) != 1 || got[0].ID != chore.ID {
		t.Errorf("ListTasks(assignee=carol) = %d rows, want just the chore", len(got))
	}

	viewer := "carol"
	got, err = s.ListTasks(ctx, store.TaskFilter{Viewer: &viewer})
	if err != nil {
		t.Fatalf("ListTasks(viewer) err = %v, want nil", err)
	}
	if len(got) != 1 || got[0].ID != chore.ID {
		t.Errorf("ListTasks(viewer=carol) = %d rows, want just the assigned chore", len(got))
	}

	// Soft-deleted rows disappear from listings.
	if err := s.SoftDeleteTask(ctx, feat.ID); err != nil {
		t.Fatalf("SoftDeleteTask() err = %v, want nil", err)
	}
	got, err = s.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks() err = %v, want nil", err)
	}
	if len(got) != 2 {
		t.Errorf("ListTasks() after delete = %d rows, want 2", len(got))
	}
}

func TestListTasksSortAndLimit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"c", "a", "b"} {
		newTask(t, s, title)
	}

	got, err := s.ListTasks(ctx, store.TaskFilter{SortBy: "title", Limit: 2})
	if err != nil {
		t.Fatalf("ListTasks() err = %v, want nil", err)
	}
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "b" {
		t.Errorf("ListTasks(sort=title, limit=2) order wrong: %+v", got)
	}

	// Unknown sort columns fall back to created_at instead of failing.
	if _, err := s.ListTasks(ctx, store.TaskFilter{SortBy: "evil; DROP TABLE tasks"}); err != nil {
		t.Fatalf("ListTasks(bad sort) err = %v, want nil", err)
	}
}

func TestTasksChangedBetween(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := newTask(t, s, "recent")

	now := time.Now().UTC()
	got, err := s.TasksChangedBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("TasksChangedBetween() err = %v, want nil", err)
	}
	if len(got) != 1 || got[0].ID != task.ID {
		t.Errorf("TasksChangedBetween() = %d rows, want the created task", len(got))
	}

	got, err = s.TasksChangedBetween(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("TasksChangedBetween() err = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("TasksChangedBetween() outside window = %d rows, want 0", len(got))
	}
}

func TestInTransactionRollsBackOnError(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateTask(ctx, &model.Task{
			Title: "ghost", Type: model.TypeBug, CreatedBy: "alice",
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTransaction() err = %v, want boom", err)
	}

	got, err := s.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks() err = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("ListTasks() after rollback = %d rows, want 0", len(got))
	}
}

func TestInTransactionCommits(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	err := s.InTransaction(ctx, func(tx store.Store) error {
		return tx.CreateTask(ctx, &model.Task{
			Title: "kept", Type: model.TypeBug, CreatedBy: "alice",
		})
	})
	if err != nil {
		t.Fatalf("InTransaction() err = %v, want nil", err)
	}

	got, err := s.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks() err = %v, want nil", err)
	}
	if len(got) != 1 {
		t.Errorf("ListTasks() after commit = %d rows, want 1", len(got))
	}
}
