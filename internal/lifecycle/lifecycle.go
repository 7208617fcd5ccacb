// Package lifecycle orchestrates task create, update, delete, restore,
// and force-delete so the dependency graph, status engine, and audit
// trail stay consistent, each operation inside one atomic transaction.
package lifecycle

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-tracker/internal/audit"
	"github.com/nhle/task-tracker/internal/deps"
	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/scan"
	"github.com/nhle/task-tracker/internal/status"
	"github.com/nhle/task-tracker/internal/store"
)

// CreateInput carries the caller-supplied fields for a new task.
// Status is absent on purpose: it is computed, never caller-supplied.
type CreateInput struct {
	Title           string
	Description     string
	Type            model.TaskType
	Priority        model.TaskPriority
	DueDate         *time.Time
	AssignedTo      *string
	PrerequisiteIDs []string
}

// UpdateInput carries field changes for an existing task. Nil pointers
// leave the field unchanged; a non-nil PrerequisiteIDs replaces the
// whole prerequisite set.
type UpdateInput struct {
	Title           *string
	Description     *string
	Type            *model.TaskType
	Priority        *model.TaskPriority
	DueDate         *time.Time
	AssignedTo      *string
	PrerequisiteIDs *[]string
}

// Lifecycle is the entry point for all task mutations.
type Lifecycle struct {
	store        store.Store
	scanner      scan.Scanner
	rejectCycles bool
}

// New creates a Lifecycle over the given store and attachment scanner.
func New(st store.Store, scanner scan.Scanner, rejectCycles bool) (*Lifecycle, error) {
	if st == nil {
		return nil, ErrStoreNil
	}
	if scanner == nil {
		return nil, ErrScannerNil
	}
	return &Lifecycle{store: st, scanner: scanner, rejectCycles: rejectCycles}, nil
}

// services builds transaction-scoped graph, trail, and engine instances.
func (l *Lifecycle) services(tx store.Store) (*deps.Graph, *audit.Trail, *status.Engine) {
	g := deps.NewGraph(tx, l.rejectCycles)
	tr := audit.NewTrail(tx)
	return g, tr, status.NewEngine(tx, g, tr)
}

// run executes fn in a transaction, letting expected conditions through
// typed and collapsing everything else to ErrOperationFailed with the
// cause logged.
func (l *Lifecycle) run(ctx context.Context, op string, fn func(store.Store) error) error {
	err := l.store.InTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrValidation),
		errors.Is(err, deps.ErrCycle):
		return err
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		log.Printf("%s: %v", op, err)
		return ErrOperationFailed
	}
}

// Create persists a new task with its prerequisite edges and first audit
// record. Requested prerequisite ids that do not resolve to a live task
// are skipped. The created task lands in open, or blocked when any
// attached prerequisite is incomplete.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput, actor model.Actor) (*model.Task, error) {
	if !actor.CanManage() {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrValidation
	}
	if _, err := model.ParseType(string(in.Type)); err != nil {
		return nil, ErrValidation
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if _, err := model.ParsePriority(string(in.Priority)); err != nil {
		return nil, ErrValidation
	}

	var created *model.Task
	err := l.run(ctx, "creating task", func(tx store.Store) error {
		g, tr, _ := l.services(tx)

		t := &model.Task{
			Title:       in.Title,
			Description: in.Description,
			Type:        in.Type,
			Status:      model.StatusOpen,
			Priority:    in.Priority,
			DueDate:     in.DueDate,
			CreatedBy:   actor.ID,
			AssignedTo:  in.AssignedTo,
		}
		if err := tx.CreateTask(ctx, t); err != nil {
			return err
		}

		for _, pid := range in.PrerequisiteIDs {
			if err := g.AddDependency(ctx, t.ID, pid); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
		}

		blocked, err := g.HasIncompletePrerequisite(ctx, t.ID)
		if err != nil {
			return err
		}
		if blocked {
			if err := tx.SetTaskStatus(ctx, t.ID, model.StatusBlocked); err != nil {
				return err
			}
			t.Status = model.StatusBlocked
		}

		if err := tr.Record(ctx, t.ID, actor.ID, t.Status); err != nil {
			return err
		}

		if t.Prerequisites, err = g.Prerequisites(ctx, t.ID, true); err != nil {
			return err
		}
		created = t
		return nil
	})
	return created, err
}

// Update applies field changes and, when a prerequisite set is supplied,
// reconciles the task's edges against it. It then forces blocked if an
// incomplete prerequisite remains; it never auto-unblocks.
func (l *Lifecycle) Update(ctx context.Context, id string, in UpdateInput, actor model.Actor) (*model.Task, error) {
	if !actor.CanManage() {
		return nil, ErrUnauthorized
	}
	if in.Type != nil {
		if _, err := model.ParseType(string(*in.Type)); err != nil {
			return nil, ErrValidation
		}
	}
	if in.Priority != nil {
		if _, err := model.ParsePriority(string(*in.Priority)); err != nil {
			return nil, ErrValidation
		}
	}

	var updated *model.Task
	err := l.run(ctx, "updating task", func(tx store.Store) error {
		g, tr, _ := l.services(tx)

		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}

		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Type != nil {
			t.Type = *in.Type
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		if in.DueDate != nil {
			t.DueDate = in.DueDate
		}
		if in.AssignedTo != nil {
			t.AssignedTo = in.AssignedTo
		}
		if err := tx.UpdateTask(ctx, t); err != nil {
			return err
		}

		if in.PrerequisiteIDs != nil {
			if err := g.ReplaceDependencies(ctx, id, *in.PrerequisiteIDs); err != nil {
				return err
			}
		}

		blocked, err := g.HasIncompletePrerequisite(ctx, id)
		if err != nil {
			return err
		}
		if blocked {
			if err := tx.SetTaskStatus(ctx, id, model.StatusBlocked); err != nil {
				return err
			}
			if err := tr.Record(ctx, id, actor.ID, model.StatusBlocked); err != nil {
				return err
			}
			t.Status = model.StatusBlocked
		}

		if t.Prerequisites, err = g.Prerequisites(ctx, id, true); err != nil {
			return err
		}
		updated = t
		return nil
	})
	return updated, err
}

// Transition applies a requested status change. Permitted to admins,
// the task's creator, and its assignee.
func (l *Lifecycle) Transition(ctx context.Context, id string, requested model.TaskStatus, actor model.Actor) (*model.Task, error) {
	if _, err := model.ParseStatus(string(requested)); err != nil {
		return nil, ErrValidation
	}

	var result *model.Task
	err := l.run(ctx, "transitioning task", func(tx store.Store) error {
		_, _, eng := l.services(tx)

		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanAct(t) {
			return ErrUnauthorized
		}

		result, err = eng.Transition(ctx, id, requested, actor)
		return err
	})
	return result, err
}

// Delete soft-deletes a task. Its edges-as-prerequisite are tombstoned
// first so dependents' recomputation no longer counts it, each dependent
// is recomputed, and the task's audit trail follows it into the trash.
func (l *Lifecycle) Delete(ctx context.Context, id string, actor model.Actor) error {
	if !actor.CanManage() {
		return ErrUnauthorized
	}

	return l.run(ctx, "deleting task", func(tx store.Store) error {
		g, tr, eng := l.services(tx)

		if _, err := tx.GetTask(ctx, id); err != nil {
			return err
		}

		// Capture dependents before exclusion hides the edges.
		dependents, err := g.Dependents(ctx, id, true)
		if err != nil {
			return err
		}

		if err := g.SetEdgesActive(ctx, id, false); err != nil {
			return err
		}

		for _, d := range dependents {
			if err := eng.Recompute(ctx, d.ID, actor); err != nil {
				return err
			}
		}

		if err := tr.FollowIntoTrash(ctx, id); err != nil {
			return err
		}
		return tx.SoftDeleteTask(ctx, id)
	})
}

// Restore reverses a soft delete. NotFound unless the task is currently
// tombstoned. The task's own status is recomputed, its
// edges-as-prerequisite reactivated, its audit trail restored, and every
// dependent recomputed.
func (l *Lifecycle) Restore(ctx context.Context, id string, actor model.Actor) (*model.Task, error) {
	if !actor.CanManage() {
		return nil, ErrUnauthorized
	}

	var restored *model.Task
	err := l.run(ctx, "restoring task", func(tx store.Store) error {
		g, tr, eng := l.services(tx)

		if _, err := tx.GetTrashedTask(ctx, id); err != nil {
			return err
		}
		if err := tx.RestoreTask(ctx, id); err != nil {
			return err
		}

		if err := eng.Recompute(ctx, id, actor); err != nil {
			return err
		}
		if err := g.SetEdgesActive(ctx, id, true); err != nil {
			return err
		}
		if err := tr.FollowOutOfTrash(ctx, id); err != nil {
			return err
		}

		dependents, err := g.Dependents(ctx, id, true)
		if err != nil {
			return err
		}
		for _, d := range dependents {
			if err := eng.Recompute(ctx, d.ID, actor); err != nil {
				return err
			}
		}

		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if t.Prerequisites, err = g.Prerequisites(ctx, id, true); err != nil {
			return err
		}
		restored = t
		return nil
	})
	return restored, err
}

// ForceDelete permanently destroys an already soft-deleted task: edges
// where it is prerequisite are detached, its audit records purged, and
// the row removed. NotFound on a live task; never a silent success.
func (l *Lifecycle) ForceDelete(ctx context.Context, id string, actor model.Actor) error {
	if !actor.CanManage() {
		return ErrUnauthorized
	}

	return l.run(ctx, "force-deleting task", func(tx store.Store) error {
		_, tr, _ := l.services(tx)

		if _, err := tx.GetTrashedTask(ctx, id); err != nil {
			return err
		}
		if err := tx.DetachEdgesByPrerequisite(ctx, id); err != nil {
			return err
		}
		if err := tr.Purge(ctx, id); err != nil {
			return err
		}
		return tx.HardDeleteTask(ctx, id)
	})
}

// Get returns a task with its active prerequisites. Permitted to admins,
// the creator, and the assignee.
func (l *Lifecycle) Get(ctx context.Context, id string, actor model.Actor) (*model.Task, error) {
	t, err := l.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("getting task: %v", err)
		return nil, ErrOperationFailed
	}
	if !actor.CanAct(t) {
		return nil, ErrUnauthorized
	}

	g := deps.NewGraph(l.store, l.rejectCycles)
	if t.Prerequisites, err = g.Prerequisites(ctx, id, true); err != nil {
		log.Printf("loading prerequisites: %v", err)
		return nil, ErrOperationFailed
	}
	return t, nil
}

// List returns tasks matching the filter. Admins see everything; other
// roles see only tasks they created or are assigned to.
func (l *Lifecycle) List(ctx context.Context, filter store.TaskFilter, actor model.Actor) ([]model.Task, error) {
	if actor.Role != model.RoleAdmin {
		viewer := actor.ID
		filter.Viewer = &viewer
	}
	tasks, err := l.store.ListTasks(ctx, filter)
	if err != nil {
		log.Printf("listing tasks: %v", err)
		return nil, ErrOperationFailed
	}
	return tasks, nil
}

// Blocked returns every blocked task. Managers and admins only.
func (l *Lifecycle) Blocked(ctx context.Context, actor model.Actor) ([]model.Task, error) {
	if !actor.CanManage() {
		return nil, ErrUnauthorized
	}
	blocked := model.StatusBlocked
	tasks, err := l.store.ListTasks(ctx, store.TaskFilter{Status: &blocked})
	if err != nil {
		log.Printf("listing blocked tasks: %v", err)
		return nil, ErrOperationFailed
	}
	return tasks, nil
}

// Assign hands a task to a user and moves it to in_progress, with one
// audit record. Rejected on a completed task.
func (l *Lifecycle) Assign(ctx context.Context, id, userID string, actor model.Actor) (*model.Task, error) {
	if !actor.CanManage() {
		return nil, ErrUnauthorized
	}

	var assigned *model.Task
	err := l.run(ctx, "assigning task", func(tx store.Store) error {
		_, tr, _ := l.services(tx)

		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if t.Status == model.StatusCompleted {
			return ErrValidation
		}

		if err := tx.SetTaskAssignee(ctx, id, userID); err != nil {
			return err
		}
		if err := tx.SetTaskStatus(ctx, id, model.StatusInProgress); err != nil {
			return err
		}
		if err := tr.Record(ctx, id, actor.ID, model.StatusInProgress); err != nil {
			return err
		}

		t.AssignedTo = &userID
		t.Status = model.StatusInProgress
		assigned = t
		return nil
	})
	return assigned, err
}

// AddComment attaches a comment to a task. Permitted to admins, the
// creator, and the assignee.
func (l *Lifecycle) AddComment(ctx context.Context, id, body string, actor model.Actor) (*model.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrValidation
	}

	var comment *model.Comment
	err := l.run(ctx, "adding comment", func(tx store.Store) error {
		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanAct(t) {
			return ErrUnauthorized
		}

		comment = &model.Comment{
			ParentType: model.AttachTargetTask,
			ParentID:   id,
			Body:       body,
			CommentBy:  actor.ID,
		}
		return tx.CreateComment(ctx, comment)
	})
	return comment, err
}

// AttachFile scans the file and, on a clean verdict, persists the
// attachment reference. A malicious verdict rejects the upload.
func (l *Lifecycle) AttachFile(ctx context.Context, id, fileName string, content io.Reader, actor model.Actor) (*model.Attachment, error) {
	if strings.TrimSpace(fileName) == "" || strings.Contains(fileName, "..") ||
		strings.ContainsAny(fileName, `/\`) {
		return nil, ErrValidation
	}

	t, err := l.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("getting task: %v", err)
		return nil, ErrOperationFailed
	}
	if !actor.CanAct(t) {
		return nil, ErrUnauthorized
	}

	// Scan before anything is persisted.
	verdict, err := l.scanner.Scan(ctx, fileName, content)
	if err != nil {
		log.Printf("scanning attachment: %v", err)
		return nil, ErrOperationFailed
	}
	if verdict.Malicious {
		log.Printf("rejecting malicious attachment %q on task %s", fileName, id)
		return nil, ErrValidation
	}

	stored := uuid.New().String() + filepath.Ext(fileName)
	attachment := &model.Attachment{
		ParentType: model.AttachTargetTask,
		ParentID:   id,
		FileName:   fileName,
		FilePath:   "uploads/" + stored,
		AttachedBy: actor.ID,
	}
	if err := l.store.CreateAttachment(ctx, attachment); err != nil {
		log.Printf("persisting attachment: %v", err)
		return nil, ErrOperationFailed
	}
	return attachment, nil
}
