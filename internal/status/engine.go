// Package status implements the task status state machine: blocking
// derived from dependencies, requested transitions, and the one-hop
// unblock cascade on completion.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/task-tracker/internal/audit"
	"github.com/nhle/task-tracker/internal/deps"
	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
)

// Engine computes and applies task status. It trusts the actor it is
// handed for audit attribution only; authorization is the caller's job.
type Engine struct {
	store store.Store
	graph *deps.Graph
	trail *audit.Trail
}

// NewEngine creates an Engine over the given store, graph, and trail.
// All three must be scoped to the same transaction when the caller runs
// inside one.
func NewEngine(st store.Store, g *deps.Graph, tr *audit.Trail) *Engine {
	return &Engine{store: st, graph: g, trail: tr}
}

// Recompute re-derives blocking for a task. If any active prerequisite
// is incomplete the task is forced to blocked, whatever it held before,
// and one audit record is appended. Otherwise the task is left
// untouched: recomputation never auto-opens a blocked task.
func (e *Engine) Recompute(ctx context.Context, taskID string, actor model.Actor) error {
	blocked, err := e.graph.HasIncompletePrerequisite(ctx, taskID)
	if err != nil {
		return err
	}
	if !blocked {
		return nil
	}

	if err := e.store.SetTaskStatus(ctx, taskID, model.StatusBlocked); err != nil {
		return err
	}
	return e.trail.Record(ctx, taskID, actor.ID, model.StatusBlocked)
}

// Transition applies an externally requested status change. An
// incomplete active prerequisite overrides the request and forces
// blocked. Completion stamps the due date with the completion date and
// unblocks direct dependents. Exactly one audit record is appended for
// the task's actual resulting status, before any cascade records.
func (e *Engine) Transition(ctx context.Context, taskID string, requested model.TaskStatus, actor model.Actor) (*model.Task, error) {
	if _, err := model.ParseStatus(string(requested)); err != nil {
		return nil, err
	}

	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	blocked, err := e.graph.HasIncompletePrerequisite(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if blocked {
		// The requested status is discarded.
		if err := e.store.SetTaskStatus(ctx, taskID, model.StatusBlocked); err != nil {
			return nil, err
		}
		if err := e.trail.Record(ctx, taskID, actor.ID, model.StatusBlocked); err != nil {
			return nil, err
		}
		task.Status = model.StatusBlocked
		return task, nil
	}

	if err := e.store.SetTaskStatus(ctx, taskID, requested); err != nil {
		return nil, err
	}
	task.Status = requested

	if requested == model.StatusCompleted {
		// Completion timestamp convention: due_date records the day the
		// task actually completed.
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if err := e.store.SetTaskDueDate(ctx, taskID, today); err != nil {
			return nil, err
		}
		task.DueDate = &today
	}

	if err := e.trail.Record(ctx, taskID, actor.ID, requested); err != nil {
		return nil, err
	}

	if requested == model.StatusCompleted {
		if err := e.CascadeUnblock(ctx, taskID, actor); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// CascadeUnblock flips every direct dependent currently blocked and not
// soft-deleted to open, appending one audit record each. The cascade is
// one hop: dependents of dependents are not revisited even when this
// was their last blocker.
func (e *Engine) CascadeUnblock(ctx context.Context, taskID string, actor model.Actor) error {
	dependents, err := e.graph.Dependents(ctx, taskID, true)
	if err != nil {
		return fmt.Errorf("listing dependents of %s: %w", taskID, err)
	}

	for _, d := range dependents {
		if d.Status != model.StatusBlocked {
			continue
		}
		if err := e.store.SetTaskStatus(ctx, d.ID, model.StatusOpen); err != nil {
			return err
		}
		if err := e.trail.Record(ctx, d.ID, actor.ID, model.StatusOpen); err != nil {
			return err
		}
	}
	return nil
}
