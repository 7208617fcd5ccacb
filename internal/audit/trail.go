// Package audit records the append-only status history of tasks.
package audit

import (
	"context"

	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
)

// Trail writes and reads a task's status history. Every status change a
// task undergoes produces exactly one record, attributed to the acting
// user; records are never mutated after creation.
type Trail struct {
	store store.Store
}

// NewTrail creates a Trail over the given store.
func NewTrail(st store.Store) *Trail {
	return &Trail{store: st}
}

// Record appends one audit record for a status the task now holds.
func (t *Trail) Record(ctx context.Context, taskID, actorID string, status model.TaskStatus) error {
	return t.store.AppendStatusUpdate(ctx, &model.TaskStatusUpdate{
		TaskID:    taskID,
		UpdatedBy: actorID,
		Status:    status,
	})
}

// History returns the task's active records in append order.
func (t *Trail) History(ctx context.Context, taskID string) ([]model.TaskStatusUpdate, error) {
	return t.store.ListStatusUpdates(ctx, taskID)
}

// FollowIntoTrash tombstones the task's records alongside the task.
func (t *Trail) FollowIntoTrash(ctx context.Context, taskID string) error {
	return t.store.SoftDeleteStatusUpdates(ctx, taskID)
}

// FollowOutOfTrash restores the task's records alongside the task.
func (t *Trail) FollowOutOfTrash(ctx context.Context, taskID string) error {
	return t.store.RestoreStatusUpdates(ctx, taskID)
}

// Purge permanently removes the task's records. Irreversible.
func (t *Trail) Purge(ctx context.Context, taskID string) error {
	return t.store.PurgeStatusUpdates(ctx, taskID)
}
