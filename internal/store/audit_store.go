package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-tracker/internal/model"
)

// AppendStatusUpdate inserts a new audit record. Records are append-only;
// nothing in this store mutates one after creation.
func (s *SQLiteStore) AppendStatusUpdate(ctx context.Context, u *model.TaskStatusUpdate) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO task_status_updates (id, task_id, updated_by, status, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, NULL)`,
		u.ID, u.TaskID, u.UpdatedBy, string(u.Status), u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending status update for task %s: %w", u.TaskID, err)
	}
	return nil
}

// ListStatusUpdates returns the task's active audit records in append order.
func (s *SQLiteStore) ListStatusUpdates(ctx context.Context, taskID string) ([]model.TaskStatusUpdate, error) {
	rows, err := s.q.QueryxContext(ctx, `
		SELECT id, task_id, updated_by, status, created_at, deleted_at
		FROM task_status_updates
		WHERE task_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status updates for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var updates []model.TaskStatusUpdate
	for rows.Next() {
		var (
			u  model.TaskStatusUpdate
			st string
		)
		if err := rows.Scan(&u.ID, &u.TaskID, &u.UpdatedBy, &st, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning status update row: %w", err)
		}
		u.Status = model.TaskStatus(st)
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// SoftDeleteStatusUpdates tombstones all of a task's audit records,
// following the owning task into the trash.
func (s *SQLiteStore) SoftDeleteStatusUpdates(ctx context.Context, taskID string) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE task_status_updates SET deleted_at = ? WHERE task_id = ? AND deleted_at IS NULL",
		time.Now().UTC(), taskID,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting status updates for task %s: %w", taskID, err)
	}
	return nil
}

// RestoreStatusUpdates clears the tombstones on a task's audit records.
func (s *SQLiteStore) RestoreStatusUpdates(ctx context.Context, taskID string) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE task_status_updates SET deleted_at = NULL WHERE task_id = ?",
		taskID,
	)
	if err != nil {
		return fmt.Errorf("restoring status updates for task %s: %w", taskID, err)
	}
	return nil
}

// PurgeStatusUpdates hard-deletes all of a task's audit records.
// Irreversible; used by force delete.
func (s *SQLiteStore) PurgeStatusUpdates(ctx context.Context, taskID string) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM task_status_updates WHERE task_id = ?", taskID,
	)
	if err != nil {
		return fmt.Errorf("purging status updates for task %s: %w", taskID, err)
	}
	return nil
}
