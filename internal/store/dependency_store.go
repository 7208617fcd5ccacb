package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/task-tracker/internal/model"
)

// InsertDependencyEdge records that taskID depends on prereqID. The
// insert is idempotent: a duplicate edge is a no-op, and re-inserting a
// tombstoned edge revives it.
func (s *SQLiteStore) InsertDependencyEdge(ctx context.Context, taskID, prereqID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO task_dependencies (task_id, prerequisite_id, created_at, deleted_at)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT(task_id, prerequisite_id) DO UPDATE SET deleted_at = NULL`,
		taskID, prereqID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting dependency %s -> %s: %w", taskID, prereqID, err)
	}
	return nil
}

// DeleteDependencyEdge hard-removes the edge. Used by set reconciliation,
// which destroys the relation rather than tombstoning it.
func (s *SQLiteStore) DeleteDependencyEdge(ctx context.Context, taskID, prereqID string) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM task_dependencies WHERE task_id = ? AND prerequisite_id = ?",
		taskID, prereqID,
	)
	if err != nil {
		return fmt.Errorf("deleting dependency %s -> %s: %w", taskID, prereqID, err)
	}
	return nil
}

// PrerequisiteIDs returns every prerequisite id recorded for the task,
// tombstoned edges included. Reconciliation needs the full row set to
// avoid duplicate inserts.
func (s *SQLiteStore) PrerequisiteIDs(ctx context.Context, taskID string) ([]string, error) {
	rows, err := s.q.QueryxContext(ctx,
		"SELECT prerequisite_id FROM task_dependencies WHERE task_id = ? ORDER BY prerequisite_id",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying prerequisite ids for %s: %w", taskID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning prerequisite id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Prerequisites returns the tasks the given task depends on. With
// activeOnly set, only active edges count: the edge itself and both
// endpoint tasks must not be tombstoned.
func (s *SQLiteStore) Prerequisites(ctx context.Context, taskID string, activeOnly bool) ([]model.Task, error) {
	query := `
		SELECT ` + prefixedTaskColumns("p") + `
		FROM task_dependencies d
		INNER JOIN tasks p ON p.id = d.prerequisite_id
		WHERE d.task_id = ?`
	if activeOnly {
		query += ` AND d.deleted_at IS NULL AND p.deleted_at IS NULL
			AND EXISTS (SELECT 1 FROM tasks t WHERE t.id = d.task_id AND t.deleted_at IS NULL)`
	}
	query += " ORDER BY p.created_at"

	return s.queryTasks(ctx, query, taskID)
}

// Dependents returns the tasks that depend on the given task. With
// activeOnly set, only active edges count.
func (s *SQLiteStore) Dependents(ctx context.Context, taskID string, activeOnly bool) ([]model.Task, error) {
	query := `
		SELECT ` + prefixedTaskColumns("t") + `
		FROM task_dependencies d
		INNER JOIN tasks t ON t.id = d.task_id
		WHERE d.prerequisite_id = ?`
	if activeOnly {
		query += ` AND d.deleted_at IS NULL AND t.deleted_at IS NULL
			AND EXISTS (SELECT 1 FROM tasks p WHERE p.id = d.prerequisite_id AND p.deleted_at IS NULL)`
	}
	query += " ORDER BY t.created_at"

	return s.queryTasks(ctx, query, taskID)
}

// SetEdgesActiveByPrerequisite toggles the tombstone on every edge whose
// prerequisite is prereqID. Used when the prerequisite task itself is
// soft-deleted or restored, to exclude or include it in its dependents'
// blocking computation without destroying history.
func (s *SQLiteStore) SetEdgesActiveByPrerequisite(ctx context.Context, prereqID string, active bool) error {
	var deletedAt *time.Time
	if !active {
		now := time.Now().UTC()
		deletedAt = &now
	}

	_, err := s.q.ExecContext(ctx,
		"UPDATE task_dependencies SET deleted_at = ? WHERE prerequisite_id = ?",
		deletedAt, prereqID,
	)
	if err != nil {
		return fmt.Errorf("toggling edges of prerequisite %s: %w", prereqID, err)
	}
	return nil
}

// DetachEdgesByPrerequisite hard-removes every edge whose prerequisite is
// prereqID. Irreversible; used by force delete.
func (s *SQLiteStore) DetachEdgesByPrerequisite(ctx context.Context, prereqID string) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM task_dependencies WHERE prerequisite_id = ?", prereqID,
	)
	if err != nil {
		return fmt.Errorf("detaching edges of prerequisite %s: %w", prereqID, err)
	}
	return nil
}

// CountIncompletePrerequisites counts active edges whose prerequisite has
// not reached completed. A task is blocked exactly while this is nonzero.
func (s *SQLiteStore) CountIncompletePrerequisites(ctx context.Context, taskID string) (int, error) {
	var count int
	err := s.q.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM task_dependencies d
		INNER JOIN tasks p ON p.id = d.prerequisite_id
		WHERE d.task_id = ?
		  AND d.deleted_at IS NULL
		  AND p.deleted_at IS NULL
		  AND p.status != ?`,
		taskID, string(model.StatusCompleted),
	)
	if err != nil {
		return 0, fmt.Errorf("counting incomplete prerequisites of %s: %w", taskID, err)
	}
	return count, nil
}

// ListDependencyEdges returns every edge that is not tombstoned,
// regardless of endpoint task state. Used for cycle detection, which
// must see the whole relation.
func (s *SQLiteStore) ListDependencyEdges(ctx context.Context) ([]model.DependencyEdge, error) {
	rows, err := s.q.QueryxContext(ctx, `
		SELECT task_id, prerequisite_id, created_at, deleted_at
		FROM task_dependencies
		WHERE deleted_at IS NULL
		ORDER BY task_id, prerequisite_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dependency edges: %w", err)
	}
	defer rows.Close()

	var edges []model.DependencyEdge
	for rows.Next() {
		var e model.DependencyEdge
		if err := rows.Scan(&e.TaskID, &e.PrerequisiteID, &e.CreatedAt, &e.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning dependency edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// prefixedTaskColumns qualifies the task column list with a table alias.
func prefixedTaskColumns(alias string) string {
	cols := []string{
		"id", "title", "description", "type", "status", "priority",
		"due_date", "created_by", "assigned_to", "created_at", "updated_at", "deleted_at",
	}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}
