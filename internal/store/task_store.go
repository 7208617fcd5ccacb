package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-tracker/internal/model"
)

// taskColumns is the canonical SELECT column list for task rows.
const taskColumns = `id, title, description, type, status, priority,
	due_date, created_by, assigned_to, created_at, updated_at, deleted_at`

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.StatusOpen
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, type, status, priority,
			due_date, created_by, assigned_to,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		t.ID, t.Title, t.Description, string(t.Type), string(t.Status),
		string(t.Priority), t.DueDate, t.CreatedBy, t.AssignedTo,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask updates the mutable fields of a live task by ID.
// Status is not touched here; it has dedicated setters.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	t.UpdatedAt = time.Now().UTC()

	result, err := s.q.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, type = ?, priority = ?,
			due_date = ?, assigned_to = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		t.Title, t.Description, string(t.Type), string(t.Priority),
		t.DueDate, t.AssignedTo, t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTask retrieves a single live task by ID. Soft-deleted tasks are
// indistinguishable from absent ones.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.getTaskWhere(ctx, id, "deleted_at IS NULL")
}

// GetTrashedTask retrieves a single soft-deleted task by ID.
func (s *SQLiteStore) GetTrashedTask(ctx context.Context, id string) (*model.Task, error) {
	return s.getTaskWhere(ctx, id, "deleted_at IS NOT NULL")
}

func (s *SQLiteStore) getTaskWhere(ctx context.Context, id, cond string) (*model.Task, error) {
	row := s.q.QueryRowxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND "+cond, id)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &t, nil
}

// SetTaskStatus updates the status of a task, deleted or not. Status
// recomputation during delete/restore cascades must reach tombstoned
// rows, so no tombstone filter is applied here.
func (s *SQLiteStore) SetTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	result, err := s.q.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting status of task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTaskDueDate overwrites the due date of a live task.
func (s *SQLiteStore) SetTaskDueDate(ctx context.Context, id string, due time.Time) error {
	result, err := s.q.ExecContext(ctx,
		"UPDATE tasks SET due_date = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		due.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting due date of task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTaskAssignee assigns a live task to a user.
func (s *SQLiteStore) SetTaskAssignee(ctx context.Context, id, userID string) error {
	result, err := s.q.ExecContext(ctx,
		"UPDATE tasks SET assigned_to = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		userID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("assigning task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteTask tombstones a live task.
func (s *SQLiteStore) SoftDeleteTask(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result, err := s.q.ExecContext(ctx,
		"UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreTask clears the tombstone of a soft-deleted task.
func (s *SQLiteStore) RestoreTask(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx,
		"UPDATE tasks SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("restoring task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDeleteTask permanently removes a task row.
func (s *SQLiteStore) HardDeleteTask(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("hard-deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTasks retrieves live tasks matching the provided filter.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}

	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(*filter.Priority))
	}
	if filter.DueDate != nil {
		day := filter.DueDate.UTC().Truncate(24 * time.Hour)
		conditions = append(conditions, "due_date >= ? AND due_date < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	if filter.Assignee != nil {
		conditions = append(conditions, "assigned_to = ?")
		args = append(args, *filter.Assignee)
	}
	if filter.Viewer != nil {
		conditions = append(conditions, "(created_by = ? OR assigned_to = ?)")
		args = append(args, *filter.Viewer, *filter.Viewer)
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " +
		strings.Join(conditions, " AND ")

	// Determine sort column.
	sortBy := "created_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"priority":   true,
			"due_date":   true,
			"created_at": true,
			"updated_at": true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return s.queryTasks(ctx, query, args...)
}

// TasksChangedBetween retrieves live tasks created or updated within
// [from, to). Used to build the daily report.
func (s *SQLiteStore) TasksChangedBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE deleted_at IS NULL
		  AND ((created_at >= ? AND created_at < ?)
		    OR (updated_at >= ? AND updated_at < ?))
		ORDER BY updated_at`,
		from.UTC(), to.UTC(), from.UTC(), to.UTC(),
	)
}

// queryTasks runs a task SELECT and scans all rows.
func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := s.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// scanTask scans a task row from any row source.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		t              model.Task
		typ, st, prio  string
		dueDate        *time.Time
		assignedTo     *string
		deletedAt      *time.Time
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &typ, &st, &prio,
		&dueDate, &t.CreatedBy, &assignedTo,
		&t.CreatedAt, &t.UpdatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	t.Type = model.TaskType(typ)
	t.Status = model.TaskStatus(st)
	t.Priority = model.TaskPriority(prio)
	t.DueDate = dueDate
	t.AssignedTo = assignedTo
	t.DeletedAt = deletedAt

	return t, nil
}
