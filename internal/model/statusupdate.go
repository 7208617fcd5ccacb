package model

import "time"

// TaskStatusUpdate is one entry in a task's audit trail: the status the
// task held from CreatedAt, attributed to the acting user. Records are
// append-only; they are never mutated, only created or soft-deleted en
// masse alongside the owning task.
type TaskStatusUpdate struct {
	ID        string     `json:"id" db:"id"`
	TaskID    string     `json:"task_id" db:"task_id"`
	UpdatedBy string     `json:"updated_by" db:"updated_by"`
	Status    TaskStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
