package model

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a task. Status is derived and
// managed by the status engine; callers never set it directly.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// ParseStatus validates a raw status value against the closed set.
// Values are case-sensitive; no synonyms are accepted.
func ParseStatus(raw string) (TaskStatus, error) {
	switch s := TaskStatus(raw); s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusBlocked:
		return s, nil
	}
	return "", fmt.Errorf("invalid task status %q", raw)
}

// TaskType categorizes the kind of work a task represents.
type TaskType string

const (
	TypeBug         TaskType = "bug"
	TypeFeature     TaskType = "feature"
	TypeImprovement TaskType = "improvement"
)

// ParseType validates a raw type value against the closed set.
func ParseType(raw string) (TaskType, error) {
	switch t := TaskType(raw); t {
	case TypeBug, TypeFeature, TypeImprovement:
		return t, nil
	}
	return "", fmt.Errorf("invalid task type %q", raw)
}

// TaskPriority is the urgency level of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ParsePriority validates a raw priority value against the closed set.
func ParsePriority(raw string) (TaskPriority, error) {
	switch p := TaskPriority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("invalid task priority %q", raw)
}

// Task is a tracked work item. A task may depend on other tasks; its
// status is blocked exactly while at least one active dependency edge
// points at a prerequisite that is not completed.
type Task struct {
	// ID is the unique, immutable identifier.
	ID string `json:"id" db:"id"`

	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Type        TaskType     `json:"type" db:"type"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`

	// DueDate is optional. By convention it is overwritten with the
	// completion date when the task transitions to completed.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// CreatedBy is the id of the user who created the task.
	CreatedBy string `json:"created_by" db:"created_by"`

	// AssignedTo is the id of the assignee, if any.
	AssignedTo *string `json:"assigned_to,omitempty" db:"assigned_to"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// DeletedAt is the soft-delete tombstone. A tombstoned task is
	// hidden from normal queries but recoverable until force-deleted.
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// Prerequisites is populated by queries that load the dependency
	// edges; it is never persisted from here.
	Prerequisites []Task `json:"prerequisites,omitempty" db:"-"`
}

// IsDeleted reports whether the task is currently tombstoned.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}
