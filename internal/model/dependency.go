package model

import "time"

// DependencyEdge records that TaskID depends on PrerequisiteID: the
// prerequisite must reach completed before the task can leave blocked.
// The edge carries its own tombstone, independent of the tasks it
// connects, so a soft-deleted prerequisite can be excluded from blocking
// computations without destroying history.
type DependencyEdge struct {
	TaskID         string     `json:"task_id" db:"task_id"`
	PrerequisiteID string     `json:"prerequisite_id" db:"prerequisite_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsActive reports whether the edge itself is not tombstoned. Full edge
// activity additionally requires both endpoint tasks to be live; queries
// that need that join against the tasks table.
func (e *DependencyEdge) IsActive() bool {
	return e.DeletedAt == nil
}
