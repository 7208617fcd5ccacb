package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/task-tracker/internal/model"
)

// ErrNotFound is returned when a record is absent or hidden by its
// soft-delete tombstone. Callers cannot distinguish the two cases.
var ErrNotFound = errors.New("record not found")

// TaskFilter controls filtering and pagination for task listings.
type TaskFilter struct {
	Type     *model.TaskType
	Status   *model.TaskStatus
	Priority *model.TaskPriority
	DueDate  *time.Time // matches the calendar date
	Assignee *string

	// Viewer restricts results to tasks the given user created or is
	// assigned to. Nil means no restriction (admin view).
	Viewer *string

	SortBy   string // "created_at", "updated_at", "due_date", "priority", "title"
	SortDesc bool
	Limit    int
	Offset   int
}

// Store defines the persistence interface for tasks, dependency edges,
// audit records, and task children. All reads exclude soft-deleted rows
// unless an operation says otherwise.
type Store interface {
	// InTransaction runs fn against a transaction-scoped Store. The
	// transaction commits when fn returns nil and rolls back otherwise;
	// no partial mutation is ever observable.
	InTransaction(ctx context.Context, fn func(Store) error) error

	// === Tasks ===

	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	GetTrashedTask(ctx context.Context, id string) (*model.Task, error)
	SetTaskStatus(ctx context.Context, id string, status model.TaskStatus) error
	SetTaskDueDate(ctx context.Context, id string, due time.Time) error
	SetTaskAssignee(ctx context.Context, id, userID string) error
	SoftDeleteTask(ctx context.Context, id string) error
	RestoreTask(ctx context.Context, id string) error
	HardDeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	TasksChangedBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)

	// === Dependency edges ===

	InsertDependencyEdge(ctx context.Context, taskID, prereqID string) error
	DeleteDependencyEdge(ctx context.Context, taskID, prereqID string) error
	PrerequisiteIDs(ctx context.Context, taskID string) ([]string, error)
	Prerequisites(ctx context.Context, taskID string, activeOnly bool) ([]model.Task, error)
	Dependents(ctx context.Context, taskID string, activeOnly bool) ([]model.Task, error)
	SetEdgesActiveByPrerequisite(ctx context.Context, prereqID string, active bool) error
	DetachEdgesByPrerequisite(ctx context.Context, prereqID string) error
	CountIncompletePrerequisites(ctx context.Context, taskID string) (int, error)
	ListDependencyEdges(ctx context.Context) ([]model.DependencyEdge, error)

	// === Audit trail ===

	AppendStatusUpdate(ctx context.Context, u *model.TaskStatusUpdate) error
	ListStatusUpdates(ctx context.Context, taskID string) ([]model.TaskStatusUpdate, error)
	SoftDeleteStatusUpdates(ctx context.Context, taskID string) error
	RestoreStatusUpdates(ctx context.Context, taskID string) error
	PurgeStatusUpdates(ctx context.Context, taskID string) error

	// === Comments and attachments ===

	CreateComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, parent model.AttachTarget, parentID string) ([]model.Comment, error)
	CreateAttachment(ctx context.Context, a *model.Attachment) error
	ListAttachments(ctx context.Context, parent model.AttachTarget, parentID string) ([]model.Attachment, error)
}
