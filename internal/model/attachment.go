package model

import "time"

// AttachTarget is the variant tag for entities that can carry comments
// and attachments. Only tasks do today; new targets extend this set
// explicitly rather than through open-ended dynamic typing.
type AttachTarget string

const (
	AttachTargetTask AttachTarget = "task"
)

// Comment is a polymorphic child of an attachable entity.
type Comment struct {
	ID         string       `json:"id" db:"id"`
	ParentType AttachTarget `json:"parent_type" db:"parent_type"`
	ParentID   string       `json:"parent_id" db:"parent_id"`
	Body       string       `json:"body" db:"body"`
	CommentBy  string       `json:"comment_by" db:"comment_by"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// Attachment is a stored file reference on an attachable entity. Only
// references that passed the virus scan are ever persisted.
type Attachment struct {
	ID         string       `json:"id" db:"id"`
	ParentType AttachTarget `json:"parent_type" db:"parent_type"`
	ParentID   string       `json:"parent_id" db:"parent_id"`
	FileName   string       `json:"file_name" db:"file_name"`
	FilePath   string       `json:"file_path" db:"file_path"`
	AttachedBy string       `json:"attached_by" db:"attached_by"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
