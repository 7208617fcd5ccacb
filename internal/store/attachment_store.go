package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/task-tracker/internal/model"
)

// CreateComment inserts a new comment on an attachable entity.
func (s *SQLiteStore) CreateComment(ctx context.Context, c *model.Comment) error {
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("comment body must not be empty")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO comments (id, parent_type, parent_id, body, comment_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.ParentType), c.ParentID, c.Body, c.CommentBy, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating comment: %w", err)
	}
	return nil
}

// ListComments returns all comments on an entity in creation order.
func (s *SQLiteStore) ListComments(ctx context.Context, parent model.AttachTarget, parentID string) ([]model.Comment, error) {
	rows, err := s.q.QueryxContext(ctx, `
		SELECT id, parent_type, parent_id, body, comment_by, created_at
		FROM comments
		WHERE parent_type = ? AND parent_id = ?
		ORDER BY created_at, id`,
		string(parent), parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments for %s %s: %w", parent, parentID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var (
			c  model.Comment
			pt string
		)
		if err := rows.Scan(&c.ID, &pt, &c.ParentID, &c.Body, &c.CommentBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}
		c.ParentType = model.AttachTarget(pt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateAttachment inserts a new attachment reference.
func (s *SQLiteStore) CreateAttachment(ctx context.Context, a *model.Attachment) error {
	if strings.TrimSpace(a.FileName) == "" {
		return fmt.Errorf("attachment file name must not be empty")
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO attachments (id, parent_type, parent_id, file_name, file_path, attached_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.ParentType), a.ParentID, a.FileName, a.FilePath, a.AttachedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating attachment: %w", err)
	}
	return nil
}

// ListAttachments returns all attachment references on an entity.
func (s *SQLiteStore) ListAttachments(ctx context.Context, parent model.AttachTarget, parentID string) ([]model.Attachment, error) {
	rows, err := s.q.QueryxContext(ctx, `
		SELECT id, parent_type, parent_id, file_name, file_path, attached_by, created_at
		FROM attachments
		WHERE parent_type = ? AND parent_id = ?
		ORDER BY created_at, id`,
		string(parent), parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attachments for %s %s: %w", parent, parentID, err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var (
			a  model.Attachment
			pt string
		)
		if err := rows.Scan(&a.ID, &pt, &a.ParentID, &a.FileName, &a.FilePath, &a.AttachedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}
		a.ParentType = model.AttachTarget(pt)
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
