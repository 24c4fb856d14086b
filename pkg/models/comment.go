package models

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
)

// Comment belongs to exactly one request at a time. A comment-migrating
// merge repoints request_id wholesale; author, body, mentions and
// timestamps are untouched.
type Comment struct {
	ID         string                   `json:"id" db:"id"`
	TenantID   string                   `json:"tenant_id" db:"tenant_id"`
	RequestID  string                   `json:"request_id" db:"request_id"`
	AuthorID   string                   `json:"author_id" db:"author_id"`
	AuthorName string                   `json:"author_name" db:"author_name"`
	Body       string                   `json:"body" db:"body"`
	Mentions   database.JSONB[[]string] `json:"mentions" db:"mentions"`
	CreatedAt  time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at" db:"updated_at"`
}

// CreateCommentRequest is the payload for posting a comment.
type CreateCommentRequest struct {
	Body     string   `json:"body" validate:"required,max=10000"`
	Mentions []string `json:"mentions" validate:"omitempty,dive,required"`
}

// CommentListResponse is the response for listing a request's comments.
type CommentListResponse struct {
	Items      []Comment `json:"items"`
	TotalCount int       `json:"total_count"`
}
