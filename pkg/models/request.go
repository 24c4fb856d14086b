package models

import (
	"time"
)

// Status is the triage state of a feature request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
	StatusDuplicate  Status = "duplicate"
	StatusArchived   Status = "archived"
)

// AllStatuses lists every valid status.
var AllStatuses = []Status{
	StatusPending,
	StatusBacklog,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusDuplicate,
	StatusArchived,
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsOpen reports whether a request in this status is still actionable.
// Open requests are the ones offered as duplicate suggestions.
func (s Status) IsOpen() bool {
	switch s {
	case StatusPending, StatusBacklog, StatusInProgress:
		return true
	}
	return false
}

// Request is a feature request being triaged.
// merged_into_id is set if and only if status is duplicate; the merge
// transaction is the only writer of either.
type Request struct {
	ID            string     `json:"id" db:"id"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Category      string     `json:"category" db:"category"`
	Priority      string     `json:"priority" db:"priority"`
	Team          string     `json:"team" db:"team"`
	Region        string     `json:"region" db:"region"`
	Status        Status     `json:"status" db:"status"`
	Upvotes       int        `json:"upvotes" db:"upvotes"`
	Likes         int        `json:"likes" db:"likes"`
	CreatedBy     string     `json:"created_by" db:"created_by"`
	CreatedByName string     `json:"created_by_name" db:"created_by_name"`
	MergedIntoID  *string    `json:"merged_into_id,omitempty" db:"merged_into_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// CreateRequestRequest is the payload for submitting a new feature request.
type CreateRequestRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=10000"`
	Category    string `json:"category" validate:"required,max=100"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Team        string `json:"team" validate:"omitempty,max=100"`
	Region      string `json:"region" validate:"omitempty,max=100"`
}

// CreateRequestResponse returns the created request along with open requests
// that look like duplicates of it.
type CreateRequestResponse struct {
	Request Request          `json:"request"`
	Similar []SimilarRequest `json:"similar,omitempty"`
}

// UpdateStatusRequest is the payload for a workflow transition.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	Status   Status
	Category string
	Page     int
	PageSize int
}

// RequestListResponse is the response for listing requests.
type RequestListResponse struct {
	Items      []Request `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}

// SimilarRequest is one ranked similarity hit.
type SimilarRequest struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Status    Status    `json:"status"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
