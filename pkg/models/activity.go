package models

import (
	"time"
)

// ActivityKind is the type of audited event.
type ActivityKind string

const (
	ActivityStatusChange  ActivityKind = "status_change"
	ActivityMerge         ActivityKind = "merge"
	ActivityMergeReceived ActivityKind = "merge_received"
)

// ActivityEntry is one append-only audit record on a request. The
// repository exposes no update or delete path.
type ActivityEntry struct {
	ID        string       `json:"id" db:"id"`
	TenantID  string       `json:"tenant_id" db:"tenant_id"`
	RequestID string       `json:"request_id" db:"request_id"`
	ActorID   string       `json:"actor_id" db:"actor_id"`
	Kind      ActivityKind `json:"kind" db:"kind"`
	OldValue  string       `json:"old_value,omitempty" db:"old_value"`
	NewValue  string       `json:"new_value,omitempty" db:"new_value"`
	Summary   string       `json:"summary,omitempty" db:"summary"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// ActivityListResponse is the response for listing a request's history,
// oldest first.
type ActivityListResponse struct {
	Items []ActivityEntry `json:"items"`
}
