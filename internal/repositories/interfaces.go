// Package repositories defines the persistence interfaces consumed by the
// voting, workflow and merging engines. Concrete sqlx implementations live
// in the subpackages; tests substitute in-memory fakes.
package repositories

import (
	"context"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SearchOptions narrows a title search.
type SearchOptions struct {
	// OpenOnly restricts hits to requests still in an open status.
	OpenOnly bool
	// ExcludeID drops one request from the results (merge-target search
	// excludes the request being merged).
	ExcludeID string
	// IncludeAuthor also matches the author display name.
	IncludeAuthor bool
}

// RequestRepo persists feature requests.
type RequestRepo interface {
	Create(ctx context.Context, request *models.Request) (*models.Request, error)
	Get(ctx context.Context, tenantID, id string) (*models.Request, error)
	// GetForUpdate locks the request row for the remainder of the
	// transaction carried in ctx.
	GetForUpdate(ctx context.Context, tenantID, id string) (*models.Request, error)
	List(ctx context.Context, tenantID string, filter models.RequestFilter) ([]models.Request, int, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status models.Status, mergedIntoID *string) error
	// RefreshVoteCounts recomputes the cached counters from the vote store
	// and returns the new values.
	RefreshVoteCounts(ctx context.Context, tenantID, id string) (int, int, error)
	SearchByTitle(ctx context.Context, tenantID, query string, limit int, opts SearchOptions) ([]models.Request, error)
}

// VoteRepo persists vote rows keyed by (request_id, voter_id, reaction_type).
type VoteRepo interface {
	// Insert adds a vote unless the key already exists; it reports whether a
	// row was written.
	Insert(ctx context.Context, vote *models.Vote) (bool, error)
	// DeleteByKey removes the vote with the exact key; it reports whether a
	// row existed.
	DeleteByKey(ctx context.Context, tenantID, requestID, voterID string, reaction models.ReactionType) (bool, error)
	CountByType(ctx context.Context, tenantID, requestID string) (int, int, error)
	VoterReactions(ctx context.Context, tenantID, requestID, voterID string) ([]models.ReactionType, error)
	ListByRequest(ctx context.Context, tenantID, requestID string) ([]models.Vote, error)
	DeleteByRequest(ctx context.Context, tenantID, requestID string) (int64, error)
}

// CommentRepo persists comments.
type CommentRepo interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListByRequest(ctx context.Context, tenantID, requestID string) ([]models.Comment, error)
	// Reassign repoints every comment from one request to another and
	// returns the number moved.
	Reassign(ctx context.Context, tenantID, fromRequestID, toRequestID string) (int64, error)
}

// ActivityRepo is append-only; there is intentionally no update or delete.
type ActivityRepo interface {
	Append(ctx context.Context, entry *models.ActivityEntry) error
	ListByRequest(ctx context.Context, tenantID, requestID string) ([]models.ActivityEntry, error)
}
