package vote

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var voteColumns = []string{"id", "tenant_id", "request_id", "voter_id", "reaction_type", "created_at"}

// Repository handles vote persistence. The votes table carries a unique
// constraint on (request_id, voter_id, reaction_type); the repository leans
// on it so a voter can never hold two identical reactions.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new vote repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert adds a vote. When the voter already holds the same reaction on the
// request the insert is a no-op and Insert returns false.
func (r *Repository) Insert(ctx context.Context, vote *models.Vote) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "vote.Repository.Insert")
	defer span.End()

	if vote.ID == "" {
		vote.ID = uuid.New().String()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	sb := database.NewInsertBuilder().
		InsertInto("votes").
		Cols(voteColumns...).
		Values(vote.ID, vote.TenantID, vote.RequestID, vote.VoterID, vote.ReactionType, vote.CreatedAt).
		OnConflictDoNothing("request_id", "voter_id", "reaction_type")

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to insert vote")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert vote")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteByKey removes the voter's reaction of the given type from the
// request, reporting whether a vote existed.
func (r *Repository) DeleteByKey(ctx context.Context, tenantID string, requestID string, voterID string, reaction models.ReactionType) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "vote.Repository.DeleteByKey")
	defer span.End()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom("votes")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", requestID),
		sb.Equal("voter_id", voterID),
		sb.Equal("reaction_type", reaction),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete vote")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete vote")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CountByType returns the request's current upvote and like counts straight
// from the vote store.
func (r *Repository) CountByType(ctx context.Context, tenantID string, requestID string) (int, int, error) {
	ctx, span := tracing.StartSpan(ctx, "vote.Repository.CountByType")
	defer span.End()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE reaction_type = 'upvote') AS upvotes,
			COUNT(*) FILTER (WHERE reaction_type = 'like') AS likes
		FROM votes
		WHERE tenant_id = $1 AND request_id = $2`

	var upvotes, likes int
	row := r.db.QueryRowxContext(ctx, query, tenantID, requestID)
	if err := row.Scan(&upvotes, &likes); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count votes")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count votes")
	}

	return upvotes, likes, nil
}

// VoterReactions returns which reactions the voter currently holds on the
// request.
func (r *Repository) VoterReactions(ctx context.Context, tenantID string, requestID string, voterID string) ([]models.ReactionType, error) {
	ctx, span := tracing.StartSpan(ctx, "vote.Repository.VoterReactions")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("reaction_type")
	sb.From("votes")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", requestID),
		sb.Equal("voter_id", voterID),
	)

	query, args := sb.Build()
	var reactions []models.ReactionType
	if err := r.db.SelectContext(ctx, &reactions, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get voter reactions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get voter reactions")
	}

	return reactions, nil
}

// ListByRequest returns every vote on the request, oldest first. The merge
// engine walks this list when migrating votes.
func (r *Repository) ListByRequest(ctx context.Context, tenantID string, requestID string) ([]models.Vote, error) {
	ctx, span := tracing.StartSpan(ctx, "vote.Repository.ListByRequest")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(voteColumns...)
	sb.From("votes")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", requestID),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var votes []models.Vote
	if err := r.db.SelectContext(ctx, &votes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list votes")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list votes")
	}

	return votes, nil
}

// DeleteByRequest removes every vote on the request and returns the number
// removed.
func (r *Repository) DeleteByRequest(ctx context.Context, tenantID string, requestID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "vote.Repository.DeleteByRequest")
	defer span.End()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom("votes")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", requestID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete votes")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete votes")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
