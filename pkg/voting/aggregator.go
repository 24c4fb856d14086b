// Package voting implements the vote toggle. A voter holds at most one vote
// per reaction type on a request; toggling removes the vote when present and
// adds it when absent, all inside one transaction against the locked
// request row.
package voting

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Aggregator toggles votes and keeps the request's cached counters in sync
// with the vote store.
type Aggregator struct {
	db       database.DB
	requests repositories.RequestRepo
	votes    repositories.VoteRepo
	logger   ectologger.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator(db database.DB, requests repositories.RequestRepo, votes repositories.VoteRepo, logger ectologger.Logger) *Aggregator {
	return &Aggregator{
		db:       db,
		requests: requests,
		votes:    votes,
		logger:   logger,
	}
}

// ToggleVote flips the voter's reaction on the request and returns the
// resulting counts plus the voter's current reaction set. The whole flip
// happens inside one transaction with the request row locked, so two
// concurrent toggles on the same request serialize and neither a vote nor a
// counter update is lost.
func (a *Aggregator) ToggleVote(ctx context.Context, tenantID string, requestID string, voterID string, reaction models.ReactionType) (*models.VoteAggregate, error) {
	ctx, span := tracing.StartSpan(ctx, "voting.Aggregator.ToggleVote")
	defer span.End()

	start := time.Now()
	log := a.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id": requestID,
		"voter_id":   voterID,
		"reaction":   reaction,
	})

	ctxTx, tx, err := a.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctxTx)

	request, err := a.requests.GetForUpdate(ctxTx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("request %s not found", requestID))
	}

	removed, err := a.votes.DeleteByKey(ctxTx, tenantID, requestID, voterID, reaction)
	if err != nil {
		return nil, err
	}

	direction := "removed"
	if !removed {
		direction = "added"
		if _, err := a.votes.Insert(ctxTx, &models.Vote{
			TenantID:     tenantID,
			RequestID:    requestID,
			VoterID:      voterID,
			ReactionType: reaction,
		}); err != nil {
			return nil, err
		}
	}

	upvotes, likes, err := a.requests.RefreshVoteCounts(ctxTx, tenantID, requestID)
	if err != nil {
		return nil, err
	}

	reactions, err := a.votes.VoterReactions(ctxTx, tenantID, requestID, voterID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		log.WithError(err).Error("Failed to commit vote toggle")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to toggle vote")
	}

	metrics.RecordToggle(tenantID, string(reaction), direction, time.Since(start).Seconds())
	log.WithFields(map[string]any{"direction": direction, "upvotes": upvotes, "likes": likes}).Info("Toggled vote")

	return &models.VoteAggregate{
		RequestID:      requestID,
		Upvotes:        upvotes,
		Likes:          likes,
		VoterReactions: reactions,
	}, nil
}
