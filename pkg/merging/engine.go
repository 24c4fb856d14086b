// Package merging folds duplicate feature requests into a canonical target.
// A merge is all-or-nothing: vote migration, comment repointing, counter
// refresh, the duplicate marker and both activity entries share one
// transaction.
package merging

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
	cloverrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Engine performs duplicate merges.
type Engine struct {
	db       database.DB
	requests repositories.RequestRepo
	votes    repositories.VoteRepo
	comments repositories.CommentRepo
	activity repositories.ActivityRepo
	logger   ectologger.Logger
}

// NewEngine creates a new merge Engine
func NewEngine(
	db database.DB,
	requests repositories.RequestRepo,
	votes repositories.VoteRepo,
	comments repositories.CommentRepo,
	activity repositories.ActivityRepo,
	logger ectologger.Logger,
) *Engine {
	return &Engine{
		db:       db,
		requests: requests,
		votes:    votes,
		comments: comments,
		activity: activity,
		logger:   logger,
	}
}

// Merge folds the source request into the target. Votes are migrated per
// key; a voter who already reacted the same way on the target keeps a
// single vote and the source copy is discarded. Comments move wholesale
// when requested. The source ends up status=duplicate pointing at the
// target, with zeroed counters and its vote rows gone. Any failure rolls
// the whole merge back.
func (e *Engine) Merge(ctx context.Context, tenantID string, sourceID string, targetID string, actorID string, opts models.MergeOptions) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"source_id": sourceID,
		"target_id": targetID,
	})

	if sourceID == targetID {
		return nil, cloverrors.NewMergeError(cloverrors.ReasonSelfMerge, "a request cannot be merged into itself").
			AddSource(sourceID).AddTarget(targetID)
	}

	ctxTx, tx, err := e.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctxTx)

	source, target, err := e.lockPair(ctxTx, tenantID, sourceID, targetID)
	if err != nil {
		metrics.RecordMerge(tenantID, "rejected", time.Since(start).Seconds())
		return nil, err
	}

	result, err := e.apply(ctxTx, source, target, actorID, opts)
	if err != nil {
		log.WithError(err).Error("Merge failed, rolling back")
		metrics.RecordMerge(tenantID, "failed", time.Since(start).Seconds())
		return nil, cloverrors.NewMergeErrorf(cloverrors.ReasonMergeFailed, "merge of %s into %s failed", sourceID, targetID).
			AddSource(sourceID).AddTarget(targetID)
	}

	if err := tx.Commit(ctxTx); err != nil {
		log.WithError(err).Error("Failed to commit merge")
		metrics.RecordMerge(tenantID, "failed", time.Since(start).Seconds())
		return nil, cloverrors.NewMergeErrorf(cloverrors.ReasonMergeFailed, "merge of %s into %s failed", sourceID, targetID).
			AddSource(sourceID).AddTarget(targetID)
	}

	metrics.RecordMerge(tenantID, "merged", time.Since(start).Seconds())
	metrics.RecordMergedVotes(tenantID, result.VotesMigrated, result.VotesDiscarded)
	log.WithFields(map[string]any{
		"votes_migrated":    result.VotesMigrated,
		"votes_discarded":   result.VotesDiscarded,
		"comments_migrated": result.CommentsMigrated,
	}).Info("Merged request")

	return result, nil
}

// lockPair locks both request rows in id order so two opposing merges can
// never deadlock, then validates merge eligibility.
func (e *Engine) lockPair(ctx context.Context, tenantID string, sourceID string, targetID string) (*models.Request, *models.Request, error) {
	firstID, secondID := sourceID, targetID
	if targetID < sourceID {
		firstID, secondID = targetID, sourceID
	}

	locked := make(map[string]*models.Request, 2)
	for _, id := range []string{firstID, secondID} {
		request, err := e.requests.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = request
	}

	// A request that does not exist is a plain not-found, not a merge
	// eligibility failure.
	source, target := locked[sourceID], locked[targetID]
	if source == nil {
		return nil, nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("source request %s not found", sourceID))
	}
	if target == nil {
		return nil, nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("target request %s not found", targetID))
	}
	if source.Status == models.StatusDuplicate || source.MergedIntoID != nil {
		return nil, nil, cloverrors.NewMergeErrorf(cloverrors.ReasonInvalidSource, "source request %s is already merged", sourceID).
			AddSource(sourceID).AddTarget(targetID)
	}
	if target.Status == models.StatusDuplicate || target.MergedIntoID != nil {
		return nil, nil, cloverrors.NewMergeErrorf(cloverrors.ReasonInvalidTarget, "target request %s is itself a duplicate; merge into its target instead", targetID).
			AddSource(sourceID).AddTarget(targetID)
	}

	return source, target, nil
}

// apply runs the merge body inside the already-open transaction.
func (e *Engine) apply(ctx context.Context, source *models.Request, target *models.Request, actorID string, opts models.MergeOptions) (*models.MergeResult, error) {
	tenantID := source.TenantID
	result := &models.MergeResult{
		SourceID: source.ID,
		TargetID: target.ID,
	}

	sourceVotes, err := e.votes.ListByRequest(ctx, tenantID, source.ID)
	if err != nil {
		return nil, err
	}

	if opts.MigrateVotes {
		// Per-key inserts with conflict suppression: a voter who already
		// holds the same reaction on the target keeps one vote, not two.
		for _, vote := range sourceVotes {
			inserted, err := e.votes.Insert(ctx, &models.Vote{
				TenantID:     tenantID,
				RequestID:    target.ID,
				VoterID:      vote.VoterID,
				ReactionType: vote.ReactionType,
				CreatedAt:    vote.CreatedAt,
			})
			if err != nil {
				return nil, err
			}
			if inserted {
				result.VotesMigrated++
			} else {
				result.VotesDiscarded++
			}
		}
	} else {
		result.VotesDiscarded = len(sourceVotes)
	}

	if _, err := e.votes.DeleteByRequest(ctx, tenantID, source.ID); err != nil {
		return nil, err
	}

	if opts.MigrateComments {
		moved, err := e.comments.Reassign(ctx, tenantID, source.ID, target.ID)
		if err != nil {
			return nil, err
		}
		result.CommentsMigrated = int(moved)
	}

	if _, _, err := e.requests.RefreshVoteCounts(ctx, tenantID, source.ID); err != nil {
		return nil, err
	}
	upvotes, likes, err := e.requests.RefreshVoteCounts(ctx, tenantID, target.ID)
	if err != nil {
		return nil, err
	}
	result.TargetUpvotes = upvotes
	result.TargetLikes = likes

	if err := e.requests.UpdateStatus(ctx, tenantID, source.ID, models.StatusDuplicate, &target.ID); err != nil {
		return nil, err
	}

	if err := e.activity.Append(ctx, &models.ActivityEntry{
		TenantID:  tenantID,
		RequestID: source.ID,
		ActorID:   actorID,
		Kind:      models.ActivityMerge,
		OldValue:  string(source.Status),
		NewValue:  string(models.StatusDuplicate),
		Summary:   fmt.Sprintf("merged into %s (%q)", target.ID, target.Title),
	}); err != nil {
		return nil, err
	}
	if err := e.activity.Append(ctx, &models.ActivityEntry{
		TenantID:  tenantID,
		RequestID: target.ID,
		ActorID:   actorID,
		Kind:      models.ActivityMergeReceived,
		Summary:   fmt.Sprintf("absorbed %s (%q): %d votes migrated, %d discarded, %d comments moved", source.ID, source.Title, result.VotesMigrated, result.VotesDiscarded, result.CommentsMigrated),
	}); err != nil {
		return nil, err
	}

	return result, nil
}
