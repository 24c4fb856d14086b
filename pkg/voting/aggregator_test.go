package voting

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/repositories/repositorytest"
	"github.com/Ramsey-B/clover/pkg/models"
)

func newAggregator(store *repositorytest.Store) (*Aggregator, *repositorytest.FakeDB) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := &repositorytest.FakeDB{}
	return NewAggregator(db, store.Requests(), store.Votes(), logger), db
}

func TestToggleVote_AddThenRemove(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", CreatedBy: "u1"})
	aggregator, db := newAggregator(store)

	aggregate, err := aggregator.ToggleVote(context.Background(), "t1", request.ID, "voter-1", models.ReactionUpvote)
	require.NoError(t, err)
	assert.Equal(t, 1, aggregate.Upvotes)
	assert.Equal(t, 0, aggregate.Likes)
	assert.True(t, aggregate.HasReaction(models.ReactionUpvote))
	assert.True(t, db.LastTx().Committed)

	aggregate, err = aggregator.ToggleVote(context.Background(), "t1", request.ID, "voter-1", models.ReactionUpvote)
	require.NoError(t, err)
	assert.Equal(t, 0, aggregate.Upvotes)
	assert.False(t, aggregate.HasReaction(models.ReactionUpvote))
	assert.Equal(t, 0, store.VoteCount(request.ID))
}

func TestToggleVote_ReactionTypesAreIndependent(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "SSO support", CreatedBy: "u1"})
	aggregator, _ := newAggregator(store)

	_, err := aggregator.ToggleVote(context.Background(), "t1", request.ID, "voter-1", models.ReactionUpvote)
	require.NoError(t, err)
	aggregate, err := aggregator.ToggleVote(context.Background(), "t1", request.ID, "voter-1", models.ReactionLike)
	require.NoError(t, err)

	assert.Equal(t, 1, aggregate.Upvotes)
	assert.Equal(t, 1, aggregate.Likes)
	assert.ElementsMatch(t, []models.ReactionType{models.ReactionUpvote, models.ReactionLike}, aggregate.VoterReactions)

	// Removing the like leaves the upvote untouched.
	aggregate, err = aggregator.ToggleVote(context.Background(), "t1", request.ID, "voter-1", models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, aggregate.Upvotes)
	assert.Equal(t, 0, aggregate.Likes)
}

func TestToggleVote_CountsAllVoters(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "Bulk export", CreatedBy: "u1"})
	aggregator, _ := newAggregator(store)

	for _, voter := range []string{"a", "b", "c"} {
		_, err := aggregator.ToggleVote(context.Background(), "t1", request.ID, voter, models.ReactionUpvote)
		require.NoError(t, err)
	}

	// One voter flips back; the others keep their votes.
	aggregate, err := aggregator.ToggleVote(context.Background(), "t1", request.ID, "b", models.ReactionUpvote)
	require.NoError(t, err)
	assert.Equal(t, 2, aggregate.Upvotes)
	assert.Empty(t, aggregate.VoterReactions)
}

func TestToggleVote_RequestNotFound(t *testing.T) {
	store := repositorytest.NewStore()
	aggregator, db := newAggregator(store)

	_, err := aggregator.ToggleVote(context.Background(), "t1", "missing", "voter-1", models.ReactionUpvote)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.True(t, db.LastTx().RolledBack)
}

func TestToggleVote_TenantScoped(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "Webhooks", CreatedBy: "u1"})
	aggregator, _ := newAggregator(store)

	_, err := aggregator.ToggleVote(context.Background(), "t2", request.ID, "voter-1", models.ReactionUpvote)
	require.Error(t, err)
	assert.Equal(t, 0, store.VoteCount(request.ID))
}
