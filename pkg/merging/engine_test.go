package merging

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/repositories/repositorytest"
	cloverrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

type fixture struct {
	store    *repositorytest.Store
	db       *repositorytest.FakeDB
	requests *repositorytest.FakeRequestRepo
	votes    *repositorytest.FakeVoteRepo
	comments *repositorytest.FakeCommentRepo
	activity *repositorytest.FakeActivityRepo
	engine   *Engine
}

func newFixture() *fixture {
	store := repositorytest.NewStore()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	f := &fixture{
		store:    store,
		db:       &repositorytest.FakeDB{},
		requests: store.Requests(),
		votes:    store.Votes(),
		comments: store.Comments(),
		activity: store.Activity(),
	}
	f.engine = NewEngine(f.db, f.requests, f.votes, f.comments, f.activity, logger)
	return f
}

func (f *fixture) seedPair() (*models.Request, *models.Request) {
	source := f.store.SeedRequest(models.Request{TenantID: "t1", Title: "Night theme", CreatedBy: "u1"})
	target := f.store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", CreatedBy: "u2"})
	return source, target
}

func TestMerge_MigratesVotesWithoutDoubleCounting(t *testing.T) {
	f := newFixture()
	source, target := f.seedPair()

	// Source has voters a, b, c; target already has b and d. Voter b must
	// end up with exactly one vote on the target.
	for _, voter := range []string{"a", "b", "c"} {
		f.store.SeedVote(models.Vote{TenantID: "t1", RequestID: source.ID, VoterID: voter, ReactionType: models.ReactionUpvote})
	}
	for _, voter := range []string{"b", "d"} {
		f.store.SeedVote(models.Vote{TenantID: "t1", RequestID: target.ID, VoterID: voter, ReactionType: models.ReactionUpvote})
	}

	result, err := f.engine.Merge(context.Background(), "t1", source.ID, target.ID, "admin-1", models.MergeOptions{MigrateVotes: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.VotesMigrated)
	assert.Equal(t, 1, result.VotesDiscarded)
	assert.Equal(t, 4, result.TargetUpvotes)
	assert.Equal(t, 0, result.TargetLikes)
	assert.True(t, f.db.LastTx().Committed)

	// Source is emptied and marked.
	assert.Equal(t, 0, f.store.VoteCount(source.ID))
	merged, err := f.requests.Get(context.Background(), "t1", source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDuplicate, merged.Status)
	require.NotNil(t, merged.MergedIntoID)
	assert.Equal(t, target.ID, *merged.MergedIntoID)
	assert.Equal(t, 0, merged.Upvotes)

	// Both sides got their audit entries.
	entries := f.store.ActivityEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActivityMerge, entries[0].Kind)
	assert.Equal(t, source.ID, entries[0].RequestID)
	assert.Equal(t, models.ActivityMergeReceived, entries[1].Kind)
	assert.Equal(t, target.ID, entries[1].RequestID)
}

func TestMerge_DiscardsVotesWhenNotMigrating(t *testing.T) {
	f := newFixture()
	source, target := f.seedPair()
	f.store.SeedVote(models.Vote{TenantID: "t1", RequestID: source.ID, VoterID: "a", ReactionType: models.ReactionUpvote})
	f.store.SeedVote(models.Vote{TenantID: "t1", RequestID: source.ID, VoterID: "b", ReactionType: models.ReactionLike})
	f.store.SeedVote(models.Vote{TenantID: "t1", RequestID: target.ID, VoterID: "c", ReactionType: models.ReactionUpvote})

	result, err := f.engine.Merge(context.Background(), "t1", source.ID, target.ID, "admin-1", models.MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.VotesMigrated)
	assert.Equal(t, 2, result.VotesDiscarded)
	assert.Equal(t, 1, result.TargetUpvotes)
	assert.Equal(t, 0, f.store.VoteCount(source.ID))
}

func TestMerge_MigratesComments(t *testing.T) {
	f := newFixture()
	source, target := f.seedPair()
	f.store.SeedComment(models.Comment{TenantID: "t1", RequestID: source.ID, AuthorID: "a", Body: "same as dark mode?"})
	f.store.SeedComment(models.Comment{TenantID: "t1", RequestID: source.ID, AuthorID: "b", Body: "+1"})

	result, err := f.engine.Merge(context.Background(), "t1", source.ID, target.ID, "admin-1", models.MergeOptions{MigrateComments: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CommentsMigrated)

	moved, err := f.comments.ListByRequest(context.Background(), "t1", target.ID)
	require.NoError(t, err)
	assert.Len(t, moved, 2)
	left, err := f.comments.ListByRequest(context.Background(), "t1", source.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMerge_RejectsSelfMerge(t *testing.T) {
	f := newFixture()
	source, _ := f.seedPair()

	_, err := f.engine.Merge(context.Background(), "t1", source.ID, source.ID, "admin-1", models.MergeOptions{})
	mergeErr, ok := cloverrors.AsMergeError(err)
	require.True(t, ok)
	assert.Equal(t, cloverrors.ReasonSelfMerge, mergeErr.Reason)
}

func TestMerge_RejectsChaining(t *testing.T) {
	f := newFixture()
	canonical := f.store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", CreatedBy: "u1"})
	duplicate := f.store.SeedRequest(models.Request{
		TenantID:     "t1",
		Title:        "Night theme",
		CreatedBy:    "u2",
		Status:       models.StatusDuplicate,
		MergedIntoID: &canonical.ID,
	})
	fresh := f.store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark UI", CreatedBy: "u3"})

	// A merged-away request can be neither target nor source.
	_, err := f.engine.Merge(context.Background(), "t1", fresh.ID, duplicate.ID, "admin-1", models.MergeOptions{})
	mergeErr, ok := cloverrors.AsMergeError(err)
	require.True(t, ok)
	assert.Equal(t, cloverrors.ReasonInvalidTarget, mergeErr.Reason)

	_, err = f.engine.Merge(context.Background(), "t1", duplicate.ID, fresh.ID, "admin-1", models.MergeOptions{})
	mergeErr, ok = cloverrors.AsMergeError(err)
	require.True(t, ok)
	assert.Equal(t, cloverrors.ReasonInvalidSource, mergeErr.Reason)
}

func TestMerge_MissingRequestsAreNotFound(t *testing.T) {
	f := newFixture()
	source, _ := f.seedPair()

	_, err := f.engine.Merge(context.Background(), "t1", source.ID, "missing", "admin-1", models.MergeOptions{})
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	_, err = f.engine.Merge(context.Background(), "t1", "missing", source.ID, "admin-1", models.MergeOptions{})
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestMerge_RejectionLeavesStoreUntouched(t *testing.T) {
	f := newFixture()
	source, _ := f.seedPair()
	f.store.SeedVote(models.Vote{TenantID: "t1", RequestID: source.ID, VoterID: "a", ReactionType: models.ReactionUpvote})

	_, err := f.engine.Merge(context.Background(), "t1", source.ID, "missing", "admin-1", models.MergeOptions{MigrateVotes: true})
	require.Error(t, err)

	assert.True(t, f.db.LastTx().RolledBack)
	assert.Equal(t, 1, f.store.VoteCount(source.ID))
	assert.Empty(t, f.store.ActivityEntries())
	current, err := f.requests.Get(context.Background(), "t1", source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status)
	assert.Nil(t, current.MergedIntoID)
}

func TestMerge_StorageFailureRollsBack(t *testing.T) {
	f := newFixture()
	source, target := f.seedPair()
	f.activity.AppendErr = errors.New("disk full")

	_, err := f.engine.Merge(context.Background(), "t1", source.ID, target.ID, "admin-1", models.MergeOptions{MigrateVotes: true})
	mergeErr, ok := cloverrors.AsMergeError(err)
	require.True(t, ok)
	assert.Equal(t, cloverrors.ReasonMergeFailed, mergeErr.Reason)
	assert.True(t, f.db.LastTx().RolledBack)
	assert.False(t, f.db.LastTx().Committed)
}

func TestMerge_CrossTenantIsNotFound(t *testing.T) {
	f := newFixture()
	source, _ := f.seedPair()
	other := f.store.SeedRequest(models.Request{TenantID: "t2", Title: "Dark mode", CreatedBy: "u9"})

	_, err := f.engine.Merge(context.Background(), "t1", source.ID, other.ID, "admin-1", models.MergeOptions{})
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}
