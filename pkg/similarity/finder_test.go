package similarity

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/repositories/repositorytest"
	"github.com/Ramsey-B/clover/pkg/models"
)

func newFinder(store *repositorytest.Store, config Config) *Finder {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewFinder(store.Requests(), config, logger)
}

func TestSearch_ShortQueryReturnsNothing(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode"})
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", " d ", "", 0)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RanksBestMatchFirst(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark theme for dashboard"})
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode"})
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", "dark mode", "", 0)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Dark mode", results[0].Title)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_MatchesAuthorName(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Export to CSV", CreatedByName: "Morgan Reyes"})
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", "morgan", "", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Export to CSV", results[0].Title)
	assert.Equal(t, "Morgan Reyes", results[0].Author)
}

func TestSearch_ExcludesGivenRequest(t *testing.T) {
	store := repositorytest.NewStore()
	self := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode"})
	other := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode toggle"})
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", "dark mode", self.ID, 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, other.ID, results[0].ID)
}

func TestSearch_BreaksScoreTiesByRecency(t *testing.T) {
	store := repositorytest.NewStore()
	older := store.SeedRequest(models.Request{
		TenantID:  "t1",
		Title:     "Dark mode",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	newer := store.SeedRequest(models.Request{
		TenantID:  "t1",
		Title:     "Dark mode",
		CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", "dark mode", "", 0)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newer.ID, results[0].ID)
	assert.Equal(t, older.ID, results[1].ID)
}

func TestSearch_MetacharactersMatchLiterally(t *testing.T) {
	store := repositorytest.NewStore()
	literal := store.SeedRequest(models.Request{TenantID: "t1", Title: "Filter rows by a(b) syntax"})
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Filter rows by ab syntax"})
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", "a(b)", "", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, literal.ID, results[0].ID)

	// Regex and glob style queries are inert text too.
	results, err = finder.Search(context.Background(), "t1", ".*[csv]", "", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_HonorsLimit(t *testing.T) {
	store := repositorytest.NewStore()
	for i := 0; i < 5; i++ {
		store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode"})
	}
	finder := newFinder(store, Config{})

	results, err := finder.Search(context.Background(), "t1", "dark mode", "", 3)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSuggestDuplicates_ShortTitleReturnsNothing(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode"})
	finder := newFinder(store, Config{})

	results, err := finder.SuggestDuplicates(context.Background(), "t1", "dark", "")

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSuggestDuplicates_OnlyOpenRequests(t *testing.T) {
	store := repositorytest.NewStore()
	open := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", Status: models.StatusBacklog})
	store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode everywhere", Status: models.StatusRejected})
	finder := newFinder(store, Config{})

	results, err := finder.SuggestDuplicates(context.Background(), "t1", "dark mode", "")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, open.ID, results[0].ID)
}

func TestSuggestDuplicates_DropsWeakMatches(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedRequest(models.Request{TenantID: "t1", Title: "mode"})
	finder := newFinder(store, Config{MinScore: 0.9})

	results, err := finder.SuggestDuplicates(context.Background(), "t1", "dark mode support", "")

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSuggestDuplicates_CapsResults(t *testing.T) {
	store := repositorytest.NewStore()
	for i := 0; i < 4; i++ {
		store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode please"})
	}
	finder := newFinder(store, Config{MaxSuggestions: 2, MinScore: 0.1})

	results, err := finder.SuggestDuplicates(context.Background(), "t1", "dark mode", "")

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSuggestDuplicates_TenantScoped(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedRequest(models.Request{TenantID: "t2", Title: "Dark mode"})
	finder := newFinder(store, Config{})

	results, err := finder.SuggestDuplicates(context.Background(), "t1", "dark mode", "")

	require.NoError(t, err)
	assert.Empty(t, results)
}
