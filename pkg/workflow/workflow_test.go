package workflow

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/repositories/repositorytest"
	"github.com/Ramsey-B/clover/pkg/models"
)

func newService(store *repositorytest.Store) (*Service, *repositorytest.FakeDB) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := &repositorytest.FakeDB{}
	return NewService(db, store.Requests(), store.Activity(), logger), db
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.Status
		want     bool
	}{
		{models.StatusPending, models.StatusBacklog, true},
		{models.StatusBacklog, models.StatusInProgress, true},
		{models.StatusInProgress, models.StatusCompleted, true},
		{models.StatusInProgress, models.StatusRejected, true},
		{models.StatusCompleted, models.StatusArchived, true},
		{models.StatusPending, models.StatusCompleted, false},
		{models.StatusPending, models.StatusInProgress, false},
		{models.StatusArchived, models.StatusPending, false},
		{models.StatusDuplicate, models.StatusBacklog, false},
		{models.StatusBacklog, models.StatusDuplicate, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_AppendsActivity(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "API keys", CreatedBy: "u1"})
	service, db := newService(store)

	updated, from, err := service.Transition(context.Background(), "t1", request.ID, "admin-1", models.StatusBacklog)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, from)
	assert.Equal(t, models.StatusBacklog, updated.Status)
	assert.True(t, db.LastTx().Committed)

	entries := store.ActivityEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityStatusChange, entries[0].Kind)
	assert.Equal(t, string(models.StatusPending), entries[0].OldValue)
	assert.Equal(t, string(models.StatusBacklog), entries[0].NewValue)
	assert.Equal(t, "admin-1", entries[0].ActorID)
}

func TestTransition_RejectsInvalidHop(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", CreatedBy: "u1"})
	service, db := newService(store)

	_, _, err := service.Transition(context.Background(), "t1", request.ID, "admin-1", models.StatusCompleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot transition")
	assert.True(t, db.LastTx().RolledBack)
	assert.Empty(t, store.ActivityEntries())

	current, err2 := store.Requests().Get(context.Background(), "t1", request.ID)
	require.NoError(t, err2)
	assert.Equal(t, models.StatusPending, current.Status)
}

func TestTransition_DuplicateNotEnterable(t *testing.T) {
	store := repositorytest.NewStore()
	request := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", CreatedBy: "u1"})
	service, _ := newService(store)

	_, _, err := service.Transition(context.Background(), "t1", request.ID, "admin-1", models.StatusDuplicate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set by merging")
}

func TestTransition_MergedRequestIsFrozen(t *testing.T) {
	store := repositorytest.NewStore()
	target := store.SeedRequest(models.Request{TenantID: "t1", Title: "Dark mode", CreatedBy: "u1"})
	source := store.SeedRequest(models.Request{
		TenantID:     "t1",
		Title:        "Night theme",
		CreatedBy:    "u2",
		Status:       models.StatusDuplicate,
		MergedIntoID: &target.ID,
	})
	service, _ := newService(store)

	_, _, err := service.Transition(context.Background(), "t1", source.ID, "admin-1", models.StatusArchived)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merged into")
}

func TestTransition_ArchivedFromAnyOpenState(t *testing.T) {
	store := repositorytest.NewStore()
	service, _ := newService(store)

	for _, status := range []models.Status{models.StatusPending, models.StatusBacklog, models.StatusInProgress, models.StatusCompleted, models.StatusRejected} {
		request := store.SeedRequest(models.Request{TenantID: "t1", Title: "r", CreatedBy: "u1", Status: status})
		updated, _, err := service.Transition(context.Background(), "t1", request.ID, "admin-1", models.StatusArchived)
		require.NoError(t, err, "from %s", status)
		assert.Equal(t, models.StatusArchived, updated.Status)
		assert.NotNil(t, updated.ArchivedAt)
	}
}

func TestTransition_NotFound(t *testing.T) {
	store := repositorytest.NewStore()
	service, _ := newService(store)

	_, _, err := service.Transition(context.Background(), "t1", "missing", "admin-1", models.StatusBacklog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
