// Package repositorytest provides in-memory repository fakes for engine
// tests. The fakes honor the same invariants as the SQL implementations:
// the vote key is unique, the activity log is append-only and reads are
// tenant scoped.
package repositorytest

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/clover/internal/repositories"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

// FakeTx implements database.Tx and records lifecycle calls.
type FakeTx struct {
	Committed  bool
	RolledBack bool
}

func (t *FakeTx) IsOpen() bool                         { return !t.Committed && !t.RolledBack }
func (t *FakeTx) Commit(ctx context.Context) error     { t.Committed = true; return nil }
func (t *FakeTx) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}
func (t *FakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (t *FakeTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (t *FakeTx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (t *FakeTx) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return nil
}
func (t *FakeTx) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, nil
}

// FakeDB implements database.DB for engines that only need GetTx. Every
// GetTx hands out a fresh FakeTx and remembers it so tests can assert on
// commit and rollback behavior.
type FakeDB struct {
	Txs []*FakeTx
}

func (db *FakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	tx := &FakeTx{}
	db.Txs = append(db.Txs, tx)
	return ctx, tx, nil
}

// LastTx returns the most recently opened transaction.
func (db *FakeDB) LastTx() *FakeTx {
	if len(db.Txs) == 0 {
		return nil
	}
	return db.Txs[len(db.Txs)-1]
}

func (db *FakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (db *FakeDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (db *FakeDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (db *FakeDB) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return nil
}
func (db *FakeDB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, nil
}
func (db *FakeDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}
func (db *FakeDB) PingContext(ctx context.Context) error  { return nil }
func (db *FakeDB) SetConnMaxLifetime(d time.Duration)     {}
func (db *FakeDB) SetMaxIdleConns(n int)                  {}
func (db *FakeDB) SetMaxOpenConns(n int)                  {}
func (db *FakeDB) Close() error                           { return nil }

// Store is a shared in-memory backing store so the request fake can
// recompute counters from the vote fake the way the SQL schema does.
type Store struct {
	mu       sync.Mutex
	requests map[string]*models.Request
	votes    []models.Vote
	comments []models.Comment
	activity []models.ActivityEntry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{requests: make(map[string]*models.Request)}
}

// Requests returns a RequestRepo backed by the store.
func (s *Store) Requests() *FakeRequestRepo { return &FakeRequestRepo{store: s} }

// Votes returns a VoteRepo backed by the store.
func (s *Store) Votes() *FakeVoteRepo { return &FakeVoteRepo{store: s} }

// Comments returns a CommentRepo backed by the store.
func (s *Store) Comments() *FakeCommentRepo { return &FakeCommentRepo{store: s} }

// Activity returns an ActivityRepo backed by the store.
func (s *Store) Activity() *FakeActivityRepo { return &FakeActivityRepo{store: s} }

// SeedRequest adds a request, filling in id and timestamps when absent.
func (s *Store) SeedRequest(request models.Request) *models.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = models.StatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.UpdatedAt = request.CreatedAt
	copied := request
	s.requests[request.ID] = &copied
	return &copied
}

// SeedVote adds a vote row directly.
func (s *Store) SeedVote(vote models.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vote.ID == "" {
		vote.ID = uuid.New().String()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}
	s.votes = append(s.votes, vote)
}

// SeedComment adds a comment row directly.
func (s *Store) SeedComment(comment models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	s.comments = append(s.comments, comment)
}

// VoteCount counts stored votes for a request.
func (s *Store) VoteCount(requestID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, vote := range s.votes {
		if vote.RequestID == requestID {
			count++
		}
	}
	return count
}

// ActivityEntries returns a copy of the stored activity log.
func (s *Store) ActivityEntries() []models.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	return out
}

func (s *Store) countVotes(tenantID, requestID string) (int, int) {
	upvotes, likes := 0, 0
	for _, vote := range s.votes {
		if vote.TenantID != tenantID || vote.RequestID != requestID {
			continue
		}
		switch vote.ReactionType {
		case models.ReactionUpvote:
			upvotes++
		case models.ReactionLike:
			likes++
		}
	}
	return upvotes, likes
}

// FakeRequestRepo implements repositories.RequestRepo in memory.
type FakeRequestRepo struct {
	store *Store

	// Error hooks for failure injection.
	UpdateStatusErr      error
	RefreshVoteCountsErr error
}

func (r *FakeRequestRepo) Create(ctx context.Context, request *models.Request) (*models.Request, error) {
	return r.store.SeedRequest(*request), nil
}

func (r *FakeRequestRepo) Get(ctx context.Context, tenantID, id string) (*models.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request, ok := r.store.requests[id]
	if !ok || request.TenantID != tenantID {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (r *FakeRequestRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*models.Request, error) {
	return r.Get(ctx, tenantID, id)
}

func (r *FakeRequestRepo) List(ctx context.Context, tenantID string, filter models.RequestFilter) ([]models.Request, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []models.Request
	for _, request := range r.store.requests {
		if request.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		if filter.Category != "" && request.Category != filter.Category {
			continue
		}
		items = append(items, *request)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, len(items), nil
}

func (r *FakeRequestRepo) UpdateStatus(ctx context.Context, tenantID, id string, status models.Status, mergedIntoID *string) error {
	if r.UpdateStatusErr != nil {
		return r.UpdateStatusErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request, ok := r.store.requests[id]
	if !ok || request.TenantID != tenantID {
		return sql.ErrNoRows
	}
	request.Status = status
	request.MergedIntoID = mergedIntoID
	request.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *FakeRequestRepo) RefreshVoteCounts(ctx context.Context, tenantID, id string) (int, int, error) {
	if r.RefreshVoteCountsErr != nil {
		return 0, 0, r.RefreshVoteCountsErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request, ok := r.store.requests[id]
	if !ok || request.TenantID != tenantID {
		return 0, 0, sql.ErrNoRows
	}
	upvotes, likes := r.store.countVotes(tenantID, id)
	request.Upvotes = upvotes
	request.Likes = likes
	return upvotes, likes, nil
}

func (r *FakeRequestRepo) SearchByTitle(ctx context.Context, tenantID, query string, limit int, opts repositories.SearchOptions) ([]models.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	needle := strings.ToLower(query)
	var items []models.Request
	for _, request := range r.store.requests {
		if request.TenantID != tenantID || request.ID == opts.ExcludeID {
			continue
		}
		if opts.OpenOnly && !request.Status.IsOpen() {
			continue
		}
		matched := strings.Contains(strings.ToLower(request.Title), needle)
		if opts.IncludeAuthor && !matched {
			matched = strings.Contains(strings.ToLower(request.CreatedByName), needle)
		}
		if matched {
			items = append(items, *request)
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// FakeVoteRepo implements repositories.VoteRepo in memory.
type FakeVoteRepo struct {
	store *Store

	InsertErr          error
	DeleteByRequestErr error
}

func (r *FakeVoteRepo) Insert(ctx context.Context, vote *models.Vote) (bool, error) {
	if r.InsertErr != nil {
		return false, r.InsertErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.votes {
		if existing.RequestID == vote.RequestID && existing.VoterID == vote.VoterID && existing.ReactionType == vote.ReactionType {
			return false, nil
		}
	}
	if vote.ID == "" {
		vote.ID = uuid.New().String()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}
	r.store.votes = append(r.store.votes, *vote)
	return true, nil
}

func (r *FakeVoteRepo) DeleteByKey(ctx context.Context, tenantID, requestID, voterID string, reaction models.ReactionType) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, vote := range r.store.votes {
		if vote.TenantID == tenantID && vote.RequestID == requestID && vote.VoterID == voterID && vote.ReactionType == reaction {
			r.store.votes = append(r.store.votes[:i], r.store.votes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *FakeVoteRepo) CountByType(ctx context.Context, tenantID, requestID string) (int, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	upvotes, likes := r.store.countVotes(tenantID, requestID)
	return upvotes, likes, nil
}

func (r *FakeVoteRepo) VoterReactions(ctx context.Context, tenantID, requestID, voterID string) ([]models.ReactionType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var reactions []models.ReactionType
	for _, vote := range r.store.votes {
		if vote.TenantID == tenantID && vote.RequestID == requestID && vote.VoterID == voterID {
			reactions = append(reactions, vote.ReactionType)
		}
	}
	return reactions, nil
}

func (r *FakeVoteRepo) ListByRequest(ctx context.Context, tenantID, requestID string) ([]models.Vote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var votes []models.Vote
	for _, vote := range r.store.votes {
		if vote.TenantID == tenantID && vote.RequestID == requestID {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].CreatedAt.Before(votes[j].CreatedAt) })
	return votes, nil
}

func (r *FakeVoteRepo) DeleteByRequest(ctx context.Context, tenantID, requestID string) (int64, error) {
	if r.DeleteByRequestErr != nil {
		return 0, r.DeleteByRequestErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var kept []models.Vote
	var removed int64
	for _, vote := range r.store.votes {
		if vote.TenantID == tenantID && vote.RequestID == requestID {
			removed++
			continue
		}
		kept = append(kept, vote)
	}
	r.store.votes = kept
	return removed, nil
}

// FakeCommentRepo implements repositories.CommentRepo in memory.
type FakeCommentRepo struct {
	store *Store

	ReassignErr error
}

func (r *FakeCommentRepo) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now().UTC()
	comment.UpdatedAt = comment.CreatedAt
	r.store.comments = append(r.store.comments, *comment)
	return comment, nil
}

func (r *FakeCommentRepo) ListByRequest(ctx context.Context, tenantID, requestID string) ([]models.Comment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var comments []models.Comment
	for _, comment := range r.store.comments {
		if comment.TenantID == tenantID && comment.RequestID == requestID {
			comments = append(comments, comment)
		}
	}
	return comments, nil
}

func (r *FakeCommentRepo) Reassign(ctx context.Context, tenantID, fromRequestID, toRequestID string) (int64, error) {
	if r.ReassignErr != nil {
		return 0, r.ReassignErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var moved int64
	for i := range r.store.comments {
		if r.store.comments[i].TenantID == tenantID && r.store.comments[i].RequestID == fromRequestID {
			r.store.comments[i].RequestID = toRequestID
			moved++
		}
	}
	return moved, nil
}

// FakeActivityRepo implements repositories.ActivityRepo in memory.
type FakeActivityRepo struct {
	store *Store

	AppendErr error
}

func (r *FakeActivityRepo) Append(ctx context.Context, entry *models.ActivityEntry) error {
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.store.activity = append(r.store.activity, *entry)
	return nil
}

func (r *FakeActivityRepo) ListByRequest(ctx context.Context, tenantID, requestID string) ([]models.ActivityEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var entries []models.ActivityEntry
	for _, entry := range r.store.activity {
		if entry.TenantID == tenantID && entry.RequestID == requestID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
