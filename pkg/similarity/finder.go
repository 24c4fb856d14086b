package similarity

import (
	"context"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// MinSearchLength is the shortest query the general search accepts.
	MinSearchLength = 2
	// MinSuggestLength is the shortest title the duplicate suggester
	// accepts; below it suggestions are noise.
	MinSuggestLength = 5

	defaultCandidateLimit = 50
	defaultMaxSuggestions = 5
	defaultMinScore       = 0.35
)

// Config tunes the finder. Zero values fall back to defaults.
type Config struct {
	// CandidateLimit caps how many rows the substring query pulls back for
	// scoring.
	CandidateLimit int
	// MaxSuggestions caps how many duplicate suggestions are returned.
	MaxSuggestions int
	// MinScore drops suggestion candidates scoring below it. The general
	// search ignores it; an explicit search should show weak hits too.
	MinScore float64
}

// Finder ranks feature requests against a query.
type Finder struct {
	requests repositories.RequestRepo
	scorer   *Scorer
	config   Config
	logger   ectologger.Logger
}

// NewFinder creates a new Finder
func NewFinder(requests repositories.RequestRepo, config Config, logger ectologger.Logger) *Finder {
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = defaultCandidateLimit
	}
	if config.MaxSuggestions <= 0 {
		config.MaxSuggestions = defaultMaxSuggestions
	}
	if config.MinScore <= 0 {
		config.MinScore = defaultMinScore
	}
	return &Finder{
		requests: requests,
		scorer:   NewScorer(),
		config:   config,
		logger:   logger,
	}
}

// Search finds requests matching the query by title or author name, best
// match first. The merge screen passes excludeID so a request never shows
// up as its own merge target. Queries shorter than MinSearchLength return
// no results rather than an error. A limit outside (0, CandidateLimit]
// falls back to CandidateLimit.
func (f *Finder) Search(ctx context.Context, tenantID string, query string, excludeID string, limit int) ([]models.SimilarRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "similarity.Finder.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if len(query) < MinSearchLength {
		return []models.SimilarRequest{}, nil
	}
	if limit <= 0 || limit > f.config.CandidateLimit {
		limit = f.config.CandidateLimit
	}

	candidates, err := f.requests.SearchByTitle(ctx, tenantID, query, f.config.CandidateLimit, repositories.SearchOptions{
		IncludeAuthor: true,
		ExcludeID:     excludeID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSearch(tenantID, "search")
	return f.rank(query, candidates, 0, limit), nil
}

// SuggestDuplicates finds open requests that look like duplicates of a
// title, best match first. Used at creation time and by the merge screen;
// excludeID drops the request being compared from its own suggestions.
// Titles shorter than MinSuggestLength return no suggestions.
func (f *Finder) SuggestDuplicates(ctx context.Context, tenantID string, title string, excludeID string) ([]models.SimilarRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "similarity.Finder.SuggestDuplicates")
	defer span.End()

	title = strings.TrimSpace(title)
	if len(title) < MinSuggestLength {
		return []models.SimilarRequest{}, nil
	}

	candidates, err := f.requests.SearchByTitle(ctx, tenantID, title, f.config.CandidateLimit, repositories.SearchOptions{
		OpenOnly:  true,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSearch(tenantID, "suggest")
	return f.rank(title, candidates, f.config.MinScore, f.config.MaxSuggestions), nil
}

// rank scores candidates against the query, drops those under minScore and
// returns the top limit hits. Equal scores fall back to recency so fresh
// requests surface first.
func (f *Finder) rank(query string, candidates []models.Request, minScore float64, limit int) []models.SimilarRequest {
	normQuery := f.scorer.Normalize(query)

	hits := make([]models.SimilarRequest, 0, len(candidates))
	for _, candidate := range candidates {
		score := f.scorer.JaroWinkler(normQuery, f.scorer.Normalize(candidate.Title))
		if score < minScore {
			continue
		}
		hits = append(hits, models.SimilarRequest{
			ID:        candidate.ID,
			Title:     candidate.Title,
			Author:    candidate.CreatedByName,
			Status:    candidate.Status,
			Score:     score,
			CreatedAt: candidate.CreatedAt,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
