package request

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/internal/repositories"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var requestColumns = []string{
	"id", "tenant_id", "title", "description", "category", "priority", "team", "region",
	"status", "upvotes", "likes", "created_by", "created_by_name", "merged_into_id",
	"created_at", "updated_at", "archived_at",
}

// Repository handles feature request persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new request repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying database handle for transactional operations.
func (r *Repository) DB() database.DB {
	return r.db
}

// Create creates a new feature request
func (r *Repository) Create(ctx context.Context, request *models.Request) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Create")
	defer span.End()

	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = models.StatusPending
	}
	request.CreatedAt = time.Now().UTC()
	request.UpdatedAt = request.CreatedAt

	sb := database.NewInsertBuilder()
	sb.InsertInto("requests")
	sb.Cols(requestColumns...)
	sb.Values(
		request.ID, request.TenantID, request.Title, request.Description, request.Category,
		request.Priority, request.Team, request.Region, request.Status, request.Upvotes,
		request.Likes, request.CreatedBy, request.CreatedByName, request.MergedIntoID,
		request.CreatedAt, request.UpdatedAt, request.ArchivedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create request")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": request.ID}).Info("Created request")
	return request, nil
}

// Get retrieves a request by ID. Returns nil without error when no request
// matches, so callers can shape their own not-found handling.
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Get")
	defer span.End()

	return r.get(ctx, tenantID, id, false)
}

// GetForUpdate retrieves a request by ID and locks its row until the
// transaction carried in ctx ends. Callers must hold an open transaction.
func (r *Repository) GetForUpdate(ctx context.Context, tenantID string, id string) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.GetForUpdate")
	defer span.End()

	return r.get(ctx, tenantID, id, true)
}

func (r *Repository) get(ctx context.Context, tenantID string, id string, forUpdate bool) (*models.Request, error) {
	sb := database.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("requests")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if forUpdate {
		query += " FOR UPDATE"
	}

	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get request")
	}

	return &request, nil
}

// List retrieves a page of requests, optionally filtered by status and category
func (r *Repository) List(ctx context.Context, tenantID string, filter models.RequestFilter) ([]models.Request, int, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.List")
	defer span.End()

	page := filter.Page
	pageSize := filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	// Count total
	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("requests")
	countWhere := []string{countSb.Equal("tenant_id", tenantID)}
	if filter.Status != "" {
		countWhere = append(countWhere, countSb.Equal("status", filter.Status))
	}
	if filter.Category != "" {
		countWhere = append(countWhere, countSb.Equal("category", filter.Category))
	}
	countSb.Where(countWhere...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "page": page, "page_size": pageSize}).Error("Failed to count requests")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count requests")
	}

	// Fetch page
	sb := database.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("requests")
	where := []string{sb.Equal("tenant_id", tenantID)}
	if filter.Status != "" {
		where = append(where, sb.Equal("status", filter.Status))
	}
	if filter.Category != "" {
		where = append(where, sb.Equal("category", filter.Category))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var items []models.Request
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "page": page, "page_size": pageSize}).Error("Failed to list requests")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list requests")
	}

	return items, totalCount, nil
}

// UpdateStatus sets the request's status and, when the new status is
// duplicate, the id of the request it was merged into. Archiving stamps
// archived_at; leaving the archived status clears it.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID string, id string, status models.Status, mergedIntoID *string) error {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.UpdateStatus")
	defer span.End()

	now := time.Now().UTC()
	sb := database.NewUpdateBuilder()
	sb.Update("requests")
	assigns := []string{
		sb.Assign("status", status),
		sb.Assign("merged_into_id", mergedIntoID),
		sb.Assign("updated_at", now),
	}
	if status == models.StatusArchived {
		assigns = append(assigns, sb.Assign("archived_at", now))
	} else {
		assigns = append(assigns, sb.Assign("archived_at", nil))
	}
	sb.Set(assigns...)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update request status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update request status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("request %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "status": status}).Info("Updated request status")
	return nil
}

// RefreshVoteCounts recomputes the cached upvote and like counters from the
// vote store and returns the fresh values. Run inside the same transaction
// as the vote mutation so the counters never drift.
func (r *Repository) RefreshVoteCounts(ctx context.Context, tenantID string, id string) (int, int, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.RefreshVoteCounts")
	defer span.End()

	query := `
		UPDATE requests SET
			upvotes = (SELECT COUNT(*) FROM votes WHERE request_id = $1 AND tenant_id = $2 AND reaction_type = 'upvote'),
			likes = (SELECT COUNT(*) FROM votes WHERE request_id = $1 AND tenant_id = $2 AND reaction_type = 'like'),
			updated_at = $3
		WHERE id = $1 AND tenant_id = $2
		RETURNING upvotes, likes`

	var upvotes, likes int
	row := r.db.QueryRowxContext(ctx, query, id, tenantID, time.Now().UTC())
	if err := row.Scan(&upvotes, &likes); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, 0, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("request %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to refresh vote counts")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to refresh vote counts")
	}

	return upvotes, likes, nil
}

// SearchByTitle finds requests whose title (or author name, when enabled)
// contains the query as a literal, case-insensitive substring. Results are
// unranked; scoring happens in the similarity layer.
func (r *Repository) SearchByTitle(ctx context.Context, tenantID string, query string, limit int, opts repositories.SearchOptions) ([]models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.SearchByTitle")
	defer span.End()

	if limit < 1 || limit > 200 {
		limit = 50
	}
	pattern := database.ContainsPattern(query)

	sb := database.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("requests")
	where := []string{sb.Equal("tenant_id", tenantID)}
	if opts.IncludeAuthor {
		where = append(where, sb.Or(
			sb.ILike("title", pattern),
			sb.ILike("created_by_name", pattern),
		))
	} else {
		where = append(where, sb.ILike("title", pattern))
	}
	if opts.OpenOnly {
		open := make([]interface{}, 0, len(models.AllStatuses))
		for _, status := range models.AllStatuses {
			if status.IsOpen() {
				open = append(open, status)
			}
		}
		where = append(where, sb.In("status", open...))
	}
	if opts.ExcludeID != "" {
		where = append(where, sb.NotEqual("id", opts.ExcludeID))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	sql, args := sb.Build()
	var items []models.Request
	if err := r.db.SelectContext(ctx, &items, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search requests")
	}

	return items, nil
}
