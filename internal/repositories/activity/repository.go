package activity

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

var activityColumns = []string{"id", "tenant_id", "request_id", "actor_id", "kind", "old_value", "new_value", "summary", "created_at"}

// Repository handles activity log persistence. The log is append-only;
// there are no update or delete methods and none should be added.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new activity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append writes one activity entry.
func (r *Repository) Append(ctx context.Context, entry *models.ActivityEntry) error {
	ctx, span := tracing.StartSpan(ctx, "activity.Repository.Append")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto("activity_entries")
	sb.Cols(activityColumns...)
	sb.Values(
		entry.ID, entry.TenantID, entry.RequestID, entry.ActorID, entry.Kind,
		entry.OldValue, entry.NewValue, entry.Summary, entry.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to append activity entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append activity entry")
	}

	return nil
}

// ListByRequest returns the request's activity, oldest first.
func (r *Repository) ListByRequest(ctx context.Context, tenantID string, requestID string) ([]models.ActivityEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "activity.Repository.ListByRequest")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(activityColumns...)
	sb.From("activity_entries")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", requestID),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var entries []models.ActivityEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list activity entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list activity entries")
	}

	return entries, nil
}
