package comment

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

var commentColumns = []string{"id", "tenant_id", "request_id", "author_id", "author_name", "body", "mentions", "created_at", "updated_at"}

// Repository handles comment persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new comment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new comment
func (r *Repository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	ctx, span := tracing.StartSpan(ctx, "comment.Repository.Create")
	defer span.End()

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now().UTC()
	comment.UpdatedAt = comment.CreatedAt

	sb := database.NewInsertBuilder()
	sb.InsertInto("comments")
	sb.Cols(commentColumns...)
	sb.Values(
		comment.ID, comment.TenantID, comment.RequestID, comment.AuthorID,
		comment.AuthorName, comment.Body, comment.Mentions, comment.CreatedAt,
		comment.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create comment")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create comment")
	}

	return comment, nil
}

// ListByRequest returns every comment on the request, oldest first.
func (r *Repository) ListByRequest(ctx context.Context, tenantID string, requestID string) ([]models.Comment, error) {
	ctx, span := tracing.StartSpan(ctx, "comment.Repository.ListByRequest")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(commentColumns...)
	sb.From("comments")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", requestID),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list comments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list comments")
	}

	return comments, nil
}

// Reassign repoints every comment on one request to another. Comments keep
// their ids and timestamps; only the request association changes.
func (r *Repository) Reassign(ctx context.Context, tenantID string, fromRequestID string, toRequestID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "comment.Repository.Reassign")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update("comments")
	sb.Set(sb.Assign("request_id", toRequestID))
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("request_id", fromRequestID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reassign comments")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign comments")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
