// Package comments exposes comment endpoints. Comments on a merged-away
// request are rejected; discussion continues on the merge target.
package comments

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories"
	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler handles comment endpoints
type Handler struct {
	requests repositories.RequestRepo
	comments repositories.CommentRepo
}

// NewHandler creates a new comment handler
func NewHandler(requests repositories.RequestRepo, comments repositories.CommentRepo) *Handler {
	return &Handler{
		requests: requests,
		comments: comments,
	}
}

// Register registers comment routes under the requests group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/:id/comments", h.Create)
	g.GET("/:id/comments", h.List)
}

// Create posts a comment on a request
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comments_handler.Create")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	authorID := clovercontext.GetUserID(ctx)
	if authorID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := h.requests.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}
	if request == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "request not found")
	}
	if request.MergedIntoID != nil {
		return httperror.NewHTTPError(http.StatusConflict, "request was merged; comment on its target instead")
	}

	created, err := h.comments.Create(ctx, &models.Comment{
		TenantID:   tenantID,
		RequestID:  request.ID,
		AuthorID:   authorID,
		AuthorName: clovercontext.GetUserName(ctx),
		Body:       req.Body,
		Mentions:   database.JSONB[[]string]{Data: req.Mentions},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// List returns the request's comments, oldest first
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comments_handler.List")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	request, err := h.requests.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}
	if request == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "request not found")
	}

	items, err := h.comments.ListByRequest(ctx, tenantID, request.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.CommentListResponse{
		Items:      items,
		TotalCount: len(items),
	})
}
