// Package activity exposes a request's audit trail, oldest first.
package activity

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories"
	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Handler handles activity endpoints
type Handler struct {
	requests repositories.RequestRepo
	activity repositories.ActivityRepo
}

// NewHandler creates a new activity handler
func NewHandler(requests repositories.RequestRepo, activity repositories.ActivityRepo) *Handler {
	return &Handler{
		requests: requests,
		activity: activity,
	}
}

// Register registers activity routes under the requests group.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:id/activity", h.List)
}

// List returns the request's activity entries
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "activity_handler.List")
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

	entries, err := h.activity.ListByRequest(ctx, tenantID, request.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ActivityListResponse{Items: entries})
}
