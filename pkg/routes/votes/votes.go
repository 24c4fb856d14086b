// Package votes exposes the vote toggle over HTTP. POST with a body and
// DELETE with a path type both run the same toggle; the response is the
// authoritative aggregate the client reconciles against.
package votes

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/voting"
)

var validate = validator.New()

// Handler handles vote endpoints
type Handler struct {
	aggregator *voting.Aggregator
}

// NewHandler creates a new vote handler
func NewHandler(aggregator *voting.Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// Register registers vote routes under the requests group, behind the
// caller-supplied rate limit middleware.
func (h *Handler) Register(g *echo.Group, limit echo.MiddlewareFunc) {
	g.POST("/:id/vote", h.Toggle, limit)
	g.DELETE("/:id/vote/:type", h.ToggleByType, limit)
}

// Toggle flips the caller's reaction given in the body
func (h *Handler) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "votes_handler.Toggle")
	defer span.End()

	var req models.ToggleVoteRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return h.toggle(c, ctx, req.Type)
}

// ToggleByType flips the caller's reaction given in the path. Exposed as
// DELETE so clients can express "remove my vote", but a toggle is its own
// inverse so both verbs share one implementation.
func (h *Handler) ToggleByType(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "votes_handler.ToggleByType")
	defer span.End()

	return h.toggle(c, ctx, c.Param("type"))
}

func (h *Handler) toggle(c echo.Context, ctx context.Context, rawType string) error {
	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	voterID := clovercontext.GetUserID(ctx)
	if voterID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	reaction, err := models.ParseReactionType(rawType)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	aggregate, err := h.aggregator.ToggleVote(ctx, tenantID, c.Param("id"), voterID, reaction)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, aggregate)
}
