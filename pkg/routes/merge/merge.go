// Package merge exposes the duplicate-merge endpoint. Admin only.
package merge

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	cloverrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler handles merge endpoints
type Handler struct {
	engine  *merging.Engine
	emitter *events.Emitter
}

// NewHandler creates a new merge handler
func NewHandler(engine *merging.Engine, emitter *events.Emitter) *Handler {
	return &Handler{
		engine:  engine,
		emitter: emitter,
	}
}

// Register registers the merge route behind the caller-supplied admin
// middleware.
func (h *Handler) Register(g *echo.Group, admin echo.MiddlewareFunc) {
	g.POST("/:id/merge", h.Merge, admin)
}

// Merge folds the request in the path into the target in the body
func (h *Handler) Merge(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "merge_handler.Merge")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	actorID := clovercontext.GetUserID(ctx)

	var req models.MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.engine.Merge(ctx, tenantID, c.Param("id"), req.TargetID, actorID, models.MergeOptions{
		MigrateVotes:    req.MigrateVotes,
		MigrateComments: req.MigrateComments,
	})
	if err != nil {
		if mergeErr, ok := cloverrors.AsMergeError(err); ok {
			return mergeErr.ToHTTPError()
		}
		return err
	}

	h.emitter.RequestMerged(ctx, tenantID, actorID, result)
	return c.JSON(http.StatusOK, result)
}
