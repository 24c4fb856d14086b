// Package requests exposes the feature request HTTP surface: create with
// duplicate suggestions, read, list, search and the admin status workflow.
package requests

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories"
	clovercontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/workflow"
)

var validate = validator.New()

// Handler handles feature request endpoints
type Handler struct {
	requests repositories.RequestRepo
	finder   *similarity.Finder
	workflow *workflow.Service
	emitter  *events.Emitter
}

// NewHandler creates a new request handler
func NewHandler(requests repositories.RequestRepo, finder *similarity.Finder, wf *workflow.Service, emitter *events.Emitter) *Handler {
	return &Handler{
		requests: requests,
		finder:   finder,
		workflow: wf,
		emitter:  emitter,
	}
}

// Register registers request routes. Status updates are admin-gated by the
// caller-supplied middleware.
func (h *Handler) Register(g *echo.Group, admin echo.MiddlewareFunc) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.PUT("/:id/status", h.UpdateStatus, admin)
}

// Create creates a feature request. The response carries similar open
// requests so the portal can prompt the submitter before filing a
// duplicate.
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "requests_handler.Create")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	userID := clovercontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	var req models.CreateRequestRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.requests.Create(ctx, &models.Request{
		TenantID:      tenantID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		Team:          req.Team,
		Region:        req.Region,
		CreatedBy:     userID,
		CreatedByName: clovercontext.GetUserName(ctx),
	})
	if err != nil {
		return err
	}

	similar, err := h.finder.SuggestDuplicates(ctx, tenantID, created.Title, created.ID)
	if err != nil {
		// The request is already saved; suggestions are advisory.
		similar = []models.SimilarRequest{}
	}

	return c.JSON(http.StatusCreated, models.CreateRequestResponse{
		Request: *created,
		Similar: similar,
	})
}

// Get returns a single request
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "requests_handler.Get")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	result, err := h.requests.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "request not found")
	}

	return c.JSON(http.StatusOK, result)
}

// List returns a page of requests
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "requests_handler.List")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	filter := models.RequestFilter{Category: c.QueryParam("category")}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if raw := c.QueryParam("status"); raw != "" {
		status := models.Status(raw)
		if !status.IsValid() {
			return httperror.NewHTTPError(http.StatusBadRequest, "unknown status filter")
		}
		filter.Status = status
	}

	items, totalCount, err := h.requests.List(ctx, tenantID, filter)
	if err != nil {
		return err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return c.JSON(http.StatusOK, models.RequestListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
}

// Search ranks requests against a free-text query. Short queries return an
// empty result set, not an error.
func (h *Handler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "requests_handler.Search")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hits, err := h.finder.Search(ctx, tenantID, c.QueryParam("q"), c.QueryParam("exclude"), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"items": hits})
}

// UpdateStatus moves a request through the triage workflow
func (h *Handler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "requests_handler.UpdateStatus")
	defer span.End()

	tenantID := clovercontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	actorID := clovercontext.GetUserID(ctx)

	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, from, err := h.workflow.Transition(ctx, tenantID, c.Param("id"), actorID, req.Status)
	if err != nil {
		return err
	}

	h.emitter.StatusChanged(ctx, updated, from, actorID)
	return c.JSON(http.StatusOK, updated)
}
