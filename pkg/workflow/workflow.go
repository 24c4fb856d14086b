// Package workflow moves feature requests through their triage states.
package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// transitions is the closed set of allowed status moves. Archived is
// reachable from every non-duplicate state; duplicate never appears as a
// target because only the merge engine writes it.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusBacklog, models.StatusArchived},
	models.StatusBacklog:    {models.StatusInProgress, models.StatusArchived},
	models.StatusInProgress: {models.StatusCompleted, models.StatusRejected, models.StatusArchived},
	models.StatusCompleted:  {models.StatusArchived},
	models.StatusRejected:   {models.StatusArchived},
	models.StatusArchived:   {},
	models.StatusDuplicate:  {},
}

// CanTransition reports whether a request may move from one status to
// another.
func CanTransition(from, to models.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service applies status transitions and records them on the activity log.
type Service struct {
	db       database.DB
	requests repositories.RequestRepo
	activity repositories.ActivityRepo
	logger   ectologger.Logger
}

// NewService creates a new workflow Service
func NewService(db database.DB, requests repositories.RequestRepo, activity repositories.ActivityRepo, logger ectologger.Logger) *Service {
	return &Service{
		db:       db,
		requests: requests,
		activity: activity,
		logger:   logger,
	}
}

// Transition moves the request to a new status and appends the matching
// status_change activity entry, both in one transaction. Requests that have
// been merged away cannot transition, and duplicate cannot be entered here
// at all. The second return value is the status the request held before.
func (s *Service) Transition(ctx context.Context, tenantID string, requestID string, actorID string, to models.Status) (*models.Request, models.Status, error) {
	ctx, span := tracing.StartSpan(ctx, "workflow.Service.Transition")
	defer span.End()

	if !to.IsValid() {
		return nil, "", httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown status %q", to))
	}
	if to == models.StatusDuplicate {
		return nil, "", httperror.NewHTTPError(http.StatusConflict, "duplicate status is set by merging, not by status update")
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback(ctxTx)

	request, err := s.requests.GetForUpdate(ctxTx, tenantID, requestID)
	if err != nil {
		return nil, "", err
	}
	if request == nil {
		return nil, "", httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("request %s not found", requestID))
	}
	if request.MergedIntoID != nil {
		return nil, "", httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("request %s was merged into %s and cannot change status", requestID, *request.MergedIntoID))
	}
	if !CanTransition(request.Status, to) {
		return nil, "", httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot transition from %s to %s", request.Status, to))
	}

	from := request.Status
	if err := s.requests.UpdateStatus(ctxTx, tenantID, requestID, to, nil); err != nil {
		return nil, "", err
	}

	if err := s.activity.Append(ctxTx, &models.ActivityEntry{
		TenantID:  tenantID,
		RequestID: requestID,
		ActorID:   actorID,
		Kind:      models.ActivityStatusChange,
		OldValue:  string(from),
		NewValue:  string(to),
		Summary:   fmt.Sprintf("status changed from %s to %s", from, to),
	}); err != nil {
		return nil, "", err
	}

	if err := tx.Commit(ctxTx); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to commit status transition")
		return nil, "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to update status")
	}

	metrics.RecordTransition(tenantID, string(from), string(to))
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id": requestID,
		"from":       from,
		"to":         to,
	}).Info("Transitioned request status")

	request.Status = to
	request.UpdatedAt = time.Now().UTC()
	if to == models.StatusArchived {
		archivedAt := request.UpdatedAt
		request.ArchivedAt = &archivedAt
	} else {
		request.ArchivedAt = nil
	}
	return request, from, nil
}
