// Package events turns domain outcomes into published messages. The emitter
// is fire-and-forget: it runs after the owning transaction has committed and
// a publish failure is logged, never surfaced to the caller.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	EventStatusChanged = "request.status_changed"
	EventMerged        = "request.merged"
)

// Publisher is the slice of the Kafka producer the emitter needs.
type Publisher interface {
	PublishRequestEvent(ctx context.Context, event *kafka.RequestEvent) error
}

// Emitter publishes request lifecycle events. A nil publisher (eventing
// disabled by config) makes every emit a no-op.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new Emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// StatusChanged emits a request.status_changed event.
func (e *Emitter) StatusChanged(ctx context.Context, request *models.Request, from models.Status, actorID string) {
	if e.publisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"from":  from,
		"to":    request.Status,
		"title": request.Title,
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to encode status change event")
		return
	}

	if err := e.publisher.PublishRequestEvent(ctx, &kafka.RequestEvent{
		EventType: EventStatusChanged,
		TenantID:  request.TenantID,
		RequestID: request.ID,
		ActorID:   actorID,
		Data:      payload,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to publish status change event")
	}
}

// RequestMerged emits a request.merged event keyed by the source request.
func (e *Emitter) RequestMerged(ctx context.Context, tenantID string, actorID string, result *models.MergeResult) {
	if e.publisher == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to encode merge event")
		return
	}

	if err := e.publisher.PublishRequestEvent(ctx, &kafka.RequestEvent{
		EventType: EventMerged,
		TenantID:  tenantID,
		RequestID: result.SourceID,
		ActorID:   actorID,
		Data:      payload,
	}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to publish merge event")
	}
}
