package costing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ResourceAddedHandler brings late-added materials and work orders into
// tracking. Late resources enter with a zero baseline so their whole cost
// shows up as variance at close.
type ResourceAddedHandler struct {
	service *TrackingService
	logger  *zap.Logger
}

// NewResourceAddedHandler creates a new handler for late resource events
func NewResourceAddedHandler(service *TrackingService, logger *zap.Logger) *ResourceAddedHandler {
	return &ResourceAddedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ResourceAddedHandler) EventTypes() []string {
	return []string{"ResourceAdded"}
}

// Handle resolves a tracking item for the newly added resource
func (h *ResourceAddedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	added, ok := event.(*production.ResourceAddedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected ResourceAdded, got %s", event.EventType())
	}

	var err error
	switch {
	case added.MoveID != uuid.Nil:
		err = h.service.ResolveMove(ctx, added.OrderID, added.MoveID)
	case added.WorkOrderID != uuid.Nil:
		err = h.service.ResolveWorkOrder(ctx, added.OrderID, added.WorkOrderID)
	default:
		return nil
	}
	if err != nil {
		h.logger.Error("failed to resolve tracking item for late resource",
			zap.String("order_id", added.OrderID.String()),
			zap.Error(err))
		return fmt.Errorf("resolving late resource: %w", err)
	}
	return nil
}

// Ensure ResourceAddedHandler implements shared.EventHandler
var _ shared.EventHandler = (*ResourceAddedHandler)(nil)
