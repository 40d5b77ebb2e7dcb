package costing

import (
	"context"
	"fmt"

	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderCompletedHandler runs the final WIP clearing when a production
// order reaches done
type OrderCompletedHandler struct {
	service *TrackingService
	logger  *zap.Logger
}

// NewOrderCompletedHandler creates a new handler for order completed events
func NewOrderCompletedHandler(service *TrackingService, logger *zap.Logger) *OrderCompletedHandler {
	return &OrderCompletedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCompletedHandler) EventTypes() []string {
	return []string{"ProductionOrderCompleted"}
}

// Handle finalizes the order's cost tracking
func (h *OrderCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*production.ProductionOrderCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected ProductionOrderCompleted, got %s", event.EventType())
	}

	h.logger.Info("finalizing cost tracking for completed order",
		zap.String("order_id", completed.OrderID.String()),
		zap.String("order_number", completed.OrderNumber))

	if err := h.service.FinalizeOrder(ctx, completed.OrderID); err != nil {
		h.logger.Error("failed to finalize cost tracking",
			zap.String("order_id", completed.OrderID.String()),
			zap.Error(err))
		return fmt.Errorf("finalizing cost tracking: %w", err)
	}
	return nil
}

// Ensure OrderCompletedHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderCompletedHandler)(nil)
