package costing

import (
	"context"
	"fmt"

	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderCancelledHandler cancels a cancelled order's tracking items so
// they never generate postings
type OrderCancelledHandler struct {
	service *TrackingService
	logger  *zap.Logger
}

// NewOrderCancelledHandler creates a new handler for order cancelled events
func NewOrderCancelledHandler(service *TrackingService, logger *zap.Logger) *OrderCancelledHandler {
	return &OrderCancelledHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCancelledHandler) EventTypes() []string {
	return []string{"ProductionOrderCancelled"}
}

// Handle cancels the order's tracking items
func (h *OrderCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelled, ok := event.(*production.ProductionOrderCancelledEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected ProductionOrderCancelled, got %s", event.EventType())
	}

	if err := h.service.CancelTracking(ctx, cancelled.OrderID); err != nil {
		h.logger.Error("failed to cancel tracking items",
			zap.String("order_id", cancelled.OrderID.String()),
			zap.Error(err))
		return fmt.Errorf("cancelling tracking items: %w", err)
	}
	return nil
}

// Ensure OrderCancelledHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderCancelledHandler)(nil)
