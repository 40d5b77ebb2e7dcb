package costing

import (
	"context"
	"fmt"

	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderConfirmedHandler seeds tracking items when a production order is
// confirmed
type OrderConfirmedHandler struct {
	service *TrackingService
	logger  *zap.Logger
}

// NewOrderConfirmedHandler creates a new handler for order confirmed events
func NewOrderConfirmedHandler(service *TrackingService, logger *zap.Logger) *OrderConfirmedHandler {
	return &OrderConfirmedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderConfirmedHandler) EventTypes() []string {
	return []string{"ProductionOrderConfirmed"}
}

// Handle seeds the tracking items for the confirmed order
func (h *OrderConfirmedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*production.ProductionOrderConfirmedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected ProductionOrderConfirmed, got %s", event.EventType())
	}

	h.logger.Info("seeding tracking items for confirmed order",
		zap.String("order_id", confirmed.OrderID.String()),
		zap.String("order_number", confirmed.OrderNumber))

	if err := h.service.SeedOrderItems(ctx, confirmed.OrderID); err != nil {
		h.logger.Error("failed to seed tracking items",
			zap.String("order_id", confirmed.OrderID.String()),
			zap.Error(err))
		return fmt.Errorf("seeding tracking items: %w", err)
	}
	return nil
}

// Ensure OrderConfirmedHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderConfirmedHandler)(nil)
