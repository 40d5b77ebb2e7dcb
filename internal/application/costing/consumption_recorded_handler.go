package costing

import (
	"context"
	"fmt"

	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ConsumptionRecordedHandler books material cost when raw material is
// consumed on a production order
type ConsumptionRecordedHandler struct {
	service *TrackingService
	logger  *zap.Logger
}

// NewConsumptionRecordedHandler creates a new handler for consumption events
func NewConsumptionRecordedHandler(service *TrackingService, logger *zap.Logger) *ConsumptionRecordedHandler {
	return &ConsumptionRecordedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ConsumptionRecordedHandler) EventTypes() []string {
	return []string{"ConsumptionRecorded"}
}

// Handle records the consumed quantity on the move's cost line
func (h *ConsumptionRecordedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	consumed, ok := event.(*production.ConsumptionRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected ConsumptionRecorded, got %s", event.EventType())
	}

	if err := h.service.RecordConsumption(ctx, consumed.OrderID, consumed.MoveID, consumed.Quantity); err != nil {
		h.logger.Error("failed to record consumption cost",
			zap.String("order_id", consumed.OrderID.String()),
			zap.String("move_id", consumed.MoveID.String()),
			zap.Error(err))
		return fmt.Errorf("recording consumption cost: %w", err)
	}
	return nil
}

// Ensure ConsumptionRecordedHandler implements shared.EventHandler
var _ shared.EventHandler = (*ConsumptionRecordedHandler)(nil)
