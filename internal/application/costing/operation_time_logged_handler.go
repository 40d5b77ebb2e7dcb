package costing

import (
	"context"
	"fmt"

	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OperationTimeLoggedHandler refreshes the work order's time cost line
// whenever new time is logged
type OperationTimeLoggedHandler struct {
	service *TrackingService
	logger  *zap.Logger
}

// NewOperationTimeLoggedHandler creates a new handler for time logged events
func NewOperationTimeLoggedHandler(service *TrackingService, logger *zap.Logger) *OperationTimeLoggedHandler {
	return &OperationTimeLoggedHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OperationTimeLoggedHandler) EventTypes() []string {
	return []string{"OperationTimeLogged"}
}

// Handle updates the work order's single time line to the cumulative total
func (h *OperationTimeLoggedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logged, ok := event.(*production.OperationTimeLoggedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected OperationTimeLogged, got %s", event.EventType())
	}

	if err := h.service.RecordOperationTime(ctx, logged.OrderID, logged.WorkOrderID); err != nil {
		h.logger.Error("failed to record operation time cost",
			zap.String("order_id", logged.OrderID.String()),
			zap.String("work_order_id", logged.WorkOrderID.String()),
			zap.Error(err))
		return fmt.Errorf("recording operation time cost: %w", err)
	}
	return nil
}

// Ensure OperationTimeLoggedHandler implements shared.EventHandler
var _ shared.EventHandler = (*OperationTimeLoggedHandler)(nil)
