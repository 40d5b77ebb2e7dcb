package production

import (
	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductionOrderConfirmedEvent is raised when an order is confirmed and
// becomes eligible for cost tracking
type ProductionOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	AnalyticAccountID uuid.UUID       `json:"analytic_account_id"`
}

// EventType returns the event type name
func (e *ProductionOrderConfirmedEvent) EventType() string {
	return "ProductionOrderConfirmed"
}

// NewProductionOrderConfirmedEvent creates a new ProductionOrderConfirmedEvent
func NewProductionOrderConfirmedEvent(o *ProductionOrder) *ProductionOrderConfirmedEvent {
	return &ProductionOrderConfirmedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("ProductionOrderConfirmed", "ProductionOrder", o.ID),
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		ProductID:         o.ProductID,
		Quantity:          o.Quantity,
		AnalyticAccountID: o.AnalyticAccountID,
	}
}

// ConsumptionRecordedEvent is raised when raw material is consumed
type ConsumptionRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	MoveID      uuid.UUID       `json:"move_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ConsumedQty decimal.Decimal `json:"consumed_qty"`
}

// EventType returns the event type name
func (e *ConsumptionRecordedEvent) EventType() string {
	return "ConsumptionRecorded"
}

// NewConsumptionRecordedEvent creates a new ConsumptionRecordedEvent
func NewConsumptionRecordedEvent(o *ProductionOrder, move *RawMaterialMove, quantity decimal.Decimal) *ConsumptionRecordedEvent {
	return &ConsumptionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ConsumptionRecorded", "ProductionOrder", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		MoveID:          move.ID,
		ProductID:       move.ProductID,
		Quantity:        quantity,
		UnitCost:        move.UnitCost,
		ConsumedQty:     move.ConsumedQty,
	}
}

// OperationTimeLoggedEvent is raised when time is logged on a work order.
// TotalMinutes carries the cumulative duration, not the increment.
type OperationTimeLoggedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	WorkOrderID  uuid.UUID       `json:"work_order_id"`
	WorkCenterID uuid.UUID       `json:"work_center_id"`
	TotalMinutes decimal.Decimal `json:"total_minutes"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
}

// EventType returns the event type name
func (e *OperationTimeLoggedEvent) EventType() string {
	return "OperationTimeLogged"
}

// NewOperationTimeLoggedEvent creates a new OperationTimeLoggedEvent
func NewOperationTimeLoggedEvent(o *ProductionOrder, workOrder *WorkOrder) *OperationTimeLoggedEvent {
	return &OperationTimeLoggedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("OperationTimeLogged", "ProductionOrder", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		WorkOrderID:     workOrder.ID,
		WorkCenterID:    workOrder.WorkCenterID,
		TotalMinutes:    workOrder.DurationMinutes,
		HourlyRate:      workOrder.HourlyRate,
	}
}

// ResourceAddedEvent is raised when a raw material or work order is added
// to an order that is already confirmed. Exactly one of MoveID and
// WorkOrderID is set.
type ResourceAddedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	MoveID      uuid.UUID `json:"move_id,omitempty"`
	WorkOrderID uuid.UUID `json:"work_order_id,omitempty"`
}

// EventType returns the event type name
func (e *ResourceAddedEvent) EventType() string {
	return "ResourceAdded"
}

// NewResourceAddedEvent creates a new ResourceAddedEvent
func NewResourceAddedEvent(o *ProductionOrder, moveID, workOrderID uuid.UUID) *ResourceAddedEvent {
	return &ResourceAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ResourceAdded", "ProductionOrder", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		MoveID:          moveID,
		WorkOrderID:     workOrderID,
	}
}

// ProductionOrderCompletedEvent is raised when an order reaches done
type ProductionOrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ProductID   uuid.UUID `json:"product_id"`
}

// EventType returns the event type name
func (e *ProductionOrderCompletedEvent) EventType() string {
	return "ProductionOrderCompleted"
}

// NewProductionOrderCompletedEvent creates a new ProductionOrderCompletedEvent
func NewProductionOrderCompletedEvent(o *ProductionOrder) *ProductionOrderCompletedEvent {
	return &ProductionOrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ProductionOrderCompleted", "ProductionOrder", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		ProductID:       o.ProductID,
	}
}

// ProductionOrderCancelledEvent is raised when an order is cancelled
type ProductionOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	CancelReason string    `json:"cancel_reason"`
}

// EventType returns the event type name
func (e *ProductionOrderCancelledEvent) EventType() string {
	return "ProductionOrderCancelled"
}

// NewProductionOrderCancelledEvent creates a new ProductionOrderCancelledEvent
func NewProductionOrderCancelledEvent(o *ProductionOrder) *ProductionOrderCancelledEvent {
	return &ProductionOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ProductionOrderCancelled", "ProductionOrder", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CancelReason:    o.CancelReason,
	}
}
