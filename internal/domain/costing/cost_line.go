package costing

import (
	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MinutesPerHour converts work order durations to the hourly cost basis.
var MinutesPerHour = decimal.NewFromInt(60)

// CostLine is a single analytic cost record charged against a tracking item.
// Costs carry a negative amount; the tracking item's actual amount is the
// negated sum of its lines. Work order time is maintained as one line per
// work order, updated in place as the logged duration grows.
type CostLine struct {
	shared.BaseEntity
	OrderID           uuid.UUID       `json:"order_id"`
	TrackingItemID    uuid.UUID       `json:"tracking_item_id"`
	AnalyticAccountID uuid.UUID       `json:"analytic_account_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	StockMoveID       *uuid.UUID      `json:"stock_move_id,omitempty"`
	WorkOrderID       *uuid.UUID      `json:"work_order_id,omitempty"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"` // units for materials, hours for operations
	Amount            decimal.Decimal `json:"amount"`   // negative for costs
}

// NewMaterialCostLine creates a cost line for a raw material consumption.
// The amount is the negated product of quantity and unit cost.
func NewMaterialCostLine(item *TrackingItem, stockMoveID uuid.UUID, description string, qty, unitCost decimal.Decimal) (*CostLine, error) {
	if item == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tracking item cannot be nil")
	}
	if stockMoveID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Stock move ID cannot be empty")
	}
	return &CostLine{
		BaseEntity:        shared.NewBaseEntity(),
		OrderID:           item.OrderID,
		TrackingItemID:    item.ID,
		AnalyticAccountID: item.AnalyticAccountID,
		ProductID:         item.ProductID,
		StockMoveID:       &stockMoveID,
		Description:       description,
		Quantity:          qty,
		Amount:            qty.Mul(unitCost).Neg(),
	}, nil
}

// NewOperationCostLine creates a cost line for work order time.
// Duration is given in minutes; the amount is the negated product of
// hours and the hourly rate.
func NewOperationCostLine(item *TrackingItem, workOrderID uuid.UUID, description string, durationMinutes, hourlyRate decimal.Decimal) (*CostLine, error) {
	if item == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tracking item cannot be nil")
	}
	if workOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Work order ID cannot be empty")
	}
	hours := durationMinutes.Div(MinutesPerHour)
	return &CostLine{
		BaseEntity:        shared.NewBaseEntity(),
		OrderID:           item.OrderID,
		TrackingItemID:    item.ID,
		AnalyticAccountID: item.AnalyticAccountID,
		ProductID:         item.ProductID,
		WorkOrderID:       &workOrderID,
		Description:       description,
		Quantity:          hours,
		Amount:            hours.Mul(hourlyRate).Neg(),
	}, nil
}

// UpdateOperationTime replaces the line's duration with the new total
// logged minutes, recomputing hours and amount at the given rate.
func (l *CostLine) UpdateOperationTime(durationMinutes, hourlyRate decimal.Decimal) error {
	if l.WorkOrderID == nil {
		return shared.NewDomainError("INVALID_STATE", "Cost line is not a work order time line")
	}
	hours := durationMinutes.Div(MinutesPerHour)
	l.Quantity = hours
	l.Amount = hours.Mul(hourlyRate).Neg()
	l.Touch()
	return nil
}

// AddQuantity accumulates further material consumption on an existing line
func (l *CostLine) AddQuantity(qty, unitCost decimal.Decimal) error {
	if l.StockMoveID == nil {
		return shared.NewDomainError("INVALID_STATE", "Cost line is not a material consumption line")
	}
	l.Quantity = l.Quantity.Add(qty)
	l.Amount = l.Amount.Add(qty.Mul(unitCost).Neg())
	l.Touch()
	return nil
}
