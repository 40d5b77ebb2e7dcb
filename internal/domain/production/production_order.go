package production

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of a production order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusProgress  OrderStatus = "PROGRESS"
	OrderStatusToClose   OrderStatus = "TO_CLOSE"
	OrderStatusDone      OrderStatus = "DONE"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusProgress,
		OrderStatusToClose, OrderStatusDone, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the order reached a final state
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDone || s == OrderStatusCancelled
}

// IsTrackable returns true if cost tracking applies in this state
func (s OrderStatus) IsTrackable() bool {
	return s == OrderStatusConfirmed || s == OrderStatusProgress || s == OrderStatusToClose
}

// MoveStatus represents the state of a stock move or work order
type MoveStatus string

const (
	MoveStatusPending   MoveStatus = "PENDING"
	MoveStatusDone      MoveStatus = "DONE"
	MoveStatusCancelled MoveStatus = "CANCELLED"
)

// IsValid checks if the status is a valid MoveStatus
func (s MoveStatus) IsValid() bool {
	switch s {
	case MoveStatusPending, MoveStatusDone, MoveStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of MoveStatus
func (s MoveStatus) String() string {
	return string(s)
}

// RawMaterialMove is a planned raw material consumption of a production order
type RawMaterialMove struct {
	shared.BaseEntity
	OrderID               uuid.UUID       `json:"order_id"`
	ProductID             uuid.UUID       `json:"product_id"`
	Description           string          `json:"description"`
	PlannedQty            decimal.Decimal `json:"planned_qty"`
	ConsumedQty           decimal.Decimal `json:"consumed_qty"`
	UnitCost              decimal.Decimal `json:"unit_cost"`
	DestinationLocationID uuid.UUID       `json:"destination_location_id"`
	Status                MoveStatus      `json:"status"`
	AddedAfterConfirm     bool            `json:"added_after_confirm"`
}

// WorkOrder is an operation step of a production order executed at a work center
type WorkOrder struct {
	shared.BaseEntity
	OrderID         uuid.UUID       `json:"order_id"`
	Name            string          `json:"name"`
	WorkCenterID    uuid.UUID       `json:"work_center_id"`
	CostProductID   *uuid.UUID      `json:"cost_product_id,omitempty"` // service product carrying the standard cost, if any
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	CostFactor      decimal.Decimal `json:"cost_factor"` // cost share multiplier per hour, zero means 1
	PlannedMinutes  decimal.Decimal `json:"planned_minutes"`
	DurationMinutes decimal.Decimal `json:"duration_minutes"`
	Status          MoveStatus      `json:"status"`
}

// PlannedHours returns the planned duration on the hourly cost basis
func (w *WorkOrder) PlannedHours() decimal.Decimal {
	return w.PlannedMinutes.Div(decimal.NewFromInt(60))
}

// FinishedMove is the receipt of finished goods into stock at standard cost
type FinishedMove struct {
	shared.BaseEntity
	OrderID          uuid.UUID       `json:"order_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ProducedQty      decimal.Decimal `json:"produced_qty"`
	StandardUnitCost decimal.Decimal `json:"standard_unit_cost"`
	LocationID       uuid.UUID       `json:"location_id"`
	Status           MoveStatus      `json:"status"`
}

// StandardValue returns the at-standard-cost value of the produced quantity
func (f *FinishedMove) StandardValue() decimal.Decimal {
	return f.ProducedQty.Mul(f.StandardUnitCost)
}

// ProductionOrder is the aggregate root for a manufacturing order: the
// product to build, the planned raw material moves, the work order
// operations and the finished goods receipts. Cost tracking attaches to
// the order through its analytic account.
type ProductionOrder struct {
	shared.BaseAggregateRoot
	OrderNumber       string          `json:"order_number"`
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	AnalyticAccountID uuid.UUID       `json:"analytic_account_id"` // Nil when cost tracking is disabled
	Status            OrderStatus     `json:"status"`

	RawMoves      []RawMaterialMove `json:"raw_moves"`
	WorkOrders    []WorkOrder       `json:"work_orders"`
	FinishedMoves []FinishedMove    `json:"finished_moves"`

	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// NewProductionOrder creates a new production order in draft state
func NewProductionOrder(orderNumber string, productID uuid.UUID, quantity decimal.Decimal) (*ProductionOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order number cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &ProductionOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		ProductID:         productID,
		Quantity:          quantity,
		Status:            OrderStatusDraft,
		RawMoves:          make([]RawMaterialMove, 0),
		WorkOrders:        make([]WorkOrder, 0),
		FinishedMoves:     make([]FinishedMove, 0),
	}, nil
}

// SetAnalyticAccount enables cost tracking against the given analytic account
func (o *ProductionOrder) SetAnalyticAccount(accountID uuid.UUID) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify order in %s status", o.Status))
	}
	o.AnalyticAccountID = accountID
	o.Touch()
	o.IncrementVersion()
	return nil
}

// AddRawMaterial plans a raw material consumption. Materials added after
// confirmation are flagged so they join tracking with a zero baseline.
func (o *ProductionOrder) AddRawMaterial(productID uuid.UUID, description string, plannedQty, unitCost decimal.Decimal, destinationLocationID uuid.UUID) (*RawMaterialMove, error) {
	if o.Status != OrderStatusDraft && !o.Status.IsTrackable() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add materials in %s status", o.Status))
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if plannedQty.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Planned quantity cannot be negative")
	}
	late := o.Status != OrderStatusDraft
	move := RawMaterialMove{
		BaseEntity:            shared.NewBaseEntity(),
		OrderID:               o.ID,
		ProductID:             productID,
		Description:           description,
		PlannedQty:            plannedQty,
		ConsumedQty:           decimal.Zero,
		UnitCost:              unitCost,
		DestinationLocationID: destinationLocationID,
		Status:                MoveStatusPending,
		AddedAfterConfirm:     late,
	}
	o.RawMoves = append(o.RawMoves, move)
	o.Touch()
	o.IncrementVersion()
	if late {
		o.AddDomainEvent(NewResourceAddedEvent(o, move.ID, uuid.Nil))
	}
	return &o.RawMoves[len(o.RawMoves)-1], nil
}

// AddWorkOrder plans an operation step at a work center. The cost factor
// scales the hourly cost when the operation carries only a share of the
// work center's activity; zero means the full rate.
func (o *ProductionOrder) AddWorkOrder(name string, workCenterID uuid.UUID, costProductID *uuid.UUID, hourlyRate, plannedMinutes, costFactor decimal.Decimal) (*WorkOrder, error) {
	if o.Status != OrderStatusDraft && !o.Status.IsTrackable() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add work orders in %s status", o.Status))
	}
	if workCenterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Work center ID cannot be empty")
	}
	if costFactor.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cost factor cannot be negative")
	}
	late := o.Status != OrderStatusDraft
	workOrder := WorkOrder{
		BaseEntity:      shared.NewBaseEntity(),
		OrderID:         o.ID,
		Name:            name,
		WorkCenterID:    workCenterID,
		CostProductID:   costProductID,
		HourlyRate:      hourlyRate,
		CostFactor:      costFactor,
		PlannedMinutes:  plannedMinutes,
		DurationMinutes: decimal.Zero,
		Status:          MoveStatusPending,
	}
	o.WorkOrders = append(o.WorkOrders, workOrder)
	o.Touch()
	o.IncrementVersion()
	if late {
		o.AddDomainEvent(NewResourceAddedEvent(o, uuid.Nil, workOrder.ID))
	}
	return &o.WorkOrders[len(o.WorkOrders)-1], nil
}

// AddFinishedMove plans the receipt of finished goods at standard cost
func (o *ProductionOrder) AddFinishedMove(productID uuid.UUID, quantity, standardUnitCost decimal.Decimal, locationID uuid.UUID) (*FinishedMove, error) {
	if o.Status != OrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add finished moves in %s status", o.Status))
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	move := FinishedMove{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          o.ID,
		ProductID:        productID,
		Quantity:         quantity,
		ProducedQty:      decimal.Zero,
		StandardUnitCost: standardUnitCost,
		LocationID:       locationID,
		Status:           MoveStatusPending,
	}
	o.FinishedMoves = append(o.FinishedMoves, move)
	o.Touch()
	o.IncrementVersion()
	return &o.FinishedMoves[len(o.FinishedMoves)-1], nil
}

// Confirm moves the order from draft to confirmed, opening it for execution
// and cost tracking
func (o *ProductionOrder) Confirm() error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = OrderStatusConfirmed
	o.ConfirmedAt = &now
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewProductionOrderConfirmedEvent(o))
	return nil
}

// RecordConsumption books consumed quantity against a raw material move.
// The first consumption moves the order into progress. The move is marked
// done once the planned quantity is fully consumed.
func (o *ProductionOrder) RecordConsumption(moveID uuid.UUID, quantity decimal.Decimal) (*RawMaterialMove, error) {
	if !o.Status.IsTrackable() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record consumption in %s status", o.Status))
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	move := o.findRawMove(moveID)
	if move == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Raw material move not found on order")
	}
	if move.Status == MoveStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot consume against a cancelled move")
	}
	move.ConsumedQty = move.ConsumedQty.Add(quantity)
	if move.ConsumedQty.GreaterThanOrEqual(move.PlannedQty) && move.PlannedQty.IsPositive() {
		move.Status = MoveStatusDone
	}
	move.Touch()
	o.markStarted()
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewConsumptionRecordedEvent(o, move, quantity))
	return move, nil
}

// LogOperationTime adds worked minutes to a work order. The tracked total
// is cumulative; cost lines downstream are replaced, not appended.
func (o *ProductionOrder) LogOperationTime(workOrderID uuid.UUID, minutes decimal.Decimal) (*WorkOrder, error) {
	if !o.Status.IsTrackable() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot log time in %s status", o.Status))
	}
	if !minutes.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Logged minutes must be positive")
	}
	workOrder := o.findWorkOrder(workOrderID)
	if workOrder == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Work order not found on order")
	}
	if workOrder.Status == MoveStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot log time against a cancelled work order")
	}
	workOrder.DurationMinutes = workOrder.DurationMinutes.Add(minutes)
	workOrder.Touch()
	o.markStarted()
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOperationTimeLoggedEvent(o, workOrder))
	return workOrder, nil
}

// FinishWorkOrder marks an operation step finished
func (o *ProductionOrder) FinishWorkOrder(workOrderID uuid.UUID) error {
	if !o.Status.IsTrackable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finish work orders in %s status", o.Status))
	}
	workOrder := o.findWorkOrder(workOrderID)
	if workOrder == nil {
		return shared.NewDomainError("NOT_FOUND", "Work order not found on order")
	}
	if workOrder.Status == MoveStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Work order is cancelled")
	}
	workOrder.Status = MoveStatusDone
	workOrder.Touch()
	o.Touch()
	o.IncrementVersion()
	return nil
}

// RecordProduction books produced quantity on a finished move and marks it
// done once the planned quantity is reached
func (o *ProductionOrder) RecordProduction(finishedMoveID uuid.UUID, quantity decimal.Decimal) (*FinishedMove, error) {
	if !o.Status.IsTrackable() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record production in %s status", o.Status))
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Produced quantity must be positive")
	}
	move := o.findFinishedMove(finishedMoveID)
	if move == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Finished move not found on order")
	}
	move.ProducedQty = move.ProducedQty.Add(quantity)
	if move.ProducedQty.GreaterThanOrEqual(move.Quantity) {
		move.Status = MoveStatusDone
	}
	move.Touch()
	o.markStarted()
	o.Touch()
	o.IncrementVersion()
	return move, nil
}

// Complete finishes the order. All finished moves must be done. When work
// orders are still open the order parks in to_close instead of done, so
// the final cost clearing waits for the remaining operations.
func (o *ProductionOrder) Complete() error {
	if !o.Status.IsTrackable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	for i := range o.FinishedMoves {
		if o.FinishedMoves[i].Status != MoveStatusDone {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Finished move for product %s is not done", o.FinishedMoves[i].ProductID))
		}
	}
	if o.hasOpenWorkOrders() {
		o.Status = OrderStatusToClose
		o.Touch()
		o.IncrementVersion()
		return nil
	}
	now := time.Now()
	o.Status = OrderStatusDone
	o.CompletedAt = &now
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewProductionOrderCompletedEvent(o))
	return nil
}

// Cancel aborts the order. Done orders cannot be cancelled.
func (o *ProductionOrder) Cancel(reason string) error {
	if o.Status == OrderStatusDone {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a completed order")
	}
	if o.Status == OrderStatusCancelled {
		return nil // idempotent
	}
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	for i := range o.RawMoves {
		if o.RawMoves[i].Status == MoveStatusPending {
			o.RawMoves[i].Status = MoveStatusCancelled
		}
	}
	for i := range o.WorkOrders {
		if o.WorkOrders[i].Status == MoveStatusPending {
			o.WorkOrders[i].Status = MoveStatusCancelled
		}
	}
	for i := range o.FinishedMoves {
		if o.FinishedMoves[i].Status == MoveStatusPending {
			o.FinishedMoves[i].Status = MoveStatusCancelled
		}
	}
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewProductionOrderCancelledEvent(o))
	return nil
}

// HasAnalyticAccount returns true when cost tracking is enabled
func (o *ProductionOrder) HasAnalyticAccount() bool {
	return o.AnalyticAccountID != uuid.Nil
}

// FindRawMove returns the raw material move with the given ID, or nil
func (o *ProductionOrder) FindRawMove(moveID uuid.UUID) *RawMaterialMove {
	return o.findRawMove(moveID)
}

// FindWorkOrder returns the work order with the given ID, or nil
func (o *ProductionOrder) FindWorkOrder(workOrderID uuid.UUID) *WorkOrder {
	return o.findWorkOrder(workOrderID)
}

// FindFinishedMove returns the finished move with the given ID, or nil
func (o *ProductionOrder) FindFinishedMove(moveID uuid.UUID) *FinishedMove {
	return o.findFinishedMove(moveID)
}

func (o *ProductionOrder) findRawMove(moveID uuid.UUID) *RawMaterialMove {
	for i := range o.RawMoves {
		if o.RawMoves[i].ID == moveID {
			return &o.RawMoves[i]
		}
	}
	return nil
}

func (o *ProductionOrder) findWorkOrder(workOrderID uuid.UUID) *WorkOrder {
	for i := range o.WorkOrders {
		if o.WorkOrders[i].ID == workOrderID {
			return &o.WorkOrders[i]
		}
	}
	return nil
}

func (o *ProductionOrder) findFinishedMove(moveID uuid.UUID) *FinishedMove {
	for i := range o.FinishedMoves {
		if o.FinishedMoves[i].ID == moveID {
			return &o.FinishedMoves[i]
		}
	}
	return nil
}

func (o *ProductionOrder) hasOpenWorkOrders() bool {
	for i := range o.WorkOrders {
		if o.WorkOrders[i].Status == MoveStatusPending {
			return true
		}
	}
	return false
}

func (o *ProductionOrder) markStarted() {
	if o.Status == OrderStatusConfirmed {
		now := time.Now()
		o.Status = OrderStatusProgress
		o.StartedAt = &now
	}
}
