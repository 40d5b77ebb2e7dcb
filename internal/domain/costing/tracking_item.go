package costing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RoundingTolerance is the maximum absolute residual allowed when checking
// that posting lines balance or that accounted amounts do not overrun actuals.
var RoundingTolerance = decimal.New(1, -4) // 0.0001

// ItemState represents the lifecycle state of a tracking item.
// It is derived from the owning production order's lifecycle:
// items stay Draft while the order executes, move to Confirmed once an
// interim WIP posting has advanced their accounted amount, and reach a
// terminal state together with the order.
type ItemState string

const (
	ItemStateDraft     ItemState = "DRAFT"
	ItemStateConfirmed ItemState = "CONFIRMED"
	ItemStateDone      ItemState = "DONE"
	ItemStateCancelled ItemState = "CANCELLED"
)

// IsValid checks if the state is a valid ItemState
func (s ItemState) IsValid() bool {
	switch s {
	case ItemStateDraft, ItemStateConfirmed, ItemStateDone, ItemStateCancelled:
		return true
	}
	return false
}

// String returns the string representation of ItemState
func (s ItemState) String() string {
	return string(s)
}

// IsTerminal returns true if the item can no longer accumulate cost
func (s ItemState) IsTerminal() bool {
	return s == ItemStateDone || s == ItemStateCancelled
}

// IsOpen returns true if the item can still be posted against
func (s ItemState) IsOpen() bool {
	return s == ItemStateDraft || s == ItemStateConfirmed
}

// ResourceKind identifies which kind of physical or planning object a
// tracking item represents. Exactly one source key is set per kind:
// a stock move for materials, a work order for operations, and a
// product (optionally a work center) for BOM-level aggregates.
type ResourceKind string

const (
	KindMaterial     ResourceKind = "MATERIAL"
	KindOperation    ResourceKind = "OPERATION"
	KindBomAggregate ResourceKind = "BOM_AGGREGATE"
)

// IsValid checks if the kind is a valid ResourceKind
func (k ResourceKind) IsValid() bool {
	switch k {
	case KindMaterial, KindOperation, KindBomAggregate:
		return true
	}
	return false
}

// String returns the string representation of ResourceKind
func (k ResourceKind) String() string {
	return string(k)
}

// TrackingItem is the unit of cost accounting. It binds one resource of a
// production order (a raw material consumption move, a work order operation,
// or a BOM-level aggregate) to its planned baseline, the cost actually
// incurred, the portion already posted to the books, and the variance
// between plan and actual.
type TrackingItem struct {
	shared.BaseAggregateRoot
	OrderID           uuid.UUID    `json:"order_id"`
	Kind              ResourceKind `json:"kind"`
	ProductID         uuid.UUID    `json:"product_id"`
	StockMoveID       *uuid.UUID   `json:"stock_move_id,omitempty"`
	WorkOrderID       *uuid.UUID   `json:"work_order_id,omitempty"`
	WorkCenterID      *uuid.UUID   `json:"work_center_id,omitempty"`
	LocationID        *uuid.UUID   `json:"location_id,omitempty"` // consumption destination, for account resolution
	ParentID          *uuid.UUID   `json:"parent_id,omitempty"`
	AnalyticAccountID uuid.UUID    `json:"analytic_account_id"`

	PlannedQty    decimal.Decimal `json:"planned_qty"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`

	// Derived fields, maintained by the amount calculator
	ActualAmount    decimal.Decimal `json:"actual_amount"`
	AccountedAmount decimal.Decimal `json:"accounted_amount"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	VarianceAmount  decimal.Decimal `json:"variance_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`

	State ItemState `json:"state"`
}

// NewTrackingItem creates a new tracking item for the given order and resource.
// The descriptor's source keys must be consistent with its kind.
func NewTrackingItem(orderID, analyticAccountID uuid.UUID, desc ResourceDescriptor) (*TrackingItem, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if analyticAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Analytic account ID cannot be empty")
	}
	if desc.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !desc.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Resource kind is not valid")
	}
	if err := desc.validateKeys(); err != nil {
		return nil, err
	}

	item := &TrackingItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		Kind:              desc.Kind,
		ProductID:         desc.ProductID,
		StockMoveID:       desc.StockMoveID,
		WorkOrderID:       desc.WorkOrderID,
		WorkCenterID:      desc.WorkCenterID,
		LocationID:        desc.LocationID,
		ParentID:          desc.ParentID,
		AnalyticAccountID: analyticAccountID,
		PlannedQty:        desc.PlannedQty,
		PlannedAmount:     desc.PlannedAmount,
		ActualAmount:      decimal.Zero,
		AccountedAmount:   decimal.Zero,
		PendingAmount:     decimal.Zero,
		VarianceAmount:    decimal.Zero,
		RemainingAmount:   desc.PlannedAmount,
		State:             ItemStateDraft,
	}

	item.AddDomainEvent(NewTrackingItemCreatedEvent(item))

	return item, nil
}

// SourceKey returns a stable identifier for the physical/planning object
// this item represents. At most one tracking item may exist per
// (order, source key) pair.
func (t *TrackingItem) SourceKey() string {
	switch t.Kind {
	case KindMaterial:
		return fmt.Sprintf("move:%s", t.StockMoveID)
	case KindOperation:
		return fmt.Sprintf("workorder:%s", t.WorkOrderID)
	default:
		wc := uuid.Nil
		if t.WorkCenterID != nil {
			wc = *t.WorkCenterID
		}
		return fmt.Sprintf("bom:%s:%s", t.ProductID, wc)
	}
}

// SetAnalyticAccount updates the analytic account reference
func (t *TrackingItem) SetAnalyticAccount(accountID uuid.UUID) error {
	if t.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify tracking item in %s state", t.State))
	}
	if accountID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACCOUNT", "Analytic account ID cannot be empty")
	}
	t.AnalyticAccountID = accountID
	t.Touch()
	t.IncrementVersion()
	return nil
}

// RefreshBaseline replaces the planned baseline. Only valid while the item
// is still open; callers must request this explicitly.
func (t *TrackingItem) RefreshBaseline(qty, amount decimal.Decimal) error {
	if t.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refresh baseline in %s state", t.State))
	}
	t.PlannedQty = qty
	t.PlannedAmount = amount
	t.Touch()
	t.IncrementVersion()
	return nil
}

// AdvanceAccounted moves the accounted amount toward the actual amount.
// The accounted amount is monotonic: it never retreats and never exceeds
// the actual amount by more than the rounding tolerance.
func (t *TrackingItem) AdvanceAccounted(to decimal.Decimal) error {
	if t.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot post against tracking item in %s state", t.State))
	}
	if to.LessThan(t.AccountedAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Accounted amount cannot retreat")
	}
	if to.Sub(t.ActualAmount).GreaterThan(RoundingTolerance) {
		return shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Accounted amount %s would exceed actual amount %s", to, t.ActualAmount))
	}
	t.AccountedAmount = to
	t.PendingAmount = t.ActualAmount.Sub(t.AccountedAmount)
	if t.State == ItemStateDraft && !t.AccountedAmount.IsZero() {
		t.State = ItemStateConfirmed
	}
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Close finalizes the item when the owning order completes. The accounted
// amount is forced to the actual amount and the remaining amount drops to
// zero; any residual difference between plan and actual stays recorded as
// variance.
func (t *TrackingItem) Close() error {
	if t.State == ItemStateCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot close a cancelled tracking item")
	}
	if t.State == ItemStateDone {
		return nil // already closed, idempotent
	}
	t.AccountedAmount = t.ActualAmount
	t.PendingAmount = decimal.Zero
	t.RemainingAmount = decimal.Zero
	t.State = ItemStateDone
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTrackingItemClosedEvent(t))
	return nil
}

// Cancel marks the item cancelled along with its owning order.
// No postings are ever generated for a cancelled item.
func (t *TrackingItem) Cancel() error {
	if t.State == ItemStateDone {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a closed tracking item")
	}
	if t.State == ItemStateCancelled {
		return nil // idempotent
	}
	t.State = ItemStateCancelled
	t.PendingAmount = decimal.Zero
	t.RemainingAmount = decimal.Zero
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTrackingItemCancelledEvent(t))
	return nil
}

// BindStockMove attaches a stock move to an item that was created before
// the move existed (a BOM-level or pre-aggregated item).
func (t *TrackingItem) BindStockMove(moveID uuid.UUID) error {
	if t.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify tracking item in %s state", t.State))
	}
	if t.StockMoveID != nil && *t.StockMoveID != moveID {
		return shared.NewDomainError("INVALID_STATE", "Tracking item is already bound to another stock move")
	}
	t.StockMoveID = &moveID
	t.Touch()
	t.IncrementVersion()
	return nil
}

// BindWorkOrder attaches a work order to a work-center-level aggregate item
func (t *TrackingItem) BindWorkOrder(workOrderID uuid.UUID) error {
	if t.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot modify tracking item in %s state", t.State))
	}
	if t.WorkOrderID != nil && *t.WorkOrderID != workOrderID {
		return shared.NewDomainError("INVALID_STATE", "Tracking item is already bound to another work order")
	}
	t.WorkOrderID = &workOrderID
	t.Touch()
	t.IncrementVersion()
	return nil
}

// IsUsed returns true if any actual cost was recorded against the item
func (t *TrackingItem) IsUsed() bool {
	return !t.ActualAmount.IsZero()
}

// IsPlanned returns true if the item carries a planned baseline
func (t *TrackingItem) IsPlanned() bool {
	return t.PlannedAmount.GreaterThan(decimal.Zero)
}

// HasPending returns true if actual cost is waiting for a WIP posting
func (t *TrackingItem) HasPending() bool {
	return !t.PendingAmount.IsZero()
}

// ValuationKey returns the key used to resolve posting accounts for this
// item: raw materials resolve from the consumption destination location,
// operations from the work center.
func (t *TrackingItem) ValuationKey() ValuationKey {
	return ValuationKey{
		LocationID:   t.LocationID,
		WorkCenterID: t.WorkCenterID,
	}
}
