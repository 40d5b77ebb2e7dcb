package costing

import (
	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TrackingItemCreatedEvent is raised when a new tracking item is created
type TrackingItemCreatedEvent struct {
	shared.BaseDomainEvent
	TrackingItemID    uuid.UUID       `json:"tracking_item_id"`
	OrderID           uuid.UUID       `json:"order_id"`
	Kind              ResourceKind    `json:"kind"`
	ProductID         uuid.UUID       `json:"product_id"`
	AnalyticAccountID uuid.UUID       `json:"analytic_account_id"`
	PlannedQty        decimal.Decimal `json:"planned_qty"`
	PlannedAmount     decimal.Decimal `json:"planned_amount"`
}

// EventType returns the event type name
func (e *TrackingItemCreatedEvent) EventType() string {
	return "TrackingItemCreated"
}

// NewTrackingItemCreatedEvent creates a new TrackingItemCreatedEvent
func NewTrackingItemCreatedEvent(item *TrackingItem) *TrackingItemCreatedEvent {
	return &TrackingItemCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("TrackingItemCreated", "TrackingItem", item.ID),
		TrackingItemID:    item.ID,
		OrderID:           item.OrderID,
		Kind:              item.Kind,
		ProductID:         item.ProductID,
		AnalyticAccountID: item.AnalyticAccountID,
		PlannedQty:        item.PlannedQty,
		PlannedAmount:     item.PlannedAmount,
	}
}

// TrackingItemClosedEvent is raised when a tracking item is finalized
type TrackingItemClosedEvent struct {
	shared.BaseDomainEvent
	TrackingItemID  uuid.UUID       `json:"tracking_item_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	PlannedAmount   decimal.Decimal `json:"planned_amount"`
	ActualAmount    decimal.Decimal `json:"actual_amount"`
	AccountedAmount decimal.Decimal `json:"accounted_amount"`
	VarianceAmount  decimal.Decimal `json:"variance_amount"`
}

// EventType returns the event type name
func (e *TrackingItemClosedEvent) EventType() string {
	return "TrackingItemClosed"
}

// NewTrackingItemClosedEvent creates a new TrackingItemClosedEvent
func NewTrackingItemClosedEvent(item *TrackingItem) *TrackingItemClosedEvent {
	return &TrackingItemClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TrackingItemClosed", "TrackingItem", item.ID),
		TrackingItemID:  item.ID,
		OrderID:         item.OrderID,
		PlannedAmount:   item.PlannedAmount,
		ActualAmount:    item.ActualAmount,
		AccountedAmount: item.AccountedAmount,
		VarianceAmount:  item.VarianceAmount,
	}
}

// TrackingItemCancelledEvent is raised when a tracking item is cancelled
type TrackingItemCancelledEvent struct {
	shared.BaseDomainEvent
	TrackingItemID uuid.UUID       `json:"tracking_item_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	PlannedAmount  decimal.Decimal `json:"planned_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
}

// EventType returns the event type name
func (e *TrackingItemCancelledEvent) EventType() string {
	return "TrackingItemCancelled"
}

// NewTrackingItemCancelledEvent creates a new TrackingItemCancelledEvent
func NewTrackingItemCancelledEvent(item *TrackingItem) *TrackingItemCancelledEvent {
	return &TrackingItemCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TrackingItemCancelled", "TrackingItem", item.ID),
		TrackingItemID:  item.ID,
		OrderID:         item.OrderID,
		PlannedAmount:   item.PlannedAmount,
		ActualAmount:    item.ActualAmount,
	}
}

// WipEntryPostedEvent is raised when a WIP or variance journal entry is posted
type WipEntryPostedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	LedgerEntryID uuid.UUID       `json:"ledger_entry_id"`
	Reference     string          `json:"reference"`
	LineCount     int             `json:"line_count"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	Final         bool            `json:"final"`
}

// EventType returns the event type name
func (e *WipEntryPostedEvent) EventType() string {
	return "WipEntryPosted"
}

// NewWipEntryPostedEvent creates a new WipEntryPostedEvent
func NewWipEntryPostedEvent(orderID uuid.UUID, entry *LedgerEntry, final bool) *WipEntryPostedEvent {
	totalDebit := decimal.Zero
	for _, line := range entry.Lines {
		if line.Amount.IsPositive() {
			totalDebit = totalDebit.Add(line.Amount)
		}
	}
	return &WipEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("WipEntryPosted", "LedgerEntry", entry.ID),
		OrderID:         orderID,
		LedgerEntryID:   entry.ID,
		Reference:       entry.Reference,
		LineCount:       len(entry.Lines),
		TotalDebit:      totalDebit,
		Final:           final,
	}
}
