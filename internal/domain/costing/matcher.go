package costing

import (
	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderRef carries the slice of production order state the matcher needs:
// identity, whether the order is in a state where cost tracking applies,
// and the analytic account costs are charged to. A nil analytic account
// means cost tracking is not enabled for the order.
type OrderRef struct {
	OrderID           uuid.UUID
	OrderNumber       string
	Trackable         bool
	AnalyticAccountID uuid.UUID
}

// ResourceDescriptor describes one resource of a production order for
// which a tracking item should exist. Kind selects which source key
// applies; the remaining fields feed the planned baseline.
type ResourceDescriptor struct {
	Kind         ResourceKind
	ProductID    uuid.UUID
	StockMoveID  *uuid.UUID // materials
	WorkOrderID  *uuid.UUID // operations
	WorkCenterID *uuid.UUID // operations and work-center aggregates
	LocationID   *uuid.UUID // consumption destination, for account resolution
	ParentID     *uuid.UUID // owning aggregate item, if any

	PlannedQty    decimal.Decimal
	UnitCost      decimal.Decimal
	CostFactor    decimal.Decimal // per-unit multiplier, defaults to 1
	PlannedAmount decimal.Decimal // overrides factor*qty*unitCost when nonzero

	// RefreshBaseline replaces the planned baseline of an existing item.
	// Off by default: re-running resolution must not silently rewrite plans.
	RefreshBaseline bool
}

func (d ResourceDescriptor) validateKeys() error {
	switch d.Kind {
	case KindMaterial:
		if d.WorkOrderID != nil {
			return shared.NewDomainError("INVALID_INPUT", "Material descriptor cannot carry a work order key")
		}
	case KindOperation:
		if d.WorkOrderID == nil {
			return shared.NewDomainError("INVALID_INPUT", "Operation descriptor requires a work order key")
		}
		if d.StockMoveID != nil {
			return shared.NewDomainError("INVALID_INPUT", "Operation descriptor cannot carry a stock move key")
		}
	case KindBomAggregate:
		if d.StockMoveID != nil || d.WorkOrderID != nil {
			return shared.NewDomainError("INVALID_INPUT", "Aggregate descriptor cannot carry move or work order keys")
		}
	}
	return nil
}

// plannedAmount computes the baseline for a new or refreshed item.
// An explicit amount wins; otherwise factor * qty * unit cost, where a
// zero quantity falls back to the parent aggregate's planned quantity.
func (d ResourceDescriptor) plannedAmount(parent *TrackingItem) (decimal.Decimal, decimal.Decimal) {
	qty := d.PlannedQty
	if qty.IsZero() && parent != nil {
		qty = parent.PlannedQty
	}
	if !d.PlannedAmount.IsZero() {
		return qty, d.PlannedAmount
	}
	factor := d.CostFactor
	if factor.IsZero() {
		factor = decimal.NewFromInt(1)
	}
	return qty, factor.Mul(qty).Mul(d.UnitCost)
}

// ResolveResult reports what the matcher did for one descriptor
type ResolveResult struct {
	Item    *TrackingItem
	Created bool
}

// Matcher finds or creates the tracking item for a resource. It is a pure
// domain service: it works over the items the caller loaded and never
// touches storage itself.
type Matcher struct{}

// NewMatcher creates a new Matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Resolve finds the unique tracking item matching the descriptor among the
// order's existing items, or creates one. It returns nil (and no error)
// when the order has no analytic account, ErrInvalidState when the order
// is not in a trackable state, and ErrDuplicateTrackingItem when more than
// one existing item matches the same source.
func (m *Matcher) Resolve(ref OrderRef, existing []*TrackingItem, desc ResourceDescriptor) (*ResolveResult, error) {
	if !ref.Trackable {
		return nil, shared.ErrInvalidState
	}
	if ref.AnalyticAccountID == uuid.Nil {
		return nil, nil
	}
	if !desc.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Resource kind is not valid")
	}
	if err := desc.validateKeys(); err != nil {
		return nil, err
	}

	item, err := m.match(existing, desc)
	if err != nil {
		return nil, err
	}

	if item != nil {
		if item.AnalyticAccountID != ref.AnalyticAccountID {
			if err := item.SetAnalyticAccount(ref.AnalyticAccountID); err != nil {
				return nil, err
			}
		}
		if err := m.bindSource(item, desc); err != nil {
			return nil, err
		}
		if desc.RefreshBaseline {
			qty, amount := desc.plannedAmount(m.parentOf(existing, desc))
			if err := item.RefreshBaseline(qty, amount); err != nil {
				return nil, err
			}
		}
		return &ResolveResult{Item: item}, nil
	}

	parent := m.parentOf(existing, desc)
	qty, amount := desc.plannedAmount(parent)
	desc.PlannedQty = qty
	desc.PlannedAmount = amount
	created, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, desc)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{Item: created, Created: true}, nil
}

// ResolveAll resolves a batch of descriptors against one order. Items
// created by earlier descriptors are visible to later ones, so an
// aggregate and its children can be resolved in a single pass.
func (m *Matcher) ResolveAll(ref OrderRef, existing []*TrackingItem, descs []ResourceDescriptor) ([]*ResolveResult, error) {
	results := make([]*ResolveResult, 0, len(descs))
	pool := make([]*TrackingItem, len(existing))
	copy(pool, existing)
	for _, desc := range descs {
		result, err := m.Resolve(ref, pool, desc)
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		if result.Created {
			pool = append(pool, result.Item)
		}
		results = append(results, result)
	}
	return results, nil
}

// match returns the unique existing item for the descriptor's source, or
// nil when none exists. Materials match their stock move first, then fall
// back to a product-level item not yet bound to a move; operations match
// their work order, then a work-center aggregate.
func (m *Matcher) match(existing []*TrackingItem, desc ResourceDescriptor) (*TrackingItem, error) {
	var direct, fallback []*TrackingItem

	for _, item := range existing {
		if item.State == ItemStateCancelled {
			continue
		}
		switch desc.Kind {
		case KindMaterial:
			if desc.StockMoveID != nil && item.StockMoveID != nil && *item.StockMoveID == *desc.StockMoveID {
				direct = append(direct, item)
				continue
			}
			if item.StockMoveID == nil && item.WorkOrderID == nil && item.ProductID == desc.ProductID {
				fallback = append(fallback, item)
			}
		case KindOperation:
			if item.WorkOrderID != nil && *item.WorkOrderID == *desc.WorkOrderID {
				direct = append(direct, item)
				continue
			}
			// an explicit parent makes the operation a child of the
			// aggregate, not a binding candidate for it
			if desc.ParentID == nil && item.Kind == KindBomAggregate && item.WorkOrderID == nil &&
				desc.WorkCenterID != nil && item.WorkCenterID != nil && *item.WorkCenterID == *desc.WorkCenterID {
				fallback = append(fallback, item)
			}
		case KindBomAggregate:
			if item.Kind != KindBomAggregate {
				continue
			}
			if item.ProductID == desc.ProductID && sameOptionalID(item.WorkCenterID, desc.WorkCenterID) {
				direct = append(direct, item)
			}
		}
	}

	candidates := direct
	if len(candidates) == 0 {
		candidates = fallback
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	default:
		return nil, shared.ErrDuplicateTrackingItem
	}
}

// bindSource attaches the descriptor's concrete source to an item that was
// matched through the fallback path
func (m *Matcher) bindSource(item *TrackingItem, desc ResourceDescriptor) error {
	switch desc.Kind {
	case KindMaterial:
		if desc.StockMoveID != nil && item.StockMoveID == nil {
			if err := item.BindStockMove(*desc.StockMoveID); err != nil {
				return err
			}
			if item.LocationID == nil {
				item.LocationID = desc.LocationID
			}
		}
	case KindOperation:
		if item.WorkOrderID == nil {
			return item.BindWorkOrder(*desc.WorkOrderID)
		}
	}
	return nil
}

func (m *Matcher) parentOf(existing []*TrackingItem, desc ResourceDescriptor) *TrackingItem {
	if desc.ParentID == nil {
		return nil
	}
	for _, item := range existing {
		if item.ID == *desc.ParentID {
			return item
		}
	}
	return nil
}

func sameOptionalID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
