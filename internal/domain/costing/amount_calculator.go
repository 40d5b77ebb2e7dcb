package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountCalculator derives the actual, pending, variance and remaining
// amounts of a set of tracking items from their cost lines. Items form a
// forest through ParentID; an aggregate's actual amount includes its
// children's, computed bottom-up.
type AmountCalculator struct{}

// NewAmountCalculator creates a new AmountCalculator
func NewAmountCalculator() *AmountCalculator {
	return &AmountCalculator{}
}

// Recompute recalculates the derived amounts of every open item in place.
// Cost lines carry negative amounts, so an item's own actual cost is the
// negated sum of its lines. Cancelled items are left untouched; closed
// items keep their accounted amount pinned to actual.
func (c *AmountCalculator) Recompute(items []*TrackingItem, lines []*CostLine) {
	lineSum := make(map[uuid.UUID]decimal.Decimal, len(items))
	for _, line := range lines {
		lineSum[line.TrackingItemID] = lineSum[line.TrackingItemID].Add(line.Amount)
	}

	children := make(map[uuid.UUID][]*TrackingItem)
	for _, item := range items {
		if item.ParentID != nil {
			children[*item.ParentID] = append(children[*item.ParentID], item)
		}
	}

	memo := make(map[uuid.UUID]decimal.Decimal, len(items))
	visiting := make(map[uuid.UUID]bool)

	var actualOf func(item *TrackingItem) decimal.Decimal
	actualOf = func(item *TrackingItem) decimal.Decimal {
		if v, ok := memo[item.ID]; ok {
			return v
		}
		if visiting[item.ID] {
			// broken parent chain, count own lines only
			return lineSum[item.ID].Neg()
		}
		visiting[item.ID] = true
		actual := lineSum[item.ID].Neg()
		for _, child := range children[item.ID] {
			if child.State == ItemStateCancelled {
				continue
			}
			actual = actual.Add(actualOf(child))
		}
		visiting[item.ID] = false
		memo[item.ID] = actual
		return actual
	}

	for _, item := range items {
		if item.State == ItemStateCancelled {
			continue
		}
		actual := actualOf(item)
		item.ActualAmount = actual
		item.VarianceAmount = actual.Sub(item.PlannedAmount)
		if item.State == ItemStateDone {
			item.AccountedAmount = actual
			item.PendingAmount = decimal.Zero
			item.RemainingAmount = decimal.Zero
			continue
		}
		item.PendingAmount = actual.Sub(item.AccountedAmount)
		if item.State == ItemStateDraft {
			remaining := item.PlannedAmount.Sub(actual)
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			item.RemainingAmount = remaining
		} else {
			item.RemainingAmount = decimal.Zero
		}
	}
}
