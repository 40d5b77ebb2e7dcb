package costing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperationCostLine(t *testing.T) {
	workOrderID := uuid.New()
	workCenterID := uuid.New()
	item, err := NewTrackingItem(uuid.New(), uuid.New(), ResourceDescriptor{
		Kind:         KindOperation,
		ProductID:    uuid.New(),
		WorkOrderID:  &workOrderID,
		WorkCenterID: &workCenterID,
	})
	require.NoError(t, err)

	// 90 minutes at 20/hour books 1.5 hours for -30
	line, err := NewOperationCostLine(item, workOrderID, "assembly", decimal.NewFromInt(90), decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.True(t, line.Quantity.Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, line.Amount.Equal(decimal.NewFromInt(-30)))

	// logging more time replaces the line's total, not appends
	require.NoError(t, line.UpdateOperationTime(decimal.NewFromInt(120), decimal.NewFromInt(20)))
	assert.True(t, line.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, line.Amount.Equal(decimal.NewFromInt(-40)))
}

func TestNewMaterialCostLine(t *testing.T) {
	moveID := uuid.New()
	item, err := NewTrackingItem(uuid.New(), uuid.New(), materialDescriptor(moveID))
	require.NoError(t, err)

	line, err := NewMaterialCostLine(item, moveID, "steel plate", decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, line.Amount.Equal(decimal.NewFromInt(-50)))

	require.NoError(t, line.AddQuantity(decimal.NewFromInt(2), decimal.NewFromInt(5)))
	assert.True(t, line.Quantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, line.Amount.Equal(decimal.NewFromInt(-60)))
}

func TestAmountCalculator_Recompute(t *testing.T) {
	calc := NewAmountCalculator()
	moveID := uuid.New()
	item, err := NewTrackingItem(uuid.New(), uuid.New(), materialDescriptor(moveID))
	require.NoError(t, err)

	line, err := NewMaterialCostLine(item, moveID, "steel plate", decimal.NewFromInt(6), decimal.NewFromInt(5))
	require.NoError(t, err)

	calc.Recompute([]*TrackingItem{item}, []*CostLine{line})

	assert.True(t, item.ActualAmount.Equal(decimal.NewFromInt(30)), "actual is the negated line sum")
	assert.True(t, item.PendingAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, item.VarianceAmount.Equal(decimal.NewFromInt(-20)), "under plan by 20")
	assert.True(t, item.RemainingAmount.Equal(decimal.NewFromInt(20)))
}

func TestAmountCalculator_RemainingClampsAtZero(t *testing.T) {
	calc := NewAmountCalculator()
	moveID := uuid.New()
	item, err := NewTrackingItem(uuid.New(), uuid.New(), materialDescriptor(moveID))
	require.NoError(t, err)

	// consume 14 units against a plan of 10
	line, err := NewMaterialCostLine(item, moveID, "steel plate", decimal.NewFromInt(14), decimal.NewFromInt(5))
	require.NoError(t, err)

	calc.Recompute([]*TrackingItem{item}, []*CostLine{line})

	assert.True(t, item.ActualAmount.Equal(decimal.NewFromInt(70)))
	assert.True(t, item.VarianceAmount.Equal(decimal.NewFromInt(20)))
	assert.True(t, item.RemainingAmount.IsZero(), "remaining never goes negative")
}

func TestAmountCalculator_AggregatesChildren(t *testing.T) {
	calc := NewAmountCalculator()
	ref := trackableOrder()

	parent, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:          KindBomAggregate,
		ProductID:     uuid.New(),
		PlannedAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	childMove := uuid.New()
	child, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &childMove,
		ParentID:    &parent.ID,
	})
	require.NoError(t, err)

	childLine, err := NewMaterialCostLine(child, childMove, "component", decimal.NewFromInt(4), decimal.NewFromInt(10))
	require.NoError(t, err)

	calc.Recompute([]*TrackingItem{parent, child}, []*CostLine{childLine})

	assert.True(t, child.ActualAmount.Equal(decimal.NewFromInt(40)))
	assert.True(t, parent.ActualAmount.Equal(decimal.NewFromInt(40)), "parent includes child actuals")
	assert.True(t, parent.VarianceAmount.Equal(decimal.NewFromInt(-60)))
}

func TestAmountCalculator_SkipsCancelledChildren(t *testing.T) {
	calc := NewAmountCalculator()
	ref := trackableOrder()

	parent, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:          KindBomAggregate,
		ProductID:     uuid.New(),
		PlannedAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	childMove := uuid.New()
	child, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &childMove,
		ParentID:    &parent.ID,
	})
	require.NoError(t, err)
	childLine, err := NewMaterialCostLine(child, childMove, "component", decimal.NewFromInt(4), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, child.Cancel())

	calc.Recompute([]*TrackingItem{parent, child}, []*CostLine{childLine})

	assert.True(t, parent.ActualAmount.IsZero(), "cancelled children do not contribute")
}
