package costing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackableOrder() OrderRef {
	return OrderRef{
		OrderID:           uuid.New(),
		OrderNumber:       "MO-0001",
		Trackable:         true,
		AnalyticAccountID: uuid.New(),
	}
}

func TestMatcher_Resolve_CreatesItem(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	moveID := uuid.New()

	result, err := matcher.Resolve(ref, nil, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
		PlannedQty:  decimal.NewFromInt(10),
		UnitCost:    decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Created)
	assert.Equal(t, ref.OrderID, result.Item.OrderID)
	assert.Equal(t, ref.AnalyticAccountID, result.Item.AnalyticAccountID)
	assert.True(t, result.Item.PlannedAmount.Equal(decimal.NewFromInt(50)),
		"planned amount should be qty * unit cost, got %s", result.Item.PlannedAmount)
}

func TestMatcher_Resolve_CostFactor(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	moveID := uuid.New()

	result, err := matcher.Resolve(ref, nil, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
		PlannedQty:  decimal.NewFromInt(10),
		UnitCost:    decimal.NewFromInt(5),
		CostFactor:  decimal.NewFromFloat(0.5),
	})
	require.NoError(t, err)
	assert.True(t, result.Item.PlannedAmount.Equal(decimal.NewFromInt(25)))
}

func TestMatcher_Resolve_FindsExistingByMove(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	moveID := uuid.New()
	desc := ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
		PlannedQty:  decimal.NewFromInt(10),
		UnitCost:    decimal.NewFromInt(5),
	}

	first, err := matcher.Resolve(ref, nil, desc)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := matcher.Resolve(ref, []*TrackingItem{first.Item}, desc)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Item.ID, second.Item.ID)
}

func TestMatcher_Resolve_FallbackToProductItem(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	productID := uuid.New()

	// pre-created product-level item with no move bound yet
	existing, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:          KindMaterial,
		ProductID:     productID,
		PlannedQty:    decimal.NewFromInt(10),
		PlannedAmount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	moveID := uuid.New()
	result, err := matcher.Resolve(ref, []*TrackingItem{existing}, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   productID,
		StockMoveID: &moveID,
	})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, existing.ID, result.Item.ID)
	require.NotNil(t, result.Item.StockMoveID)
	assert.Equal(t, moveID, *result.Item.StockMoveID)
}

func TestMatcher_Resolve_OperationFallsBackToWorkCenterAggregate(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	workCenterID := uuid.New()

	aggregate, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:          KindBomAggregate,
		ProductID:     uuid.New(),
		WorkCenterID:  &workCenterID,
		PlannedAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	workOrderID := uuid.New()
	result, err := matcher.Resolve(ref, []*TrackingItem{aggregate}, ResourceDescriptor{
		Kind:         KindOperation,
		ProductID:    uuid.New(),
		WorkOrderID:  &workOrderID,
		WorkCenterID: &workCenterID,
	})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, aggregate.ID, result.Item.ID)
	require.NotNil(t, result.Item.WorkOrderID)
	assert.Equal(t, workOrderID, *result.Item.WorkOrderID)
}

func TestMatcher_Resolve_DuplicateItems(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	moveID := uuid.New()
	desc := ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
	}

	a, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, desc)
	require.NoError(t, err)
	b, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, desc)
	require.NoError(t, err)

	_, err = matcher.Resolve(ref, []*TrackingItem{a, b}, desc)
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.ErrDuplicateTrackingItem.Code))
}

func TestMatcher_Resolve_NoAnalyticAccount(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	ref.AnalyticAccountID = uuid.Nil
	moveID := uuid.New()

	result, err := matcher.Resolve(ref, nil, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
	})
	require.NoError(t, err)
	assert.Nil(t, result, "tracking is not applicable without an analytic account")
}

func TestMatcher_Resolve_NotTrackable(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	ref.Trackable = false
	moveID := uuid.New()

	_, err := matcher.Resolve(ref, nil, ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
	})
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, shared.ErrInvalidState.Code))
}

func TestMatcher_Resolve_RefreshBaseline(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	moveID := uuid.New()
	desc := ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
		PlannedQty:  decimal.NewFromInt(10),
		UnitCost:    decimal.NewFromInt(5),
	}

	first, err := matcher.Resolve(ref, nil, desc)
	require.NoError(t, err)

	// without the flag the baseline is untouched
	desc.UnitCost = decimal.NewFromInt(8)
	second, err := matcher.Resolve(ref, []*TrackingItem{first.Item}, desc)
	require.NoError(t, err)
	assert.True(t, second.Item.PlannedAmount.Equal(decimal.NewFromInt(50)))

	// with the flag the baseline is recomputed
	desc.RefreshBaseline = true
	third, err := matcher.Resolve(ref, []*TrackingItem{first.Item}, desc)
	require.NoError(t, err)
	assert.True(t, third.Item.PlannedAmount.Equal(decimal.NewFromInt(80)))
}

func TestMatcher_ResolveAll_ParentQuantityFallback(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	parentProduct := uuid.New()

	parent, err := NewTrackingItem(ref.OrderID, ref.AnalyticAccountID, ResourceDescriptor{
		Kind:          KindBomAggregate,
		ProductID:     parentProduct,
		PlannedQty:    decimal.NewFromInt(4),
		PlannedAmount: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	// child descriptor without its own quantity inherits the parent's
	moveID := uuid.New()
	results, err := matcher.ResolveAll(ref, []*TrackingItem{parent}, []ResourceDescriptor{
		{
			Kind:        KindMaterial,
			ProductID:   uuid.New(),
			StockMoveID: &moveID,
			ParentID:    &parent.ID,
			UnitCost:    decimal.NewFromInt(3),
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Created)
	assert.True(t, results[0].Item.PlannedQty.Equal(decimal.NewFromInt(4)))
	assert.True(t, results[0].Item.PlannedAmount.Equal(decimal.NewFromInt(12)))
}

func TestMatcher_ResolveAll_LaterDescriptorsSeeEarlierItems(t *testing.T) {
	matcher := NewMatcher()
	ref := trackableOrder()
	moveID := uuid.New()
	desc := ResourceDescriptor{
		Kind:        KindMaterial,
		ProductID:   uuid.New(),
		StockMoveID: &moveID,
		PlannedQty:  decimal.NewFromInt(1),
		UnitCost:    decimal.NewFromInt(10),
	}

	results, err := matcher.ResolveAll(ref, nil, []ResourceDescriptor{desc, desc})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Created)
	assert.False(t, results[1].Created)
	assert.Equal(t, results[0].Item.ID, results[1].Item.ID)
}
