package costing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test ItemState enum

func TestItemState_IsValid(t *testing.T) {
	tests := []struct {
		state    ItemState
		expected bool
	}{
		{ItemStateDraft, true},
		{ItemStateConfirmed, true},
		{ItemStateDone, true},
		{ItemStateCancelled, true},
		{ItemState("INVALID"), false},
		{ItemState(""), false},
	}

	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.state.IsValid())
		})
	}
}

func TestItemState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    ItemState
		expected bool
	}{
		{ItemStateDraft, false},
		{ItemStateConfirmed, false},
		{ItemStateDone, true},
		{ItemStateCancelled, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.state.IsTerminal())
			assert.Equal(t, !tc.expected, tc.state.IsOpen())
		})
	}
}

func TestResourceKind_IsValid(t *testing.T) {
	tests := []struct {
		kind     ResourceKind
		expected bool
	}{
		{KindMaterial, true},
		{KindOperation, true},
		{KindBomAggregate, true},
		{ResourceKind("INVALID"), false},
		{ResourceKind(""), false},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.kind.IsValid())
		})
	}
}

// Test TrackingItem aggregate

func materialDescriptor(moveID uuid.UUID) ResourceDescriptor {
	productID := uuid.New()
	locationID := uuid.New()
	return ResourceDescriptor{
		Kind:          KindMaterial,
		ProductID:     productID,
		StockMoveID:   &moveID,
		LocationID:    &locationID,
		PlannedQty:    decimal.NewFromInt(10),
		UnitCost:      decimal.NewFromInt(5),
		PlannedAmount: decimal.NewFromInt(50),
	}
}

func TestNewTrackingItem(t *testing.T) {
	orderID := uuid.New()
	accountID := uuid.New()
	moveID := uuid.New()

	item, err := NewTrackingItem(orderID, accountID, materialDescriptor(moveID))
	require.NoError(t, err)

	assert.Equal(t, orderID, item.OrderID)
	assert.Equal(t, KindMaterial, item.Kind)
	assert.Equal(t, ItemStateDraft, item.State)
	assert.True(t, item.PlannedAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, item.ActualAmount.IsZero())
	assert.True(t, item.AccountedAmount.IsZero())
	assert.True(t, item.RemainingAmount.Equal(decimal.NewFromInt(50)))
	require.Len(t, item.GetDomainEvents(), 1)
	assert.Equal(t, "TrackingItemCreated", item.GetDomainEvents()[0].EventType())
}

func TestNewTrackingItem_Validation(t *testing.T) {
	orderID := uuid.New()
	accountID := uuid.New()
	moveID := uuid.New()
	workOrderID := uuid.New()

	t.Run("empty order", func(t *testing.T) {
		_, err := NewTrackingItem(uuid.Nil, accountID, materialDescriptor(moveID))
		assert.Error(t, err)
	})

	t.Run("empty analytic account", func(t *testing.T) {
		_, err := NewTrackingItem(orderID, uuid.Nil, materialDescriptor(moveID))
		assert.Error(t, err)
	})

	t.Run("material with work order key", func(t *testing.T) {
		desc := materialDescriptor(moveID)
		desc.WorkOrderID = &workOrderID
		_, err := NewTrackingItem(orderID, accountID, desc)
		assert.Error(t, err)
	})

	t.Run("operation without work order key", func(t *testing.T) {
		desc := ResourceDescriptor{Kind: KindOperation, ProductID: uuid.New()}
		_, err := NewTrackingItem(orderID, accountID, desc)
		assert.Error(t, err)
	})

	t.Run("aggregate with move key", func(t *testing.T) {
		desc := ResourceDescriptor{Kind: KindBomAggregate, ProductID: uuid.New(), StockMoveID: &moveID}
		_, err := NewTrackingItem(orderID, accountID, desc)
		assert.Error(t, err)
	})
}

func TestTrackingItem_SourceKey(t *testing.T) {
	orderID := uuid.New()
	accountID := uuid.New()

	moveID := uuid.New()
	material, err := NewTrackingItem(orderID, accountID, materialDescriptor(moveID))
	require.NoError(t, err)

	workOrderID := uuid.New()
	workCenterID := uuid.New()
	operation, err := NewTrackingItem(orderID, accountID, ResourceDescriptor{
		Kind:         KindOperation,
		ProductID:    uuid.New(),
		WorkOrderID:  &workOrderID,
		WorkCenterID: &workCenterID,
	})
	require.NoError(t, err)

	aggregate, err := NewTrackingItem(orderID, accountID, ResourceDescriptor{
		Kind:         KindBomAggregate,
		ProductID:    uuid.New(),
		WorkCenterID: &workCenterID,
	})
	require.NoError(t, err)

	assert.Equal(t, "move:"+moveID.String(), material.SourceKey())
	assert.Equal(t, "workorder:"+workOrderID.String(), operation.SourceKey())
	assert.Contains(t, aggregate.SourceKey(), "bom:")
	assert.NotEqual(t, material.SourceKey(), operation.SourceKey())
}

func TestTrackingItem_AdvanceAccounted(t *testing.T) {
	item, err := NewTrackingItem(uuid.New(), uuid.New(), materialDescriptor(uuid.New()))
	require.NoError(t, err)
	item.ActualAmount = decimal.NewFromInt(30)
	item.PendingAmount = decimal.NewFromInt(30)

	t.Run("advances toward actual", func(t *testing.T) {
		err := item.AdvanceAccounted(decimal.NewFromInt(30))
		require.NoError(t, err)
		assert.True(t, item.AccountedAmount.Equal(decimal.NewFromInt(30)))
		assert.True(t, item.PendingAmount.IsZero())
		assert.Equal(t, ItemStateConfirmed, item.State)
	})

	t.Run("cannot retreat", func(t *testing.T) {
		err := item.AdvanceAccounted(decimal.NewFromInt(20))
		assert.Error(t, err)
	})

	t.Run("cannot exceed actual", func(t *testing.T) {
		err := item.AdvanceAccounted(decimal.NewFromInt(40))
		assert.Error(t, err)
	})
}

func TestTrackingItem_Close(t *testing.T) {
	item, err := NewTrackingItem(uuid.New(), uuid.New(), materialDescriptor(uuid.New()))
	require.NoError(t, err)
	item.ActualAmount = decimal.NewFromInt(30)
	item.PendingAmount = decimal.NewFromInt(30)

	require.NoError(t, item.Close())
	assert.Equal(t, ItemStateDone, item.State)
	assert.True(t, item.AccountedAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, item.PendingAmount.IsZero())
	assert.True(t, item.RemainingAmount.IsZero())

	// closing again is a no-op
	require.NoError(t, item.Close())
	assert.Equal(t, ItemStateDone, item.State)

	// closed items cannot be cancelled or modified
	assert.Error(t, item.Cancel())
	assert.Error(t, item.SetAnalyticAccount(uuid.New()))
	assert.Error(t, item.RefreshBaseline(decimal.NewFromInt(1), decimal.NewFromInt(1)))
}

func TestTrackingItem_Cancel(t *testing.T) {
	item, err := NewTrackingItem(uuid.New(), uuid.New(), materialDescriptor(uuid.New()))
	require.NoError(t, err)

	require.NoError(t, item.Cancel())
	assert.Equal(t, ItemStateCancelled, item.State)
	assert.True(t, item.PendingAmount.IsZero())
	assert.True(t, item.RemainingAmount.IsZero())

	// cancelling again is a no-op
	require.NoError(t, item.Cancel())

	// cancelled items cannot be closed or posted against
	assert.Error(t, item.Close())
	assert.Error(t, item.AdvanceAccounted(decimal.NewFromInt(10)))
}

func TestTrackingItem_BindStockMove(t *testing.T) {
	accountID := uuid.New()
	item, err := NewTrackingItem(uuid.New(), accountID, ResourceDescriptor{
		Kind:      KindMaterial,
		ProductID: uuid.New(),
	})
	require.NoError(t, err)
	require.Nil(t, item.StockMoveID)

	moveID := uuid.New()
	require.NoError(t, item.BindStockMove(moveID))
	require.NotNil(t, item.StockMoveID)
	assert.Equal(t, moveID, *item.StockMoveID)

	// rebinding to the same move is fine, another move is not
	require.NoError(t, item.BindStockMove(moveID))
	assert.Error(t, item.BindStockMove(uuid.New()))
}
