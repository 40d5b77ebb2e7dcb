package production

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		expected bool
	}{
		{OrderStatusDraft, true},
		{OrderStatusConfirmed, true},
		{OrderStatusProgress, true},
		{OrderStatusToClose, true},
		{OrderStatusDone, true},
		{OrderStatusCancelled, true},
		{OrderStatus("INVALID"), false},
		{OrderStatus(""), false},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.IsValid())
		})
	}
}

func TestOrderStatus_IsTrackable(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		expected bool
	}{
		{OrderStatusDraft, false},
		{OrderStatusConfirmed, true},
		{OrderStatusProgress, true},
		{OrderStatusToClose, true},
		{OrderStatusDone, false},
		{OrderStatusCancelled, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.IsTrackable())
		})
	}
}

func draftOrder(t *testing.T) *ProductionOrder {
	t.Helper()
	order, err := NewProductionOrder("MO-0001", uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, order.SetAnalyticAccount(uuid.New()))
	return order
}

func TestNewProductionOrder(t *testing.T) {
	order := draftOrder(t)
	assert.Equal(t, OrderStatusDraft, order.Status)
	assert.Equal(t, "MO-0001", order.OrderNumber)
	assert.True(t, order.HasAnalyticAccount())

	t.Run("empty order number", func(t *testing.T) {
		_, err := NewProductionOrder("", uuid.New(), decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := NewProductionOrder("MO-0002", uuid.New(), decimal.Zero)
		assert.Error(t, err)
	})
}

func TestProductionOrder_Confirm(t *testing.T) {
	order := draftOrder(t)

	require.NoError(t, order.Confirm())
	assert.Equal(t, OrderStatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)

	events := order.GetDomainEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, "ProductionOrderConfirmed", events[len(events)-1].EventType())

	// confirming twice is rejected
	assert.Error(t, order.Confirm())
}

func TestProductionOrder_RecordConsumption(t *testing.T) {
	order := draftOrder(t)
	move, err := order.AddRawMaterial(uuid.New(), "steel plate", decimal.NewFromInt(10), decimal.NewFromInt(5), uuid.New())
	require.NoError(t, err)
	require.False(t, move.AddedAfterConfirm)

	t.Run("not allowed in draft", func(t *testing.T) {
		_, err := order.RecordConsumption(move.ID, decimal.NewFromInt(5))
		assert.Error(t, err)
	})

	require.NoError(t, order.Confirm())

	updated, err := order.RecordConsumption(move.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	assert.True(t, updated.ConsumedQty.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, MoveStatusPending, updated.Status)
	assert.Equal(t, OrderStatusProgress, order.Status, "first consumption starts the order")

	updated, err = order.RecordConsumption(move.ID, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.Equal(t, MoveStatusDone, updated.Status, "fully consumed move is done")

	t.Run("unknown move", func(t *testing.T) {
		_, err := order.RecordConsumption(uuid.New(), decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestProductionOrder_LateRawMaterial(t *testing.T) {
	order := draftOrder(t)
	require.NoError(t, order.Confirm())
	order.ClearDomainEvents()

	move, err := order.AddRawMaterial(uuid.New(), "extra solvent", decimal.Zero, decimal.NewFromInt(2), uuid.New())
	require.NoError(t, err)
	assert.True(t, move.AddedAfterConfirm)

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "ResourceAdded", events[0].EventType())
}

func TestProductionOrder_AddWorkOrder_CostFactor(t *testing.T) {
	order := draftOrder(t)

	workOrder, err := order.AddWorkOrder("paint", uuid.New(), nil, decimal.NewFromInt(20), decimal.NewFromInt(60), decimal.NewFromFloat(0.5))
	require.NoError(t, err)
	assert.True(t, workOrder.CostFactor.Equal(decimal.NewFromFloat(0.5)))

	_, err = order.AddWorkOrder("paint", uuid.New(), nil, decimal.NewFromInt(20), decimal.NewFromInt(60), decimal.NewFromInt(-1))
	assert.Error(t, err, "negative cost factors are rejected")
}

func TestProductionOrder_LogOperationTime(t *testing.T) {
	order := draftOrder(t)
	workOrder, err := order.AddWorkOrder("assembly", uuid.New(), nil, decimal.NewFromInt(20), decimal.NewFromInt(60), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())

	updated, err := order.LogOperationTime(workOrder.ID, decimal.NewFromInt(45))
	require.NoError(t, err)
	assert.True(t, updated.DurationMinutes.Equal(decimal.NewFromInt(45)))

	// durations accumulate
	updated, err = order.LogOperationTime(workOrder.ID, decimal.NewFromInt(45))
	require.NoError(t, err)
	assert.True(t, updated.DurationMinutes.Equal(decimal.NewFromInt(90)))

	events := order.GetDomainEvents()
	last, ok := events[len(events)-1].(*OperationTimeLoggedEvent)
	require.True(t, ok)
	assert.True(t, last.TotalMinutes.Equal(decimal.NewFromInt(90)), "event carries the cumulative total")
}

func TestProductionOrder_Complete(t *testing.T) {
	order := draftOrder(t)
	finished, err := order.AddFinishedMove(order.ProductID, decimal.NewFromInt(10), decimal.NewFromInt(8), uuid.New())
	require.NoError(t, err)
	workOrder, err := order.AddWorkOrder("assembly", uuid.New(), nil, decimal.NewFromInt(20), decimal.NewFromInt(60), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())

	t.Run("finished move must be done", func(t *testing.T) {
		assert.Error(t, order.Complete())
	})

	_, err = order.RecordProduction(finished.ID, decimal.NewFromInt(10))
	require.NoError(t, err)

	t.Run("open work orders park the order in to_close", func(t *testing.T) {
		require.NoError(t, order.Complete())
		assert.Equal(t, OrderStatusToClose, order.Status)
	})

	require.NoError(t, order.FinishWorkOrder(workOrder.ID))
	require.NoError(t, order.Complete())
	assert.Equal(t, OrderStatusDone, order.Status)
	require.NotNil(t, order.CompletedAt)

	events := order.GetDomainEvents()
	assert.Equal(t, "ProductionOrderCompleted", events[len(events)-1].EventType())

	// done orders are frozen
	assert.Error(t, order.Cancel("too late"))
	_, err = order.RecordConsumption(uuid.New(), decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestProductionOrder_Cancel(t *testing.T) {
	order := draftOrder(t)
	move, err := order.AddRawMaterial(uuid.New(), "steel plate", decimal.NewFromInt(10), decimal.NewFromInt(5), uuid.New())
	require.NoError(t, err)
	require.NoError(t, order.Confirm())

	require.NoError(t, order.Cancel("customer cancelled"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, MoveStatusCancelled, order.FindRawMove(move.ID).Status)
	require.NotNil(t, order.CancelledAt)

	// cancelling again is a no-op
	require.NoError(t, order.Cancel("again"))
	assert.Equal(t, "customer cancelled", order.CancelReason)
}

func TestFinishedMove_StandardValue(t *testing.T) {
	order := draftOrder(t)
	finished, err := order.AddFinishedMove(order.ProductID, decimal.NewFromInt(10), decimal.NewFromInt(8), uuid.New())
	require.NoError(t, err)
	require.NoError(t, order.Confirm())

	_, err = order.RecordProduction(finished.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, order.FindFinishedMove(finished.ID).StandardValue().Equal(decimal.NewFromInt(80)))
}
