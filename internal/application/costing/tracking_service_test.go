package costing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// in-memory fakes

type memOrders struct {
	byID map[uuid.UUID]*production.ProductionOrder
}

func newMemOrders() *memOrders {
	return &memOrders{byID: make(map[uuid.UUID]*production.ProductionOrder)}
}

func (r *memOrders) FindByID(_ context.Context, id uuid.UUID) (*production.ProductionOrder, error) {
	order, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (r *memOrders) Save(_ context.Context, order *production.ProductionOrder) error {
	r.byID[order.ID] = order
	return nil
}

func (r *memOrders) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *memOrders) FindByOrderNumber(_ context.Context, orderNumber string) (*production.ProductionOrder, error) {
	for _, order := range r.byID {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrders) FindByStatus(_ context.Context, status production.OrderStatus, _ shared.Filter) ([]*production.ProductionOrder, int64, error) {
	var found []*production.ProductionOrder
	for _, order := range r.byID {
		if order.Status == status {
			found = append(found, order)
		}
	}
	return found, int64(len(found)), nil
}

func (r *memOrders) FindTrackable(_ context.Context, _ shared.Filter) ([]*production.ProductionOrder, int64, error) {
	var found []*production.ProductionOrder
	for _, order := range r.byID {
		if order.Status.IsTrackable() {
			found = append(found, order)
		}
	}
	return found, int64(len(found)), nil
}

type memItems struct {
	byID map[uuid.UUID]*costing.TrackingItem
}

func newMemItems() *memItems {
	return &memItems{byID: make(map[uuid.UUID]*costing.TrackingItem)}
}

func (r *memItems) FindByID(_ context.Context, id uuid.UUID) (*costing.TrackingItem, error) {
	item, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *memItems) Save(_ context.Context, item *costing.TrackingItem) error {
	r.byID[item.ID] = item
	return nil
}

func (r *memItems) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *memItems) FindByOrder(_ context.Context, orderID uuid.UUID) ([]*costing.TrackingItem, error) {
	var found []*costing.TrackingItem
	for _, item := range r.byID {
		if item.OrderID == orderID {
			found = append(found, item)
		}
	}
	return found, nil
}

func (r *memItems) FindOpenByOrder(_ context.Context, orderID uuid.UUID) ([]*costing.TrackingItem, error) {
	var found []*costing.TrackingItem
	for _, item := range r.byID {
		if item.OrderID == orderID && item.State.IsOpen() {
			found = append(found, item)
		}
	}
	return found, nil
}

func (r *memItems) FindWithPendingOrVariance(_ context.Context, _ shared.Filter) ([]*costing.TrackingItem, int64, error) {
	var found []*costing.TrackingItem
	for _, item := range r.byID {
		if item.State.IsOpen() && (!item.PendingAmount.IsZero() || !item.VarianceAmount.IsZero()) {
			found = append(found, item)
		}
	}
	return found, int64(len(found)), nil
}

func (r *memItems) SaveAll(_ context.Context, items []*costing.TrackingItem) error {
	for _, item := range items {
		r.byID[item.ID] = item
	}
	return nil
}

type memLines struct {
	byID map[uuid.UUID]*costing.CostLine
}

func newMemLines() *memLines {
	return &memLines{byID: make(map[uuid.UUID]*costing.CostLine)}
}

func (r *memLines) FindByID(_ context.Context, id uuid.UUID) (*costing.CostLine, error) {
	line, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return line, nil
}

func (r *memLines) FindByOrder(_ context.Context, orderID uuid.UUID) ([]*costing.CostLine, error) {
	var found []*costing.CostLine
	for _, line := range r.byID {
		if line.OrderID == orderID {
			found = append(found, line)
		}
	}
	return found, nil
}

func (r *memLines) FindByTrackingItem(_ context.Context, itemID uuid.UUID) ([]*costing.CostLine, error) {
	var found []*costing.CostLine
	for _, line := range r.byID {
		if line.TrackingItemID == itemID {
			found = append(found, line)
		}
	}
	return found, nil
}

func (r *memLines) FindByWorkOrder(_ context.Context, workOrderID uuid.UUID) (*costing.CostLine, error) {
	for _, line := range r.byID {
		if line.WorkOrderID != nil && *line.WorkOrderID == workOrderID {
			return line, nil
		}
	}
	return nil, nil
}

func (r *memLines) FindByStockMove(_ context.Context, stockMoveID uuid.UUID) (*costing.CostLine, error) {
	for _, line := range r.byID {
		if line.StockMoveID != nil && *line.StockMoveID == stockMoveID {
			return line, nil
		}
	}
	return nil, nil
}

func (r *memLines) Save(_ context.Context, line *costing.CostLine) error {
	r.byID[line.ID] = line
	return nil
}

func (r *memLines) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type memLedger struct {
	entries []*costing.LedgerEntry
}

func (l *memLedger) PostEntry(_ context.Context, entry *costing.LedgerEntry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memLedger) UpdateEntryLines(_ context.Context, entryID uuid.UUID, lines []costing.LedgerLine) error {
	for _, e := range l.entries {
		if e.ID == entryID {
			e.Lines = lines
			return nil
		}
	}
	return shared.ErrNotFound
}

func (l *memLedger) FindEntriesByOrder(_ context.Context, orderID uuid.UUID) ([]*costing.LedgerEntry, error) {
	var found []*costing.LedgerEntry
	for _, e := range l.entries {
		if e.OrderID == orderID {
			found = append(found, e)
		}
	}
	return found, nil
}

type memMasterData struct {
	accounts costing.ValuationAccounts
	costs    map[uuid.UUID]decimal.Decimal
}

func (m *memMasterData) UnitCost(_ context.Context, productID uuid.UUID, _ *uuid.UUID) (decimal.Decimal, error) {
	if cost, ok := m.costs[productID]; ok {
		return cost, nil
	}
	return decimal.Zero, shared.ErrNotFound
}

func (m *memMasterData) AccountsForValuation(_ context.Context, _ costing.ValuationKey) (costing.ValuationAccounts, error) {
	return m.accounts, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ ...shared.DomainEvent) error { return nil }

// fixture

type fixture struct {
	orders  *memOrders
	items   *memItems
	lines   *memLines
	ledger  *memLedger
	service *TrackingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := newMemOrders()
	items := newMemItems()
	lines := newMemLines()
	ledger := &memLedger{}
	masterData := &memMasterData{
		accounts: costing.ValuationAccounts{
			StockInput:    uuid.New(),
			StockOutput:   uuid.New(),
			StockVariance: uuid.New(),
			StockWip:      uuid.New(),
			StockJournal:  uuid.New(),
		},
		costs: make(map[uuid.UUID]decimal.Decimal),
	}
	logger := zap.NewNop()
	engine := costing.NewWIPPostingEngine(ledger, masterData, logger)
	service := NewTrackingService(orders, items, lines, masterData, engine, noopPublisher{}, logger)
	return &fixture{orders: orders, items: items, lines: lines, ledger: ledger, service: service}
}

func (f *fixture) confirmedOrder(t *testing.T) (*production.ProductionOrder, *production.RawMaterialMove, *production.WorkOrder) {
	t.Helper()
	order, err := production.NewProductionOrder("MO-0001", uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, order.SetAnalyticAccount(uuid.New()))
	move, err := order.AddRawMaterial(uuid.New(), "steel plate", decimal.NewFromInt(10), decimal.NewFromInt(5), uuid.New())
	require.NoError(t, err)
	workOrder, err := order.AddWorkOrder("assembly", uuid.New(), nil, decimal.NewFromInt(20), decimal.NewFromInt(60), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())
	order.ClearDomainEvents()
	require.NoError(t, f.orders.Save(context.Background(), order))
	return order, move, workOrder
}

func TestTrackingService_SeedOrderItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _, _ := f.confirmedOrder(t)

	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	items, err := f.service.OrderTrackingItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	var material, operation, aggregate *costing.TrackingItem
	for _, item := range items {
		switch item.Kind {
		case costing.KindMaterial:
			material = item
		case costing.KindOperation:
			operation = item
		case costing.KindBomAggregate:
			aggregate = item
		}
	}
	require.NotNil(t, material)
	require.NotNil(t, operation)
	require.NotNil(t, aggregate)
	assert.True(t, material.PlannedAmount.Equal(decimal.NewFromInt(50)), "10 units at 5")
	assert.True(t, operation.PlannedAmount.Equal(decimal.NewFromInt(20)), "1 hour at 20")
	assert.True(t, aggregate.PlannedAmount.Equal(decimal.NewFromInt(20)), "work center total, 1 hour at 20")

	// the operation rolls up into its work center's aggregate
	require.NotNil(t, operation.ParentID)
	assert.Equal(t, aggregate.ID, *operation.ParentID)
	require.NotNil(t, aggregate.WorkCenterID)
	assert.Nil(t, aggregate.WorkOrderID)

	// seeding again creates nothing new
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))
	items, err = f.service.OrderTrackingItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestTrackingService_SeedOrderItems_NoAnalyticAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := production.NewProductionOrder("MO-0002", uuid.New(), decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = order.AddRawMaterial(uuid.New(), "steel plate", decimal.NewFromInt(1), decimal.NewFromInt(5), uuid.New())
	require.NoError(t, err)
	require.NoError(t, order.Confirm())
	require.NoError(t, f.orders.Save(ctx, order))

	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))
	items, err := f.items.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "tracking is opt-in via the analytic account")
}

func TestTrackingService_RecordConsumptionAndTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, move, workOrder := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	// consume 6 of 10 planned units
	_, err := order.RecordConsumption(move.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordConsumption(ctx, order.ID, move.ID, decimal.NewFromInt(6)))

	// log 90 minutes twice 45
	_, err = order.LogOperationTime(workOrder.ID, decimal.NewFromInt(45))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordOperationTime(ctx, order.ID, workOrder.ID))
	_, err = order.LogOperationTime(workOrder.ID, decimal.NewFromInt(45))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordOperationTime(ctx, order.ID, workOrder.ID))

	items, err := f.service.OrderTrackingItems(ctx, order.ID)
	require.NoError(t, err)
	for _, item := range items {
		switch item.Kind {
		case costing.KindMaterial:
			assert.True(t, item.ActualAmount.Equal(decimal.NewFromInt(30)), "6 units at 5")
			assert.True(t, item.RemainingAmount.Equal(decimal.NewFromInt(20)))
		case costing.KindOperation:
			assert.True(t, item.ActualAmount.Equal(decimal.NewFromInt(30)), "1.5 hours at 20")
			assert.True(t, item.VarianceAmount.Equal(decimal.NewFromInt(10)), "over plan by half an hour")
		}
	}

	// the work order keeps one replaced line, not stacked lines
	lines, err := f.service.OrderCostLines(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestTrackingService_InterimAndFinalPosting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, move, workOrder := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	_, err := order.RecordConsumption(move.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordConsumption(ctx, order.ID, move.ID, decimal.NewFromInt(6)))

	// interim posting moves the pending 30 into WIP
	entry, err := f.service.PostInterim(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Residual().IsZero())
	require.Len(t, f.ledger.entries, 1)

	// nothing pending on the second call
	entry, err = f.service.PostInterim(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	// finish and complete the order
	require.NoError(t, order.FinishWorkOrder(workOrder.ID))
	require.NoError(t, order.Complete())
	order.ClearDomainEvents()
	require.NoError(t, f.orders.Save(ctx, order))

	require.NoError(t, f.service.FinalizeOrder(ctx, order.ID))

	items, err := f.items.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, costing.ItemStateDone, item.State)
		assert.True(t, item.PendingAmount.IsZero())
		assert.True(t, item.AccountedAmount.Equal(item.ActualAmount))
	}

	// interim entry plus the final clear
	entries, err := f.ledger.FindEntriesByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.Residual().IsZero(), "every posted entry balances")
	}

	// finalizing again posts nothing further
	require.NoError(t, f.service.FinalizeOrder(ctx, order.ID))
	entries, err = f.ledger.FindEntriesByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestTrackingService_CorrectFinalEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, move, workOrder := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	_, err := order.RecordConsumption(move.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordConsumption(ctx, order.ID, move.ID, decimal.NewFromInt(6)))

	require.NoError(t, order.FinishWorkOrder(workOrder.ID))
	require.NoError(t, order.Complete())
	order.ClearDomainEvents()
	require.NoError(t, f.orders.Save(ctx, order))
	require.NoError(t, f.service.FinalizeOrder(ctx, order.ID))

	// a backdated cost adjustment lands after the books closed
	line, err := f.lines.FindByStockMove(ctx, move.ID)
	require.NoError(t, err)
	require.NotNil(t, line)
	require.NoError(t, line.AddQuantity(decimal.NewFromInt(2), decimal.NewFromInt(5)))
	require.NoError(t, f.lines.Save(ctx, line))

	require.NoError(t, f.service.CorrectFinalEntry(ctx, order.ID))

	// the clear entry was rewritten in place, no compensating entry posted
	entries, err := f.ledger.FindEntriesByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var clear *costing.LedgerEntry
	for _, e := range entries {
		if e.Reference == "MO-0001 WIP clear" {
			clear = e
		}
	}
	require.NotNil(t, clear)
	assert.True(t, clear.Residual().IsZero(), "corrected entry still balances")

	// the material now costs 40 of 50 planned: variance leg moved to -10
	amounts := make([]string, len(clear.Lines))
	for i, l := range clear.Lines {
		amounts[i] = l.Amount.String()
	}
	assert.Contains(t, amounts, "-40")
	assert.Contains(t, amounts, "-10")
}

func TestTrackingService_CorrectFinalEntry_NotDone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _, _ := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	err := f.service.CorrectFinalEntry(ctx, order.ID)
	assert.True(t, shared.IsDomainError(err, shared.ErrInvalidState.Code))
}

func TestTrackingService_CancelTracking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _, _ := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	require.NoError(t, order.Cancel("customer cancelled"))
	order.ClearDomainEvents()
	require.NoError(t, f.orders.Save(ctx, order))
	require.NoError(t, f.service.CancelTracking(ctx, order.ID))

	items, err := f.items.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Equal(t, costing.ItemStateCancelled, item.State)
	}
	assert.Empty(t, f.ledger.entries, "cancelled orders never post")
}

func TestTrackingService_SweepPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, move, _ := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	_, err := order.RecordConsumption(move.ID, decimal.NewFromInt(4))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordConsumption(ctx, order.ID, move.ID, decimal.NewFromInt(4)))

	result, err := f.service.SweepPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdersProcessed)
	assert.Equal(t, 1, result.EntriesPosted)
	assert.Equal(t, 0, result.OrdersFailed)
	require.Len(t, f.ledger.entries, 1)
}

func TestTrackingService_LateMaterialHasZeroBaseline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _, _ := f.confirmedOrder(t)
	require.NoError(t, f.service.SeedOrderItems(ctx, order.ID))

	late, err := order.AddRawMaterial(uuid.New(), "extra solvent", decimal.NewFromInt(3), decimal.NewFromInt(4), uuid.New())
	require.NoError(t, err)
	order.ClearDomainEvents()
	require.NoError(t, f.orders.Save(ctx, order))

	require.NoError(t, f.service.ResolveMove(ctx, order.ID, late.ID))
	_, err = order.RecordConsumption(late.ID, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, f.service.RecordConsumption(ctx, order.ID, late.ID, decimal.NewFromInt(3)))

	items, err := f.service.OrderTrackingItems(ctx, order.ID)
	require.NoError(t, err)
	var lateItem *costing.TrackingItem
	for _, item := range items {
		if item.StockMoveID != nil && *item.StockMoveID == late.ID {
			lateItem = item
		}
	}
	require.NotNil(t, lateItem)
	assert.True(t, lateItem.PlannedAmount.IsZero(), "late materials carry no baseline")
	assert.True(t, lateItem.ActualAmount.Equal(decimal.NewFromInt(12)))
	assert.True(t, lateItem.VarianceAmount.Equal(decimal.NewFromInt(12)), "entire cost is variance")
}
