package costing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TrackingService coordinates cost tracking for production orders: it
// seeds tracking items when an order is confirmed, books cost lines as
// material and time are consumed, keeps the derived amounts current, and
// drives the WIP postings through the posting engine.
type TrackingService struct {
	orders     production.ProductionOrderRepository
	items      costing.TrackingItemRepository
	lines      costing.CostLineRepository
	masterData costing.MasterDataService
	matcher    *costing.Matcher
	calculator *costing.AmountCalculator
	engine     *costing.WIPPostingEngine
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(
	orders production.ProductionOrderRepository,
	items costing.TrackingItemRepository,
	lines costing.CostLineRepository,
	masterData costing.MasterDataService,
	engine *costing.WIPPostingEngine,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		orders:     orders,
		items:      items,
		lines:      lines,
		masterData: masterData,
		matcher:    costing.NewMatcher(),
		calculator: costing.NewAmountCalculator(),
		engine:     engine,
		publisher:  publisher,
		logger:     logger,
	}
}

// SeedOrderItems creates or refreshes the tracking items for every
// resource of a confirmed order. Orders without an analytic account are
// skipped: cost tracking is opt-in per order. Work orders are grouped
// under one aggregate item per work center, which carries the total
// planned hours and rolls up the operations' actual cost.
func (s *TrackingService) SeedOrderItems(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if !order.HasAnalyticAccount() {
		s.logger.Debug("order has no analytic account, skipping cost tracking",
			zap.String("order_number", order.OrderNumber))
		return nil
	}

	// aggregates first, so the operation items can nest under them
	aggregates, err := s.resolveAndSave(ctx, order, s.aggregateDescriptors(ctx, order))
	if err != nil {
		return err
	}
	parentByWorkCenter := make(map[uuid.UUID]uuid.UUID, len(aggregates))
	for _, item := range aggregates {
		if item.Kind == costing.KindBomAggregate && item.WorkCenterID != nil {
			parentByWorkCenter[*item.WorkCenterID] = item.ID
		}
	}

	descs := make([]costing.ResourceDescriptor, 0, len(order.RawMoves)+len(order.WorkOrders))
	for i := range order.RawMoves {
		descs = append(descs, s.materialDescriptor(ctx, &order.RawMoves[i]))
	}
	for i := range order.WorkOrders {
		desc := s.operationDescriptor(ctx, order, &order.WorkOrders[i])
		if parentID, ok := parentByWorkCenter[order.WorkOrders[i].WorkCenterID]; ok {
			parent := parentID
			desc.ParentID = &parent
		}
		descs = append(descs, desc)
	}

	_, err = s.resolveAndSave(ctx, order, descs)
	return err
}

// ResolveMove ensures a tracking item exists for one raw material move,
// used when materials join an order after confirmation. Late moves enter
// tracking with a zero baseline so their whole cost surfaces as variance.
func (s *TrackingService) ResolveMove(ctx context.Context, orderID, moveID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if !order.HasAnalyticAccount() {
		return nil
	}
	move := order.FindRawMove(moveID)
	if move == nil {
		return shared.NewDomainError("NOT_FOUND", "Raw material move not found on order")
	}
	_, err = s.resolveAndSave(ctx, order, []costing.ResourceDescriptor{s.materialDescriptor(ctx, move)})
	return err
}

// ResolveWorkOrder ensures a tracking item exists for one work order
func (s *TrackingService) ResolveWorkOrder(ctx context.Context, orderID, workOrderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if !order.HasAnalyticAccount() {
		return nil
	}
	workOrder := order.FindWorkOrder(workOrderID)
	if workOrder == nil {
		return shared.NewDomainError("NOT_FOUND", "Work order not found on order")
	}
	desc := s.operationDescriptor(ctx, order, workOrder)
	existing, err := s.items.FindByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("loading tracking items for order %s: %w", order.ID, err)
	}
	if parentID := aggregateFor(existing, workOrder.WorkCenterID); parentID != nil {
		desc.ParentID = parentID
	}
	_, err = s.resolveAndSave(ctx, order, []costing.ResourceDescriptor{desc})
	return err
}

// RecordConsumption books a consumption increment against the move's cost
// line and refreshes the order's derived amounts
func (s *TrackingService) RecordConsumption(ctx context.Context, orderID, moveID uuid.UUID, quantity decimal.Decimal) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if !order.HasAnalyticAccount() {
		return nil
	}
	move := order.FindRawMove(moveID)
	if move == nil {
		return shared.NewDomainError("NOT_FOUND", "Raw material move not found on order")
	}

	item, err := s.resolveOne(ctx, order, s.materialDescriptor(ctx, move))
	if err != nil || item == nil {
		return err
	}

	unitCost := s.moveUnitCost(ctx, move)
	line, err := s.lines.FindByStockMove(ctx, moveID)
	if err != nil {
		return fmt.Errorf("loading cost line for move %s: %w", moveID, err)
	}
	if line == nil {
		line, err = costing.NewMaterialCostLine(item, moveID, move.Description, quantity, unitCost)
		if err != nil {
			return err
		}
	} else if err := line.AddQuantity(quantity, unitCost); err != nil {
		return err
	}
	if err := s.lines.Save(ctx, line); err != nil {
		return fmt.Errorf("saving cost line: %w", err)
	}

	return s.recomputeOrder(ctx, orderID)
}

// RecordOperationTime refreshes the single time line of a work order from
// its cumulative logged duration. Repeated calls replace the line's
// amount rather than stacking new lines.
func (s *TrackingService) RecordOperationTime(ctx context.Context, orderID, workOrderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if !order.HasAnalyticAccount() {
		return nil
	}
	workOrder := order.FindWorkOrder(workOrderID)
	if workOrder == nil {
		return shared.NewDomainError("NOT_FOUND", "Work order not found on order")
	}

	item, err := s.resolveOne(ctx, order, s.operationDescriptor(ctx, order, workOrder))
	if err != nil || item == nil {
		return err
	}

	rate := s.workOrderRate(ctx, workOrder)
	line, err := s.lines.FindByWorkOrder(ctx, workOrderID)
	if err != nil {
		return fmt.Errorf("loading cost line for work order %s: %w", workOrderID, err)
	}
	if line == nil {
		line, err = costing.NewOperationCostLine(item, workOrderID, workOrder.Name, workOrder.DurationMinutes, rate)
		if err != nil {
			return err
		}
	} else if err := line.UpdateOperationTime(workOrder.DurationMinutes, rate); err != nil {
		return err
	}
	if err := s.lines.Save(ctx, line); err != nil {
		return fmt.Errorf("saving cost line: %w", err)
	}

	return s.recomputeOrder(ctx, orderID)
}

// PostInterim posts the currently pending amounts of one order to WIP.
// Returns the posted entry, or nil when nothing was pending.
func (s *TrackingService) PostInterim(ctx context.Context, orderID uuid.UUID) (*costing.LedgerEntry, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if !order.Status.IsTrackable() {
		return nil, shared.ErrInvalidState
	}
	items, err := s.refreshedItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	entry, err := s.engine.PostPending(ctx, s.orderRef(order), items)
	if err != nil {
		return nil, err
	}
	if err := s.saveAndPublish(ctx, items); err != nil {
		return nil, err
	}
	return entry, nil
}

// FinalizeOrder runs the completion postings for a done order: any still
// pending amounts move into WIP first, then WIP is cleared to the output
// and variance accounts and every item is closed
func (s *TrackingService) FinalizeOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if order.Status != production.OrderStatusDone {
		return shared.ErrInvalidState
	}
	items, err := s.refreshedItems(ctx, orderID)
	if err != nil {
		return err
	}
	ref := s.orderRef(order)
	// postings remain possible for a done order's open items
	ref.Trackable = true

	if _, err := s.engine.PostPending(ctx, ref, items); err != nil {
		return err
	}

	if _, err := s.engine.PostFinalClear(ctx, ref, items, finishedValues(order)); err != nil {
		return err
	}
	return s.saveAndPublish(ctx, items)
}

// CorrectFinalEntry rewrites the completion postings of a done order
// after a late cost correction, for example a backdated cost line. The
// order's posted clear entry gets its lines replaced with ones rebuilt
// from the current cost lines; no compensating entry is created.
func (s *TrackingService) CorrectFinalEntry(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if order.Status != production.OrderStatusDone {
		return shared.ErrInvalidState
	}
	items, err := s.refreshedItems(ctx, orderID)
	if err != nil {
		return err
	}
	ref := s.orderRef(order)
	ref.Trackable = true

	if err := s.engine.CorrectFinalClear(ctx, ref, items, finishedValues(order)); err != nil {
		return err
	}
	return s.saveAndPublish(ctx, items)
}

// finishedValues collects the at-standard values of an order's completed
// finished-good moves
func finishedValues(order *production.ProductionOrder) []costing.FinishedGoodValue {
	finished := make([]costing.FinishedGoodValue, 0, len(order.FinishedMoves))
	for i := range order.FinishedMoves {
		move := &order.FinishedMoves[i]
		if move.Status != production.MoveStatusDone {
			continue
		}
		locationID := move.LocationID
		finished = append(finished, costing.FinishedGoodValue{
			MoveID:        move.ID,
			ProductID:     move.ProductID,
			LocationID:    &locationID,
			StandardValue: move.StandardValue(),
		})
	}
	return finished
}

// CancelTracking cancels every open tracking item of a cancelled order
func (s *TrackingService) CancelTracking(ctx context.Context, orderID uuid.UUID) error {
	items, err := s.items.FindByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading tracking items for order %s: %w", orderID, err)
	}
	for _, item := range items {
		if item.State.IsTerminal() {
			continue
		}
		if err := item.Cancel(); err != nil {
			return err
		}
	}
	return s.saveAndPublish(ctx, items)
}

// SweepResult summarizes a posting sweep across orders
type SweepResult struct {
	OrdersProcessed int      `json:"orders_processed"`
	OrdersFailed    int      `json:"orders_failed"`
	EntriesPosted   int      `json:"entries_posted"`
	Errors          []string `json:"errors,omitempty"`
}

// SweepPending posts pending amounts across all orders that have any.
// A failing order is logged and skipped; the sweep continues with the
// remaining orders.
func (s *TrackingService) SweepPending(ctx context.Context) (*SweepResult, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 500
	items, _, err := s.items.FindWithPendingOrVariance(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading pending items: %w", err)
	}

	orderIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, item := range items {
		if !seen[item.OrderID] {
			seen[item.OrderID] = true
			orderIDs = append(orderIDs, item.OrderID)
		}
	}

	result := &SweepResult{}
	for _, orderID := range orderIDs {
		entry, err := s.PostInterim(ctx, orderID)
		if err != nil {
			if shared.IsDomainError(err, shared.ErrInvalidState.Code) {
				continue // order no longer trackable, final clear will handle it
			}
			result.OrdersFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("order %s: %v", orderID, err))
			s.logger.Error("posting sweep failed for order",
				zap.String("order_id", orderID.String()),
				zap.Error(err))
			continue
		}
		result.OrdersProcessed++
		if entry != nil {
			result.EntriesPosted++
		}
	}
	return result, nil
}

// OrderTrackingItems returns the tracking items of one order with
// refreshed derived amounts
func (s *TrackingService) OrderTrackingItems(ctx context.Context, orderID uuid.UUID) ([]*costing.TrackingItem, error) {
	return s.refreshedItems(ctx, orderID)
}

// OrderCostLines returns the cost lines charged against one order
func (s *TrackingService) OrderCostLines(ctx context.Context, orderID uuid.UUID) ([]*costing.CostLine, error) {
	return s.lines.FindByOrder(ctx, orderID)
}

// PendingVarianceItems returns items across all orders waiting for a posting
func (s *TrackingService) PendingVarianceItems(ctx context.Context, filter shared.Filter) ([]*costing.TrackingItem, int64, error) {
	return s.items.FindWithPendingOrVariance(ctx, filter)
}

func (s *TrackingService) orderRef(order *production.ProductionOrder) costing.OrderRef {
	return costing.OrderRef{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		Trackable:         order.Status.IsTrackable(),
		AnalyticAccountID: order.AnalyticAccountID,
	}
}

func (s *TrackingService) materialDescriptor(ctx context.Context, move *production.RawMaterialMove) costing.ResourceDescriptor {
	moveID := move.ID
	locationID := move.DestinationLocationID
	plannedQty := move.PlannedQty
	if move.AddedAfterConfirm {
		// materials joining after confirmation carry no baseline,
		// their whole cost is variance
		plannedQty = decimal.Zero
	}
	return costing.ResourceDescriptor{
		Kind:        costing.KindMaterial,
		ProductID:   move.ProductID,
		StockMoveID: &moveID,
		LocationID:  &locationID,
		PlannedQty:  plannedQty,
		UnitCost:    s.moveUnitCost(ctx, move),
	}
}

func (s *TrackingService) operationDescriptor(ctx context.Context, order *production.ProductionOrder, workOrder *production.WorkOrder) costing.ResourceDescriptor {
	workOrderID := workOrder.ID
	workCenterID := workOrder.WorkCenterID
	productID := order.ProductID
	if workOrder.CostProductID != nil {
		productID = *workOrder.CostProductID
	}
	return costing.ResourceDescriptor{
		Kind:         costing.KindOperation,
		ProductID:    productID,
		WorkOrderID:  &workOrderID,
		WorkCenterID: &workCenterID,
		PlannedQty:   workOrder.PlannedHours(),
		UnitCost:     s.workOrderRate(ctx, workOrder),
		CostFactor:   workOrder.CostFactor,
	}
}

// moveUnitCost prefers the cost captured on the move, falling back to the
// product's standard cost from master data
func (s *TrackingService) moveUnitCost(ctx context.Context, move *production.RawMaterialMove) decimal.Decimal {
	if !move.UnitCost.IsZero() {
		return move.UnitCost
	}
	cost, err := s.masterData.UnitCost(ctx, move.ProductID, nil)
	if err != nil {
		s.logger.Warn("no unit cost for product, assuming zero",
			zap.String("product_id", move.ProductID.String()))
		return decimal.Zero
	}
	return cost
}

// workOrderRate prefers the rate captured on the work order, falling back
// to the cost product's standard cost and then the work center rate
func (s *TrackingService) workOrderRate(ctx context.Context, workOrder *production.WorkOrder) decimal.Decimal {
	if !workOrder.HourlyRate.IsZero() {
		return workOrder.HourlyRate
	}
	productID := uuid.Nil
	if workOrder.CostProductID != nil {
		productID = *workOrder.CostProductID
	}
	workCenterID := workOrder.WorkCenterID
	rate, err := s.masterData.UnitCost(ctx, productID, &workCenterID)
	if err != nil {
		s.logger.Warn("no hourly rate for work order, assuming zero",
			zap.String("work_order_id", workOrder.ID.String()))
		return decimal.Zero
	}
	return rate
}

func (s *TrackingService) resolveOne(ctx context.Context, order *production.ProductionOrder, desc costing.ResourceDescriptor) (*costing.TrackingItem, error) {
	existing, err := s.items.FindByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tracking items for order %s: %w", order.ID, err)
	}
	result, err := s.matcher.Resolve(s.orderRef(order), existing, desc)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	if err := s.items.Save(ctx, result.Item); err != nil {
		return nil, fmt.Errorf("saving tracking item: %w", err)
	}
	if err := s.publishEvents(ctx, result.Item); err != nil {
		return nil, err
	}
	return result.Item, nil
}

func (s *TrackingService) resolveAndSave(ctx context.Context, order *production.ProductionOrder, descs []costing.ResourceDescriptor) ([]*costing.TrackingItem, error) {
	existing, err := s.items.FindByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tracking items for order %s: %w", order.ID, err)
	}
	results, err := s.matcher.ResolveAll(s.orderRef(order), existing, descs)
	if err != nil {
		return nil, err
	}
	touched := make([]*costing.TrackingItem, 0, len(results))
	for _, result := range results {
		touched = append(touched, result.Item)
	}
	if len(touched) == 0 {
		return nil, nil
	}
	if err := s.items.SaveAll(ctx, touched); err != nil {
		return nil, fmt.Errorf("saving tracking items: %w", err)
	}
	if err := s.saveAndPublishEventsOnly(ctx, touched); err != nil {
		return nil, err
	}
	s.logger.Info("resolved tracking items",
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(touched)))
	return touched, nil
}

// aggregateDescriptors builds one work-center aggregate per distinct work
// center among the order's operations, carrying the total planned hours.
// Multiple operations at the same work center fold into one aggregate.
func (s *TrackingService) aggregateDescriptors(ctx context.Context, order *production.ProductionOrder) []costing.ResourceDescriptor {
	descs := make([]costing.ResourceDescriptor, 0)
	index := make(map[uuid.UUID]int)
	for i := range order.WorkOrders {
		workOrder := &order.WorkOrders[i]
		if j, ok := index[workOrder.WorkCenterID]; ok {
			descs[j].PlannedQty = descs[j].PlannedQty.Add(workOrder.PlannedHours())
			continue
		}
		workCenterID := workOrder.WorkCenterID
		productID := order.ProductID
		if workOrder.CostProductID != nil {
			productID = *workOrder.CostProductID
		}
		index[workCenterID] = len(descs)
		descs = append(descs, costing.ResourceDescriptor{
			Kind:         costing.KindBomAggregate,
			ProductID:    productID,
			WorkCenterID: &workCenterID,
			PlannedQty:   workOrder.PlannedHours(),
			UnitCost:     s.workOrderRate(ctx, workOrder),
		})
	}
	return descs
}

// aggregateFor returns the ID of the live work-center aggregate among an
// order's items, or nil when the work center has none
func aggregateFor(items []*costing.TrackingItem, workCenterID uuid.UUID) *uuid.UUID {
	for _, item := range items {
		if item.State == costing.ItemStateCancelled {
			continue
		}
		if item.Kind == costing.KindBomAggregate && item.WorkCenterID != nil && *item.WorkCenterID == workCenterID {
			id := item.ID
			return &id
		}
	}
	return nil
}

// refreshedItems loads an order's items and lines and recomputes the
// derived amounts in memory
func (s *TrackingService) refreshedItems(ctx context.Context, orderID uuid.UUID) ([]*costing.TrackingItem, error) {
	items, err := s.items.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading tracking items for order %s: %w", orderID, err)
	}
	lines, err := s.lines.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading cost lines for order %s: %w", orderID, err)
	}
	s.calculator.Recompute(items, lines)
	return items, nil
}

func (s *TrackingService) recomputeOrder(ctx context.Context, orderID uuid.UUID) error {
	items, err := s.refreshedItems(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.items.SaveAll(ctx, items); err != nil {
		return fmt.Errorf("saving tracking items: %w", err)
	}
	return nil
}

func (s *TrackingService) saveAndPublish(ctx context.Context, items []*costing.TrackingItem) error {
	if err := s.items.SaveAll(ctx, items); err != nil {
		return fmt.Errorf("saving tracking items: %w", err)
	}
	return s.saveAndPublishEventsOnly(ctx, items)
}

func (s *TrackingService) saveAndPublishEventsOnly(ctx context.Context, items []*costing.TrackingItem) error {
	for _, item := range items {
		if err := s.publishEvents(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *TrackingService) publishEvents(ctx context.Context, item *costing.TrackingItem) error {
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		return fmt.Errorf("publishing tracking item events: %w", err)
	}
	item.ClearDomainEvents()
	return nil
}
