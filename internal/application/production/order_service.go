package production

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RawMaterialInput describes one planned raw material consumption
type RawMaterialInput struct {
	ProductID             uuid.UUID
	Description           string
	PlannedQty            decimal.Decimal
	UnitCost              decimal.Decimal
	DestinationLocationID uuid.UUID
}

// WorkOrderInput describes one planned operation step
type WorkOrderInput struct {
	Name           string
	WorkCenterID   uuid.UUID
	CostProductID  *uuid.UUID
	HourlyRate     decimal.Decimal
	PlannedMinutes decimal.Decimal
	CostFactor     decimal.Decimal
}

// FinishedMoveInput describes one planned finished goods receipt
type FinishedMoveInput struct {
	ProductID        uuid.UUID
	Quantity         decimal.Decimal
	StandardUnitCost decimal.Decimal
	LocationID       uuid.UUID
}

// CreateOrderInput carries everything needed to plan a production order
type CreateOrderInput struct {
	OrderNumber       string
	ProductID         uuid.UUID
	Quantity          decimal.Decimal
	AnalyticAccountID uuid.UUID
	RawMaterials      []RawMaterialInput
	WorkOrders        []WorkOrderInput
	FinishedMoves     []FinishedMoveInput
}

// OrderService exposes the production order lifecycle as application
// commands. Each command loads the aggregate, applies the state change,
// persists it, and publishes the resulting domain events; cost tracking
// reacts to those events.
type OrderService struct {
	orders    production.ProductionOrderRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orders production.ProductionOrderRepository, publisher shared.EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, publisher: publisher, logger: logger}
}

// CreateOrder plans a new production order in draft state
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*production.ProductionOrder, error) {
	if existing, err := s.orders.FindByOrderNumber(ctx, input.OrderNumber); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Order %s already exists", input.OrderNumber))
	}

	order, err := production.NewProductionOrder(input.OrderNumber, input.ProductID, input.Quantity)
	if err != nil {
		return nil, err
	}
	if input.AnalyticAccountID != uuid.Nil {
		if err := order.SetAnalyticAccount(input.AnalyticAccountID); err != nil {
			return nil, err
		}
	}
	for _, raw := range input.RawMaterials {
		if _, err := order.AddRawMaterial(raw.ProductID, raw.Description, raw.PlannedQty, raw.UnitCost, raw.DestinationLocationID); err != nil {
			return nil, err
		}
	}
	for _, wo := range input.WorkOrders {
		if _, err := order.AddWorkOrder(wo.Name, wo.WorkCenterID, wo.CostProductID, wo.HourlyRate, wo.PlannedMinutes, wo.CostFactor); err != nil {
			return nil, err
		}
	}
	for _, fm := range input.FinishedMoves {
		if _, err := order.AddFinishedMove(fm.ProductID, fm.Quantity, fm.StandardUnitCost, fm.LocationID); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}
	s.logger.Info("production order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("order_id", order.ID.String()))
	return order, nil
}

// ConfirmOrder confirms a draft order, opening it for execution
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		return order.Confirm()
	})
}

// RecordConsumption books consumed material quantity on an order
func (s *OrderService) RecordConsumption(ctx context.Context, orderID, moveID uuid.UUID, quantity decimal.Decimal) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		_, err := order.RecordConsumption(moveID, quantity)
		return err
	})
}

// LogOperationTime adds worked minutes to a work order
func (s *OrderService) LogOperationTime(ctx context.Context, orderID, workOrderID uuid.UUID, minutes decimal.Decimal) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		_, err := order.LogOperationTime(workOrderID, minutes)
		return err
	})
}

// FinishWorkOrder marks an operation step finished
func (s *OrderService) FinishWorkOrder(ctx context.Context, orderID, workOrderID uuid.UUID) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		return order.FinishWorkOrder(workOrderID)
	})
}

// RecordProduction books produced finished goods quantity
func (s *OrderService) RecordProduction(ctx context.Context, orderID, finishedMoveID uuid.UUID, quantity decimal.Decimal) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		_, err := order.RecordProduction(finishedMoveID, quantity)
		return err
	})
}

// AddRawMaterial adds a raw material to an order, also after confirmation
func (s *OrderService) AddRawMaterial(ctx context.Context, orderID uuid.UUID, input RawMaterialInput) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		_, err := order.AddRawMaterial(input.ProductID, input.Description, input.PlannedQty, input.UnitCost, input.DestinationLocationID)
		return err
	})
}

// AddWorkOrder adds an operation step to an order, also after confirmation
func (s *OrderService) AddWorkOrder(ctx context.Context, orderID uuid.UUID, input WorkOrderInput) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		_, err := order.AddWorkOrder(input.Name, input.WorkCenterID, input.CostProductID, input.HourlyRate, input.PlannedMinutes, input.CostFactor)
		return err
	})
}

// CompleteOrder finishes an order. When work orders remain open the order
// parks in to_close and the final cost clearing waits.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID uuid.UUID) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		return order.Complete()
	})
}

// CancelOrder aborts an order
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*production.ProductionOrder, error) {
	return s.mutate(ctx, orderID, func(order *production.ProductionOrder) error {
		return order.Cancel(reason)
	})
}

// GetOrder returns one order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*production.ProductionOrder, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListOrdersByStatus returns orders in a given status
func (s *OrderService) ListOrdersByStatus(ctx context.Context, status production.OrderStatus, filter shared.Filter) ([]*production.ProductionOrder, int64, error) {
	if !status.IsValid() {
		return nil, 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %q", status))
	}
	return s.orders.FindByStatus(ctx, status, filter)
}

// mutate loads an order, applies the change, saves and publishes events
func (s *OrderService) mutate(ctx context.Context, orderID uuid.UUID, change func(*production.ProductionOrder) error) (*production.ProductionOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	if err := change(order); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order %s: %w", orderID, err)
	}
	events := order.GetDomainEvents()
	if len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			return nil, fmt.Errorf("publishing order events: %w", err)
		}
		order.ClearDomainEvents()
	}
	return order, nil
}
