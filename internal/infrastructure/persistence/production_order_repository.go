package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/mfgcost/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// trackableStatuses are the order statuses open for cost tracking
var trackableStatuses = []production.OrderStatus{
	production.OrderStatusConfirmed,
	production.OrderStatusProgress,
	production.OrderStatusToClose,
}

// GormProductionOrderRepository implements ProductionOrderRepository using GORM
type GormProductionOrderRepository struct {
	db *gorm.DB
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{db: db}
}

// FindByID finds a production order by its ID
func (r *GormProductionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionOrder, error) {
	var model models.ProductionOrderModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber returns an order by its business number
func (r *GormProductionOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*production.ProductionOrder, error) {
	var model models.ProductionOrderModel
	if err := r.withChildren(ctx).First(&model, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus returns orders in the given status
func (r *GormProductionOrderRepository) FindByStatus(ctx context.Context, status production.OrderStatus, filter shared.Filter) ([]*production.ProductionOrder, int64, error) {
	return r.findWhere(ctx, filter, "status = ?", status)
}

// FindTrackable returns orders currently open for cost tracking
func (r *GormProductionOrderRepository) FindTrackable(ctx context.Context, filter shared.Filter) ([]*production.ProductionOrder, int64, error) {
	return r.findWhere(ctx, filter, "status IN ?", trackableStatuses)
}

// Save creates or updates a production order with its moves and work orders
func (r *GormProductionOrderRepository) Save(ctx context.Context, order *production.ProductionOrder) error {
	model := models.ProductionOrderModelFromDomain(order)
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(model).Error
}

// Delete removes a production order and its children
func (r *GormProductionOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.RawMaterialMoveModel{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.WorkOrderModel{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.FinishedMoveModel{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProductionOrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormProductionOrderRepository) findWhere(ctx context.Context, filter shared.Filter, cond string, args ...interface{}) ([]*production.ProductionOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductionOrderModel{}).Where(cond, args...)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.ProductionOrderModel
	if err := applyFilter(query, filter).
		Preload("RawMoves").
		Preload("WorkOrders").
		Preload("FinishedMoves").
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*production.ProductionOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, count, nil
}

func (r *GormProductionOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("RawMoves").
		Preload("WorkOrders").
		Preload("FinishedMoves")
}

// Ensure GormProductionOrderRepository implements ProductionOrderRepository
var _ production.ProductionOrderRepository = (*GormProductionOrderRepository)(nil)
