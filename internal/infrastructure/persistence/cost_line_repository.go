package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/mfgcost/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCostLineRepository implements CostLineRepository using GORM
type GormCostLineRepository struct {
	db *gorm.DB
}

// NewGormCostLineRepository creates a new GormCostLineRepository
func NewGormCostLineRepository(db *gorm.DB) *GormCostLineRepository {
	return &GormCostLineRepository{db: db}
}

// FindByID returns a cost line by its identifier
func (r *GormCostLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.CostLine, error) {
	var model models.CostLineModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder returns all cost lines charged against an order
func (r *GormCostLineRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*costing.CostLine, error) {
	var lineModels []models.CostLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lineModels).Error; err != nil {
		return nil, err
	}
	return toDomainLines(lineModels), nil
}

// FindByTrackingItem returns the lines of one tracking item
func (r *GormCostLineRepository) FindByTrackingItem(ctx context.Context, itemID uuid.UUID) ([]*costing.CostLine, error) {
	var lineModels []models.CostLineModel
	if err := r.db.WithContext(ctx).
		Where("tracking_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&lineModels).Error; err != nil {
		return nil, err
	}
	return toDomainLines(lineModels), nil
}

// FindByWorkOrder returns the single time line of a work order, if any
func (r *GormCostLineRepository) FindByWorkOrder(ctx context.Context, workOrderID uuid.UUID) (*costing.CostLine, error) {
	var model models.CostLineModel
	if err := r.db.WithContext(ctx).First(&model, "work_order_id = ?", workOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStockMove returns the consumption line of a stock move, if any
func (r *GormCostLineRepository) FindByStockMove(ctx context.Context, stockMoveID uuid.UUID) (*costing.CostLine, error) {
	var model models.CostLineModel
	if err := r.db.WithContext(ctx).First(&model, "stock_move_id = ?", stockMoveID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists a cost line
func (r *GormCostLineRepository) Save(ctx context.Context, line *costing.CostLine) error {
	model := models.CostLineModelFromDomain(line)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a cost line
func (r *GormCostLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CostLineModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainLines(lineModels []models.CostLineModel) []*costing.CostLine {
	lines := make([]*costing.CostLine, len(lineModels))
	for i := range lineModels {
		lines[i] = lineModels[i].ToDomain()
	}
	return lines
}

// Ensure GormCostLineRepository implements CostLineRepository
var _ costing.CostLineRepository = (*GormCostLineRepository)(nil)
