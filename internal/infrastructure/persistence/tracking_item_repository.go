package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/mfgcost/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// openStates are the item states still accepting cost postings
var openStates = []costing.ItemState{costing.ItemStateDraft, costing.ItemStateConfirmed}

// GormTrackingItemRepository implements TrackingItemRepository using GORM
type GormTrackingItemRepository struct {
	db *gorm.DB
}

// NewGormTrackingItemRepository creates a new GormTrackingItemRepository
func NewGormTrackingItemRepository(db *gorm.DB) *GormTrackingItemRepository {
	return &GormTrackingItemRepository{db: db}
}

// FindByID finds a tracking item by its ID
func (r *GormTrackingItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.TrackingItem, error) {
	var model models.TrackingItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder returns all tracking items of a production order
func (r *GormTrackingItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*costing.TrackingItem, error) {
	var itemModels []models.TrackingItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainItems(itemModels), nil
}

// FindOpenByOrder returns the order's items still accepting cost
func (r *GormTrackingItemRepository) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) ([]*costing.TrackingItem, error) {
	var itemModels []models.TrackingItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND state IN ?", orderID, openStates).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainItems(itemModels), nil
}

// FindWithPendingOrVariance returns open items across all orders whose
// pending or variance amount is nonzero, for the posting sweep
func (r *GormTrackingItemRepository) FindWithPendingOrVariance(ctx context.Context, filter shared.Filter) ([]*costing.TrackingItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TrackingItemModel{}).
		Where("state IN ? AND (pending_amount <> 0 OR variance_amount <> 0)", openStates)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var itemModels []models.TrackingItemModel
	if err := applyFilter(query, filter).Find(&itemModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainItems(itemModels), count, nil
}

// Save creates or updates a tracking item
func (r *GormTrackingItemRepository) Save(ctx context.Context, item *costing.TrackingItem) error {
	model := models.TrackingItemModelFromDomain(item)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of items in one transaction
func (r *GormTrackingItemRepository) SaveAll(ctx context.Context, items []*costing.TrackingItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Save(models.TrackingItemModelFromDomain(item)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a tracking item
func (r *GormTrackingItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TrackingItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainItems(itemModels []models.TrackingItemModel) []*costing.TrackingItem {
	items := make([]*costing.TrackingItem, len(itemModels))
	for i := range itemModels {
		items[i] = itemModels[i].ToDomain()
	}
	return items
}

// applyFilter applies pagination and ordering from a shared filter
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}
	return query
}

// Ensure GormTrackingItemRepository implements TrackingItemRepository
var _ costing.TrackingItemRepository = (*GormTrackingItemRepository)(nil)
