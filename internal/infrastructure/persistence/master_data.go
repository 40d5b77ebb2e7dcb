package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/mfgcost/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormMasterDataService implements MasterDataService over the master data
// tables: product standard costs, work center rates and valuation account
// configuration.
type GormMasterDataService struct {
	db *gorm.DB
}

// NewGormMasterDataService creates a new GormMasterDataService
func NewGormMasterDataService(db *gorm.DB) *GormMasterDataService {
	return &GormMasterDataService{db: db}
}

// UnitCost returns the standard unit cost of a product. When the product
// carries no cost and a work center is given, the work center's hourly
// rate serves as fallback.
func (s *GormMasterDataService) UnitCost(ctx context.Context, productID uuid.UUID, workCenterID *uuid.UUID) (decimal.Decimal, error) {
	var productCost models.ProductCostModel
	err := s.db.WithContext(ctx).First(&productCost, "product_id = ?", productID).Error
	if err == nil {
		return productCost.StandardCost, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	if workCenterID != nil {
		var workCenter models.WorkCenterModel
		err = s.db.WithContext(ctx).First(&workCenter, "work_center_id = ?", *workCenterID).Error
		if err == nil {
			return workCenter.HourlyRate, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, err
		}
	}

	return decimal.Zero, shared.ErrConfigurationMissing
}

// AccountsForValuation resolves the posting accounts for a valuation key.
// Location-keyed configuration wins over work-center-keyed; a row with
// neither key acts as the company-wide fallback.
func (s *GormMasterDataService) AccountsForValuation(ctx context.Context, key costing.ValuationKey) (costing.ValuationAccounts, error) {
	if key.LocationID != nil {
		if accounts, found, err := s.lookupAccounts(ctx, "location_id = ?", *key.LocationID); err != nil || found {
			return accounts, err
		}
	}
	if key.WorkCenterID != nil {
		if accounts, found, err := s.lookupAccounts(ctx, "work_center_id = ?", *key.WorkCenterID); err != nil || found {
			return accounts, err
		}
	}
	if accounts, found, err := s.lookupAccounts(ctx, "location_id IS NULL AND work_center_id IS NULL"); err != nil || found {
		return accounts, err
	}
	return costing.ValuationAccounts{}, shared.ErrConfigurationMissing
}

func (s *GormMasterDataService) lookupAccounts(ctx context.Context, cond string, args ...interface{}) (costing.ValuationAccounts, bool, error) {
	var model models.ValuationAccountModel
	err := s.db.WithContext(ctx).Where(cond, args...).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return costing.ValuationAccounts{}, false, nil
		}
		return costing.ValuationAccounts{}, false, err
	}
	return costing.ValuationAccounts{
		StockInput:    model.StockInputID,
		StockOutput:   model.StockOutputID,
		StockVariance: model.VarianceID,
		StockWip:      model.WipID,
		StockJournal:  model.StockJournalID,
	}, true, nil
}

// Ensure GormMasterDataService implements MasterDataService
var _ costing.MasterDataService = (*GormMasterDataService)(nil)
