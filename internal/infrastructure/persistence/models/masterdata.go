package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCostModel holds the standard unit cost of a product. For service
// products attached to work centers this is the hourly rate.
type ProductCostModel struct {
	BaseModel
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	StandardCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ProductCostModel) TableName() string {
	return "product_costs"
}

// WorkCenterModel holds the cost configuration of a work center.
type WorkCenterModel struct {
	BaseModel
	WorkCenterID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(200)"`
	HourlyRate   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (WorkCenterModel) TableName() string {
	return "work_centers"
}

// ValuationAccountModel maps a stock location or work center to the posting
// accounts used by WIP clearing. Exactly one of LocationID and WorkCenterID
// is set per row; a row with both nil is the fallback configuration.
type ValuationAccountModel struct {
	BaseModel
	LocationID     *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	WorkCenterID   *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	StockInputID   uuid.UUID  `gorm:"type:uuid"`
	StockOutputID  uuid.UUID  `gorm:"type:uuid"`
	VarianceID     uuid.UUID  `gorm:"type:uuid"`
	WipID          uuid.UUID  `gorm:"type:uuid"`
	StockJournalID uuid.UUID  `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ValuationAccountModel) TableName() string {
	return "valuation_accounts"
}
