package models

import (
	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TrackingItemModel is the persistence model for the TrackingItem aggregate root.
type TrackingItemModel struct {
	AggregateModel
	OrderID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	Kind              costing.ResourceKind `gorm:"type:varchar(20);not null;index"`
	ProductID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	StockMoveID       *uuid.UUID           `gorm:"type:uuid;index"`
	WorkOrderID       *uuid.UUID           `gorm:"type:uuid;index"`
	WorkCenterID      *uuid.UUID           `gorm:"type:uuid;index"`
	LocationID        *uuid.UUID           `gorm:"type:uuid"`
	ParentID          *uuid.UUID           `gorm:"type:uuid;index"`
	AnalyticAccountID uuid.UUID            `gorm:"type:uuid;not null;index"`
	PlannedQty        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PlannedAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ActualAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AccountedAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PendingAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;index"`
	VarianceAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null;index"`
	RemainingAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	State             costing.ItemState    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
}

// TableName returns the table name for GORM
func (TrackingItemModel) TableName() string {
	return "tracking_items"
}

// ToDomain converts the persistence model to a domain TrackingItem entity.
func (m *TrackingItemModel) ToDomain() *costing.TrackingItem {
	item := &costing.TrackingItem{
		OrderID:           m.OrderID,
		Kind:              m.Kind,
		ProductID:         m.ProductID,
		StockMoveID:       m.StockMoveID,
		WorkOrderID:       m.WorkOrderID,
		WorkCenterID:      m.WorkCenterID,
		LocationID:        m.LocationID,
		ParentID:          m.ParentID,
		AnalyticAccountID: m.AnalyticAccountID,
		PlannedQty:        m.PlannedQty,
		PlannedAmount:     m.PlannedAmount,
		ActualAmount:      m.ActualAmount,
		AccountedAmount:   m.AccountedAmount,
		PendingAmount:     m.PendingAmount,
		VarianceAmount:    m.VarianceAmount,
		RemainingAmount:   m.RemainingAmount,
		State:             m.State,
	}
	m.PopulateAggregateRoot(&item.BaseAggregateRoot)
	return item
}

// FromDomain populates the persistence model from a domain TrackingItem entity.
func (m *TrackingItemModel) FromDomain(item *costing.TrackingItem) {
	m.FromDomainAggregateRoot(item.BaseAggregateRoot)
	m.OrderID = item.OrderID
	m.Kind = item.Kind
	m.ProductID = item.ProductID
	m.StockMoveID = item.StockMoveID
	m.WorkOrderID = item.WorkOrderID
	m.WorkCenterID = item.WorkCenterID
	m.LocationID = item.LocationID
	m.ParentID = item.ParentID
	m.AnalyticAccountID = item.AnalyticAccountID
	m.PlannedQty = item.PlannedQty
	m.PlannedAmount = item.PlannedAmount
	m.ActualAmount = item.ActualAmount
	m.AccountedAmount = item.AccountedAmount
	m.PendingAmount = item.PendingAmount
	m.VarianceAmount = item.VarianceAmount
	m.RemainingAmount = item.RemainingAmount
	m.State = item.State
}

// TrackingItemModelFromDomain creates a new persistence model from a domain TrackingItem.
func TrackingItemModelFromDomain(item *costing.TrackingItem) *TrackingItemModel {
	m := &TrackingItemModel{}
	m.FromDomain(item)
	return m
}

// CostLineModel is the persistence model for CostLine.
type CostLineModel struct {
	BaseModel
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	TrackingItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AnalyticAccountID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	StockMoveID       *uuid.UUID      `gorm:"type:uuid;index"`
	WorkOrderID       *uuid.UUID      `gorm:"type:uuid;index"`
	Description       string          `gorm:"type:varchar(500)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (CostLineModel) TableName() string {
	return "cost_lines"
}

// ToDomain converts the persistence model to a domain CostLine.
func (m *CostLineModel) ToDomain() *costing.CostLine {
	return &costing.CostLine{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:           m.OrderID,
		TrackingItemID:    m.TrackingItemID,
		AnalyticAccountID: m.AnalyticAccountID,
		ProductID:         m.ProductID,
		StockMoveID:       m.StockMoveID,
		WorkOrderID:       m.WorkOrderID,
		Description:       m.Description,
		Quantity:          m.Quantity,
		Amount:            m.Amount,
	}
}

// FromDomain populates the persistence model from a domain CostLine.
func (m *CostLineModel) FromDomain(line *costing.CostLine) {
	m.FromDomainBaseEntity(line.BaseEntity)
	m.OrderID = line.OrderID
	m.TrackingItemID = line.TrackingItemID
	m.AnalyticAccountID = line.AnalyticAccountID
	m.ProductID = line.ProductID
	m.StockMoveID = line.StockMoveID
	m.WorkOrderID = line.WorkOrderID
	m.Description = line.Description
	m.Quantity = line.Quantity
	m.Amount = line.Amount
}

// CostLineModelFromDomain creates a new persistence model from a domain CostLine.
func CostLineModelFromDomain(line *costing.CostLine) *CostLineModel {
	m := &CostLineModel{}
	m.FromDomain(line)
	return m
}
