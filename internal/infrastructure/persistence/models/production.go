package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductionOrderModel is the persistence model for the ProductionOrder aggregate root.
type ProductionOrderModel struct {
	AggregateModel
	OrderNumber       string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProductID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	Quantity          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	AnalyticAccountID uuid.UUID              `gorm:"type:uuid;index"`
	Status            production.OrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`

	RawMoves      []RawMaterialMoveModel `gorm:"foreignKey:OrderID;references:ID"`
	WorkOrders    []WorkOrderModel       `gorm:"foreignKey:OrderID;references:ID"`
	FinishedMoves []FinishedMoveModel    `gorm:"foreignKey:OrderID;references:ID"`

	ConfirmedAt  *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductionOrderModel) TableName() string {
	return "production_orders"
}

// ToDomain converts the persistence model to a domain ProductionOrder entity.
func (m *ProductionOrderModel) ToDomain() *production.ProductionOrder {
	order := &production.ProductionOrder{
		OrderNumber:       m.OrderNumber,
		ProductID:         m.ProductID,
		Quantity:          m.Quantity,
		AnalyticAccountID: m.AnalyticAccountID,
		Status:            m.Status,
		RawMoves:          make([]production.RawMaterialMove, len(m.RawMoves)),
		WorkOrders:        make([]production.WorkOrder, len(m.WorkOrders)),
		FinishedMoves:     make([]production.FinishedMove, len(m.FinishedMoves)),
		ConfirmedAt:       m.ConfirmedAt,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	m.PopulateAggregateRoot(&order.BaseAggregateRoot)
	for i, move := range m.RawMoves {
		order.RawMoves[i] = *move.ToDomain()
	}
	for i, wo := range m.WorkOrders {
		order.WorkOrders[i] = *wo.ToDomain()
	}
	for i, move := range m.FinishedMoves {
		order.FinishedMoves[i] = *move.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain ProductionOrder entity.
func (m *ProductionOrderModel) FromDomain(order *production.ProductionOrder) {
	m.FromDomainAggregateRoot(order.BaseAggregateRoot)
	m.OrderNumber = order.OrderNumber
	m.ProductID = order.ProductID
	m.Quantity = order.Quantity
	m.AnalyticAccountID = order.AnalyticAccountID
	m.Status = order.Status
	m.ConfirmedAt = order.ConfirmedAt
	m.StartedAt = order.StartedAt
	m.CompletedAt = order.CompletedAt
	m.CancelledAt = order.CancelledAt
	m.CancelReason = order.CancelReason
	m.RawMoves = make([]RawMaterialMoveModel, len(order.RawMoves))
	for i, move := range order.RawMoves {
		m.RawMoves[i] = *RawMaterialMoveModelFromDomain(&move)
	}
	m.WorkOrders = make([]WorkOrderModel, len(order.WorkOrders))
	for i, wo := range order.WorkOrders {
		m.WorkOrders[i] = *WorkOrderModelFromDomain(&wo)
	}
	m.FinishedMoves = make([]FinishedMoveModel, len(order.FinishedMoves))
	for i, move := range order.FinishedMoves {
		m.FinishedMoves[i] = *FinishedMoveModelFromDomain(&move)
	}
}

// ProductionOrderModelFromDomain creates a new persistence model from a domain ProductionOrder.
func ProductionOrderModelFromDomain(order *production.ProductionOrder) *ProductionOrderModel {
	m := &ProductionOrderModel{}
	m.FromDomain(order)
	return m
}

// RawMaterialMoveModel is the persistence model for RawMaterialMove.
type RawMaterialMoveModel struct {
	BaseModel
	OrderID               uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProductID             uuid.UUID             `gorm:"type:uuid;not null;index"`
	Description           string                `gorm:"type:varchar(500)"`
	PlannedQty            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	ConsumedQty           decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	UnitCost              decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DestinationLocationID uuid.UUID             `gorm:"type:uuid"`
	Status                production.MoveStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	AddedAfterConfirm     bool                  `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (RawMaterialMoveModel) TableName() string {
	return "raw_material_moves"
}

// ToDomain converts the persistence model to a domain RawMaterialMove.
func (m *RawMaterialMoveModel) ToDomain() *production.RawMaterialMove {
	return &production.RawMaterialMove{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:               m.OrderID,
		ProductID:             m.ProductID,
		Description:           m.Description,
		PlannedQty:            m.PlannedQty,
		ConsumedQty:           m.ConsumedQty,
		UnitCost:              m.UnitCost,
		DestinationLocationID: m.DestinationLocationID,
		Status:                m.Status,
		AddedAfterConfirm:     m.AddedAfterConfirm,
	}
}

// FromDomain populates the persistence model from a domain RawMaterialMove.
func (m *RawMaterialMoveModel) FromDomain(move *production.RawMaterialMove) {
	m.FromDomainBaseEntity(move.BaseEntity)
	m.OrderID = move.OrderID
	m.ProductID = move.ProductID
	m.Description = move.Description
	m.PlannedQty = move.PlannedQty
	m.ConsumedQty = move.ConsumedQty
	m.UnitCost = move.UnitCost
	m.DestinationLocationID = move.DestinationLocationID
	m.Status = move.Status
	m.AddedAfterConfirm = move.AddedAfterConfirm
}

// RawMaterialMoveModelFromDomain creates a new persistence model from domain.
func RawMaterialMoveModelFromDomain(move *production.RawMaterialMove) *RawMaterialMoveModel {
	m := &RawMaterialMoveModel{}
	m.FromDomain(move)
	return m
}

// WorkOrderModel is the persistence model for WorkOrder.
type WorkOrderModel struct {
	BaseModel
	OrderID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name            string                `gorm:"type:varchar(200)"`
	WorkCenterID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	CostProductID   *uuid.UUID            `gorm:"type:uuid"`
	HourlyRate      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CostFactor      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PlannedMinutes  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DurationMinutes decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status          production.MoveStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (WorkOrderModel) TableName() string {
	return "work_orders"
}

// ToDomain converts the persistence model to a domain WorkOrder.
func (m *WorkOrderModel) ToDomain() *production.WorkOrder {
	return &production.WorkOrder{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:         m.OrderID,
		Name:            m.Name,
		WorkCenterID:    m.WorkCenterID,
		CostProductID:   m.CostProductID,
		HourlyRate:      m.HourlyRate,
		CostFactor:      m.CostFactor,
		PlannedMinutes:  m.PlannedMinutes,
		DurationMinutes: m.DurationMinutes,
		Status:          m.Status,
	}
}

// FromDomain populates the persistence model from a domain WorkOrder.
func (m *WorkOrderModel) FromDomain(wo *production.WorkOrder) {
	m.FromDomainBaseEntity(wo.BaseEntity)
	m.OrderID = wo.OrderID
	m.Name = wo.Name
	m.WorkCenterID = wo.WorkCenterID
	m.CostProductID = wo.CostProductID
	m.HourlyRate = wo.HourlyRate
	m.CostFactor = wo.CostFactor
	m.PlannedMinutes = wo.PlannedMinutes
	m.DurationMinutes = wo.DurationMinutes
	m.Status = wo.Status
}

// WorkOrderModelFromDomain creates a new persistence model from domain.
func WorkOrderModelFromDomain(wo *production.WorkOrder) *WorkOrderModel {
	m := &WorkOrderModel{}
	m.FromDomain(wo)
	return m
}

// FinishedMoveModel is the persistence model for FinishedMove.
type FinishedMoveModel struct {
	BaseModel
	OrderID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Quantity         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	ProducedQty      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	StandardUnitCost decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	LocationID       uuid.UUID             `gorm:"type:uuid"`
	Status           production.MoveStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (FinishedMoveModel) TableName() string {
	return "finished_moves"
}

// ToDomain converts the persistence model to a domain FinishedMove.
func (m *FinishedMoveModel) ToDomain() *production.FinishedMove {
	return &production.FinishedMove{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:          m.OrderID,
		ProductID:        m.ProductID,
		Quantity:         m.Quantity,
		ProducedQty:      m.ProducedQty,
		StandardUnitCost: m.StandardUnitCost,
		LocationID:       m.LocationID,
		Status:           m.Status,
	}
}

// FromDomain populates the persistence model from a domain FinishedMove.
func (m *FinishedMoveModel) FromDomain(move *production.FinishedMove) {
	m.FromDomainBaseEntity(move.BaseEntity)
	m.OrderID = move.OrderID
	m.ProductID = move.ProductID
	m.Quantity = move.Quantity
	m.ProducedQty = move.ProducedQty
	m.StandardUnitCost = move.StandardUnitCost
	m.LocationID = move.LocationID
	m.Status = move.Status
}

// FinishedMoveModelFromDomain creates a new persistence model from domain.
func FinishedMoveModelFromDomain(move *production.FinishedMove) *FinishedMoveModel {
	m := &FinishedMoveModel{}
	m.FromDomain(move)
	return m
}
