package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for LedgerEntry.
type LedgerEntryModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key"`
	JournalID uuid.UUID         `gorm:"type:uuid;not null;index"`
	OrderID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Reference string            `gorm:"type:varchar(100);not null"`
	Lines     []LedgerLineModel `gorm:"foreignKey:EntryID;references:ID"`
	PostedAt  time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *costing.LedgerEntry {
	entry := &costing.LedgerEntry{
		ID:        m.ID,
		JournalID: m.JournalID,
		OrderID:   m.OrderID,
		Reference: m.Reference,
		PostedAt:  m.PostedAt,
		Lines:     make([]costing.LedgerLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		entry.Lines[i] = costing.LedgerLine{
			AccountID:      line.AccountID,
			TrackingItemID: line.TrackingItemID,
			Label:          line.Label,
			Amount:         line.Amount,
		}
	}
	return entry
}

// FromDomain populates the persistence model from a domain LedgerEntry.
func (m *LedgerEntryModel) FromDomain(entry *costing.LedgerEntry) {
	m.ID = entry.ID
	m.JournalID = entry.JournalID
	m.OrderID = entry.OrderID
	m.Reference = entry.Reference
	m.PostedAt = entry.PostedAt
	m.Lines = make([]LedgerLineModel, len(entry.Lines))
	for i, line := range entry.Lines {
		m.Lines[i] = LedgerLineModel{
			ID:             uuid.New(),
			EntryID:        entry.ID,
			AccountID:      line.AccountID,
			TrackingItemID: line.TrackingItemID,
			Label:          line.Label,
			Amount:         line.Amount,
		}
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(entry *costing.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(entry)
	return m
}

// LedgerLineModel is the persistence model for LedgerLine.
type LedgerLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	EntryID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TrackingItemID *uuid.UUID      `gorm:"type:uuid;index"`
	Label          string          `gorm:"type:varchar(200)"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (LedgerLineModel) TableName() string {
	return "ledger_lines"
}
