package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/mfgcost/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerService implements LedgerService over the ledger tables.
// Entries are validated for balance before anything hits the database,
// and an entry with its lines is written in one transaction.
type GormLedgerService struct {
	db *gorm.DB
}

// NewGormLedgerService creates a new GormLedgerService
func NewGormLedgerService(db *gorm.DB) *GormLedgerService {
	return &GormLedgerService{db: db}
}

// PostEntry persists and posts a balanced journal entry
func (s *GormLedgerService) PostEntry(ctx context.Context, entry *costing.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.PostedAt.IsZero() {
		entry.PostedAt = time.Now()
	}
	model := models.LedgerEntryModelFromDomain(entry)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := model.Lines
		model.Lines = nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

// UpdateEntryLines replaces the lines of a posted entry with a corrected,
// still balanced set
func (s *GormLedgerService) UpdateEntryLines(ctx context.Context, entryID uuid.UUID, lines []costing.LedgerLine) error {
	replacement := &costing.LedgerEntry{ID: entryID, Lines: lines}
	if err := replacement.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LedgerEntryModel{}).Where("id = ?", entryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Where("entry_id = ?", entryID).Delete(&models.LedgerLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		lineModels := make([]models.LedgerLineModel, len(lines))
		for i, line := range lines {
			lineModels[i] = models.LedgerLineModel{
				ID:             uuid.New(),
				EntryID:        entryID,
				AccountID:      line.AccountID,
				TrackingItemID: line.TrackingItemID,
				Label:          line.Label,
				Amount:         line.Amount,
			}
		}
		return tx.Create(&lineModels).Error
	})
}

// FindEntriesByOrder returns the journal entries posted for an order
func (s *GormLedgerService) FindEntriesByOrder(ctx context.Context, orderID uuid.UUID) ([]*costing.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := s.db.WithContext(ctx).
		Preload("Lines").
		Where("order_id = ?", orderID).
		Order("posted_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*costing.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormLedgerService implements LedgerService
var _ costing.LedgerService = (*GormLedgerService)(nil)
