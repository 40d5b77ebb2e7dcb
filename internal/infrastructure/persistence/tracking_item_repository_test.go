package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/mfgcost/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTrackingItemTestDB creates an in-memory SQLite database for testing
func setupTrackingItemTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.TrackingItemModel{})
	require.NoError(t, err)

	return db
}

func newTestItem(t *testing.T, orderID uuid.UUID) *costing.TrackingItem {
	t.Helper()
	moveID := uuid.New()
	item, err := costing.NewTrackingItem(orderID, uuid.New(), costing.ResourceDescriptor{
		Kind:          costing.KindMaterial,
		ProductID:     uuid.New(),
		StockMoveID:   &moveID,
		PlannedQty:    decimal.NewFromInt(10),
		PlannedAmount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	return item
}

func TestGormTrackingItemRepository_SaveAndFindByID(t *testing.T) {
	db := setupTrackingItemTestDB(t)
	repo := NewGormTrackingItemRepository(db)
	ctx := context.Background()

	item := newTestItem(t, uuid.New())
	require.NoError(t, repo.Save(ctx, item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, item.OrderID, found.OrderID)
	assert.Equal(t, costing.KindMaterial, found.Kind)
	assert.Equal(t, costing.ItemStateDraft, found.State)
	assert.True(t, found.PlannedAmount.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, found.StockMoveID)
	assert.Equal(t, *item.StockMoveID, *found.StockMoveID)
}

func TestGormTrackingItemRepository_FindByID_NotFound(t *testing.T) {
	db := setupTrackingItemTestDB(t)
	repo := NewGormTrackingItemRepository(db)

	found, err := repo.FindByID(context.Background(), uuid.New())
	assert.Nil(t, found)
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestGormTrackingItemRepository_FindOpenByOrder(t *testing.T) {
	db := setupTrackingItemTestDB(t)
	repo := NewGormTrackingItemRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	open := newTestItem(t, orderID)
	cancelled := newTestItem(t, orderID)
	require.NoError(t, cancelled.Cancel())
	other := newTestItem(t, uuid.New())

	require.NoError(t, repo.SaveAll(ctx, []*costing.TrackingItem{open, cancelled, other}))

	items, err := repo.FindOpenByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].ID)

	all, err := repo.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormTrackingItemRepository_FindWithPendingOrVariance(t *testing.T) {
	db := setupTrackingItemTestDB(t)
	repo := NewGormTrackingItemRepository(db)
	ctx := context.Background()

	pending := newTestItem(t, uuid.New())
	pending.ActualAmount = decimal.NewFromInt(30)
	pending.PendingAmount = decimal.NewFromInt(30)

	clean := newTestItem(t, uuid.New())

	closed := newTestItem(t, uuid.New())
	closed.ActualAmount = decimal.NewFromInt(20)
	closed.VarianceAmount = decimal.NewFromInt(20)
	require.NoError(t, closed.Close())

	require.NoError(t, repo.SaveAll(ctx, []*costing.TrackingItem{pending, clean, closed}))

	items, count, err := repo.FindWithPendingOrVariance(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, items, 1)
	assert.Equal(t, pending.ID, items[0].ID)
}

func TestGormTrackingItemRepository_SaveAll_UpdatesExisting(t *testing.T) {
	db := setupTrackingItemTestDB(t)
	repo := NewGormTrackingItemRepository(db)
	ctx := context.Background()

	item := newTestItem(t, uuid.New())
	require.NoError(t, repo.Save(ctx, item))

	item.ActualAmount = decimal.NewFromInt(30)
	item.PendingAmount = decimal.NewFromInt(30)
	require.NoError(t, repo.SaveAll(ctx, []*costing.TrackingItem{item}))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, found.ActualAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, found.PendingAmount.Equal(decimal.NewFromInt(30)))
}

func TestGormTrackingItemRepository_Delete(t *testing.T) {
	db := setupTrackingItemTestDB(t)
	repo := NewGormTrackingItemRepository(db)
	ctx := context.Background()

	item := newTestItem(t, uuid.New())
	require.NoError(t, repo.Save(ctx, item))

	require.NoError(t, repo.Delete(ctx, item.ID))
	assert.Equal(t, shared.ErrNotFound, repo.Delete(ctx, item.ID))
}
