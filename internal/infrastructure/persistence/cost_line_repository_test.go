package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCostLineRepository creates a GormCostLineRepository with a mocked SQL connection
func newMockCostLineRepository(t *testing.T) (*GormCostLineRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCostLineRepository(gormDB), mock, mockDB
}

func costLineColumns() []string {
	return []string{"id", "created_at", "updated_at", "order_id", "tracking_item_id",
		"analytic_account_id", "product_id", "stock_move_id", "work_order_id",
		"description", "quantity", "amount"}
}

func TestGormCostLineRepository_FindByID(t *testing.T) {
	t.Run("finds existing cost line", func(t *testing.T) {
		repo, mock, mockDB := newMockCostLineRepository(t)
		defer mockDB.Close()

		lineID := uuid.New()
		orderID := uuid.New()
		itemID := uuid.New()
		moveID := uuid.New()

		rows := sqlmock.NewRows(costLineColumns()).
			AddRow(lineID, nil, nil, orderID, itemID, uuid.New(), uuid.New(), moveID, nil,
				"Steel plate", decimal.NewFromInt(10), decimal.NewFromInt(-50))

		mock.ExpectQuery(`SELECT \* FROM "cost_lines" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(lineID, 1).
			WillReturnRows(rows)

		line, err := repo.FindByID(context.Background(), lineID)

		require.NoError(t, err)
		require.NotNil(t, line)
		assert.Equal(t, lineID, line.ID)
		assert.Equal(t, orderID, line.OrderID)
		assert.Equal(t, itemID, line.TrackingItemID)
		assert.True(t, line.Amount.Equal(decimal.NewFromInt(-50)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing line", func(t *testing.T) {
		repo, mock, mockDB := newMockCostLineRepository(t)
		defer mockDB.Close()

		lineID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "cost_lines" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(lineID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		line, err := repo.FindByID(context.Background(), lineID)

		assert.Nil(t, line)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCostLineRepository_FindByWorkOrder(t *testing.T) {
	t.Run("returns nil without error when no line exists", func(t *testing.T) {
		repo, mock, mockDB := newMockCostLineRepository(t)
		defer mockDB.Close()

		workOrderID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "cost_lines" WHERE work_order_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(workOrderID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		line, err := repo.FindByWorkOrder(context.Background(), workOrderID)

		assert.NoError(t, err)
		assert.Nil(t, line)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("finds the work order time line", func(t *testing.T) {
		repo, mock, mockDB := newMockCostLineRepository(t)
		defer mockDB.Close()

		workOrderID := uuid.New()
		rows := sqlmock.NewRows(costLineColumns()).
			AddRow(uuid.New(), nil, nil, uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil, workOrderID,
				"Assembly", decimal.NewFromFloat(1.5), decimal.NewFromInt(-30))

		mock.ExpectQuery(`SELECT \* FROM "cost_lines" WHERE work_order_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(workOrderID, 1).
			WillReturnRows(rows)

		line, err := repo.FindByWorkOrder(context.Background(), workOrderID)

		require.NoError(t, err)
		require.NotNil(t, line)
		require.NotNil(t, line.WorkOrderID)
		assert.Equal(t, workOrderID, *line.WorkOrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCostLineRepository_FindByOrder(t *testing.T) {
	t.Run("returns all lines of an order", func(t *testing.T) {
		repo, mock, mockDB := newMockCostLineRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		rows := sqlmock.NewRows(costLineColumns()).
			AddRow(uuid.New(), nil, nil, orderID, uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil,
				"Steel plate", decimal.NewFromInt(10), decimal.NewFromInt(-50)).
			AddRow(uuid.New(), nil, nil, orderID, uuid.New(), uuid.New(), uuid.New(), nil, uuid.New(),
				"Assembly", decimal.NewFromFloat(1.5), decimal.NewFromInt(-30))

		mock.ExpectQuery(`SELECT \* FROM "cost_lines" WHERE order_id = \$1 ORDER BY created_at ASC`).
			WithArgs(orderID).
			WillReturnRows(rows)

		lines, err := repo.FindByOrder(context.Background(), orderID)

		require.NoError(t, err)
		assert.Len(t, lines, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
