package production

import (
	"context"

	"github.com/mfgcost/backend/internal/domain/shared"
)

// ProductionOrderRepository defines the persistence interface for production orders
type ProductionOrderRepository interface {
	shared.Repository[ProductionOrder]

	// FindByOrderNumber returns an order by its business number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*ProductionOrder, error)

	// FindByStatus returns orders in the given status
	FindByStatus(ctx context.Context, status OrderStatus, filter shared.Filter) ([]*ProductionOrder, int64, error)

	// FindTrackable returns orders currently open for cost tracking
	FindTrackable(ctx context.Context, filter shared.Filter) ([]*ProductionOrder, int64, error)
}
