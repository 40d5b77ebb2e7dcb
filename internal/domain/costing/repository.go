package costing

import (
	"context"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
)

// TrackingItemRepository defines the persistence interface for tracking items
type TrackingItemRepository interface {
	shared.Repository[TrackingItem]

	// FindByOrder returns all tracking items of a production order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*TrackingItem, error)

	// FindOpenByOrder returns the order's items still accepting cost
	FindOpenByOrder(ctx context.Context, orderID uuid.UUID) ([]*TrackingItem, error)

	// FindWithPendingOrVariance returns open items across all orders whose
	// pending or variance amount is nonzero, for the posting sweep
	FindWithPendingOrVariance(ctx context.Context, filter shared.Filter) ([]*TrackingItem, int64, error)

	// SaveAll persists a batch of items in one transaction
	SaveAll(ctx context.Context, items []*TrackingItem) error
}

// CostLineRepository defines the persistence interface for analytic cost lines
type CostLineRepository interface {
	// FindByID returns a cost line by its identifier
	FindByID(ctx context.Context, id uuid.UUID) (*CostLine, error)

	// FindByOrder returns all cost lines charged against an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*CostLine, error)

	// FindByTrackingItem returns the lines of one tracking item
	FindByTrackingItem(ctx context.Context, itemID uuid.UUID) ([]*CostLine, error)

	// FindByWorkOrder returns the single time line of a work order, if any
	FindByWorkOrder(ctx context.Context, workOrderID uuid.UUID) (*CostLine, error)

	// FindByStockMove returns the consumption line of a stock move, if any
	FindByStockMove(ctx context.Context, stockMoveID uuid.UUID) (*CostLine, error)

	// Save persists a cost line
	Save(ctx context.Context, line *CostLine) error

	// Delete removes a cost line
	Delete(ctx context.Context, id uuid.UUID) error
}
