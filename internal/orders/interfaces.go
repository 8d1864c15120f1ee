package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
)

// Repository is the persistence surface for order fragments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// ListFragments returns the user's fragments ordered oldest first.
	ListFragments(ctx context.Context, userID string) ([]models.OrderFragment, error)

	// FindOrder scans the user's fragments for the order id. Returns
	// (nil, nil) when absent.
	FindOrder(ctx context.Context, userID, orderID string) (*models.Order, error)

	// AppendOrder adds the order to the user's newest fragment, creating
	// one when the user has none.
	AppendOrder(ctx context.Context, userID string, order models.Order) error

	// ReplaceFragments deletes every fragment the user has and writes one
	// canonical fragment holding orders.
	ReplaceFragments(ctx context.Context, userID string, orders []models.Order) error

	// UpdateOrder applies mutate to the stored order and persists the
	// owning fragment. Returns the updated order.
	UpdateOrder(ctx context.Context, userID, orderID string, mutate func(*models.Order) error) (*models.Order, error)
}
