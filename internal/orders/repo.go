package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fragment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListFragments(ctx context.Context, userID string) ([]models.OrderFragment, error) {
	var fragments []models.OrderFragment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&fragments).Error
	if err != nil {
		return nil, err
	}
	return fragments, nil
}

func (r *repository) FindOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	fragments, err := r.ListFragments(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, fragment := range fragments {
		for i := range fragment.Orders {
			if fragment.Orders[i].OrderID == orderID {
				order := fragment.Orders[i]
				return &order, nil
			}
		}
	}
	return nil, nil
}

func (r *repository) AppendOrder(ctx context.Context, userID string, order models.Order) error {
	var fragment models.OrderFragment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&fragment).Error

	switch {
	case err == nil:
		// Save goes through the struct so the orders column is serialized;
		// a column-level Update would hand gorm the raw slice.
		fragment.Orders = append(fragment.Orders, order)
		return r.db.WithContext(ctx).Save(&fragment).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		fresh := models.OrderFragment{
			ID:     uuid.New(),
			UserID: userID,
			Orders: []models.Order{order},
		}
		return r.db.WithContext(ctx).Create(&fresh).Error
	default:
		return err
	}
}

func (r *repository) ReplaceFragments(ctx context.Context, userID string, orders []models.Order) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.OrderFragment{}).Error; err != nil {
		return err
	}

	canonical := models.OrderFragment{
		ID:     uuid.New(),
		UserID: userID,
		Orders: orders,
	}
	if canonical.Orders == nil {
		canonical.Orders = []models.Order{}
	}
	return r.db.WithContext(ctx).Create(&canonical).Error
}

func (r *repository) UpdateOrder(ctx context.Context, userID, orderID string, mutate func(*models.Order) error) (*models.Order, error) {
	fragments, err := r.ListFragments(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, fragment := range fragments {
		for i := range fragment.Orders {
			if fragment.Orders[i].OrderID != orderID {
				continue
			}
			if err := mutate(&fragment.Orders[i]); err != nil {
				return nil, err
			}
			if err := r.db.WithContext(ctx).Save(&fragment).Error; err != nil {
				return nil, err
			}
			order := fragment.Orders[i]
			return &order, nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
