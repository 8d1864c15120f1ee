package orders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/internal/payments"
	"github.com/ateliermora/storefront-backend/pkg/db"
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InvoiceEnqueuer records the pending invoice work for a freshly created
// order, inside the same transaction that commits the order.
type InvoiceEnqueuer interface {
	Enqueue(ctx context.Context, tx *gorm.DB, order models.Order) error
}

// Service owns checkout reconciliation and the user's order collection.
type Service interface {
	Reconcile(ctx context.Context, confirmation *payments.Confirmation) (ReconcileResult, error)
	Consolidate(ctx context.Context, userID string) (ConsolidationReport, error)
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	invoices InvoiceEnqueuer
	locks    *keyedMutex
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, invoices InvoiceEnqueuer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice enqueuer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		invoices: invoices,
		locks:    newKeyedMutex(),
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Reconcile finalizes one settled checkout session into a durable order.
// The session id doubles as the order id, so replays of the same session
// resolve to the stored order with Created=false.
func (s *service) Reconcile(ctx context.Context, confirmation *payments.Confirmation) (ReconcileResult, error) {
	if confirmation == nil {
		return ReconcileResult{}, pkgerrors.New(pkgerrors.CodeValidation, "confirmation is required")
	}

	if confirmation.Mock {
		return ReconcileResult{Order: s.orderFromConfirmation(confirmation), Mock: true}, nil
	}

	if !confirmation.Paid() {
		return ReconcileResult{}, pkgerrors.New(pkgerrors.CodeValidation, "payment is not settled").
			WithDetails(map[string]string{"paymentStatus": confirmation.PaymentStatus.String()})
	}

	userID := confirmation.UserID()
	if userID == "" {
		return ReconcileResult{}, pkgerrors.New(pkgerrors.CodeValidation, "session metadata is missing the user id")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"userId":    userID,
		"sessionId": confirmation.SessionID,
	})

	unlock := s.locks.Lock(userID)
	defer unlock()

	var result ReconcileResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := db.AdvisoryXactLock(tx, "orders:"+userID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOrder(ctx, userID, confirmation.SessionID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = ReconcileResult{Order: *existing, Created: false}
			return nil
		}

		order := s.orderFromConfirmation(confirmation)
		if err := repo.AppendOrder(ctx, userID, order); err != nil {
			return err
		}
		if err := s.invoices.Enqueue(ctx, tx, order); err != nil {
			return err
		}

		result = ReconcileResult{Order: order, Created: true}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	if result.Created {
		s.logg.Info(s.logg.WithOrderID(ctx, result.Order.OrderID), "order created from checkout session")
	} else {
		s.logg.Info(s.logg.WithOrderID(ctx, result.Order.OrderID), "checkout session already reconciled")
	}
	return result, nil
}

// Consolidate merges every fragment the user has into one canonical
// fragment: orders flatten oldest fragment first, duplicates keep the first
// occurrence.
func (s *service) Consolidate(ctx context.Context, userID string) (ConsolidationReport, error) {
	if userID == "" {
		return ConsolidationReport{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var report ConsolidationReport
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := db.AdvisoryXactLock(tx, "orders:"+userID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		fragments, err := repo.ListFragments(ctx, userID)
		if err != nil {
			return err
		}
		if len(fragments) == 0 {
			report = ConsolidationReport{}
			return nil
		}

		merged, duplicates := flatten(fragments)
		report = ConsolidationReport{
			FragmentsMerged:   len(fragments),
			Orders:            len(merged),
			DuplicatesRemoved: duplicates,
		}

		if len(fragments) == 1 && duplicates == 0 {
			return nil
		}
		return repo.ReplaceFragments(ctx, userID, merged)
	})
	if err != nil {
		return ConsolidationReport{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"userId":            userID,
		"fragmentsMerged":   report.FragmentsMerged,
		"duplicatesRemoved": report.DuplicatesRemoved,
	}), "order fragments consolidated")
	return report, nil
}

// ListOrders returns the user's consolidated order view without mutating
// stored fragments.
func (s *service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	fragments, err := s.repo.ListFragments(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged, _ := flatten(fragments)
	return merged, nil
}

func (s *service) orderFromConfirmation(confirmation *payments.Confirmation) models.Order {
	now := s.now().UTC()
	return models.Order{
		OrderID:         confirmation.SessionID,
		PaymentIntentID: confirmation.PaymentIntentID,
		UserID:          confirmation.UserID(),
		CustomerEmail:   confirmation.CustomerEmail,
		CustomerName:    confirmation.CustomerName,
		LineItems:       confirmation.LineItems,
		TotalAmount:     confirmation.AmountTotal,
		Currency:        confirmation.Currency,
		Status:          enums.OrderStatusPendingInvoice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// flatten joins fragment contents oldest first and drops later duplicates
// of the same order id.
func flatten(fragments []models.OrderFragment) ([]models.Order, int) {
	merged := make([]models.Order, 0)
	seen := make(map[string]struct{})
	duplicates := 0

	for _, fragment := range fragments {
		for _, order := range fragment.Orders {
			if _, ok := seen[order.OrderID]; ok {
				duplicates++
				continue
			}
			seen[order.OrderID] = struct{}{}
			merged = append(merged, order)
		}
	}
	return merged, duplicates
}
