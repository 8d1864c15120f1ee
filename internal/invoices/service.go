package invoices

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

// StatusResult is the poller-facing readiness view for one order.
type StatusResult struct {
	Ready      bool   `json:"ready"`
	InvoiceURL string `json:"invoice_url,omitempty"`
}

// Service owns invoice bookkeeping around the generation pipeline:
// enqueueing work alongside new orders, readiness lookups, and admin
// retries.
type Service interface {
	Enqueue(ctx context.Context, tx *gorm.DB, order models.Order) error
	Dispatch(ctx context.Context, orderID string)
	Status(ctx context.Context, orderID string) (StatusResult, error)
	Retry(ctx context.Context, orderID string) error
}

type service struct {
	repo       Repository
	tx         txRunner
	dispatcher *Dispatcher
	cache      StatusCache
	logg       *logger.Logger
}

// NewService wires the invoice service. dispatcher and cache may be nil
// (the durable job worker then carries all generation).
func NewService(repo Repository, tx txRunner, dispatcher *Dispatcher, cache StatusCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		dispatcher: dispatcher,
		cache:      cache,
		logg:       logg,
	}, nil
}

// Enqueue records the pending artifact and its durable job inside the
// caller's transaction. Runs only for freshly created orders.
func (s *service) Enqueue(ctx context.Context, tx *gorm.DB, order models.Order) error {
	repo := s.repo.WithTx(tx)

	artifact := models.InvoiceArtifact{
		OrderID: order.OrderID,
		UserID:  order.UserID,
		Status:  enums.ArtifactStatusPending,
	}
	if err := repo.CreateArtifact(ctx, &artifact); err != nil {
		return err
	}

	job := models.InvoiceJob{
		ID:      uuid.New(),
		OrderID: order.OrderID,
		UserID:  order.UserID,
		Status:  enums.InvoiceJobStatusQueued,
	}
	return repo.CreateJob(ctx, &job)
}

// Dispatch hands the order to the in-process pool. Best effort; the job
// worker covers drops.
func (s *service) Dispatch(ctx context.Context, orderID string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, orderID)
}

// Status reports invoice readiness. Unknown orders are simply not ready;
// the poller treats both the same way.
func (s *service) Status(ctx context.Context, orderID string) (StatusResult, error) {
	if orderID == "" {
		return StatusResult{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	if s.cache != nil {
		if url, err := s.cache.Get(ctx, s.cache.InvoiceStatusKey(orderID)); err == nil && url != "" {
			return StatusResult{Ready: true, InvoiceURL: url}, nil
		}
	}

	artifact, err := s.repo.FindArtifact(ctx, orderID)
	if err != nil {
		return StatusResult{}, err
	}
	if artifact == nil || artifact.Status != enums.ArtifactStatusReady {
		return StatusResult{Ready: false}, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.InvoiceStatusKey(orderID), artifact.InvoiceURL, cacheTTL); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID), "caching invoice readiness failed")
		}
	}
	return StatusResult{Ready: true, InvoiceURL: artifact.InvoiceURL}, nil
}

// Retry re-queues generation for an order whose invoice previously failed.
// Ready invoices are immutable.
func (s *service) Retry(ctx context.Context, orderID string) error {
	if orderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	artifact, err := s.repo.FindArtifact(ctx, orderID)
	if err != nil {
		return err
	}
	if artifact == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no invoice artifact for order")
	}
	if artifact.Status == enums.ArtifactStatusReady {
		return pkgerrors.New(pkgerrors.CodeConflict, "invoice already generated")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ResetArtifact(ctx, orderID); err != nil {
			return err
		}

		job, err := repo.FindJob(ctx, orderID)
		if err != nil {
			return err
		}
		if job == nil {
			fresh := models.InvoiceJob{
				ID:      uuid.New(),
				OrderID: orderID,
				UserID:  artifact.UserID,
				Status:  enums.InvoiceJobStatusQueued,
			}
			return repo.CreateJob(ctx, &fresh)
		}
		return repo.RequeueJob(ctx, orderID)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cache.InvoiceStatusKey(orderID)); err != nil {
			s.logg.Warn(ctx, "clearing cached invoice readiness failed")
		}
	}

	s.Dispatch(ctx, orderID)
	s.logg.Info(ctx, "invoice generation re-queued")
	return nil
}
