package invoices

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/pkg/db"
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
	"github.com/ateliermora/storefront-backend/pkg/metrics"
	"github.com/ateliermora/storefront-backend/pkg/storage"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// cacheTTL bounds how long a cached ready flag may outlive its artifact row.
const cacheTTL = time.Hour

// Generator renders one order's invoice and records the outcome on the
// artifact and the order itself.
type Generator struct {
	repo     Repository
	orders   orders.Repository
	tx       txRunner
	store    storage.Store
	renderer Renderer
	cache    StatusCache
	metrics  *metrics.InvoiceMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewGenerator wires the invoice pipeline. cache and metrics may be nil.
func NewGenerator(
	repo Repository,
	ordersRepo orders.Repository,
	tx txRunner,
	store storage.Store,
	renderer Renderer,
	cache StatusCache,
	invoiceMetrics *metrics.InvoiceMetrics,
	logg *logger.Logger,
) (*Generator, error) {
	if repo == nil || ordersRepo == nil || tx == nil || store == nil || renderer == nil || logg == nil {
		return nil, fmt.Errorf("invoice generator is missing a required dependency")
	}
	return &Generator{
		repo:     repo,
		orders:   ordersRepo,
		tx:       tx,
		store:    store,
		renderer: renderer,
		cache:    cache,
		metrics:  invoiceMetrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Generate renders, stores, and records the invoice for orderID. Already
// ready artifacts return immediately. source labels the metrics series.
func (g *Generator) Generate(ctx context.Context, orderID, source string) error {
	ctx = g.logg.WithOrderID(ctx, orderID)

	artifact, err := g.repo.FindArtifact(ctx, orderID)
	if err != nil {
		return err
	}
	if artifact == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no invoice artifact for order")
	}
	if artifact.Status == enums.ArtifactStatusReady {
		return nil
	}

	order, err := g.orders.FindOrder(ctx, artifact.UserID, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order missing for invoice artifact")
	}

	g.checkTotals(ctx, order)

	start := g.now()
	contents, err := g.renderer.Render(ctx, *order)
	if err != nil {
		return g.recordFailure(ctx, order, fmt.Errorf("rendering invoice: %w", err), source)
	}

	fileName := fmt.Sprintf("invoice-%s-%d.pdf", order.OrderID, start.UnixNano())
	storagePath, err := g.store.Put(ctx, fileName, bytes.NewReader(contents))
	if err != nil {
		return g.recordFailure(ctx, order, fmt.Errorf("storing invoice: %w", err), source)
	}

	invoiceURL := g.store.URL(fileName)
	err = g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// The fragment rewrite below races concurrent reconciles and
		// consolidations for the same user without this lock.
		if err := db.AdvisoryXactLock(tx, "orders:"+order.UserID); err != nil {
			return err
		}
		if err := g.repo.WithTx(tx).MarkArtifactReady(ctx, order.OrderID, fileName, storagePath, invoiceURL); err != nil {
			return err
		}
		_, err := g.orders.WithTx(tx).UpdateOrder(ctx, order.UserID, order.OrderID, func(stored *models.Order) error {
			stored.Status = enums.OrderStatusInvoiced
			stored.InvoiceURL = invoiceURL
			stored.LocalInvoicePath = storagePath
			return nil
		})
		return err
	})
	if err != nil {
		return g.recordFailure(ctx, order, fmt.Errorf("recording invoice outcome: %w", err), source)
	}

	g.cacheReady(ctx, order.OrderID, invoiceURL)
	g.metrics.ObserveRender(source, g.now().Sub(start))
	g.metrics.IncGenerated(source)
	g.logg.Info(ctx, "invoice generated")
	return nil
}

// checkTotals compares the recomputed line totals with the charged amount.
// The charged amount stays authoritative; disagreement is logged and
// counted, never fatal.
func (g *Generator) checkTotals(ctx context.Context, order *models.Order) {
	var computed int64
	for _, item := range order.LineItems {
		computed += item.LineTotal()
	}
	if computed == order.TotalAmount {
		return
	}
	g.metrics.IncTotalMismatch()
	g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
		"chargedAmount":  order.TotalAmount,
		"computedAmount": computed,
	}), "invoice line totals disagree with charged amount")
}

func (g *Generator) recordFailure(ctx context.Context, order *models.Order, cause error, source string) error {
	g.metrics.IncFailed(source)
	g.logg.Error(ctx, "invoice generation failed", cause)

	reason := cause.Error()
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := db.AdvisoryXactLock(tx, "orders:"+order.UserID); err != nil {
			return err
		}
		if err := g.repo.WithTx(tx).MarkArtifactError(ctx, order.OrderID, reason); err != nil {
			return err
		}
		_, err := g.orders.WithTx(tx).UpdateOrder(ctx, order.UserID, order.OrderID, func(stored *models.Order) error {
			stored.Status = enums.OrderStatusError
			return nil
		})
		return err
	})
	if err != nil {
		g.logg.Error(ctx, "recording invoice failure", err)
	}
	return cause
}

func (g *Generator) cacheReady(ctx context.Context, orderID, invoiceURL string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Set(ctx, g.cache.InvoiceStatusKey(orderID), invoiceURL, cacheTTL); err != nil {
		g.logg.Warn(ctx, "caching invoice readiness failed")
	}
}
