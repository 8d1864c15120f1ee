package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
)

// Repository is the persistence surface for invoice artifacts and their
// durable generation jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateArtifact(ctx context.Context, artifact *models.InvoiceArtifact) error
	// FindArtifact returns (nil, nil) when the order has no artifact row.
	FindArtifact(ctx context.Context, orderID string) (*models.InvoiceArtifact, error)
	MarkArtifactReady(ctx context.Context, orderID, fileName, storagePath, invoiceURL string) error
	MarkArtifactError(ctx context.Context, orderID, reason string) error
	ResetArtifact(ctx context.Context, orderID string) error

	CreateJob(ctx context.Context, job *models.InvoiceJob) error
	// FindJob returns (nil, nil) when the order has no job row.
	FindJob(ctx context.Context, orderID string) (*models.InvoiceJob, error)
	// FetchDueJobs returns queued and failed jobs oldest first, skipping
	// jobs whose next attempt time has not arrived.
	FetchDueJobs(ctx context.Context, limit int) ([]models.InvoiceJob, error)
	MarkJobSucceeded(ctx context.Context, jobID uuid.UUID) error
	MarkJobFailed(ctx context.Context, jobID uuid.UUID, attempts int, reason string, terminal bool, nextAttemptAt *time.Time) error
	RequeueJob(ctx context.Context, orderID string) error
}

// Renderer produces the PDF bytes for one order.
type Renderer interface {
	Render(ctx context.Context, order models.Order) ([]byte, error)
}

// StatusCache is the read-through cache for invoice readiness. Satisfied by
// the shared redis client.
type StatusCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	InvoiceStatusKey(orderID string) string
}
