package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invoice repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateArtifact(ctx context.Context, artifact *models.InvoiceArtifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

func (r *repository) FindArtifact(ctx context.Context, orderID string) (*models.InvoiceArtifact, error) {
	var artifact models.InvoiceArtifact
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *repository) MarkArtifactReady(ctx context.Context, orderID, fileName, storagePath, invoiceURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.InvoiceArtifact{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"file_name":    fileName,
			"storage_path": storagePath,
			"invoice_url":  invoiceURL,
			"status":       enums.ArtifactStatusReady,
			"last_error":   nil,
		}).Error
}

func (r *repository) MarkArtifactError(ctx context.Context, orderID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.InvoiceArtifact{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":     enums.ArtifactStatusError,
			"last_error": reason,
		}).Error
}

func (r *repository) ResetArtifact(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.InvoiceArtifact{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":     enums.ArtifactStatusPending,
			"last_error": nil,
		}).Error
}

func (r *repository) CreateJob(ctx context.Context, job *models.InvoiceJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindJob(ctx context.Context, orderID string) (*models.InvoiceJob, error) {
	var job models.InvoiceJob
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) FetchDueJobs(ctx context.Context, limit int) ([]models.InvoiceJob, error) {
	var jobs []models.InvoiceJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.InvoiceJobStatus{enums.InvoiceJobStatusQueued, enums.InvoiceJobStatusFailed}).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", time.Now().UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repository) MarkJobSucceeded(ctx context.Context, jobID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.InvoiceJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":       enums.InvoiceJobStatusSucceeded,
			"last_error":   nil,
			"completed_at": now,
		}).Error
}

func (r *repository) MarkJobFailed(ctx context.Context, jobID uuid.UUID, attempts int, reason string, terminal bool, nextAttemptAt *time.Time) error {
	status := enums.InvoiceJobStatusFailed
	if terminal {
		status = enums.InvoiceJobStatusTerminal
		nextAttemptAt = nil
	}
	return r.db.WithContext(ctx).
		Model(&models.InvoiceJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":          status,
			"attempt_count":   attempts,
			"last_error":      reason,
			"next_attempt_at": nextAttemptAt,
		}).Error
}

func (r *repository) RequeueJob(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.InvoiceJob{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":          enums.InvoiceJobStatusQueued,
			"attempt_count":   0,
			"last_error":      nil,
			"next_attempt_at": nil,
			"completed_at":    nil,
		}).Error
}
