package models

import (
	"time"

	"github.com/ateliermora/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// InvoiceJob is the durable work record for invoice generation. The unique
// order_id constraint keeps regeneration idempotent: retries re-queue the
// existing row instead of inserting a second one.
type InvoiceJob struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      string                 `gorm:"column:order_id;not null;uniqueIndex"`
	UserID       string                 `gorm:"column:user_id;not null"`
	Status       enums.InvoiceJobStatus `gorm:"column:status;not null;default:'queued'"`
	AttemptCount int                    `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string                `gorm:"column:last_error"`
	// NextAttemptAt defers the next pickup after a failure; NULL means due.
	NextAttemptAt *time.Time `gorm:"column:next_attempt_at"`
	CompletedAt  *time.Time             `gorm:"column:completed_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
