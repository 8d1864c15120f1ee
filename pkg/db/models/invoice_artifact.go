package models

import (
	"time"

	"github.com/ateliermora/storefront-backend/pkg/enums"
)

// InvoiceArtifact tracks the rendered PDF for one order. Created pending in
// the same transaction that commits the order; flipped to ready/error by the
// invoice pipeline. One row per order, keyed by the order id.
type InvoiceArtifact struct {
	OrderID     string               `gorm:"column:order_id;primaryKey"`
	UserID      string               `gorm:"column:user_id;not null;index"`
	FileName    string               `gorm:"column:file_name"`
	StoragePath string               `gorm:"column:storage_path"`
	Status      enums.ArtifactStatus `gorm:"column:status;not null;default:'pending'"`
	InvoiceURL  string               `gorm:"column:invoice_url"`
	LastError   *string              `gorm:"column:last_error"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
