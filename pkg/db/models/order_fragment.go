package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderFragment is one physical storage record of a user's order
// collection. A user normally has exactly one fragment; legacy data may
// hold several, which the consolidation operation merges back into one.
// Fragment order (created_at ascending) is the authoritative order of the
// logical collection.
type OrderFragment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	Orders    []Order   `gorm:"column:orders;type:jsonb;serializer:json;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Contains reports whether any order in the fragment carries the id.
func (f OrderFragment) Contains(orderID string) bool {
	for _, order := range f.Orders {
		if order.OrderID == orderID {
			return true
		}
	}
	return false
}
