package enums

import "fmt"

// OrderStatus tracks an order's invoice lifecycle. The order itself is never
// deleted once written; only this field moves.
type OrderStatus string

const (
	OrderStatusPendingInvoice OrderStatus = "pending_invoice"
	OrderStatusInvoiced       OrderStatus = "invoiced"
	OrderStatusError          OrderStatus = "error"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingInvoice,
	OrderStatusInvoiced,
	OrderStatusError,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
