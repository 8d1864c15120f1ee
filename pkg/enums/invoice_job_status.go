package enums

import "fmt"

// InvoiceJobStatus tracks a durable invoice generation job.
type InvoiceJobStatus string

const (
	InvoiceJobStatusQueued    InvoiceJobStatus = "queued"
	InvoiceJobStatusSucceeded InvoiceJobStatus = "succeeded"
	InvoiceJobStatusFailed    InvoiceJobStatus = "failed"
	InvoiceJobStatusTerminal  InvoiceJobStatus = "terminal"
)

var validInvoiceJobStatuses = []InvoiceJobStatus{
	InvoiceJobStatusQueued,
	InvoiceJobStatusSucceeded,
	InvoiceJobStatusFailed,
	InvoiceJobStatusTerminal,
}

// String implements fmt.Stringer.
func (s InvoiceJobStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InvoiceJobStatus.
func (s InvoiceJobStatus) IsValid() bool {
	for _, candidate := range validInvoiceJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceJobStatus converts raw input into an InvoiceJobStatus.
func ParseInvoiceJobStatus(value string) (InvoiceJobStatus, error) {
	for _, candidate := range validInvoiceJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice job status %q", value)
}
