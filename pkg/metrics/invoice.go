package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InvoiceMetrics records invoice pipeline outcomes.
type InvoiceMetrics struct {
	renderDuration *prometheus.HistogramVec
	generated      *prometheus.CounterVec
	failed         *prometheus.CounterVec
	totalMismatch  prometheus.Counter
}

// NewInvoiceMetrics registers the invoice metrics on the provided registerer.
func NewInvoiceMetrics(reg prometheus.Registerer) *InvoiceMetrics {
	if reg == nil {
		return &InvoiceMetrics{}
	}
	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_render_duration_seconds",
		Help:    "Duration of invoice PDF rendering and storage in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_generated_total",
		Help: "Successfully generated invoices.",
	}, []string{"source"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_failed_total",
		Help: "Failed invoice generation attempts.",
	}, []string{"source"})
	totalMismatch := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invoice_total_mismatch_total",
		Help: "Orders whose recomputed line totals disagreed with the charged amount.",
	})
	reg.MustRegister(renderDuration, generated, failed, totalMismatch)
	return &InvoiceMetrics{
		renderDuration: renderDuration,
		generated:      generated,
		failed:         failed,
		totalMismatch:  totalMismatch,
	}
}

// ObserveRender records how long one generation took.
func (m *InvoiceMetrics) ObserveRender(source string, duration time.Duration) {
	if m == nil || m.renderDuration == nil {
		return
	}
	m.renderDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

// IncGenerated increments the success counter.
func (m *InvoiceMetrics) IncGenerated(source string) {
	if m == nil || m.generated == nil {
		return
	}
	m.generated.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncFailed increments the failure counter.
func (m *InvoiceMetrics) IncFailed(source string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncTotalMismatch counts a recomputed-total disagreement.
func (m *InvoiceMetrics) IncTotalMismatch() {
	if m == nil || m.totalMismatch == nil {
		return
	}
	m.totalMismatch.Inc()
}

func normalizeLabel(source string) string {
	if source == "" {
		return "unknown"
	}
	return source
}
