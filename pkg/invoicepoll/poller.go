package invoicepoll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ateliermora/storefront-backend/pkg/logger"
)

const (
	defaultAttempts = 12
	defaultInterval = 5 * time.Second
)

// State is the poll outcome.
type State string

const (
	// StateReady means the invoice became available within the budget.
	StateReady State = "ready"
	// StateExhausted means the attempt budget ran out. Not an error: the
	// invoice may still arrive later.
	StateExhausted State = "exhausted"
)

// Result reports how a poll ended.
type Result struct {
	State      State
	InvoiceURL string
	Attempts   int
}

// StatusFunc checks invoice readiness once. Transient failures should be
// returned as errors; they consume an attempt like a not-ready answer.
type StatusFunc func(ctx context.Context) (ready bool, invoiceURL string, err error)

// Options tune the poll budget.
type Options struct {
	// Attempts caps status checks, including the first one.
	Attempts int
	// Interval is the constant delay between checks.
	Interval time.Duration
	Logger   *logger.Logger
}

// Poller runs a bounded readiness poll against an invoice status source.
type Poller struct {
	attempts int
	interval time.Duration
	logg     *logger.Logger
}

var errNotReady = errors.New("invoice not ready")

// New applies defaults for unset options.
func New(opts Options) *Poller {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{attempts: attempts, interval: interval, logg: opts.Logger}
}

// Poll checks status until it reports ready, the attempt budget runs out,
// or ctx is canceled. Exhaustion returns a StateExhausted result with a nil
// error; only context cancellation surfaces as an error.
func (p *Poller) Poll(ctx context.Context, status StatusFunc) (Result, error) {
	if status == nil {
		return Result{}, errors.New("status func is required")
	}

	result := Result{State: StateExhausted}
	backoff := retry.WithMaxRetries(uint64(p.attempts-1), retry.NewConstant(p.interval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result.Attempts++

		ready, url, err := status(ctx)
		if err != nil {
			// Transient check failures burn an attempt, same as a
			// not-ready answer.
			if p.logg != nil {
				p.logg.Warn(ctx, "invoice status check failed")
			}
			return retry.RetryableError(err)
		}
		if !ready {
			return retry.RetryableError(errNotReady)
		}

		result.State = StateReady
		result.InvoiceURL = url
		return nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		// Budget exhausted.
		return Result{State: StateExhausted, Attempts: result.Attempts}, nil
	}
	return result, nil
}

// HTTPStatus builds a StatusFunc that polls the invoice-status endpoint.
func HTTPStatus(client *http.Client, url string) StatusFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (bool, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return false, "", fmt.Errorf("invoice status endpoint returned %d", resp.StatusCode)
		}

		var payload struct {
			Data struct {
				Ready      bool   `json:"ready"`
				InvoiceURL string `json:"invoice_url"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return false, "", err
		}
		return payload.Data.Ready, payload.Data.InvoiceURL, nil
	}
}
