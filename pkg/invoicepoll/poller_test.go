package invoicepoll

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollReadyImmediately(t *testing.T) {
	poller := New(Options{Attempts: 3, Interval: time.Millisecond})

	result, err := poller.Poll(context.Background(), func(ctx context.Context) (bool, string, error) {
		return true, "/invoices/a.pdf", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateReady, result.State)
	assert.Equal(t, "/invoices/a.pdf", result.InvoiceURL)
	assert.Equal(t, 1, result.Attempts)
}

func TestPollReadyAfterSomeTicks(t *testing.T) {
	poller := New(Options{Attempts: 5, Interval: time.Millisecond})

	checks := 0
	result, err := poller.Poll(context.Background(), func(ctx context.Context) (bool, string, error) {
		checks++
		if checks < 3 {
			return false, "", nil
		}
		return true, "/invoices/b.pdf", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateReady, result.State)
	assert.Equal(t, 3, result.Attempts)
}

func TestPollExhaustsBudget(t *testing.T) {
	poller := New(Options{Attempts: 4, Interval: time.Millisecond})

	result, err := poller.Poll(context.Background(), func(ctx context.Context) (bool, string, error) {
		return false, "", nil
	})
	require.NoError(t, err, "exhaustion is an outcome, not an error")
	assert.Equal(t, StateExhausted, result.State)
	assert.Equal(t, 4, result.Attempts)
	assert.Empty(t, result.InvoiceURL)
}

func TestPollTransientErrorsBurnAttempts(t *testing.T) {
	poller := New(Options{Attempts: 3, Interval: time.Millisecond})

	result, err := poller.Poll(context.Background(), func(ctx context.Context) (bool, string, error) {
		return false, "", fmt.Errorf("connection refused")
	})
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, result.State)
	assert.Equal(t, 3, result.Attempts)
}

func TestPollStopsOnContextCancel(t *testing.T) {
	poller := New(Options{Attempts: 100, Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := poller.Poll(ctx, func(ctx context.Context) (bool, string, error) {
		return false, "", nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPStatusAgainstEndpoint(t *testing.T) {
	ready := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready {
			fmt.Fprint(w, `{"data":{"ready":true,"invoice_url":"/invoices/c.pdf"}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"ready":false}}`)
	}))
	defer server.Close()

	status := HTTPStatus(server.Client(), server.URL+"/api/v1/invoice-status?session_id=cs_1")

	ok, url, err := status(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	ready = true
	ok, url, err = status(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/invoices/c.pdf", url)
}

func TestHTTPStatusNon200IsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	status := HTTPStatus(server.Client(), server.URL)
	ok, _, err := status(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}
