package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ateliermora/storefront-backend/internal/invoices"
	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/internal/payments"
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

type fakeFetcher struct {
	confirmation *payments.Confirmation
	err          error
}

func (f *fakeFetcher) Fetch(_ context.Context, sessionID string) (*payments.Confirmation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.confirmation, nil
}

type fakeReconciler struct {
	result orders.ReconcileResult
	err    error
}

func (f *fakeReconciler) Reconcile(context.Context, *payments.Confirmation) (orders.ReconcileResult, error) {
	return f.result, f.err
}

type recordingDispatcher struct {
	dispatched []string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, orderID string) {
	d.dispatched = append(d.dispatched, orderID)
}

func sampleOrder(orderID string) models.Order {
	return models.Order{
		OrderID:     orderID,
		UserID:      "user-1",
		TotalAmount: 5000,
		Currency:    enums.CurrencyINR,
		Status:      enums.OrderStatusPendingInvoice,
	}
}

func TestCheckoutSuccessCreatesAndDispatches(t *testing.T) {
	fetcher := &fakeFetcher{confirmation: &payments.Confirmation{SessionID: "cs_1"}}
	reconciler := &fakeReconciler{result: orders.ReconcileResult{Order: sampleOrder("cs_1"), Created: true}}
	dispatcher := &recordingDispatcher{}

	handler := CheckoutSuccess(fetcher, reconciler, dispatcher, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/success?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cs_1"}, dispatcher.dispatched)

	var envelope struct {
		Data checkoutSuccessResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Created)
	assert.Equal(t, "cs_1", envelope.Data.Order.OrderID)
}

func TestCheckoutSuccessReplayStillDispatches(t *testing.T) {
	fetcher := &fakeFetcher{confirmation: &payments.Confirmation{SessionID: "cs_1"}}
	reconciler := &fakeReconciler{result: orders.ReconcileResult{Order: sampleOrder("cs_1"), Created: false}}
	dispatcher := &recordingDispatcher{}

	handler := CheckoutSuccess(fetcher, reconciler, dispatcher, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/success?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cs_1"}, dispatcher.dispatched)

	var envelope struct {
		Data checkoutSuccessResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Created)
}

func TestCheckoutSuccessMockSkipsDispatch(t *testing.T) {
	fetcher := &fakeFetcher{confirmation: &payments.Confirmation{SessionID: "cs_mock_1", Mock: true}}
	reconciler := &fakeReconciler{result: orders.ReconcileResult{Order: sampleOrder("cs_mock_1"), Mock: true}}
	dispatcher := &recordingDispatcher{}

	handler := CheckoutSuccess(fetcher, reconciler, dispatcher, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/success?session_id=cs_mock_1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.dispatched)
}

func TestCheckoutSuccessRequiresSessionID(t *testing.T) {
	handler := CheckoutSuccess(&fakeFetcher{}, &fakeReconciler{}, nil, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/success", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutSuccessMapsGatewayFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway down")}
	handler := CheckoutSuccess(fetcher, &fakeReconciler{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/success?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakeInvoiceSvc struct {
	status   invoices.StatusResult
	err      error
	retryErr error
	retried  []string
}

func (f *fakeInvoiceSvc) Status(context.Context, string) (invoices.StatusResult, error) {
	return f.status, f.err
}

func (f *fakeInvoiceSvc) Retry(_ context.Context, orderID string) error {
	if f.retryErr != nil {
		return f.retryErr
	}
	f.retried = append(f.retried, orderID)
	return nil
}

func TestInvoiceStatusNotReady(t *testing.T) {
	handler := InvoiceStatus(&fakeInvoiceSvc{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoice-status?session_id=cs_unknown", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data invoices.StatusResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Ready)
}

func TestInvoiceStatusReady(t *testing.T) {
	svc := &fakeInvoiceSvc{status: invoices.StatusResult{Ready: true, InvoiceURL: "/invoices/a.pdf"}}
	handler := InvoiceStatus(svc, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoice-status?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"invoice_url":"/invoices/a.pdf"`)
}

func TestInvoiceStatusRequiresSessionID(t *testing.T) {
	handler := InvoiceStatus(&fakeInvoiceSvc{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoice-status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeFileStore struct {
	files map[string][]byte
}

func (f *fakeFileStore) Put(_ context.Context, name string, contents io.Reader) (string, error) {
	data, _ := io.ReadAll(contents)
	f.files[name] = data
	return name, nil
}

func (f *fakeFileStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFileStore) Delete(context.Context, string) error { return nil }
func (f *fakeFileStore) URL(name string) string               { return "/invoices/" + name }
func (f *fakeFileStore) Ping(context.Context) error           { return nil }
func (f *fakeFileStore) Close() error                         { return nil }

func newFileRouter(store *fakeFileStore) http.Handler {
	r := chi.NewRouter()
	r.Get("/invoices/{fileName}", InvoiceFile(store, testLogger()))
	return r
}

func TestInvoiceFileStreamsPDF(t *testing.T) {
	store := &fakeFileStore{files: map[string][]byte{"invoice-cs_1-42.pdf": []byte("%PDF-1.4 data")}}
	router := newFileRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/invoices/invoice-cs_1-42.pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 data", rec.Body.String())
}

func TestInvoiceFileMissing(t *testing.T) {
	router := newFileRouter(&fakeFileStore{files: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/invoices/invoice-unknown.pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoiceFileRejectsTraversal(t *testing.T) {
	for _, name := range []string{"..%2Fetc%2Fpasswd", "..", "secrets.txt", "a%5Cb.pdf", "..evil.pdf"} {
		router := newFileRouter(&fakeFileStore{files: map[string][]byte{}})
		req := httptest.NewRequest(http.MethodGet, "/invoices/"+name, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Contains(t, []int{http.StatusBadRequest, http.StatusNotFound}, rec.Code, "name=%q", name)
		assert.NotEqual(t, http.StatusOK, rec.Code, "name=%q", name)
	}
}

type fakeOrdersSvc struct {
	list   []models.Order
	report orders.ConsolidationReport
	err    error
}

func (f *fakeOrdersSvc) ListOrders(context.Context, string) ([]models.Order, error) {
	return f.list, f.err
}

func (f *fakeOrdersSvc) Consolidate(context.Context, string) (orders.ConsolidationReport, error) {
	return f.report, f.err
}

func TestUserOrdersList(t *testing.T) {
	svc := &fakeOrdersSvc{list: []models.Order{sampleOrder("cs_1"), sampleOrder("cs_2")}}
	r := chi.NewRouter()
	r.Get("/api/v1/users/{userId}/orders", UserOrders(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/orders", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Orders []models.Order `json:"orders"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Orders, 2)
}

func TestAdminConsolidateReportsCounts(t *testing.T) {
	svc := &fakeOrdersSvc{report: orders.ConsolidationReport{FragmentsMerged: 3, Orders: 5, DuplicatesRemoved: 1}}
	r := chi.NewRouter()
	r.Post("/api/admin/v1/orders/{userId}/consolidate", AdminConsolidateOrders(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/user-1/consolidate", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fragmentsMerged":3`)
	assert.Contains(t, rec.Body.String(), `"duplicatesRemoved":1`)
}

func TestAdminRetryInvoiceAccepted(t *testing.T) {
	svc := &fakeInvoiceSvc{}
	r := chi.NewRouter()
	r.Post("/api/admin/v1/invoices/{orderId}/retry", AdminRetryInvoice(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/invoices/cs_1/retry", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"cs_1"}, svc.retried)
}

func TestAdminRetryInvoiceConflictWhenReady(t *testing.T) {
	svc := &fakeInvoiceSvc{retryErr: pkgerrors.New(pkgerrors.CodeConflict, "invoice already generated")}
	r := chi.NewRouter()
	r.Post("/api/admin/v1/invoices/{orderId}/retry", AdminRetryInvoice(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/invoices/cs_1/retry", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
