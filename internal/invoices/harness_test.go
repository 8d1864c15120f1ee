package invoices

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(
		&models.OrderFragment{},
		&models.InvoiceArtifact{},
		&models.InvoiceJob{},
	))
	return conn
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, name string, contents io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return "", fmt.Errorf("storage unavailable")
	}
	data, err := io.ReadAll(contents)
	if err != nil {
		return "", err
	}
	f.objects[name] = data
	return "/tmp/invoices/" + name, nil
}

func (f *fakeStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, name)
	return nil
}

func (f *fakeStore) URL(name string) string {
	return "/invoices/" + name
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeRenderer struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, order models.Order) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("render blew up")
	}
	return []byte("%PDF-1.4 " + order.OrderID), nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
	dels    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	if !ok {
		return "", fmt.Errorf("cache miss")
	}
	return value, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = fmt.Sprint(value)
	f.sets++
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
	f.dels++
	return nil
}

func (f *fakeCache) InvoiceStatusKey(orderID string) string {
	return "test:invoice:status:" + orderID
}

// seedOrder writes a fragment, a pending artifact, and a queued job the
// same way reconciliation does.
func seedOrder(t *testing.T, conn *gorm.DB, orderID, userID string) models.Order {
	t.Helper()
	order := models.Order{
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: 3000,
		Currency:    enums.CurrencyINR,
		Status:      enums.OrderStatusPendingInvoice,
		LineItems: []models.OrderLineItem{
			{ProductID: "p-1", Quantity: 2, UnitPrice: 1500},
		},
	}
	require.NoError(t, orders.NewRepository(conn).AppendOrder(context.Background(), userID, order))
	require.NoError(t, NewRepository(conn).CreateArtifact(context.Background(), &models.InvoiceArtifact{
		OrderID: orderID,
		UserID:  userID,
		Status:  enums.ArtifactStatusPending,
	}))
	require.NoError(t, NewRepository(conn).CreateJob(context.Background(), &models.InvoiceJob{
		ID:      uuid.New(),
		OrderID: orderID,
		UserID:  userID,
		Status:  enums.InvoiceJobStatusQueued,
	}))
	return order
}

func newTestGenerator(t *testing.T, conn *gorm.DB, store *fakeStore, renderer Renderer, cache StatusCache) *Generator {
	t.Helper()
	generator, err := NewGenerator(
		NewRepository(conn),
		orders.NewRepository(conn),
		gormTxRunner{db: conn},
		store,
		renderer,
		cache,
		nil,
		testLogger(),
	)
	require.NoError(t, err)
	return generator
}
