package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
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

	require.NoError(t, conn.AutoMigrate(&models.OrderFragment{}))
	return conn
}

func seedFragment(t *testing.T, conn *gorm.DB, userID string, createdAt time.Time, orders ...models.Order) models.OrderFragment {
	t.Helper()
	fragment := models.OrderFragment{
		ID:        uuid.New(),
		UserID:    userID,
		Orders:    orders,
		CreatedAt: createdAt,
	}
	require.NoError(t, conn.Create(&fragment).Error)
	return fragment
}

func testOrder(orderID string) models.Order {
	return models.Order{
		OrderID:     orderID,
		UserID:      "user-1",
		TotalAmount: 1000,
		Currency:    enums.CurrencyINR,
		Status:      enums.OrderStatusPendingInvoice,
		LineItems: []models.OrderLineItem{
			{ProductID: "p-1", Quantity: 1, UnitPrice: 1000},
		},
	}
}

func TestAppendOrderCreatesFragmentWhenNoneExists(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.AppendOrder(ctx, "user-1", testOrder("cs_a")))

	fragments, err := repo.ListFragments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Len(t, fragments[0].Orders, 1)
	assert.Equal(t, "cs_a", fragments[0].Orders[0].OrderID)
}

func TestAppendOrderTargetsNewestFragment(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	old := seedFragment(t, conn, "user-1", base, testOrder("cs_old"))
	newest := seedFragment(t, conn, "user-1", base.Add(time.Minute), testOrder("cs_new"))

	require.NoError(t, repo.AppendOrder(ctx, "user-1", testOrder("cs_appended")))

	fragments, err := repo.ListFragments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, fragments, 2)

	byID := map[uuid.UUID]models.OrderFragment{}
	for _, f := range fragments {
		byID[f.ID] = f
	}
	assert.Len(t, byID[old.ID].Orders, 1)
	require.Len(t, byID[newest.ID].Orders, 2)
	assert.Equal(t, "cs_appended", byID[newest.ID].Orders[1].OrderID)
}

func TestListFragmentsOrdersOldestFirst(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	second := seedFragment(t, conn, "user-1", base.Add(time.Minute))
	first := seedFragment(t, conn, "user-1", base)
	seedFragment(t, conn, "someone-else", base)

	fragments, err := repo.ListFragments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, first.ID, fragments[0].ID)
	assert.Equal(t, second.ID, fragments[1].ID)
}

func TestFindOrderScansAllFragments(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seedFragment(t, conn, "user-1", base, testOrder("cs_a"))
	seedFragment(t, conn, "user-1", base.Add(time.Minute), testOrder("cs_b"))

	order, err := repo.FindOrder(ctx, "user-1", "cs_b")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "cs_b", order.OrderID)

	missing, err := repo.FindOrder(ctx, "user-1", "cs_absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReplaceFragmentsWritesOneCanonicalRow(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seedFragment(t, conn, "user-1", base, testOrder("cs_a"))
	seedFragment(t, conn, "user-1", base.Add(time.Minute), testOrder("cs_b"))
	other := seedFragment(t, conn, "user-2", base, testOrder("cs_other"))

	require.NoError(t, repo.ReplaceFragments(ctx, "user-1", []models.Order{testOrder("cs_a"), testOrder("cs_b")}))

	fragments, err := repo.ListFragments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Len(t, fragments[0].Orders, 2)

	untouched, err := repo.ListFragments(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, other.ID, untouched[0].ID)
}

func TestUpdateOrderPersistsMutation(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedFragment(t, conn, "user-1", time.Now().Add(-time.Hour), testOrder("cs_a"))

	updated, err := repo.UpdateOrder(ctx, "user-1", "cs_a", func(order *models.Order) error {
		order.Status = enums.OrderStatusInvoiced
		order.InvoiceURL = "/invoices/invoice-cs_a.pdf"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInvoiced, updated.Status)

	stored, err := repo.FindOrder(ctx, "user-1", "cs_a")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, enums.OrderStatusInvoiced, stored.Status)
	assert.Equal(t, "/invoices/invoice-cs_a.pdf", stored.InvoiceURL)
}

func TestUpdateOrderMissingOrder(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.UpdateOrder(context.Background(), "user-1", "cs_missing", func(order *models.Order) error {
		return nil
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
