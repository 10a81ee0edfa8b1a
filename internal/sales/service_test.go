package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db/dbtest"
	"github.com/vivaflower/storefront-backend/pkg/db/models"
	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type catalog struct {
	rose, lily   models.Product
	north, south models.Store
	guest        models.Guest
}

func seedCatalog(t *testing.T, conn *gorm.DB) catalog {
	t.Helper()
	return catalog{
		rose:  dbtest.SeedProduct(t, conn, "Rose", "10"),
		lily:  dbtest.SeedProduct(t, conn, "Lily", "4.50"),
		north: dbtest.SeedStore(t, conn, "North"),
		south: dbtest.SeedStore(t, conn, "South"),
		guest: dbtest.SeedGuest(t, conn, "sales@example.com"),
	}
}

func seedOrder(t *testing.T, conn *gorm.DB, c catalog, details ...models.OrderDetail) *models.Order {
	t.Helper()
	order := &models.Order{
		GuestID:         &c.guest.ID,
		TotalCost:       dec("100"),
		GSTAmount:       dec("0.1"),
		ShippingCost:    dec("3"),
		OrderStatus:     enums.OrderStatusShipped,
		PaymentMethod:   enums.PaymentMethodCashOnDelivery,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		OrderDate:       time.Now().UTC(),
		ShippingAddress: "1 Street",
		RecipientPhone:  "0900",
		RecipientName:   "Linh",
		Details:         details,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func line(p models.Product, s models.Store, qty int, price string) models.OrderDetail {
	return models.OrderDetail{
		ProductID:      p.ID,
		StoreID:        s.ID,
		ProductName:    p.Name,
		Quantity:       qty,
		UnitPrice:      dec(price),
		LocationPickup: s.Address,
	}
}

func record(t *testing.T, svc Service, conn *gorm.DB, order *models.Order, at time.Time) []models.ProductSale {
	t.Helper()
	var rows []models.ProductSale
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = svc.RecordDelivery(context.Background(), tx, order, at)
		return err
	}))
	return rows
}

func TestRecordDeliveryWritesOneSalePerLine(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	c := seedCatalog(t, conn)
	order := seedOrder(t, conn, c, line(c.rose, c.north, 2, "10"), line(c.lily, c.south, 1, "4.50"))

	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	rows := record(t, svc, conn, order, at)
	require.Len(t, rows, 2)

	var stored []models.ProductSale
	require.NoError(t, conn.Order("quantity_sold DESC").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, order.Details[0].ID, stored[0].OrderDetailID)
	assert.Equal(t, 2, stored[0].QuantitySold)
	assert.True(t, dec("10").Equal(stored[0].SalePrice))
	assert.True(t, dec("0.1").Equal(stored[0].VAT))
	assert.True(t, dec("3").Equal(stored[0].ShippingCost))
	assert.True(t, at.Equal(stored[0].SaleDate))
}

func TestRecordDeliveryRejectsDuplicates(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	c := seedCatalog(t, conn)
	order := seedOrder(t, conn, c, line(c.rose, c.north, 1, "10"))

	record(t, svc, conn, order, time.Now())
	err = conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.RecordDelivery(context.Background(), tx, order, time.Now())
		return err
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.RecordDelivery(context.Background(), nil, order, time.Now())
	require.Error(t, err)
}

func TestReportsAggregateAndFilter(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	c := seedCatalog(t, conn)

	june := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	july := time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC)
	record(t, svc, conn, seedOrder(t, conn, c, line(c.rose, c.north, 2, "10"), line(c.lily, c.north, 4, "4.50")), june)
	record(t, svc, conn, seedOrder(t, conn, c, line(c.rose, c.south, 3, "12")), july)

	page := pagination.Params{PageIndex: 1, PageSize: 10}

	listed, err := svc.List(context.Background(), Filter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, listed.TotalItems)

	from := dbtest.Date(2024, 6, 15)
	to := dbtest.Date(2024, 6, 15)
	listed, err = svc.List(context.Background(), Filter{Dates: dbtypes.DayRange{From: &from, To: &to}}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, listed.TotalItems)

	revenue, err := svc.Revenue(context.Background(), Filter{}, page)
	require.NoError(t, err)
	require.Len(t, revenue.Items, 2)
	byStore := map[uuid.UUID]StoreRevenue{}
	for _, r := range revenue.Items {
		byStore[r.StoreID] = r
	}
	assert.True(t, dec("38").Equal(byStore[c.north.ID].TotalRevenue), byStore[c.north.ID].TotalRevenue.String())
	assert.EqualValues(t, 6, byStore[c.north.ID].TotalQuantitySold)
	assert.Equal(t, "North", byStore[c.north.ID].StoreName)
	assert.True(t, dec("36").Equal(byStore[c.south.ID].TotalRevenue))

	revenue, err = svc.Revenue(context.Background(), Filter{StoreID: &c.south.ID}, page)
	require.NoError(t, err)
	require.Len(t, revenue.Items, 1)
	assert.EqualValues(t, 1, revenue.TotalItems)

	sold, err := svc.SoldProducts(context.Background(), Filter{}, page)
	require.NoError(t, err)
	require.Len(t, sold.Items, 2)
	assert.Equal(t, "Rose", sold.Items[0].ProductName)
	assert.EqualValues(t, 5, sold.Items[0].TotalQuantitySold)
	assert.EqualValues(t, 4, sold.Items[1].TotalQuantitySold)

	sold, err = svc.SoldProducts(context.Background(), Filter{}, pagination.Params{PageIndex: 7, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sold.PageIndex)
	require.Len(t, sold.Items, 1)
	assert.Equal(t, "Lily", sold.Items[0].ProductName)
}
