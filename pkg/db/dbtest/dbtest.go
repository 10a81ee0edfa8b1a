// Package dbtest opens throwaway sqlite databases carrying the storefront schema.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db"
	"github.com/vivaflower/storefront-backend/pkg/db/models"
)

var schema = []string{
	`CREATE TABLE guests (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone_number TEXT,
		address TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		code TEXT,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE TABLE stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		email TEXT NOT NULL,
		address TEXT NOT NULL,
		postal_code TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE TABLE product_store (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		quantity_in INTEGER NOT NULL DEFAULT 0,
		remaining_stock INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE UNIQUE INDEX product_store_product_store_key
		ON product_store (product_id, store_id) WHERE delete_at IS NULL`,
	`CREATE TABLE product_incomings (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		cost_price NUMERIC NOT NULL,
		quantity_in INTEGER NOT NULL,
		vat NUMERIC NOT NULL DEFAULT 0,
		shipping_cost NUMERIC NOT NULL DEFAULT 0,
		effective_date DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		guest_id TEXT,
		total_cost NUMERIC NOT NULL,
		gst_amount NUMERIC NOT NULL,
		shipping_cost NUMERIC NOT NULL,
		order_status TEXT NOT NULL DEFAULT 'pending',
		payment_method TEXT NOT NULL DEFAULT 'cash_on_delivery',
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		order_date DATETIME NOT NULL,
		shipping_address TEXT NOT NULL,
		recipient_phone TEXT NOT NULL,
		recipient_name TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE TABLE order_detail (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		product_code TEXT,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		location_pickup TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		delete_at DATETIME
	)`,
	`CREATE TABLE product_sales (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		order_detail_id TEXT NOT NULL UNIQUE,
		sale_price NUMERIC NOT NULL,
		quantity_sold INTEGER NOT NULL,
		vat NUMERIC NOT NULL DEFAULT 0,
		shipping_cost NUMERIC NOT NULL DEFAULT 0,
		sale_date DATETIME NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE carts (
		id TEXT PRIMARY KEY,
		guest_id TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cart_item (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		guest_id TEXT NOT NULL,
		notification_type TEXT NOT NULL,
		message TEXT NOT NULL,
		related_object_id TEXT,
		url TEXT,
		attachment_url TEXT,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

var seq atomic.Int64

// Open returns a fresh in-memory database with every storefront table created.
// A single connection is used so concurrent writers serialize the way row locks
// would on Postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_busy_timeout=5000", name, seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

// Client wraps Open in a db.Client.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn, nil), conn
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func SeedGuest(t testing.TB, conn *gorm.DB, email string) models.Guest {
	t.Helper()
	g := models.Guest{FirstName: "Linh", LastName: "Tran", Email: email}
	mustCreate(t, conn, &g)
	return g
}

func SeedStore(t testing.TB, conn *gorm.DB, name string) models.Store {
	t.Helper()
	s := models.Store{
		Name:        name,
		PhoneNumber: "0900000000",
		Email:       strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@vivaflower.local",
		Address:     "12 " + name + " Street",
	}
	mustCreate(t, conn, &s)
	return s
}

func SeedProduct(t testing.TB, conn *gorm.DB, name, price string) models.Product {
	t.Helper()
	code := strings.ToUpper(strings.ReplaceAll(name, " ", "-"))
	p := models.Product{Name: name, Code: &code, Price: decimal.RequireFromString(price)}
	mustCreate(t, conn, &p)
	return p
}

// SeedStock creates a ProductStore row whose received and remaining counts are both qty.
func SeedStock(t testing.TB, conn *gorm.DB, productID, storeID uuid.UUID, qty int) models.ProductStore {
	t.Helper()
	ps := models.ProductStore{ProductID: productID, StoreID: storeID, QuantityIn: qty, RemainingStock: qty}
	mustCreate(t, conn, &ps)
	return ps
}

// Stock reloads the ProductStore row for the pair.
func Stock(t testing.TB, conn *gorm.DB, productID, storeID uuid.UUID) models.ProductStore {
	t.Helper()
	var ps models.ProductStore
	if err := conn.Where("product_id = ? AND store_id = ?", productID, storeID).Take(&ps).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return ps
}

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
