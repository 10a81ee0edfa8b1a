package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/internal/cart"
	"github.com/vivaflower/storefront-backend/internal/guests"
	"github.com/vivaflower/storefront-backend/internal/inventory"
	"github.com/vivaflower/storefront-backend/internal/products"
	"github.com/vivaflower/storefront-backend/internal/sales"
	"github.com/vivaflower/storefront-backend/internal/stores"
	"github.com/vivaflower/storefront-backend/pkg/db/dbtest"
	"github.com/vivaflower/storefront-backend/pkg/db/models"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
	"github.com/vivaflower/storefront-backend/pkg/square"
)

type stubGateway struct {
	result *square.PaymentResult
	err    error
	calls  []square.WalletCharge
}

func (g *stubGateway) ChargeWallet(_ context.Context, charge square.WalletCharge) (*square.PaymentResult, error) {
	g.calls = append(g.calls, charge)
	return g.result, g.err
}

type fixture struct {
	conn  *gorm.DB
	svc   Service
	guest models.Guest
	admin Actor
	rose  models.Product
	lily  models.Product
	north models.Store
}

func newFixture(t *testing.T, gateway PaymentGateway) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	productRepo := products.NewRepository(conn)
	storeRepo := stores.NewRepository(conn)
	stock, err := inventory.NewService(inventory.NewRepository(conn), client, productRepo, storeRepo, logger.Nop())
	require.NoError(t, err)
	ledger, err := sales.NewService(sales.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(Dependencies{
		Repo:     NewRepository(conn),
		Tx:       client,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Stock:    stock,
		Sales:    ledger,
		Cart:     cart.NewItemRepository(conn),
		Guests:   guests.NewRepository(conn),
		Products: productRepo,
		Stores:   storeRepo,
		Gateway:  gateway,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)

	f := fixture{
		conn:  conn,
		svc:   svc,
		guest: dbtest.SeedGuest(t, conn, "linh@example.com"),
		admin: Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
		rose:  dbtest.SeedProduct(t, conn, "Rose", "10"),
		lily:  dbtest.SeedProduct(t, conn, "Lily", "4.50"),
		north: dbtest.SeedStore(t, conn, "North"),
	}
	dbtest.SeedStock(t, conn, f.rose.ID, f.north.ID, 5)
	dbtest.SeedStock(t, conn, f.lily.ID, f.north.ID, 3)
	return f
}

func (f fixture) guestActor() Actor {
	return Actor{ID: f.guest.ID, Role: enums.ActorRoleGuest}
}

func (f fixture) createInput(lines ...LineInput) CreateOrderInput {
	return CreateOrderInput{
		Actor:         f.guestActor(),
		GuestID:       f.guest.ID,
		Lines:         lines,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		ShippingCost:  dec("3"),
		GSTAmount:     dec("0.1"),
		RecipientName: "Linh Tran",
	}
}

func (f fixture) place(t *testing.T, lines ...LineInput) OrderDTO {
	t.Helper()
	result, err := f.svc.Create(context.Background(), f.createInput(lines...))
	require.NoError(t, err)
	return result.Order
}

func (f fixture) transition(t *testing.T, id uuid.UUID, status string) (*OrderDTO, error) {
	t.Helper()
	return f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Actor: f.admin, OrderID: id, Status: status})
}

func (f fixture) events(t *testing.T, orderID uuid.UUID) []enums.OutboxEventType {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.conn.Where("aggregate_id = ?", orderID).Order("created_at ASC").Find(&rows).Error)
	types := make([]enums.OutboxEventType, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.EventType)
	}
	return types
}

func (f fixture) remaining(t *testing.T, product models.Product) int {
	t.Helper()
	return dbtest.Stock(t, f.conn, product.ID, f.north.ID).RemainingStock
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(p models.Product, s models.Store, qty int) LineInput {
	return LineInput{ProductID: p.ID, StoreID: s.ID, Quantity: qty}
}

func TestComputeTotal(t *testing.T) {
	assert.True(t, dec("29.95").Equal(ComputeTotal(dec("24.50"), dec("0.1"), dec("3"))))
	assert.True(t, dec("10").Equal(ComputeTotal(dec("10"), decimal.Zero, decimal.Zero)))
	assert.True(t, dec("0.33").Equal(ComputeTotal(dec("0.3333"), decimal.Zero, decimal.Zero)))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(enums.OrderStatusPending, enums.OrderStatusConfirmed))
	assert.True(t, CanTransition(enums.OrderStatusDelivered, enums.OrderStatusReturned))
	assert.False(t, CanTransition(enums.OrderStatusConfirmed, enums.OrderStatusConfirmed))
	assert.False(t, CanTransition(enums.OrderStatusCancelled, enums.OrderStatusConfirmed))
	assert.False(t, CanTransition(enums.OrderStatusReturned, enums.OrderStatusShipped))
	assert.False(t, CanTransition(enums.OrderStatusPending, enums.OrderStatusDelivered))
}

func TestCreatePlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	userCart := models.Cart{GuestID: f.guest.ID}
	require.NoError(t, f.conn.Create(&userCart).Error)
	other := dbtest.SeedProduct(t, f.conn, "Tulip", "7")
	for _, p := range []models.Product{f.rose, f.lily, other} {
		require.NoError(t, f.conn.Create(&models.CartItem{CartID: userCart.ID, ProductID: p.ID, StoreID: f.north.ID, Quantity: 1}).Error)
	}

	result, err := f.svc.Create(ctx, f.createInput(line(f.rose, f.north, 2), line(f.lily, f.north, 1)))
	require.NoError(t, err)
	order := result.Order
	assert.Nil(t, result.Payment)

	assert.True(t, dec("29.95").Equal(order.TotalCost), order.TotalCost.String())
	assert.Equal(t, enums.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, "Unknown Recipient", order.ShippingAddress)
	assert.Equal(t, "Unknown phone", order.RecipientPhone)
	assert.Equal(t, "Linh Tran", order.RecipientName)
	require.Len(t, order.OrderDetails, 2)
	assert.Equal(t, "12 North Street", order.OrderDetails[0].LocationPickup)

	// stock is only taken at confirmation
	assert.Equal(t, 5, f.remaining(t, f.rose))

	var left []models.CartItem
	require.NoError(t, f.conn.Where("cart_id = ?", userCart.ID).Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, other.ID, left[0].ProductID)

	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderPlaced}, f.events(t, order.ID))

	stored, err := f.svc.Get(ctx, f.guestActor(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.OrderDetails, 2)
}

func TestCreateRejectsWholeOrderOnShortStock(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), f.createInput(line(f.rose, f.north, 1), line(f.lily, f.north, 4)))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), err)
	assert.Equal(t, "Not enough stock for Lily. Available: 3", pkgerrors.As(err).Message())

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.conn.Model(&models.OrderDetail{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.createInput(line(f.rose, f.north, 0)))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.createInput())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	input := f.createInput(line(f.rose, f.north, 1))
	input.PaymentMethod = "barter"
	_, err = f.svc.Create(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.createInput(LineInput{ProductID: uuid.New(), StoreID: f.north.ID, Quantity: 1}))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	unstocked := dbtest.SeedStore(t, f.conn, "South")
	_, err = f.svc.Create(ctx, f.createInput(line(f.rose, unstocked, 1)))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	input = f.createInput(line(f.rose, f.north, 1))
	input.Actor = Actor{ID: uuid.New(), Role: enums.ActorRoleGuest}
	_, err = f.svc.Create(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	input = f.createInput(line(f.rose, f.north, 1))
	input.GuestID = uuid.New()
	input.Actor = f.admin
	_, err = f.svc.Create(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateDefaultsPaymentMethod(t *testing.T) {
	f := newFixture(t, nil)
	input := f.createInput(line(f.rose, f.north, 1))
	input.PaymentMethod = ""
	result, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodCashOnDelivery, result.Order.PaymentMethod)
}

func TestStatusLifecycleMovesStockAndSales(t *testing.T) {
	f := newFixture(t, nil)
	order := f.place(t, line(f.rose, f.north, 2), line(f.lily, f.north, 1))

	confirmed, err := f.transition(t, order.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.OrderStatus)
	assert.Equal(t, 3, f.remaining(t, f.rose))
	assert.Equal(t, 2, f.remaining(t, f.lily))

	_, err = f.transition(t, order.ID, "confirmed")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidStateTransition))
	assert.Equal(t, 3, f.remaining(t, f.rose))

	_, err = f.transition(t, order.ID, "shipped_typo")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument))

	_, err = f.transition(t, order.ID, "pending")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument))

	_, err = f.transition(t, order.ID, "shipped")
	require.NoError(t, err)
	delivered, err := f.transition(t, order.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.OrderStatus)

	var sold []models.ProductSale
	require.NoError(t, f.conn.Find(&sold).Error)
	require.Len(t, sold, 2)
	for _, sale := range sold {
		assert.True(t, dec("0.1").Equal(sale.VAT))
		assert.True(t, dec("3").Equal(sale.ShippingCost))
	}

	_, err = f.transition(t, order.ID, "returned")
	require.NoError(t, err)
	assert.Equal(t, 5, f.remaining(t, f.rose))
	assert.Equal(t, 3, f.remaining(t, f.lily))

	_, err = f.transition(t, order.ID, "shipped")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidStateTransition))

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventOrderPlaced,
		enums.EventOrderStatusChanged,
		enums.EventOrderStatusChanged,
		enums.EventOrderStatusChanged,
		enums.EventOrderStatusChanged,
	}, f.events(t, order.ID))

	var deliveredEvent models.OutboxEvent
	require.NoError(t, f.conn.
		Where("aggregate_id = ? AND event_type = ?", order.ID, enums.EventOrderStatusChanged).
		Where("payload LIKE ?", `%"status":"delivered"%`).
		Take(&deliveredEvent).Error)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(deliveredEvent.Payload, &envelope))
	var changed payloads.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &changed))
	assert.Equal(t, enums.OrderStatusShipped, changed.PreviousStatus)
	assert.Len(t, changed.Sales, 2)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "admin", envelope.Actor.Role)
}

func TestConfirmFailsWhenStockWasTakenMeanwhile(t *testing.T) {
	f := newFixture(t, nil)
	first := f.place(t, line(f.rose, f.north, 4))
	second := f.place(t, line(f.rose, f.north, 4))

	_, err := f.transition(t, first.ID, "confirmed")
	require.NoError(t, err)

	_, err = f.transition(t, second.ID, "confirmed")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, "Not enough stock for Rose. Available: 1", pkgerrors.As(err).Message())

	stored, err := f.svc.Get(context.Background(), f.admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, stored.OrderStatus)
	assert.Equal(t, 1, f.remaining(t, f.rose))
}

func TestCancelOnlyFromPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	order := f.place(t, line(f.rose, f.north, 1))

	_, err := f.svc.Cancel(ctx, CancelOrderInput{Actor: Actor{ID: uuid.New(), Role: enums.ActorRoleGuest}, OrderID: order.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	canceled, err := f.svc.Cancel(ctx, CancelOrderInput{Actor: f.guestActor(), OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, canceled.OrderStatus)
	assert.Equal(t, 5, f.remaining(t, f.rose))

	_, err = f.svc.Cancel(ctx, CancelOrderInput{Actor: f.guestActor(), OrderID: order.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidStateTransition))

	_, err = f.svc.Cancel(ctx, CancelOrderInput{Actor: f.guestActor(), OrderID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderPlaced, enums.EventOrderCanceled}, f.events(t, order.ID))

	confirmed := f.place(t, line(f.rose, f.north, 1))
	_, err = f.transition(t, confirmed.ID, "confirmed")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, CancelOrderInput{Actor: f.guestActor(), OrderID: confirmed.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidStateTransition))
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	order := f.place(t, line(f.rose, f.north, 1))

	_, err := f.svc.UpdatePaymentStatus(ctx, UpdatePaymentStatusInput{Actor: f.admin, OrderID: order.ID, PaymentStatus: "failed"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument))

	updated, err := f.svc.UpdatePaymentStatus(ctx, UpdatePaymentStatusInput{Actor: f.admin, OrderID: order.ID, PaymentStatus: "paid"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, updated.OrderStatus)

	_, err = f.svc.UpdatePaymentStatus(ctx, UpdatePaymentStatusInput{Actor: f.admin, OrderID: uuid.New(), PaymentStatus: "unpaid"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPaymentCallback(t *testing.T) {
	f := newFixture(t, &stubGateway{})
	ctx := context.Background()
	input := f.createInput(line(f.rose, f.north, 2))
	input.PaymentMethod = enums.PaymentMethodEWallet
	placed, err := f.svc.Create(ctx, input)
	require.NoError(t, err)
	order := placed.Order
	require.True(t, dec("25").Equal(order.TotalCost), order.TotalCost.String())

	_, err = f.svc.PaymentCallback(ctx, PaymentCallbackInput{OrderID: order.ID, Amount: dec("24.99"), Status: "success"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentMismatch))

	_, err = f.svc.PaymentCallback(ctx, PaymentCallbackInput{OrderID: order.ID, Amount: dec("25"), Status: "failed"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentMismatch))

	_, err = f.svc.PaymentCallback(ctx, PaymentCallbackInput{OrderID: uuid.New(), Amount: dec("25"), Status: "success"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	paid, err := f.svc.PaymentCallback(ctx, PaymentCallbackInput{OrderID: order.ID, Amount: dec("25.00"), Status: "success"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, paid.OrderStatus)
	assert.Equal(t, 3, f.remaining(t, f.rose))

	again, err := f.svc.PaymentCallback(ctx, PaymentCallbackInput{OrderID: order.ID, Amount: dec("25"), Status: "success"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, again.OrderStatus)
	assert.Equal(t, 3, f.remaining(t, f.rose))

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventOrderPlaced,
		enums.EventOrderStatusChanged,
		enums.EventOrderPaid,
	}, f.events(t, order.ID))
}

func TestPaymentCallbackRejectsCashOnDelivery(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	order := f.place(t, line(f.rose, f.north, 2))
	require.Equal(t, enums.PaymentMethodCashOnDelivery, order.PaymentMethod)

	_, err := f.svc.PaymentCallback(ctx, PaymentCallbackInput{OrderID: order.ID, Amount: order.TotalCost, Status: "success"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidStateTransition), "got %v", err)

	stored, err := f.svc.Get(ctx, f.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, stored.OrderStatus)
	assert.Equal(t, enums.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.Equal(t, 5, f.remaining(t, f.rose))
	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderPlaced}, f.events(t, order.ID))
}

func TestEWalletHandoff(t *testing.T) {
	ctx := context.Background()

	t.Run("no source awaits payment", func(t *testing.T) {
		gateway := &stubGateway{}
		f := newFixture(t, gateway)
		input := f.createInput(line(f.rose, f.north, 1))
		input.PaymentMethod = enums.PaymentMethodEWallet
		result, err := f.svc.Create(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, result.Payment)
		assert.Equal(t, PaymentHandoffAwaiting, result.Payment.Status)
		assert.Empty(t, gateway.calls)
	})

	t.Run("completed charge confirms the order", func(t *testing.T) {
		gateway := &stubGateway{result: &square.PaymentResult{PaymentID: "pay_1", Status: "COMPLETED"}}
		f := newFixture(t, gateway)
		input := f.createInput(line(f.rose, f.north, 2))
		input.PaymentMethod = enums.PaymentMethodEWallet
		input.PaymentSourceID = "cnon:card-nonce-ok"
		result, err := f.svc.Create(ctx, input)
		require.NoError(t, err)

		require.Len(t, gateway.calls, 1)
		assert.True(t, dec("25").Equal(gateway.calls[0].Amount))
		assert.Equal(t, result.Order.ID, gateway.calls[0].OrderID)
		assert.Equal(t, PaymentHandoffCompleted, result.Payment.Status)
		assert.Equal(t, "pay_1", result.Payment.PaymentID)
		assert.Equal(t, enums.OrderStatusConfirmed, result.Order.OrderStatus)
		assert.Equal(t, enums.PaymentStatusPaid, result.Order.PaymentStatus)
		assert.Equal(t, 3, f.remaining(t, f.rose))
	})

	t.Run("failed charge keeps the order pending", func(t *testing.T) {
		gateway := &stubGateway{err: pkgerrors.New(pkgerrors.CodeDependency, "card declined")}
		f := newFixture(t, gateway)
		input := f.createInput(line(f.rose, f.north, 1))
		input.PaymentMethod = enums.PaymentMethodEWallet
		input.PaymentSourceID = "cnon:card-nonce-declined"
		result, err := f.svc.Create(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, PaymentHandoffFailed, result.Payment.Status)
		assert.Equal(t, "card declined", result.Payment.Message)
		assert.Equal(t, enums.OrderStatusPending, result.Order.OrderStatus)
		assert.Equal(t, enums.PaymentStatusFailed, result.Order.PaymentStatus)

		stored, err := f.svc.Get(ctx, f.admin, result.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.PaymentStatusFailed, stored.PaymentStatus)
		assert.Equal(t, 5, f.remaining(t, f.rose))
	})

	t.Run("transport error", func(t *testing.T) {
		gateway := &stubGateway{err: errors.New("connection reset")}
		f := newFixture(t, gateway)
		input := f.createInput(line(f.rose, f.north, 1))
		input.PaymentMethod = enums.PaymentMethodEWallet
		input.PaymentSourceID = "cnon:x"
		result, err := f.svc.Create(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "connection reset", result.Payment.Message)
	})
}

func TestGetAndListScopeGuests(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	mine := f.place(t, line(f.rose, f.north, 1))
	f.place(t, line(f.lily, f.north, 1))

	stranger := Actor{ID: dbtest.SeedGuest(t, f.conn, "other@example.com").ID, Role: enums.ActorRoleGuest}
	_, err := f.svc.Get(ctx, stranger, mine.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Get(ctx, f.admin, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	page := pagination.Params{PageIndex: 1, PageSize: 10}
	listed, err := f.svc.List(ctx, ListOrdersInput{Actor: f.guestActor(), Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 2, listed.TotalItems)

	listed, err = f.svc.List(ctx, ListOrdersInput{Actor: stranger, Page: page})
	require.NoError(t, err)
	assert.EqualValues(t, 0, listed.TotalItems)
	assert.Equal(t, 1, listed.PageIndex)
	assert.NotNil(t, listed.Items)

	_, err = f.svc.List(ctx, ListOrdersInput{Actor: stranger, Filter: ListFilter{GuestID: &f.guest.ID}, Page: page})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	ghost := uuid.New()
	_, err = f.svc.List(ctx, ListOrdersInput{Actor: Actor{ID: ghost, Role: enums.ActorRoleGuest}, Page: page})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.transition(t, mine.ID, "confirmed")
	require.NoError(t, err)
	status := enums.OrderStatusConfirmed
	listed, err = f.svc.List(ctx, ListOrdersInput{Actor: f.admin, Filter: ListFilter{OrderStatus: &status}, Page: page})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, mine.ID, listed.Items[0].ID)

	listed, err = f.svc.List(ctx, ListOrdersInput{Actor: f.admin, Page: pagination.Params{PageIndex: 9, PageSize: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, listed.PageIndex)
	assert.Equal(t, 2, listed.TotalPages)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	require.Error(t, err)
}
