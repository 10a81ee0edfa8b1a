package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/internal/cart"
	"github.com/vivaflower/storefront-backend/internal/inventory"
	"github.com/vivaflower/storefront-backend/pkg/db/models"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/metrics"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
	"github.com/vivaflower/storefront-backend/pkg/square"
)

const paymentCallbackSuccess = "success"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockLedger checks and moves stock for order lines inside the caller's transaction.
type StockLedger interface {
	CheckAvailability(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
	CommitLines(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
	RestockLines(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

// SalesRecorder appends the sales ledger when an order is delivered.
type SalesRecorder interface {
	RecordDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, deliveredAt time.Time) ([]models.ProductSale, error)
}

// PaymentGateway charges e_wallet orders.
type PaymentGateway interface {
	ChargeWallet(ctx context.Context, charge square.WalletCharge) (*square.PaymentResult, error)
}

type guestLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service is the order-fulfillment workflow.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*OrderDTO, error)
	PaymentCallback(ctx context.Context, input PaymentCallbackInput) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, input ListOrdersInput) (*pagination.Page[OrderDTO], error)
}

// Dependencies wires the order service. Gateway, Metrics and Logger are optional.
type Dependencies struct {
	Repo     Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Stock    StockLedger
	Sales    SalesRecorder
	Cart     *cart.ItemRepository
	Guests   guestLookup
	Products productLookup
	Stores   storeLookup
	Gateway  PaymentGateway
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	stock    StockLedger
	sales    SalesRecorder
	cart     *cart.ItemRepository
	guests   guestLookup
	products productLookup
	stores   storeLookup
	gateway  PaymentGateway
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(deps Dependencies) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if deps.Sales == nil {
		return nil, fmt.Errorf("sales recorder required")
	}
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Guests == nil || deps.Products == nil || deps.Stores == nil {
		return nil, fmt.Errorf("guest, product and store lookups required")
	}
	return &service{
		repo:     deps.Repo,
		tx:       deps.Tx,
		outbox:   deps.Outbox,
		stock:    deps.Stock,
		sales:    deps.Sales,
		cart:     deps.Cart,
		guests:   deps.Guests,
		products: deps.Products,
		stores:   deps.Stores,
		gateway:  deps.Gateway,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	const op = "create"
	if err := validateCreate(&input); err != nil {
		return nil, s.reject(op, err)
	}
	if !input.Actor.IsAdmin() && input.Actor.ID != input.GuestID {
		return nil, s.reject(op, pkgerrors.New(pkgerrors.CodeForbidden, "orders can only be placed for the signed-in guest"))
	}
	if _, err := s.guests.FindByID(ctx, input.GuestID); err != nil {
		return nil, s.reject(op, lookupError(err, "Guest not found"))
	}

	guestID := input.GuestID
	order := &models.Order{
		ID:              uuid.New(),
		GuestID:         &guestID,
		GSTAmount:       input.GSTAmount,
		ShippingCost:    input.ShippingCost,
		OrderStatus:     enums.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		OrderDate:       s.now(),
		ShippingAddress: valueOr(input.ShippingAddress, defaultShippingAddress),
		RecipientPhone:  valueOr(input.RecipientPhone, defaultRecipientPhone),
		RecipientName:   valueOr(input.RecipientName, defaultRecipientName),
	}

	subtotal := decimal.Zero
	for i, line := range input.Lines {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, s.reject(op, lineLookupError(err, "Product not found", i, line.ProductID))
		}
		store, err := s.stores.FindByID(ctx, line.StoreID)
		if err != nil {
			return nil, s.reject(op, lineLookupError(err, "Store not found", i, line.StoreID))
		}
		detail := models.OrderDetail{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			StoreID:        store.ID,
			ProductCode:    product.Code,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPrice:      product.Price,
			LocationPickup: store.Address,
		}
		subtotal = subtotal.Add(detail.LineTotal())
		order.Details = append(order.Details, detail)
	}
	order.TotalCost = ComputeTotal(subtotal, input.GSTAmount, input.ShippingCost)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.CheckAvailability(ctx, tx, stockLines(order)); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if _, err := s.cart.WithTx(tx).RemoveOrdered(ctx, guestID, cartKeys(order)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return s.emit(ctx, tx, input.Actor, enums.EventOrderPlaced, order.ID, payloads.OrderPlacedEvent{
			OrderID:         order.ID,
			GuestID:         order.GuestID,
			PaymentMethod:   order.PaymentMethod,
			TotalCost:       order.TotalCost,
			ShippingCost:    order.ShippingCost,
			GSTAmount:       order.GSTAmount,
			ShippingAddress: order.ShippingAddress,
			RecipientName:   order.RecipientName,
			RecipientPhone:  order.RecipientPhone,
			OrderDate:       order.OrderDate,
			Lines:           eventLines(order),
		})
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.metrics.IncCreated()
	s.info(ctx, order.ID, "order placed", map[string]any{
		"payment_method": order.PaymentMethod,
		"total_cost":     order.TotalCost.String(),
		"lines":          len(order.Details),
	})

	result := &CreateOrderResult{}
	if order.PaymentMethod == enums.PaymentMethodEWallet {
		result.Payment = s.handOff(ctx, order, input.PaymentSourceID)
	}
	result.Order = mapOrder(*order)
	return result, nil
}

// handOff charges the wallet once the order is committed. A declined or failed
// charge leaves the order pending with payment_status failed.
func (s *service) handOff(ctx context.Context, order *models.Order, sourceID string) *PaymentDTO {
	payment := &PaymentDTO{Gateway: "square", Status: PaymentHandoffAwaiting}
	if s.gateway == nil || strings.TrimSpace(sourceID) == "" {
		return payment
	}

	charge, err := s.gateway.ChargeWallet(ctx, square.WalletCharge{
		OrderID:  order.ID,
		Amount:   order.TotalCost,
		SourceID: sourceID,
		Note:     fmt.Sprintf("Order #%s payment", order.ID),
	})
	if err == nil && charge != nil && charge.Completed() {
		payment.PaymentID = charge.PaymentID
		payment.Status = PaymentHandoffCompleted
		settled, settleErr := s.settle(ctx, order.ID, order.TotalCost, Actor{ID: *order.GuestID, Role: enums.ActorRoleGuest})
		if settleErr == nil {
			*order = *settled
			return payment
		}
		s.warn(ctx, order.ID, "wallet charged but order could not be confirmed", settleErr)
		if _, markErr := s.repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusPaid); markErr == nil {
			order.PaymentStatus = enums.PaymentStatusPaid
		}
		payment.Message = "payment captured; order awaits manual confirmation"
		return payment
	}

	payment.Status = PaymentHandoffFailed
	if charge != nil {
		payment.PaymentID = charge.PaymentID
	}
	if err != nil {
		payment.Message = err.Error()
		if typed := pkgerrors.As(err); typed != nil {
			payment.Message = typed.Message()
		}
	} else {
		payment.Message = "payment was not completed"
	}
	s.warn(ctx, order.ID, "wallet charge failed", err)
	if _, markErr := s.repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusFailed); markErr != nil {
		s.warn(ctx, order.ID, "record failed payment", markErr)
	} else {
		order.PaymentStatus = enums.PaymentStatusFailed
	}
	return payment
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*OrderDTO, error) {
	const op = "cancel"
	if input.OrderID == uuid.Nil {
		return nil, s.reject(op, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required"))
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return lookupError(err, "Order not found")
		}
		if err := authorize(input.Actor, order); err != nil {
			return err
		}
		if order.OrderStatus != enums.OrderStatusPending {
			return pkgerrors.Newf(pkgerrors.CodeInvalidStateTransition, "Order cannot be canceled in %s status", order.OrderStatus).
				WithDetails(map[string]any{"from": order.OrderStatus, "to": enums.OrderStatusCancelled})
		}
		if err := s.writeStatus(ctx, repo, order, enums.OrderStatusCancelled); err != nil {
			return err
		}
		return s.emit(ctx, tx, input.Actor, enums.EventOrderCanceled, order.ID, payloads.OrderCanceledEvent{
			OrderID:       order.ID,
			GuestID:       order.GuestID,
			RecipientName: order.RecipientName,
			CanceledAt:    s.now(),
		})
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.metrics.IncTransition(string(enums.OrderStatusPending), string(enums.OrderStatusCancelled))
	s.info(ctx, order.ID, "order canceled", nil)
	dto := mapOrder(*order)
	return &dto, nil
}

// UpdateStatus runs one admin transition. The conditional status write comes
// first so concurrent transitions of the same order serialize on its row; the
// stock and sales side effects follow in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	const op = "update_status"
	if input.OrderID == uuid.Nil {
		return nil, s.reject(op, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required"))
	}
	target, err := ParseTargetStatus(input.Status)
	if err != nil {
		return nil, s.reject(op, err)
	}

	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return lookupError(err, "Order not found")
		}
		previous = order.OrderStatus
		if !CanTransition(previous, target) {
			return invalidTransition(previous, target)
		}
		if err := s.writeStatus(ctx, repo, order, target); err != nil {
			return err
		}

		changedAt := s.now()
		event := payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			GuestID:        order.GuestID,
			PreviousStatus: previous,
			Status:         target,
			ChangedAt:      changedAt,
		}
		switch target {
		case enums.OrderStatusConfirmed:
			if err := s.stock.CommitLines(ctx, tx, stockLines(order)); err != nil {
				return err
			}
		case enums.OrderStatusReturned:
			if err := s.stock.RestockLines(ctx, tx, stockLines(order)); err != nil {
				return err
			}
		case enums.OrderStatusDelivered:
			sales, err := s.sales.RecordDelivery(ctx, tx, order, changedAt)
			if err != nil {
				return err
			}
			event.Sales = saleFacts(sales)
		}
		return s.emit(ctx, tx, input.Actor, enums.EventOrderStatusChanged, order.ID, event)
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.metrics.IncTransition(string(previous), string(target))
	s.info(ctx, order.ID, "order status updated", map[string]any{"from": previous, "to": target})
	dto := mapOrder(*order)
	return &dto, nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*OrderDTO, error) {
	const op = "update_payment_status"
	if input.OrderID == uuid.Nil {
		return nil, s.reject(op, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required"))
	}
	status, err := ParseAdminPaymentStatus(input.PaymentStatus)
	if err != nil {
		return nil, s.reject(op, err)
	}
	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.UpdatePaymentStatus(ctx, input.OrderID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		order, err = repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return lookupError(err, "Order not found")
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.info(ctx, order.ID, "payment status updated", map[string]any{"payment_status": status})
	dto := mapOrder(*order)
	return &dto, nil
}

// PaymentCallback settles an order reported paid by the gateway. The amount
// must match total_cost exactly.
func (s *service) PaymentCallback(ctx context.Context, input PaymentCallbackInput) (*OrderDTO, error) {
	const op = "payment_callback"
	if input.OrderID == uuid.Nil {
		return nil, s.reject(op, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required"))
	}
	if !strings.EqualFold(strings.TrimSpace(input.Status), paymentCallbackSuccess) {
		if _, err := s.repo.FindByID(ctx, input.OrderID); err != nil {
			return nil, s.reject(op, lookupError(err, "Order not found"))
		}
		return nil, s.reject(op, paymentMismatch(input))
	}
	order, err := s.settle(ctx, input.OrderID, input.Amount, Actor{})
	if err != nil {
		return nil, s.reject(op, err)
	}
	dto := mapOrder(*order)
	return &dto, nil
}

// settle marks an e_wallet order paid and, when it is still pending, confirms
// it with the same stock commit an admin confirmation performs.
func (s *service) settle(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, actor Actor) (*models.Order, error) {
	var (
		order     *models.Order
		confirmed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return lookupError(err, "Order not found")
		}
		if order.PaymentMethod != enums.PaymentMethodEWallet {
			return gatewayNotUsed(order)
		}
		if !amount.Equal(order.TotalCost) {
			return paymentMismatch(PaymentCallbackInput{OrderID: orderID, Amount: amount, Status: paymentCallbackSuccess}).
				WithDetails(map[string]any{"expected": order.TotalCost.String(), "received": amount.String()})
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return nil
		}
		switch order.OrderStatus {
		case enums.OrderStatusCancelled, enums.OrderStatusReturned:
			return invalidTransition(order.OrderStatus, enums.OrderStatusConfirmed)
		case enums.OrderStatusPending:
			if err := s.writeStatus(ctx, repo, order, enums.OrderStatusConfirmed); err != nil {
				return err
			}
			if err := s.stock.CommitLines(ctx, tx, stockLines(order)); err != nil {
				return err
			}
			confirmed = true
		}
		if _, err := repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		order.PaymentStatus = enums.PaymentStatusPaid

		paidAt := s.now()
		if confirmed {
			err := s.emit(ctx, tx, actor, enums.EventOrderStatusChanged, order.ID, payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				GuestID:        order.GuestID,
				PreviousStatus: enums.OrderStatusPending,
				Status:         enums.OrderStatusConfirmed,
				ChangedAt:      paidAt,
			})
			if err != nil {
				return err
			}
		}
		return s.emit(ctx, tx, actor, enums.EventOrderPaid, order.ID, payloads.OrderPaidEvent{
			OrderID:       order.ID,
			GuestID:       order.GuestID,
			PaymentMethod: order.PaymentMethod,
			Amount:        amount,
			RecipientName: order.RecipientName,
			PaidAt:        paidAt,
			Lines:         eventLines(order),
		})
	})
	if err != nil {
		return nil, err
	}
	if confirmed {
		s.metrics.IncTransition(string(enums.OrderStatusPending), string(enums.OrderStatusConfirmed))
	}
	s.info(ctx, order.ID, "order payment settled", map[string]any{"confirmed": confirmed})
	return order, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "Order not found")
	}
	if err := authorize(actor, order); err != nil {
		return nil, err
	}
	dto := mapOrder(*order)
	return &dto, nil
}

// List serves guests their own history and admins the filtered back office view.
func (s *service) List(ctx context.Context, input ListOrdersInput) (*pagination.Page[OrderDTO], error) {
	filter := input.Filter
	if !input.Actor.IsAdmin() {
		guestID := input.Actor.ID
		if filter.GuestID != nil && *filter.GuestID != guestID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "guests can only list their own orders")
		}
		filter = ListFilter{GuestID: &guestID, Dates: filter.Dates}
	}
	if filter.GuestID != nil {
		if _, err := s.guests.FindByID(ctx, *filter.GuestID); err != nil {
			return nil, lookupError(err, "Guest not found")
		}
	}

	rows, window, err := s.repo.List(ctx, filter, input.Page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapOrder(row))
	}
	page := pagination.NewPage(window, items)
	return &page, nil
}

// writeStatus applies the conditional status update and mirrors it on order.
func (s *service) writeStatus(ctx context.Context, repo Repository, order *models.Order, to enums.OrderStatus) error {
	ok, err := repo.UpdateStatus(ctx, order.ID, order.OrderStatus, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeInvalidStateTransition, "order is no longer %s", order.OrderStatus).
			WithDetails(map[string]any{"from": order.OrderStatus, "to": to})
	}
	order.OrderStatus = to
	order.UpdatedAt = s.now()
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor Actor, eventType enums.OutboxEventType, orderID uuid.UUID, data any) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          data,
		OccurredAt:    s.now(),
	}
	if actor.ID != uuid.Nil {
		event.Actor = &outbox.ActorRef{ID: actor.ID.String(), Role: string(actor.Role)}
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
	}
	return nil
}

func (s *service) reject(operation string, err error) error {
	if err == nil {
		return nil
	}
	s.metrics.IncRejected(operation, string(pkgerrors.CodeOf(err)))
	return err
}

func (s *service) info(ctx context.Context, orderID uuid.UUID, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	if len(fields) > 0 {
		logCtx = s.logg.WithFields(logCtx, fields)
	}
	s.logg.Info(logCtx, msg)
}

func (s *service) warn(ctx context.Context, orderID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	if err != nil {
		logCtx = s.logg.WithField(logCtx, "error", err.Error())
	}
	s.logg.Warn(logCtx, msg)
}

func validateCreate(input *CreateOrderInput) error {
	details := map[string]string{}
	if input.GuestID == uuid.Nil {
		details["guest_id"] = "is required"
	}
	if len(input.Lines) == 0 {
		details["order_details"] = "at least one line is required"
	}
	for i, line := range input.Lines {
		prefix := fmt.Sprintf("order_details[%d].", i)
		if line.ProductID == uuid.Nil {
			details[prefix+"product_id"] = "is required"
		}
		if line.StoreID == uuid.Nil {
			details[prefix+"store_id"] = "is required"
		}
		if line.Quantity <= 0 {
			details[prefix+"quantity"] = "must be greater than 0"
		}
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = enums.PaymentMethodCashOnDelivery
	}
	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "is not supported"
	}
	if input.ShippingCost.IsNegative() {
		details["shipping_cost"] = "must be at least 0"
	}
	if input.GSTAmount.IsNegative() {
		details["gst_amount"] = "must be at least 0"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func authorize(actor Actor, order *models.Order) error {
	if actor.IsAdmin() {
		return nil
	}
	if order.GuestID == nil || *order.GuestID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another guest")
	}
	return nil
}

func paymentMismatch(input PaymentCallbackInput) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodePaymentMismatch, "Payment amount mismatch or payment failed.").
		WithDetails(map[string]any{"order_id": input.OrderID.String(), "status": input.Status})
}

// gatewayNotUsed rejects gateway settlement of orders paid outside the gateway.
// Those are confirmed by an admin.
func gatewayNotUsed(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidStateTransition, "order paid by %s cannot be settled by the payment gateway", order.PaymentMethod).
		WithDetails(map[string]any{"order_id": order.ID.String(), "payment_method": order.PaymentMethod})
}

func lookupError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func lineLookupError(err error, message string, index int, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message).
			WithDetails(map[string]any{"line": index, "id": id.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func stockLines(order *models.Order) []inventory.Line {
	lines := make([]inventory.Line, 0, len(order.Details))
	for _, d := range order.Details {
		lines = append(lines, inventory.Line{
			ProductID:   d.ProductID,
			StoreID:     d.StoreID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
		})
	}
	return lines
}

func cartKeys(order *models.Order) []cart.LineKey {
	keys := make([]cart.LineKey, 0, len(order.Details))
	for _, d := range order.Details {
		keys = append(keys, cart.LineKey{ProductID: d.ProductID, StoreID: d.StoreID})
	}
	return keys
}

func eventLines(order *models.Order) []payloads.OrderLine {
	lines := make([]payloads.OrderLine, 0, len(order.Details))
	for _, d := range order.Details {
		lines = append(lines, payloads.OrderLine{
			OrderDetailID:  d.ID,
			ProductID:      d.ProductID,
			StoreID:        d.StoreID,
			ProductName:    d.ProductName,
			Quantity:       d.Quantity,
			UnitPrice:      d.UnitPrice,
			LocationPickup: d.LocationPickup,
		})
	}
	return lines
}

func saleFacts(rows []models.ProductSale) []payloads.SaleFact {
	facts := make([]payloads.SaleFact, 0, len(rows))
	for _, row := range rows {
		facts = append(facts, payloads.SaleFact{
			SaleID:        row.ID,
			OrderDetailID: row.OrderDetailID,
			ProductID:     row.ProductID,
			StoreID:       row.StoreID,
			SalePrice:     row.SalePrice,
			QuantitySold:  row.QuantitySold,
			VAT:           row.VAT,
			ShippingCost:  row.ShippingCost,
			SaleDate:      row.SaleDate,
		})
	}
	return facts
}
