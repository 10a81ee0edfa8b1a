package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

const (
	defaultShippingAddress = "Unknown Recipient"
	defaultRecipientPhone  = "Unknown phone"
	defaultRecipientName   = "Unknown name"
)

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// LineInput is one requested order line.
type LineInput struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
	Quantity  int
}

// CreateOrderInput carries a validated create-new-order request.
type CreateOrderInput struct {
	Actor           Actor
	GuestID         uuid.UUID
	Lines           []LineInput
	PaymentMethod   enums.PaymentMethod
	ShippingCost    decimal.Decimal
	GSTAmount       decimal.Decimal
	ShippingAddress string
	RecipientPhone  string
	RecipientName   string
	// PaymentSourceID is the wallet token charged for e_wallet orders.
	PaymentSourceID string
}

type CancelOrderInput struct {
	Actor   Actor
	OrderID uuid.UUID
}

type UpdateStatusInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Status  string
}

type UpdatePaymentStatusInput struct {
	Actor         Actor
	OrderID       uuid.UUID
	PaymentStatus string
}

// PaymentCallbackInput is the gateway's report for an order.
type PaymentCallbackInput struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Status  string
}

// ListOrdersInput drives both the guest and the admin listing.
type ListOrdersInput struct {
	Actor  Actor
	Filter ListFilter
	Page   pagination.Params
}

// OrderLineDTO is one order line as returned to clients.
type OrderLineDTO struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	StoreID        uuid.UUID       `json:"store_id"`
	ProductCode    *string         `json:"product_code,omitempty"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	LocationPickup string          `json:"location_pickup"`
}

// OrderDTO is the order payload returned by every order endpoint.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	GuestID         *uuid.UUID          `json:"guest_id,omitempty"`
	TotalCost       decimal.Decimal     `json:"total_cost"`
	GSTAmount       decimal.Decimal     `json:"gst_amount"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	OrderStatus     enums.OrderStatus   `json:"order_status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	OrderDate       time.Time           `json:"order_date"`
	ShippingAddress string              `json:"shipping_address"`
	RecipientPhone  string              `json:"recipient_phone"`
	RecipientName   string              `json:"recipient_name"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Lifecycle       dbtypes.Lifecycle   `json:"lifecycle"`
	OrderDetails    []OrderLineDTO      `json:"order_details"`
}

// PaymentDTO describes the gateway handoff of an e_wallet order.
type PaymentDTO struct {
	Gateway   string `json:"gateway"`
	PaymentID string `json:"payment_id,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

const (
	PaymentHandoffAwaiting  = "awaiting_payment"
	PaymentHandoffCompleted = "completed"
	PaymentHandoffFailed    = "failed"
)

// CreateOrderResult is the create-new-order response.
type CreateOrderResult struct {
	Order   OrderDTO    `json:"order"`
	Payment *PaymentDTO `json:"payment,omitempty"`
}

func mapOrder(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		GuestID:         order.GuestID,
		TotalCost:       order.TotalCost,
		GSTAmount:       order.GSTAmount,
		ShippingCost:    order.ShippingCost,
		OrderStatus:     order.OrderStatus,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		OrderDate:       order.OrderDate,
		ShippingAddress: order.ShippingAddress,
		RecipientPhone:  order.RecipientPhone,
		RecipientName:   order.RecipientName,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Lifecycle:       order.Lifecycle,
		OrderDetails:    make([]OrderLineDTO, 0, len(order.Details)),
	}
	for _, line := range order.Details {
		dto.OrderDetails = append(dto.OrderDetails, OrderLineDTO{
			ID:             line.ID,
			ProductID:      line.ProductID,
			StoreID:        line.StoreID,
			ProductCode:    line.ProductCode,
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			LineTotal:      line.LineTotal(),
			LocationPickup: line.LocationPickup,
		})
	}
	return dto
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
