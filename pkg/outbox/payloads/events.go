package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/pkg/enums"
)

// OrderLine is the snapshot of one order line carried by order events.
type OrderLine struct {
	OrderDetailID  uuid.UUID       `json:"order_detail_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	StoreID        uuid.UUID       `json:"store_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LocationPickup string          `json:"location_pickup"`
}

// OrderPlacedEvent is emitted when a guest places an order.
type OrderPlacedEvent struct {
	OrderID         uuid.UUID           `json:"order_id"`
	GuestID         *uuid.UUID          `json:"guest_id,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	TotalCost       decimal.Decimal     `json:"total_cost"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	GSTAmount       decimal.Decimal     `json:"gst_amount"`
	ShippingAddress string              `json:"shipping_address"`
	RecipientName   string              `json:"recipient_name"`
	RecipientPhone  string              `json:"recipient_phone"`
	OrderDate       time.Time           `json:"order_date"`
	Lines           []OrderLine         `json:"lines"`
}

// OrderCanceledEvent is emitted when a pending order is cancelled by its guest.
type OrderCanceledEvent struct {
	OrderID       uuid.UUID  `json:"order_id"`
	GuestID       *uuid.UUID `json:"guest_id,omitempty"`
	RecipientName string     `json:"recipient_name"`
	CanceledAt    time.Time  `json:"canceled_at"`
}

// SaleFact mirrors a product_sales row written on delivery.
type SaleFact struct {
	SaleID        uuid.UUID       `json:"sale_id"`
	OrderDetailID uuid.UUID       `json:"order_detail_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	QuantitySold  int             `json:"quantity_sold"`
	VAT           decimal.Decimal `json:"vat"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	SaleDate      time.Time       `json:"sale_date"`
}

// OrderStatusChangedEvent is emitted for every admin transition. Sales is only
// populated when the order reached delivered.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	GuestID        *uuid.UUID        `json:"guest_id,omitempty"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	ChangedAt      time.Time         `json:"changed_at"`
	Sales          []SaleFact        `json:"sales,omitempty"`
}

// OrderPaidEvent is emitted when the payment gateway confirms an order.
type OrderPaidEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	GuestID       *uuid.UUID          `json:"guest_id,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal     `json:"amount"`
	RecipientName string              `json:"recipient_name"`
	PaidAt        time.Time           `json:"paid_at"`
	Lines         []OrderLine         `json:"lines"`
}
