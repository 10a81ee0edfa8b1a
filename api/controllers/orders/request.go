package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/api/validators"
	internalorders "github.com/vivaflower/storefront-backend/internal/orders"
	"github.com/vivaflower/storefront-backend/pkg/enums"
)

// Character limits, matching the max tags and the column widths.
const (
	maxAddressLen = 500
	maxPhoneLen   = 32
	maxNameLen    = 255
)

// CreateOrderRequest is the guest checkout payload.
type CreateOrderRequest struct {
	GuestID         uuid.UUID          `json:"guest_id"`
	OrderDetails    []OrderLineRequest `json:"order_details" validate:"required,min=1,dive"`
	PaymentMethod   string             `json:"payment_method" validate:"omitempty,oneof=credit_card bank_transfer cash_on_delivery e_wallet"`
	ShippingCost    decimal.Decimal    `json:"shipping_cost" validate:"gte=0,lt=10000000000,decimal_places=2"`
	GSTAmount       decimal.Decimal    `json:"gst_amount" validate:"gte=0,lt=10000,decimal_places=4"`
	ShippingAddress string             `json:"shipping_address" validate:"max=500"`
	RecipientPhone  string             `json:"recipient_phone" validate:"max=32"`
	RecipientName   string             `json:"recipient_name" validate:"max=255"`
	PaymentSourceID string             `json:"payment_source_id,omitempty"`
}

type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	StoreID   uuid.UUID `json:"store_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type CancelOrderRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type UpdateStatusRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	OrderStatus string    `json:"order_status" validate:"required"`
}

type UpdatePaymentStatusRequest struct {
	OrderID       uuid.UUID `json:"order_id" validate:"required"`
	PaymentStatus string    `json:"payment_status" validate:"required"`
}

func (req CreateOrderRequest) toInput(actor internalorders.Actor) internalorders.CreateOrderInput {
	guestID := req.GuestID
	if guestID == uuid.Nil {
		guestID = actor.ID
	}
	lines := make([]internalorders.LineInput, 0, len(req.OrderDetails))
	for _, line := range req.OrderDetails {
		lines = append(lines, internalorders.LineInput{
			ProductID: line.ProductID,
			StoreID:   line.StoreID,
			Quantity:  line.Quantity,
		})
	}
	return internalorders.CreateOrderInput{
		Actor:           actor,
		GuestID:         guestID,
		Lines:           lines,
		PaymentMethod:   enums.PaymentMethod(req.PaymentMethod),
		ShippingCost:    req.ShippingCost,
		GSTAmount:       req.GSTAmount,
		ShippingAddress: validators.SanitizeString(req.ShippingAddress, maxAddressLen),
		RecipientPhone:  validators.SanitizeString(req.RecipientPhone, maxPhoneLen),
		RecipientName:   validators.SanitizeString(req.RecipientName, maxNameLen),
		PaymentSourceID: req.PaymentSourceID,
	}
}
