package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/pkg/enums"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
)

// allowedTransitions is the admin state machine. cancelled and returned are terminal.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusReturned},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered, enums.OrderStatusReturned},
	enums.OrderStatusDelivered: {enums.OrderStatusReturned},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ParseTargetStatus accepts the statuses an admin may request. pending is
// never a target.
func ParseTargetStatus(raw string) (enums.OrderStatus, error) {
	status, err := enums.ParseOrderStatus(strings.TrimSpace(raw))
	if err != nil || status == enums.OrderStatusPending {
		return "", pkgerrors.Newf(pkgerrors.CodeInvalidArgument, "invalid order_status %q", raw).
			WithDetails(map[string]any{
				"field":   "order_status",
				"allowed": []enums.OrderStatus{
					enums.OrderStatusConfirmed,
					enums.OrderStatusShipped,
					enums.OrderStatusDelivered,
					enums.OrderStatusCancelled,
					enums.OrderStatusReturned,
				},
			})
	}
	return status, nil
}

// ParseAdminPaymentStatus accepts paid or unpaid.
func ParseAdminPaymentStatus(raw string) (enums.PaymentStatus, error) {
	status, err := enums.ParsePaymentStatus(strings.TrimSpace(raw))
	if err != nil || !status.IsAdminSettable() {
		return "", pkgerrors.Newf(pkgerrors.CodeInvalidArgument, "invalid payment_status %q", raw).
			WithDetails(map[string]any{
				"field":   "payment_status",
				"allowed": []enums.PaymentStatus{enums.PaymentStatusPaid, enums.PaymentStatusUnpaid},
			})
	}
	return status, nil
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidStateTransition, "cannot change order status from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to})
}

// ComputeTotal applies the gst rate to the line subtotal and then adds
// shipping: subtotal + subtotal*gst + shipping, rounded to cents.
func ComputeTotal(subtotal, gstRate, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Add(subtotal.Mul(gstRate)).Add(shipping).Round(2)
}
