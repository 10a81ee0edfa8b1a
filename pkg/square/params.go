package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

const defaultCurrency = "USD"

// PaymentCreateParams is one e_wallet charge for an order. ReferenceID carries
// the order id so Square dashboard payments map back to orders.
type PaymentCreateParams struct {
	AmountCents    int64
	Currency       string
	LocationID     string
	SourceID       string
	IdempotencyKey string
	Note           string
	ReferenceID    string
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey string) *sq.CreatePaymentRequest {
	return &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		SourceID:       p.SourceID,
		LocationID:     optional(p.LocationID),
		AmountMoney:    orderMoney(p.AmountCents, p.Currency),
		Note:           optional(p.Note),
		ReferenceID:    optional(p.ReferenceID),
	}
}

// optional maps blank strings to an absent field.
func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// orderMoney returns nil for non-positive totals; ChargeWallet rejects those
// before building a request.
func orderMoney(cents int64, currency string) *sq.Money {
	if cents <= 0 {
		return nil
	}
	code := sq.Currency(strings.ToUpper(strings.TrimSpace(currency)))
	if code == "" {
		code = sq.Currency(defaultCurrency)
	}
	return &sq.Money{Amount: &cents, Currency: &code}
}
