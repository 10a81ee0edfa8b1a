package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/api/responses"
	"github.com/vivaflower/storefront-backend/api/validators"
	internalorders "github.com/vivaflower/storefront-backend/internal/orders"
	"github.com/vivaflower/storefront-backend/pkg/config"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/logger"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw callback body.
const SignatureHeader = "Square-Signature"

// CallbackRequest is the gateway's payment report.
type CallbackRequest struct {
	OrderID uuid.UUID       `json:"order_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"gte=0"`
	Status  string          `json:"status" validate:"required"`
}

type callbackResponse struct {
	Message string                   `json:"message"`
	Order   *internalorders.OrderDTO `json:"order"`
}

// Callback settles an order when the reported amount matches and the status is success.
// Only reports signed with the Square webhook signature key are accepted.
func Callback(svc internalorders.Service, square config.SquareConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := strings.TrimSpace(r.Header.Get(SignatureHeader))
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature missing"))
			return
		}
		if !ValidSignature(payload, square.WebhookSignatureKey, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid payment signature"))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(payload))
		var req CallbackRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithOrderID(ctx, req.OrderID.String())
		}
		order, err := svc.PaymentCallback(ctx, internalorders.PaymentCallbackInput{
			OrderID: req.OrderID,
			Amount:  req.Amount,
			Status:  req.Status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, callbackResponse{Message: "Payment successful", Order: order})
	}
}

// Sign returns the hex HMAC-SHA256 of payload under key.
func Sign(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature reports whether header is the signature of payload. An empty
// key never validates.
func ValidSignature(payload []byte, key, header string) bool {
	if header == "" || strings.TrimSpace(key) == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(payload, key)), []byte(strings.ToLower(header)))
}
