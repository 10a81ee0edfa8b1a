package inventory

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/api/responses"
	"github.com/vivaflower/storefront-backend/api/validators"
	internalinventory "github.com/vivaflower/storefront-backend/internal/inventory"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/logger"
)

// AddIncomingRequest records a stock receipt for a product at a store.
type AddIncomingRequest struct {
	ProductID     uuid.UUID       `json:"product_id" validate:"required"`
	StoreID       uuid.UUID       `json:"store_id" validate:"required"`
	CostPrice     decimal.Decimal `json:"cost_price" validate:"gte=0"`
	QuantityIn    int             `json:"quantity_in" validate:"gt=0"`
	VAT           decimal.Decimal `json:"vat" validate:"gte=0"`
	ShippingCost  decimal.Decimal `json:"shipping_cost" validate:"gte=0"`
	EffectiveDate string          `json:"effective_date,omitempty"`
}

func AddIncoming(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload AddIncomingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var effective *time.Time
		if raw := strings.TrimSpace(payload.EffectiveDate); raw != "" {
			parsed, err := time.Parse(validators.DateLayout, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid effective_date format, expected YYYY-MM-DD").
					WithDetails(map[string]any{"field": "effective_date"}))
				return
			}
			effective = &parsed
		}

		incoming, err := svc.AddIncoming(r.Context(), internalinventory.AddIncomingInput{
			ProductID:     payload.ProductID,
			StoreID:       payload.StoreID,
			CostPrice:     payload.CostPrice,
			QuantityIn:    payload.QuantityIn,
			VAT:           payload.VAT,
			ShippingCost:  payload.ShippingCost,
			EffectiveDate: effective,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, incoming)
	}
}

// DeleteIncoming reverses a receipt whose units are still on hand.
func DeleteIncoming(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := incomingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteIncoming(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Incoming stock deleted"})
	}
}

func GetIncoming(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := incomingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		incoming, err := svc.GetIncoming(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, incoming)
	}
}

// ListIncoming pages receipts filtered by store, effective date and product name.
func ListIncoming(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dates, err := validators.ParseDayRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalinventory.IncomingFilter{
			StoreID:     storeID,
			Dates:       dates,
			ProductName: strings.TrimSpace(r.URL.Query().Get("product_name")),
		}
		page, err := svc.ListIncoming(r.Context(), filter, validators.ParsePage(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Expenditure sums cost price, VAT and shipping over matching receipts.
func Expenditure(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dates, err := validators.ParseDayRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.ExpenditureStatistics(r.Context(), internalinventory.ExpenditureFilter{StoreID: storeID, Dates: dates})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func Stock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if productID == nil || storeID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id and store_id are required"))
			return
		}
		stock, err := svc.GetStock(r.Context(), *productID, *storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

func incomingID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "incomingId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "incoming id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid incoming id")
	}
	return id, nil
}
