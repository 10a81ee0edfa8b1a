package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
)

// IncomingDTO is the API view of a goods receipt.
type IncomingDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	StoreID       uuid.UUID       `json:"store_id"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	QuantityIn    int             `json:"quantity_in"`
	VAT           decimal.Decimal `json:"vat"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	EffectiveDate time.Time       `json:"effective_date"`
	CreatedAt     time.Time       `json:"created_at"`
	Stock         *StockDTO       `json:"stock,omitempty"`
}

// StockDTO is the API view of a product_store row.
type StockDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	StoreID        uuid.UUID `json:"store_id"`
	QuantityIn     int       `json:"quantity_in"`
	RemainingStock int       `json:"remaining_stock"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExpenditureDTO reports spend on incoming stock.
type ExpenditureDTO struct {
	TotalExpenditure decimal.Decimal `json:"total_expenditure"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	VAT              decimal.Decimal `json:"vat"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
}

func mapIncoming(row models.ProductIncoming) IncomingDTO {
	dto := IncomingDTO{
		ID:            row.ID,
		ProductID:     row.ProductID,
		StoreID:       row.StoreID,
		CostPrice:     row.CostPrice,
		QuantityIn:    row.QuantityIn,
		VAT:           row.VAT,
		ShippingCost:  row.ShippingCost,
		EffectiveDate: row.EffectiveDate,
		CreatedAt:     row.CreatedAt,
	}
	if row.Product != nil {
		dto.ProductName = row.Product.Name
	}
	return dto
}

func mapStock(row models.ProductStore) *StockDTO {
	return &StockDTO{
		ID:             row.ID,
		ProductID:      row.ProductID,
		StoreID:        row.StoreID,
		QuantityIn:     row.QuantityIn,
		RemainingStock: row.RemainingStock,
		UpdatedAt:      row.UpdatedAt,
	}
}
