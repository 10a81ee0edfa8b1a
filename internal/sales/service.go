package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db"
	"github.com/vivaflower/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vivaflower/storefront-backend/pkg/errors"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

// uniqueOrderDetail is the constraint that keeps a line from being sold twice.
const uniqueOrderDetail = "product_sales_order_detail_key"

// Service records deliveries and serves the sales reports.
type Service interface {
	RecordDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, deliveredAt time.Time) ([]models.ProductSale, error)
	List(ctx context.Context, filter Filter, page pagination.Params) (*pagination.Page[SaleDTO], error)
	Revenue(ctx context.Context, filter Filter, page pagination.Params) (*pagination.Page[StoreRevenue], error)
	SoldProducts(ctx context.Context, filter Filter, page pagination.Params) (*pagination.Page[ProductQuantity], error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

// RecordDelivery writes one sale per order line. Each row carries the order's
// gst rate and shipping cost.
func (s *service) RecordDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, deliveredAt time.Time) ([]models.ProductSale, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required to record sales")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	rows := make([]models.ProductSale, 0, len(order.Details))
	for _, line := range order.Details {
		rows = append(rows, models.ProductSale{
			ID:            uuid.New(),
			ProductID:     line.ProductID,
			StoreID:       line.StoreID,
			OrderDetailID: line.ID,
			SalePrice:     line.UnitPrice,
			QuantitySold:  line.Quantity,
			VAT:           order.GSTAmount,
			ShippingCost:  order.ShippingCost,
			SaleDate:      deliveredAt.UTC(),
		})
	}
	if err := s.repo.WithTx(tx).CreateMany(ctx, rows); err != nil {
		if db.IsUniqueViolation(err, uniqueOrderDetail) || db.IsUniqueViolation(err, "product_sales.order_detail_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sales already recorded for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sales")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, filter Filter, page pagination.Params) (*pagination.Page[SaleDTO], error) {
	rows, window, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	items := make([]SaleDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSale(row))
	}
	result := pagination.NewPage(window, items)
	return &result, nil
}

func (s *service) Revenue(ctx context.Context, filter Filter, page pagination.Params) (*pagination.Page[StoreRevenue], error) {
	rows, window, err := s.repo.RevenueByStore(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revenue report")
	}
	result := pagination.NewPage(window, rows)
	return &result, nil
}

func (s *service) SoldProducts(ctx context.Context, filter Filter, page pagination.Params) (*pagination.Page[ProductQuantity], error) {
	rows, window, err := s.repo.QuantityByProduct(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sold products report")
	}
	result := pagination.NewPage(window, rows)
	return &result, nil
}

// SaleDTO is the API view of a product_sales row.
type SaleDTO struct {
	ID            uuid.UUID       `json:"id"`
	OrderDetailID uuid.UUID       `json:"order_detail_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	QuantitySold  int             `json:"quantity_sold"`
	VAT           decimal.Decimal `json:"vat"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	SaleDate      time.Time       `json:"sale_date"`
}

func mapSale(row models.ProductSale) SaleDTO {
	return SaleDTO{
		ID:            row.ID,
		OrderDetailID: row.OrderDetailID,
		ProductID:     row.ProductID,
		StoreID:       row.StoreID,
		SalePrice:     row.SalePrice,
		QuantitySold:  row.QuantitySold,
		VAT:           row.VAT,
		ShippingCost:  row.ShippingCost,
		SaleDate:      row.SaleDate,
	}
}
