package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

// Repository appends and reports on product_sales. Rows are never updated.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateMany(ctx context.Context, rows []models.ProductSale) error
	List(ctx context.Context, filter Filter, page pagination.Params) ([]models.ProductSale, pagination.Window, error)
	RevenueByStore(ctx context.Context, filter Filter, page pagination.Params) ([]StoreRevenue, pagination.Window, error)
	QuantityByProduct(ctx context.Context, filter Filter, page pagination.Params) ([]ProductQuantity, pagination.Window, error)
}

// Filter narrows every sales report.
type Filter struct {
	StoreID *uuid.UUID
	Dates   dbtypes.DayRange
}

// StoreRevenue is the revenue rollup for one store.
type StoreRevenue struct {
	StoreID           uuid.UUID       `json:"store_id"`
	StoreName         string          `json:"store_name"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalQuantitySold int64           `json:"total_quantity_sold"`
}

// ProductQuantity is the units sold rollup for one product.
type ProductQuantity struct {
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	TotalQuantitySold int64     `json:"total_quantity_sold"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMany(ctx context.Context, rows []models.ProductSale) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) filtered(ctx context.Context, filter Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.ProductSale{}).
		Scopes(filter.Dates.Scope("product_sales.sale_date"))
	if filter.StoreID != nil {
		query = query.Where("product_sales.store_id = ?", *filter.StoreID)
	}
	return query
}

func (r *repository) List(ctx context.Context, filter Filter, page pagination.Params) ([]models.ProductSale, pagination.Window, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, pagination.Window{}, err
	}
	window := page.Resolve(total)

	var rows []models.ProductSale
	err := r.filtered(ctx, filter).
		Order("product_sales.sale_date DESC").
		Order("product_sales.id ASC").
		Offset(window.Offset()).
		Limit(window.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	return rows, window, nil
}

func (r *repository) RevenueByStore(ctx context.Context, filter Filter, page pagination.Params) ([]StoreRevenue, pagination.Window, error) {
	var total int64
	err := r.filtered(ctx, filter).
		Distinct("product_sales.store_id").
		Count(&total).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	window := page.Resolve(total)

	var rows []StoreRevenue
	err = r.filtered(ctx, filter).
		Select(`product_sales.store_id AS store_id,
			stores.name AS store_name,
			SUM(product_sales.sale_price * product_sales.quantity_sold) AS total_revenue,
			SUM(product_sales.quantity_sold) AS total_quantity_sold`).
		Joins("JOIN stores ON stores.id = product_sales.store_id").
		Group("product_sales.store_id, stores.name").
		Order("total_revenue DESC").
		Order("product_sales.store_id ASC").
		Offset(window.Offset()).
		Limit(window.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	for i := range rows {
		rows[i].TotalRevenue = rows[i].TotalRevenue.Round(2)
	}
	return rows, window, nil
}

func (r *repository) QuantityByProduct(ctx context.Context, filter Filter, page pagination.Params) ([]ProductQuantity, pagination.Window, error) {
	var total int64
	err := r.filtered(ctx, filter).
		Distinct("product_sales.product_id").
		Count(&total).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	window := page.Resolve(total)

	var rows []ProductQuantity
	err = r.filtered(ctx, filter).
		Select(`product_sales.product_id AS product_id,
			products.name AS product_name,
			SUM(product_sales.quantity_sold) AS total_quantity_sold`).
		Joins("JOIN products ON products.id = product_sales.product_id").
		Group("product_sales.product_id, products.name").
		Order("total_quantity_sold DESC").
		Order("product_sales.product_id ASC").
		Offset(window.Offset()).
		Limit(window.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	return rows, window, nil
}
