package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductSale is an append-only fact row written once per delivered order line.
type ProductSale struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	StoreID       uuid.UUID       `gorm:"column:store_id;type:uuid;not null"`
	OrderDetailID uuid.UUID       `gorm:"column:order_detail_id;type:uuid;not null;uniqueIndex"`
	SalePrice     decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	QuantitySold  int             `gorm:"column:quantity_sold;not null"`
	VAT           decimal.Decimal `gorm:"column:vat;type:numeric(12,4);not null;default:0"`
	ShippingCost  decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	SaleDate      time.Time       `gorm:"column:sale_date;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ProductSale) TableName() string { return "product_sales" }

func (s *ProductSale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
