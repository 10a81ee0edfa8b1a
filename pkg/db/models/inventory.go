package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
)

// ProductStore is the stock ledger of one product at one store.
type ProductStore struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	StoreID        uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	QuantityIn     int               `gorm:"column:quantity_in;not null;default:0"`
	RemainingStock int               `gorm:"column:remaining_stock;not null;default:0"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle      dbtypes.Lifecycle `gorm:"column:delete_at"`
}

func (ProductStore) TableName() string { return "product_store" }

func (p *ProductStore) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductIncoming records a goods receipt that increased a ProductStore.
type ProductIncoming struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	StoreID       uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	CostPrice     decimal.Decimal   `gorm:"column:cost_price;type:numeric(12,2);not null"`
	QuantityIn    int               `gorm:"column:quantity_in;not null"`
	VAT           decimal.Decimal   `gorm:"column:vat;type:numeric(12,2);not null;default:0"`
	ShippingCost  decimal.Decimal   `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	EffectiveDate time.Time         `gorm:"column:effective_date;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle     dbtypes.Lifecycle `gorm:"column:delete_at"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (ProductIncoming) TableName() string { return "product_incomings" }

func (p *ProductIncoming) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
