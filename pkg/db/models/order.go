package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	"github.com/vivaflower/storefront-backend/pkg/enums"
)

// Order is a guest purchase. Recipient fields are captured at creation and never rewritten.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GuestID         *uuid.UUID          `gorm:"column:guest_id;type:uuid"`
	TotalCost       decimal.Decimal     `gorm:"column:total_cost;type:numeric(14,2);not null"`
	GSTAmount       decimal.Decimal     `gorm:"column:gst_amount;type:numeric(8,4);not null"`
	ShippingCost    decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	OrderStatus     enums.OrderStatus   `gorm:"column:order_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cash_on_delivery'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	OrderDate       time.Time           `gorm:"column:order_date;not null"`
	ShippingAddress string              `gorm:"column:shipping_address;not null"`
	RecipientPhone  string              `gorm:"column:recipient_phone;not null"`
	RecipientName   string              `gorm:"column:recipient_name;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle       dbtypes.Lifecycle   `gorm:"column:delete_at"`

	Details []OrderDetail `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderDetail is one purchased line. Product fields are snapshots taken at order time.
type OrderDetail struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	StoreID        uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	ProductCode    *string           `gorm:"column:product_code"`
	ProductName    string            `gorm:"column:product_name;not null"`
	Quantity       int               `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LocationPickup string            `gorm:"column:location_pickup;not null"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle      dbtypes.Lifecycle `gorm:"column:delete_at"`
}

func (OrderDetail) TableName() string { return "order_detail" }

func (d *OrderDetail) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// LineTotal is unit_price × quantity.
func (d OrderDetail) LineTotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}
