package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
)

// Guest is a storefront customer. Orders, carts and notifications hang off it.
type Guest struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName   string            `gorm:"column:first_name;not null"`
	LastName    string            `gorm:"column:last_name;not null"`
	Email       string            `gorm:"column:email;not null;uniqueIndex"`
	PhoneNumber *string           `gorm:"column:phone_number"`
	Address     *string           `gorm:"column:address"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle   dbtypes.Lifecycle `gorm:"column:delete_at"`
}

func (Guest) TableName() string { return "guests" }

func (g *Guest) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// Product is the catalog entry priced per unit.
type Product struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      *string           `gorm:"column:code"`
	Name      string            `gorm:"column:name;not null"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle dbtypes.Lifecycle `gorm:"column:delete_at"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Store is a physical shop that holds stock and serves as pickup location.
type Store struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	PhoneNumber string            `gorm:"column:phone_number;not null"`
	Email       string            `gorm:"column:email;not null"`
	Address     string            `gorm:"column:address;not null"`
	PostalCode  *string           `gorm:"column:postal_code"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Lifecycle   dbtypes.Lifecycle `gorm:"column:delete_at"`
}

func (Store) TableName() string { return "stores" }

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
