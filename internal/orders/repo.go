package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/pagination"
)

// Repository persists orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (bool, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Order, pagination.Window, error)
}

// ListFilter narrows order listings. GuestID scopes a guest's own history.
type ListFilter struct {
	GuestID       *uuid.UUID
	OrderStatus   *enums.OrderStatus
	PaymentMethod *enums.PaymentMethod
	PaymentStatus *enums.PaymentStatus
	Dates         dbtypes.DayRange
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its lines.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(dbtypes.ActiveOnly("")).Order("created_at ASC").Order("id ASC")
		}).
		Scopes(dbtypes.ActiveOnly("")).
		Where("id = ?", id).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves the order from one status to another only if it is still
// in the expected status. It reports false when another writer got there first.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(dbtypes.ActiveOnly("")).
		Where("id = ? AND order_status = ?", id, from).
		Updates(map[string]any{
			"order_status": to,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(dbtypes.ActiveOnly("")).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Order, pagination.Window, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Scopes(dbtypes.ActiveOnly(""), filter.Dates.Scope("order_date"))
		if filter.GuestID != nil {
			query = query.Where("guest_id = ?", *filter.GuestID)
		}
		if filter.OrderStatus != nil {
			query = query.Where("order_status = ?", *filter.OrderStatus)
		}
		if filter.PaymentMethod != nil {
			query = query.Where("payment_method = ?", *filter.PaymentMethod)
		}
		if filter.PaymentStatus != nil {
			query = query.Where("payment_status = ?", *filter.PaymentStatus)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, pagination.Window{}, err
	}
	window := page.Resolve(total)

	var rows []models.Order
	err := scoped().
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(dbtypes.ActiveOnly("")).Order("created_at ASC").Order("id ASC")
		}).
		Order("order_date DESC").
		Order("id ASC").
		Offset(window.Offset()).
		Limit(window.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, pagination.Window{}, err
	}
	return rows, window, nil
}
