package guests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	dbtypes "github.com/vivaflower/storefront-backend/pkg/db/types"
)

// Repository reads guest records. Guests are managed elsewhere; this module only resolves them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
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

// FindByID returns gorm.ErrRecordNotFound for missing or soft-deleted guests.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	var guest models.Guest
	err := r.db.WithContext(ctx).
		Scopes(dbtypes.ActiveOnly("")).
		Where("id = ?", id).
		Take(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}
