package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
)

// LineKey identifies a cart line by product and store.
type LineKey struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
}

// ItemRepository manages cart items once an order has been placed.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *ItemRepository) WithTx(tx *gorm.DB) *ItemRepository {
	if tx == nil {
		return r
	}
	return &ItemRepository{db: tx}
}

// RemoveOrdered deletes the guest's cart items matching any of the ordered
// (product, store) pairs and returns how many rows went away. Items for other
// pairs stay in the cart.
func (r *ItemRepository) RemoveOrdered(ctx context.Context, guestID uuid.UUID, keys []LineKey) (int64, error) {
	if guestID == uuid.Nil || len(keys) == 0 {
		return 0, nil
	}
	seen := make(map[LineKey]struct{}, len(keys))
	var removed int64
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		carts := r.db.WithContext(ctx).
			Model(&models.Cart{}).
			Select("id").
			Where("guest_id = ?", guestID)
		res := r.db.WithContext(ctx).
			Where("cart_id IN (?)", carts).
			Where("product_id = ? AND store_id = ?", key.ProductID, key.StoreID).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return removed, res.Error
		}
		removed += res.RowsAffected
	}
	return removed, nil
}
