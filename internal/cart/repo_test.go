package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vivaflower/storefront-backend/pkg/db/dbtest"
	"github.com/vivaflower/storefront-backend/pkg/db/models"
)

func TestRemoveOrderedKeepsUnrelatedItems(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	guest := dbtest.SeedGuest(t, conn, "mai@example.com")
	other := dbtest.SeedGuest(t, conn, "other@example.com")
	storeA := dbtest.SeedStore(t, conn, "District One")
	storeB := dbtest.SeedStore(t, conn, "District Three")
	rose := dbtest.SeedProduct(t, conn, "Rose", "10.00")
	lily := dbtest.SeedProduct(t, conn, "Lily", "12.00")

	cart := models.Cart{GuestID: guest.ID}
	require.NoError(t, conn.Create(&cart).Error)
	otherCart := models.Cart{GuestID: other.ID}
	require.NoError(t, conn.Create(&otherCart).Error)

	items := []models.CartItem{
		{CartID: cart.ID, ProductID: rose.ID, StoreID: storeA.ID, Quantity: 2},
		{CartID: cart.ID, ProductID: rose.ID, StoreID: storeB.ID, Quantity: 1},
		{CartID: cart.ID, ProductID: lily.ID, StoreID: storeA.ID, Quantity: 3},
		{CartID: otherCart.ID, ProductID: rose.ID, StoreID: storeA.ID, Quantity: 1},
	}
	require.NoError(t, conn.Create(&items).Error)

	removed, err := NewItemRepository(conn).RemoveOrdered(ctx, guest.ID, []LineKey{
		{ProductID: rose.ID, StoreID: storeA.ID},
		{ProductID: rose.ID, StoreID: storeA.ID},
		{ProductID: lily.ID, StoreID: storeA.ID},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	var left []models.CartItem
	require.NoError(t, conn.Order("quantity").Find(&left).Error)
	require.Len(t, left, 2)
	for _, item := range left {
		if item.CartID == cart.ID {
			require.Equal(t, storeB.ID, item.StoreID)
		} else {
			require.Equal(t, otherCart.ID, item.CartID)
		}
	}
}

func TestRemoveOrderedNoop(t *testing.T) {
	conn := dbtest.Open(t)
	removed, err := NewItemRepository(conn).RemoveOrdered(context.Background(), uuid.Nil, []LineKey{{}})
	require.NoError(t, err)
	require.Zero(t, removed)

	removed, err = NewItemRepository(conn).RemoveOrdered(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	require.Zero(t, removed)
}
