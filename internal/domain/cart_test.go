package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCart(t *testing.T) {
	cart := NewCart("user-1")

	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, "user-1", cart.UserID)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.NotZero(t, cart.CreatedAt)
	assert.NotZero(t, cart.UpdatedAt)
}

func TestNewCart_UniqueIDs(t *testing.T) {
	a := NewCart("user-1")
	b := NewCart("user-1")

	assert.NotEqual(t, a.ID, b.ID)
}

func TestCartItem(t *testing.T) {
	cart := NewCart("user-1")
	cart.Items["prod-1"] = CartItem{ProductID: "prod-1", Quantity: 2}

	item, ok := cart.Item("prod-1")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)

	_, ok = cart.Item("prod-999")
	assert.False(t, ok)
}

func TestCartRemove(t *testing.T) {
	cart := NewCart("user-1")
	cart.Items["prod-1"] = CartItem{ProductID: "prod-1", Quantity: 2}

	assert.True(t, cart.Remove("prod-1"))
	assert.Empty(t, cart.Items)

	// Removing again is a no-op.
	assert.False(t, cart.Remove("prod-1"))
}

func TestCartClear(t *testing.T) {
	cart := NewCart("user-1")
	cart.Items["prod-1"] = CartItem{ProductID: "prod-1", Quantity: 2}
	cart.Items["prod-2"] = CartItem{ProductID: "prod-2", Quantity: 1}

	cart.Clear()

	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
}

func TestCartWishlistItems(t *testing.T) {
	cart := NewCart("user-1")
	cart.Items["prod-1"] = CartItem{ProductID: "prod-1", Quantity: 2}
	cart.Items["prod-2"] = CartItem{ProductID: "prod-2", Quantity: 0, Wishlist: true}
	cart.Items["prod-3"] = CartItem{ProductID: "prod-3", Quantity: 1, Wishlist: true}

	wishlist := cart.WishlistItems()

	assert.Len(t, wishlist, 2)
	assert.Contains(t, wishlist, "prod-2")
	assert.Contains(t, wishlist, "prod-3")

	// The cart itself is untouched.
	assert.Len(t, cart.Items, 3)
}

func TestCartWishlistItems_Empty(t *testing.T) {
	cart := NewCart("user-1")
	cart.Items["prod-1"] = CartItem{ProductID: "prod-1", Quantity: 2}

	assert.Empty(t, cart.WishlistItems())
}
