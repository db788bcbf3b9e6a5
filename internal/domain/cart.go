package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the durable per-user collection of product line items. Items are
// keyed by product ID, which makes the one-item-per-product invariant
// structural instead of convention-based.
type Cart struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Items     map[string]CartItem `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CartItem is one product's quantity and wishlist state within a cart.
// Quantity is never negative. A wishlist item may carry a stale quantity;
// it is preserved so moving the item back out of the wishlist resumes
// unit-step adjustment from the old value.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Wishlist  bool   `json:"is_wishlist"`
}

// NewCart creates an empty cart for the given user with a generated ID.
func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     make(map[string]CartItem),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Item returns the item for the given product ID, if present.
func (c *Cart) Item(productID string) (CartItem, bool) {
	item, ok := c.Items[productID]
	return item, ok
}

// Remove deletes the item for the given product ID. Removing an absent item
// is a no-op; the returned bool reports whether anything was removed.
func (c *Cart) Remove(productID string) bool {
	if _, ok := c.Items[productID]; !ok {
		return false
	}
	delete(c.Items, productID)
	return true
}

// Clear replaces the item set with an empty one.
func (c *Cart) Clear() {
	c.Items = make(map[string]CartItem)
}

// Snapshot returns a copy of the cart with its own item map, safe to hand to
// another goroutine while the original keeps changing.
func (c *Cart) Snapshot() *Cart {
	items := make(map[string]CartItem, len(c.Items))
	for id, item := range c.Items {
		items[id] = item
	}
	clone := *c
	clone.Items = items
	return &clone
}

// WishlistItems returns a copy of the item set filtered to wishlist items.
// The cart itself is left untouched; the filter is a read-only view.
func (c *Cart) WishlistItems() map[string]CartItem {
	filtered := make(map[string]CartItem)
	for id, item := range c.Items {
		if item.Wishlist {
			filtered[id] = item
		}
	}
	return filtered
}

// PaymentStatusPending is the initial status of a payment intent created at
// checkout. Settlement happens outside this service.
const PaymentStatusPending = "PENDING"

// PaymentIntent maps a payment-provider session to a user and amount. It is
// created at checkout and never mutated by the cart core.
type PaymentIntent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
