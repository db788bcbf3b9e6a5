package repository

import (
	"context"

	"github.com/wellnexa/cart-service/internal/domain"
)

// CartStore defines the persistence operations for carts. Implementations
// return an error satisfying errors.Is(err, apperrors.ErrNotFound) from the
// Find methods when no cart exists.
type CartStore interface {
	// ExistsByUserID reports whether a cart exists for the given user.
	ExistsByUserID(ctx context.Context, userID string) (bool, error)

	// FindByUserID retrieves the cart owned by the given user.
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)

	// ExistsByID reports whether a cart with the given ID exists.
	ExistsByID(ctx context.Context, id string) (bool, error)

	// FindByID retrieves a cart by its ID.
	FindByID(ctx context.Context, id string) (*domain.Cart, error)

	// Insert creates the cart if no cart exists for its user yet. Inserting
	// when one already exists is a no-op, which makes lazy creation safe to
	// race.
	Insert(ctx context.Context, cart *domain.Cart) error

	// Save persists the cart, overwriting any existing state (upsert).
	Save(ctx context.Context, cart *domain.Cart) error
}

// PaymentIntentStore persists payment intents created at checkout.
type PaymentIntentStore interface {
	// SaveIntent persists a payment intent keyed by its session ID.
	SaveIntent(ctx context.Context, intent *domain.PaymentIntent) error

	// FindIntent retrieves a payment intent by session ID.
	FindIntent(ctx context.Context, sessionID string) (*domain.PaymentIntent, error)
}
