package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wellnexa/cart-service/internal/domain"
	apperrors "github.com/wellnexa/cart-service/pkg/errors"
)

const (
	userKeyPrefix = "cart:user:"
	idKeyPrefix   = "cart:id:"
)

// CartStore implements repository.CartStore using Redis. Each cart is stored
// as a JSON document under its user key, with a secondary index mapping the
// cart ID back to the owning user so fetch-by-id works against the
// keyed-by-user layout. Carts do not expire.
type CartStore struct {
	client *redis.Client
}

// NewCartStore creates a Redis-backed cart store.
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

// ExistsByUserID reports whether a cart exists for the given user.
func (s *CartStore) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, userKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists cart: %w", err)
	}
	return n > 0, nil
}

// FindByUserID retrieves the cart owned by the given user.
func (s *CartStore) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, userKeyPrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	return unmarshalCart(data)
}

// ExistsByID reports whether a cart with the given ID exists.
func (s *CartStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, idKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists cart id: %w", err)
	}
	return n > 0, nil
}

// FindByID retrieves a cart through the cart-id index.
func (s *CartStore) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	userID, err := s.client.Get(ctx, idKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", id)
		}
		return nil, fmt.Errorf("redis get cart index: %w", err)
	}

	return s.FindByUserID(ctx, userID)
}

// Insert creates the cart unless one already exists for its user. The
// SETNX-based write makes concurrent lazy creation safe: the loser of the
// race leaves the winner's cart in place.
func (s *CartStore) Insert(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	created, err := s.client.SetNX(ctx, userKeyPrefix+cart.UserID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis insert cart: %w", err)
	}
	if !created {
		return nil
	}

	if err := s.client.Set(ctx, idKeyPrefix+cart.ID, cart.UserID, 0).Err(); err != nil {
		return fmt.Errorf("redis insert cart index: %w", err)
	}
	return nil
}

// Save persists the cart, overwriting any existing state.
func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKeyPrefix+cart.UserID, data, 0)
	pipe.Set(ctx, idKeyPrefix+cart.ID, cart.UserID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save cart: %w", err)
	}
	return nil
}

func unmarshalCart(data []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = make(map[string]domain.CartItem)
	}
	return &cart, nil
}
