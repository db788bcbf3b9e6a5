package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wellnexa/cart-service/internal/domain"
	apperrors "github.com/wellnexa/cart-service/pkg/errors"
)

const intentKeyPrefix = "payment:intent:"

// PaymentIntentStore implements repository.PaymentIntentStore using Redis.
type PaymentIntentStore struct {
	client *redis.Client
}

// NewPaymentIntentStore creates a Redis-backed payment intent store.
func NewPaymentIntentStore(client *redis.Client) *PaymentIntentStore {
	return &PaymentIntentStore{client: client}
}

// SaveIntent persists a payment intent keyed by its session ID.
func (s *PaymentIntentStore) SaveIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal payment intent: %w", err)
	}

	if err := s.client.Set(ctx, intentKeyPrefix+intent.SessionID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis save payment intent: %w", err)
	}
	return nil
}

// FindIntent retrieves a payment intent by session ID.
func (s *PaymentIntentStore) FindIntent(ctx context.Context, sessionID string) (*domain.PaymentIntent, error) {
	data, err := s.client.Get(ctx, intentKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("payment intent", sessionID)
		}
		return nil, fmt.Errorf("redis get payment intent: %w", err)
	}

	var intent domain.PaymentIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("unmarshal payment intent: %w", err)
	}
	return &intent, nil
}
