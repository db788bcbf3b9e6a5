package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/wellnexa/cart-service/internal/client"
	"github.com/wellnexa/cart-service/internal/domain"
	"github.com/wellnexa/cart-service/internal/repository"
	apperrors "github.com/wellnexa/cart-service/pkg/errors"
)

// SessionCreator opens checkout sessions. Satisfied by client.PaymentClient.
type SessionCreator interface {
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*client.Session, error)
}

// CheckoutView is the response returned when a checkout session is opened.
type CheckoutView struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Amount      int64  `json:"amount"`
}

// PaymentService opens checkout sessions for a user's cart and records the
// resulting payment intent.
type PaymentService struct {
	carts      *CartService
	payments   SessionCreator
	intents    repository.PaymentIntentStore
	successURL string
	cancelURL  string
	logger     *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	carts *CartService,
	payments SessionCreator,
	intents repository.PaymentIntentStore,
	successURL, cancelURL string,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		carts:      carts,
		payments:   payments,
		intents:    intents,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     logger,
	}
}

// CreateCheckoutSession opens a checkout session for the purchasable items in
// the user's cart. Wishlist items are saved-for-later and are excluded from
// the charged amount.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID string) (*CheckoutView, error) {
	view, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	var amount int64
	for _, item := range view.Items {
		if !item.Wishlist {
			amount += item.Amount
		}
	}
	if amount <= 0 {
		return nil, apperrors.InvalidInput("cart has no purchasable items")
	}

	session, err := s.payments.CreateSession(ctx, client.CreateSessionRequest{
		UserID:      userID,
		Amount:      amount,
		Currency:    "usd",
		Description: "cart checkout",
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session creation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("payment processing failed", err)
	}

	intent := &domain.PaymentIntent{
		SessionID: session.SessionID,
		UserID:    userID,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.intents.SaveIntent(ctx, intent); err != nil {
		// The provider session exists either way; record the failure and
		// let the caller proceed to the checkout URL.
		s.logger.ErrorContext(ctx, "payment intent save failed",
			slog.String("session_id", session.SessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("user_id", userID),
		slog.String("session_id", session.SessionID),
		slog.Int64("amount", amount),
	)

	return &CheckoutView{
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
		Amount:      amount,
	}, nil
}
