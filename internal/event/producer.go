package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wellnexa/cart-service/internal/domain"
	pkgkafka "github.com/wellnexa/cart-service/pkg/kafka"
)

// Kafka topics for cart domain events.
const (
	TopicCartUpdated = "shop.cart.updated"
	TopicCartCleared = "shop.cart.cleared"
)

const (
	aggregateTypeCart = "cart"
	sourceCartService = "cart-service"
)

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID    string         `json:"cart_id"`
	UserID    string         `json:"user_id"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Wishlist  bool   `json:"is_wishlist"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the cart service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event for the given cart.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, 0, len(cart.Items))
	count := 0
	for _, item := range cart.Items {
		items = append(items, CartItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Wishlist:  item.Wishlist,
		})
		count += item.Quantity
	}

	data := CartUpdatedData{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		ItemCount: count,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.UserID, aggregateTypeCart, sourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID),
		slog.String("user_id", cart.UserID),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cart *domain.Cart) error {
	data := CartClearedData{CartID: cart.ID, UserID: cart.UserID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, cart.UserID, aggregateTypeCart, sourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("cart_id", cart.ID),
	)

	return nil
}
