package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/wellnexa/cart-service/internal/client"
	"github.com/wellnexa/cart-service/internal/domain"
	"github.com/wellnexa/cart-service/internal/event"
	"github.com/wellnexa/cart-service/internal/repository"
	apperrors "github.com/wellnexa/cart-service/pkg/errors"
)

// UserLookup checks whether a user exists. Satisfied by client.UserClient.
type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// ProductLookup fetches live product data. Satisfied by client.ProductClient.
// An absent product is (nil, nil).
type ProductLookup interface {
	GetByID(ctx context.Context, productID string) (*client.Product, error)
}

// WritebackScheduler enqueues an asynchronous durable upsert of a cart.
// Satisfied by worker.Scheduler.
type WritebackScheduler interface {
	Schedule(cart *domain.Cart)
}

// AddItemInput holds the parameters for adding or updating a cart item.
// Quantity is a direction signal only; its magnitude is ignored.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
	Wishlist  bool   `json:"is_wishlist"`
}

// CartView is the enriched projection of a cart returned to callers.
type CartView struct {
	CartID     string     `json:"cart_id"`
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"total_items"`
	Subtotal   int64      `json:"subtotal"`
}

// LineItem is one cart item joined with live product data. Amount and
// Subtotal are in cents.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	ImageURL  string `json:"image_url,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Wishlist  bool   `json:"is_wishlist"`
	Amount    int64  `json:"amount"`
}

// CartService orchestrates cart mutations and projections. Mutations touch
// the in-memory cart first and hand persistence to the write-back scheduler,
// so callers must treat the returned state as authoritative and durable reads
// as eventually consistent.
type CartService struct {
	store     repository.CartStore
	users     UserLookup
	products  ProductLookup
	writeback WritebackScheduler
	producer  *event.Producer
	logger    *slog.Logger

	// mu serializes the fetch-mutate sequence for all cart mutations
	// process-wide. Coarse, but it guarantees no lost updates between
	// concurrent merges against the same cart.
	mu sync.Mutex
}

// NewCartService creates a new cart service.
func NewCartService(
	store repository.CartStore,
	users UserLookup,
	products ProductLookup,
	writeback WritebackScheduler,
	producer *event.Producer,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		store:     store,
		users:     users,
		products:  products,
		writeback: writeback,
		producer:  producer,
		logger:    logger,
	}
}

// AddOrUpdateItem validates the user and product, merges the request into the
// user's cart (creating the cart on first touch), schedules an asynchronous
// write-back, and returns the touched item. The returned item reflects the
// in-memory state; durable storage may lag behind.
func (s *CartService) AddOrUpdateItem(ctx context.Context, userID string, input AddItemInput) (*domain.CartItem, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "user lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("unable to add item to cart", err)
	}
	if !exists {
		return nil, apperrors.NotFound("user", userID)
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		s.logger.ErrorContext(ctx, "product lookup failed",
			slog.String("product_id", input.ProductID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("unable to add item to cart", err)
	}
	if product == nil {
		return nil, apperrors.NotFound("product", input.ProductID)
	}

	touched, snapshot, err := s.applyMerge(ctx, userID, domain.ItemRequest{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Wishlist:  input.Wishlist,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "cart merge failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("unable to add item to cart", err)
	}

	s.writeback.Schedule(snapshot)
	s.publishUpdated(ctx, snapshot)

	s.logger.InfoContext(ctx, "cart item merged",
		slog.String("user_id", userID),
		slog.String("product_id", touched.ProductID),
		slog.Int("quantity", touched.Quantity),
		slog.Bool("wishlist", touched.Wishlist),
	)

	return &touched, nil
}

// applyMerge runs fetch, merge, and snapshot inside the critical section. The
// snapshot is what leaves the lock; the live cart never escapes it.
func (s *CartService) applyMerge(ctx context.Context, userID string, req domain.ItemRequest) (domain.CartItem, *domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return domain.CartItem{}, nil, err
	}

	touched := domain.Merge(cart.Items, req)
	cart.UpdatedAt = time.Now().UTC()

	return touched, cart.Snapshot(), nil
}

// ListItems returns the enriched view of all items in the user's cart,
// wishlist and purchase items alike. The cart is created lazily if absent.
func (s *CartService) ListItems(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, cart, cart.Items)
}

// ListWaitlist returns the enriched view of the user's wishlist items only.
// The filter is read-only; the stored cart is never written back.
func (s *CartService) ListWaitlist(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, cart, cart.WishlistItems())
}

// RemoveItem removes the item with the given product ID from the user's cart
// and schedules a write-back. Removing an item that is not in the cart is not
// an error; a missing cart is.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	snapshot, err := func() (*domain.Cart, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		exists, err := s.store.ExistsByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NotFoundMsg("no cart found for user " + userID)
		}

		cart, err := s.store.FindByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		cart.Remove(productID)
		cart.UpdatedAt = time.Now().UTC()
		return cart.Snapshot(), nil
	}()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "cart fetch failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return apperrors.OperationFailed("unable to remove item from cart", err)
	}

	s.writeback.Schedule(snapshot)
	s.publishUpdated(ctx, snapshot)

	s.logger.InfoContext(ctx, "cart item removed",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return nil
}

// RemoveWishlistItem moves an item out of the wishlist back into the
// purchase set. The item must exist and currently be wishlisted. Unlike the
// other mutations this persists synchronously and surfaces the write error.
func (s *CartService) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	snapshot, err := func() (*domain.Cart, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		exists, err := s.store.ExistsByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NotFoundMsg("no cart found for user " + userID)
		}

		cart, err := s.store.FindByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		item, ok := cart.Item(productID)
		if !ok || !item.Wishlist {
			return nil, apperrors.NotFoundMsg("wishlist item not found: " + productID)
		}

		item.Wishlist = false
		cart.Items[productID] = item
		cart.UpdatedAt = time.Now().UTC()

		if err := s.store.Save(ctx, cart); err != nil {
			return nil, err
		}
		return cart.Snapshot(), nil
	}()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "wishlist item move failed",
			slog.String("user_id", userID),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return apperrors.OperationFailed("unable to remove item from wishlist", err)
	}

	s.publishUpdated(ctx, snapshot)

	s.logger.InfoContext(ctx, "wishlist item moved to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return nil
}

// GetCartByID returns the enriched view of the cart with the given ID. An
// unknown ID fails with NotFound rather than projecting an absent cart.
func (s *CartService) GetCartByID(ctx context.Context, cartID string) (*CartView, error) {
	cart, err := s.store.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMsg("no cart found for id " + cartID)
		}
		s.logger.ErrorContext(ctx, "cart fetch failed",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("unable to find cart", err)
	}

	return s.project(ctx, cart, cart.Items)
}

// ClearCart empties the cart with the given ID and schedules a write-back.
func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	snapshot, err := func() (*domain.Cart, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		exists, err := s.store.ExistsByID(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NotFoundMsg("no cart found for id " + cartID)
		}

		cart, err := s.store.FindByID(ctx, cartID)
		if err != nil {
			return nil, err
		}

		cart.Clear()
		cart.UpdatedAt = time.Now().UTC()
		return cart.Snapshot(), nil
	}()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "cart fetch failed",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
		return apperrors.OperationFailed("unable to clear cart", err)
	}

	s.writeback.Schedule(snapshot)
	s.publishCleared(ctx, snapshot)

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("cart_id", cartID),
	)

	return nil
}

// cartForUser validates the user and returns their cart, creating it lazily.
func (s *CartService) cartForUser(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "user lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("unable to find cart", err)
	}
	if !exists {
		return nil, apperrors.NotFound("user", userID)
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "cart fetch failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OperationFailed("unable to find cart", err)
	}
	return cart, nil
}

// getOrCreateCart fetches the user's cart, inserting an empty one first if
// the user has never touched their cart. Insert is race-safe, so two
// concurrent first touches converge on one cart.
func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	exists, err := s.store.ExistsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.store.Insert(ctx, domain.NewCart(userID)); err != nil {
			return nil, err
		}
	}
	return s.store.FindByUserID(ctx, userID)
}

// project joins the given items with live product data and computes totals.
// One product lookup per line item; fine for small carts, a known scaling
// constraint for large ones.
func (s *CartService) project(ctx context.Context, cart *domain.Cart, items map[string]domain.CartItem) (*CartView, error) {
	view := &CartView{
		CartID: cart.ID,
		UserID: cart.UserID,
		Items:  make([]LineItem, 0, len(items)),
	}

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		item := items[id]

		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			s.logger.ErrorContext(ctx, "product lookup failed",
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()),
			)
			return nil, apperrors.OperationFailed("unable to find cart", err)
		}
		if product == nil {
			// The catalog no longer knows this product; the stored item
			// is unrenderable.
			s.logger.ErrorContext(ctx, "cart references unknown product",
				slog.String("cart_id", cart.ID),
				slog.String("product_id", item.ProductID),
			)
			return nil, apperrors.OperationFailed("unable to find cart", apperrors.ErrNotFound)
		}

		amount := product.Price * int64(item.Quantity)
		view.Items = append(view.Items, LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			ImageURL:  product.ImageURL,
			Price:     product.Price,
			Quantity:  item.Quantity,
			Wishlist:  item.Wishlist,
			Amount:    amount,
		})
		view.TotalItems += item.Quantity
		view.Subtotal += amount
	}

	return view, nil
}

func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) publishCleared(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartCleared(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}
}
