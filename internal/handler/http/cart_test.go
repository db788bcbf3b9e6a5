package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wellnexa/cart-service/internal/client"
	"github.com/wellnexa/cart-service/internal/domain"
	"github.com/wellnexa/cart-service/internal/event"
	"github.com/wellnexa/cart-service/internal/service"
	apperrors "github.com/wellnexa/cart-service/pkg/errors"
	"github.com/wellnexa/cart-service/pkg/httputil"
	pkgkafka "github.com/wellnexa/cart-service/pkg/kafka"
)

// ============================================================================
// Mocks
// ============================================================================

type mockCartStore struct {
	mock.Mock
}

func (m *mockCartStore) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartStore) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartStore) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartStore) Insert(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartStore) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

type mockUserLookup struct {
	mock.Mock
}

func (m *mockUserLookup) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type mockProductLookup struct {
	mock.Mock
}

func (m *mockProductLookup) GetByID(ctx context.Context, productID string) (*client.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Product), args.Error(1)
}

type mockSessionCreator struct {
	mock.Mock
}

func (m *mockSessionCreator) CreateSession(ctx context.Context, req client.CreateSessionRequest) (*client.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Session), args.Error(1)
}

type mockIntentStore struct {
	mock.Mock
}

func (m *mockIntentStore) SaveIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *mockIntentStore) FindIntent(ctx context.Context, sessionID string) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

type noopWriteback struct {
	mu    sync.Mutex
	count int
}

func (n *noopWriteback) Schedule(cart *domain.Cart) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

// ============================================================================
// Test helpers
// ============================================================================

type handlerDeps struct {
	store    *mockCartStore
	users    *mockUserLookup
	products *mockProductLookup
	sessions *mockSessionCreator
	intents  *mockIntentStore
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func testCartHandler(t *testing.T) (*CartHandler, *handlerDeps) {
	t.Helper()
	logger := testLogger()
	deps := &handlerDeps{
		store:    new(mockCartStore),
		users:    new(mockUserLookup),
		products: new(mockProductLookup),
		sessions: new(mockSessionCreator),
		intents:  new(mockIntentStore),
	}
	carts := service.NewCartService(deps.store, deps.users, deps.products, &noopWriteback{}, testEventProducer(), logger)
	payments := service.NewPaymentService(carts, deps.sessions, deps.intents,
		"https://shop.example.com/success", "https://shop.example.com/cancel", logger)
	return NewCartHandler(carts, payments, logger), deps
}

// setupCartRouter creates a chi router matching the production route layout,
// including the UserIDFromHeader and ContentTypeJSON middleware so that auth
// behavior is tested end-to-end.
func setupCartRouter(handler *CartHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(CORS)
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(UserIDFromHeader)

		r.Get("/", handler.ListItems)
		r.Get("/wishlist", handler.ListWaitlist)

		r.Post("/items", handler.AddItem)
		r.Delete("/items/{productId}", handler.RemoveItem)
		r.Delete("/wishlist/{productId}", handler.RemoveWishlistItem)

		r.Post("/checkout", handler.Checkout)

		r.Get("/{cartId}", handler.GetCartByID)
		r.Delete("/{cartId}", handler.ClearCart)
	})
	return r
}

// decodeResponse reads the response body into the standard Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func sampleCart() *domain.Cart {
	cart := domain.NewCart("user-123")
	cart.Items["prod-1"] = domain.CartItem{ProductID: "prod-1", Quantity: 2}
	return cart
}

func widget() *client.Product {
	return &client.Product{ID: "prod-1", Name: "Widget", Price: 1990, Category: "tools"}
}

func stubUserCart(deps *handlerDeps, cart *domain.Cart) {
	deps.users.On("Exists", mock.Anything, cart.UserID).Return(true, nil)
	deps.store.On("ExistsByUserID", mock.Anything, cart.UserID).Return(true, nil)
	deps.store.On("FindByUserID", mock.Anything, cart.UserID).Return(cart, nil)
}

// ============================================================================
// GET /api/v1/cart - ListItems
// ============================================================================

func TestListItems_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := sampleCart()
	stubUserCart(deps, cart)
	deps.products.On("GetByID", mock.Anything, "prod-1").Return(widget(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)

	data := resp.Data.(map[string]any)
	assert.Equal(t, cart.ID, data["cart_id"])
	assert.Equal(t, "user-123", data["user_id"])
	assert.Equal(t, float64(2), data["total_items"])
	assert.Equal(t, float64(3980), data["subtotal"])
}

func TestListItems_MissingUserHeader(t *testing.T) {
	handler, _ := testCartHandler(t)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestListItems_UnknownUser(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	deps.users.On("Exists", mock.Anything, "user-999").Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "user-999")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// GET /api/v1/cart/wishlist - ListWaitlist
// ============================================================================

func TestListWaitlist_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := domain.NewCart("user-123")
	cart.Items["prod-1"] = domain.CartItem{ProductID: "prod-1", Quantity: 2}
	cart.Items["prod-2"] = domain.CartItem{ProductID: "prod-2", Quantity: 0, Wishlist: true}
	stubUserCart(deps, cart)
	deps.products.On("GetByID", mock.Anything, "prod-2").Return(&client.Product{ID: "prod-2", Name: "Gadget", Price: 500}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/wishlist", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "prod-2", item["product_id"])
	assert.Equal(t, true, item["is_wishlist"])
}

// ============================================================================
// POST /api/v1/cart/items - AddItem
// ============================================================================

func TestAddItem_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	stubUserCart(deps, sampleCart())
	deps.products.On("GetByID", mock.Anything, "prod-2").Return(&client.Product{ID: "prod-2", Name: "Gadget", Price: 500}, nil)

	body, _ := json.Marshal(AddItemRequest{ProductID: "prod-2", Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "prod-2", data["product_id"])
	assert.Equal(t, float64(1), data["quantity"])
	assert.Equal(t, false, data["is_wishlist"])
}

func TestAddItem_MissingProductID(t *testing.T) {
	handler, _ := testCartHandler(t)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(`{"quantity":1}`)))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "ProductID")
}

func TestAddItem_InvalidBody(t *testing.T) {
	handler, _ := testCartHandler(t)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_WrongContentType(t *testing.T) {
	handler, _ := testCartHandler(t)
	router := setupCartRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(`product_id=prod-1`)))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	deps.users.On("Exists", mock.Anything, "user-123").Return(true, nil)
	deps.products.On("GetByID", mock.Anything, "prod-999").Return(nil, nil)

	body, _ := json.Marshal(AddItemRequest{ProductID: "prod-999", Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// DELETE /api/v1/cart/items/{productId} - RemoveItem
// ============================================================================

func TestRemoveItem_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := sampleCart()
	deps.store.On("ExistsByUserID", mock.Anything, "user-123").Return(true, nil)
	deps.store.On("FindByUserID", mock.Anything, "user-123").Return(cart, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/prod-1", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cart.Items)
}

func TestRemoveItem_NoCart(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	deps.store.On("ExistsByUserID", mock.Anything, "user-123").Return(false, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/prod-1", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// DELETE /api/v1/cart/wishlist/{productId} - RemoveWishlistItem
// ============================================================================

func TestRemoveWishlistItem_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := domain.NewCart("user-123")
	cart.Items["prod-1"] = domain.CartItem{ProductID: "prod-1", Quantity: 2, Wishlist: true}
	deps.store.On("ExistsByUserID", mock.Anything, "user-123").Return(true, nil)
	deps.store.On("FindByUserID", mock.Anything, "user-123").Return(cart, nil)
	deps.store.On("Save", mock.Anything, cart).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/wishlist/prod-1", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, cart.Items["prod-1"].Wishlist)
}

func TestRemoveWishlistItem_NotWishlisted(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := sampleCart()
	deps.store.On("ExistsByUserID", mock.Anything, "user-123").Return(true, nil)
	deps.store.On("FindByUserID", mock.Anything, "user-123").Return(cart, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/wishlist/prod-1", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// GET /api/v1/cart/{cartId} - GetCartByID
// ============================================================================

func TestGetCartByID_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := sampleCart()
	deps.store.On("FindByID", mock.Anything, cart.ID).Return(cart, nil)
	deps.products.On("GetByID", mock.Anything, "prod-1").Return(widget(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/"+cart.ID, nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, cart.ID, data["cart_id"])
}

func TestGetCartByID_NotFound(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	deps.store.On("FindByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("cart", "missing"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/missing", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// DELETE /api/v1/cart/{cartId} - ClearCart
// ============================================================================

func TestClearCart_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	cart := sampleCart()
	deps.store.On("ExistsByID", mock.Anything, cart.ID).Return(true, nil)
	deps.store.On("FindByID", mock.Anything, cart.ID).Return(cart, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/"+cart.ID, nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cart.Items)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "cleared", data["status"])
}

func TestClearCart_NotFound(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	deps.store.On("ExistsByID", mock.Anything, "missing").Return(false, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/missing", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// POST /api/v1/cart/checkout - Checkout
// ============================================================================

func TestCheckout_Success(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	stubUserCart(deps, sampleCart())
	deps.products.On("GetByID", mock.Anything, "prod-1").Return(widget(), nil)
	deps.sessions.On("CreateSession", mock.Anything, mock.Anything).
		Return(&client.Session{SessionID: "sess-1", CheckoutURL: "https://pay.example.com/sess-1"}, nil)
	deps.intents.On("SaveIntent", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "sess-1", data["session_id"])
	assert.Equal(t, "https://pay.example.com/sess-1", data["checkout_url"])
	assert.Equal(t, float64(3980), data["amount"])
}

func TestCheckout_EmptyCart(t *testing.T) {
	handler, deps := testCartHandler(t)
	router := setupCartRouter(handler)

	stubUserCart(deps, domain.NewCart("user-123"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	req.Header.Set("X-User-ID", "user-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
