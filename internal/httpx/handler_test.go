package httpx_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/events"
	"github.com/rajarohan/foodiez/internal/httpx"
	"github.com/rajarohan/foodiez/internal/repository/memory"
	"github.com/rajarohan/foodiez/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/currency"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

type api struct {
	router http.Handler
	pizza  domain.MenuItem
}

func newAPI(t *testing.T) *api {
	t.Helper()

	ctx := t.Context()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := service.ClockFunc(func() time.Time { return testNow })
	pricing := domain.DefaultPricingEngine()
	store := memory.NewStore()

	numbers, err := domain.NewOrderNumberGenerator("FZ", nil)
	require.NoError(t, err)

	carts := service.NewCartService(store.Carts(), store.Catalog(), pricing, clock, log)
	orders := service.NewOrderService(store.Orders(), events.Noop{}, clock, log)
	checkout := service.NewCheckoutCoordinator(service.CheckoutDeps{
		Carts:     store.Carts(),
		Catalog:   store.Catalog(),
		Orders:    store.Orders(),
		Tx:        store.Transactor(),
		Publisher: events.Noop{},
		Numbers:   numbers,
		Clock:     clock,
	}, service.CheckoutConfig{MaxAttempts: 3, DefaultDeliveryMinutes: 45, IdempotencyTTL: time.Hour}, log)

	restaurant := domain.Restaurant{
		ID:           uuid.New(),
		Name:         "Napoli",
		Active:       true,
		Currency:     currency.USD,
		DeliveryFee:  decimal.RequireFromString("3.00"),
		MinimumOrder: decimal.RequireFromString("10.00"),
		DeliveryTime: "30-45 mins",
	}
	pizza := domain.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurant.ID,
		Name:         "Margherita",
		Price:        domain.NewMoney(decimal.RequireFromString("12.00"), currency.USD),
		Available:    true,
	}
	require.NoError(t, store.Catalog().UpsertRestaurant(ctx, restaurant))
	require.NoError(t, store.Catalog().UpsertMenuItem(ctx, pizza))
	require.NoError(t, store.Catalog().UpsertCoupon(ctx, domain.CouponDefinition{
		Coupon: domain.Coupon{Code: "SAVE10", Kind: domain.CouponKindPercentage, Value: decimal.NewFromInt(10)},
		Active: true,
	}))

	h := httpx.NewHandler(carts, orders, checkout, log)
	return &api{router: httpx.NewRouter(h, log), pizza: pizza}
}

type call struct {
	method  string
	path    string
	body    any
	role    string
	actorID string
	headers map[string]string
}

func (a *api) do(t *testing.T, c call, out any) int {
	t.Helper()

	var body io.Reader = http.NoBody
	if c.body != nil {
		b, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequestWithContext(t.Context(), c.method, c.path, body)
	if c.role != "" {
		req.Header.Set(httpx.HeaderActorRole, c.role)
		req.Header.Set(httpx.HeaderActorID, c.actorID)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func customer(method, path string, body any) call {
	return call{method: method, path: path, body: body, role: "customer", actorID: "cust-1"}
}

func admin(method, path string, body any) call {
	return call{method: method, path: path, body: body, role: "admin", actorID: "admin-1"}
}

func validCheckout() httpx.CheckoutRequest {
	return httpx.CheckoutRequest{
		DeliveryAddress: httpx.AddressDTO{Street: "1 Main St", City: "Springfield"},
		Contact:         httpx.ContactDTO{Name: "Homer", Phone: "555-0100"},
		PaymentMethod:   "card",
	}
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCartFlow(t *testing.T) {
	a := newAPI(t)

	var cart httpx.CartResponse
	code := a.do(t, customer(http.MethodGet, "/cart", nil), &cart)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, cart.Active)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "0.00", cart.Totals.Total)

	code = a.do(t, customer(http.MethodPost, "/cart/items", httpx.AddItemRequest{MenuItemID: a.pizza.ID, Quantity: 2}), &cart)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "12.00", cart.Items[0].UnitPrice)
	assert.Equal(t, httpx.TotalsDTO{
		Subtotal:    "24.00",
		DeliveryFee: "3.00",
		Tax:         "1.92",
		Discount:    "0.00",
		Total:       "28.92",
	}, cart.Totals)

	code = a.do(t, customer(http.MethodPost, "/cart/coupon", httpx.ApplyCouponRequest{Code: "save10"}), &cart)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, cart.Coupon)
	assert.Equal(t, "26.52", cart.Totals.Total)

	code = a.do(t, customer(http.MethodDelete, "/cart/coupon", nil), &cart)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, cart.Coupon)

	code = a.do(t, customer(http.MethodPatch, "/cart/items/0", httpx.UpdateQuantityRequest{Quantity: 3}), &cart)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	code = a.do(t, customer(http.MethodDelete, "/cart/items/0", nil), &cart)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, cart.Active)
	assert.Nil(t, cart.RestaurantID)
}

func TestCartErrors(t *testing.T) {
	a := newAPI(t)

	tests := []struct {
		name     string
		call     call
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing actor",
			call:     call{method: http.MethodGet, path: "/cart"},
			wantCode: http.StatusUnauthorized,
			wantErr:  "unauthenticated",
		},
		{
			name:     "admin has no cart",
			call:     admin(http.MethodGet, "/cart", nil),
			wantCode: http.StatusForbidden,
			wantErr:  "unauthorized",
		},
		{
			name:     "unknown menu item",
			call:     customer(http.MethodPost, "/cart/items", httpx.AddItemRequest{MenuItemID: uuid.New(), Quantity: 1}),
			wantCode: http.StatusNotFound,
			wantErr:  "item_not_found",
		},
		{
			name:     "zero quantity",
			call:     customer(http.MethodPost, "/cart/items", httpx.AddItemRequest{MenuItemID: a.pizza.ID, Quantity: 0}),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_input",
		},
		{
			name:     "index not a number",
			call:     customer(http.MethodDelete, "/cart/items/first", nil),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_index",
		},
		{
			name:     "index out of range",
			call:     customer(http.MethodDelete, "/cart/items/4", nil),
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "invalid_index",
		},
		{
			name:     "coupon on empty cart",
			call:     customer(http.MethodPost, "/cart/coupon", httpx.ApplyCouponRequest{Code: "SAVE10"}),
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "empty_cart",
		},
		{
			name:     "broken json",
			call:     customer(http.MethodPost, "/cart/coupon", "{"),
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp httpx.ErrorResponse
			code := a.do(t, tt.call, &resp)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	a := newAPI(t)

	code := a.do(t, customer(http.MethodPost, "/cart/items", httpx.AddItemRequest{MenuItemID: a.pizza.ID, Quantity: 2}), nil)
	require.Equal(t, http.StatusOK, code)

	checkout := customer(http.MethodPost, "/orders", validCheckout())
	checkout.headers = map[string]string{httpx.HeaderIdempotencyKey: "k-1"}

	var order httpx.OrderResponse
	code = a.do(t, checkout, &order)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "28.92", order.Totals.Total)
	assert.Equal(t, testNow.Add(45*time.Minute), order.EstimatedDeliveryAt.UTC())
	assert.Regexp(t, `^FZ\d{11}$`, order.Number)

	var replay httpx.OrderResponse
	code = a.do(t, checkout, &replay)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, order.ID, replay.ID)

	var cart httpx.CartResponse
	a.do(t, customer(http.MethodGet, "/cart", nil), &cart)
	assert.Empty(t, cart.Items, "checkout consumed the cart")

	orderPath := "/orders/" + order.ID.String()

	var byNumber httpx.OrderResponse
	code = a.do(t, customer(http.MethodGet, "/orders/number/"+order.Number, nil), &byNumber)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, order.ID, byNumber.ID)

	var modifiable httpx.ModifiableResponse
	code = a.do(t, customer(http.MethodGet, orderPath+"/modifiable", nil), &modifiable)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, modifiable.Modifiable)

	var resp httpx.ErrorResponse
	code = a.do(t, customer(http.MethodPatch, orderPath+"/status", httpx.UpdateStatusRequest{Status: "delivered"}), &resp)
	assert.Equal(t, http.StatusForbidden, code)

	code = a.do(t, admin(http.MethodPatch, orderPath+"/status", httpx.UpdateStatusRequest{Status: "teleported"}), &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid_status_transition", resp.Error)

	code = a.do(t, customer(http.MethodPost, orderPath+"/rating", httpx.RatingRequest{Food: 5, Delivery: 5, Overall: 5}), &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "not_delivered", resp.Error)

	code = a.do(t, admin(http.MethodPatch, orderPath+"/status", httpx.UpdateStatusRequest{Status: "delivered", Note: "left at door"}), &order)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, order.DeliveredAt)
	assert.Len(t, order.Timeline, 2)

	code = a.do(t, customer(http.MethodPost, orderPath+"/cancel", httpx.CancelRequest{Reason: "late"}), &resp)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "order_not_cancellable", resp.Error)

	code = a.do(t, customer(http.MethodPost, orderPath+"/rating", httpx.RatingRequest{Food: 5, Delivery: 4, Overall: 5, Review: "hot"}), &order)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, order.Rating)

	code = a.do(t, customer(http.MethodPost, orderPath+"/rating", httpx.RatingRequest{Food: 5, Delivery: 4, Overall: 5}), &resp)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_rated", resp.Error)

	code = a.do(t, admin(http.MethodPatch, orderPath+"/payment", httpx.PaymentStatusRequest{PaymentStatus: "paid"}), &order)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "paid", order.PaymentStatus)

	code = a.do(t, admin(http.MethodPost, orderPath+"/refund", map[string]any{"amount": "5.5"}), &order)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, order.RefundAmount)
	assert.Equal(t, "5.50", *order.RefundAmount)
	assert.Equal(t, "refunded", order.Status)
}

func TestOrderAccess(t *testing.T) {
	a := newAPI(t)

	a.do(t, customer(http.MethodPost, "/cart/items", httpx.AddItemRequest{MenuItemID: a.pizza.ID, Quantity: 1}), nil)
	var order httpx.OrderResponse
	require.Equal(t, http.StatusCreated, a.do(t, customer(http.MethodPost, "/orders", validCheckout()), &order))

	stranger := call{method: http.MethodGet, path: "/orders/" + order.ID.String(), role: "customer", actorID: "cust-2"}
	assert.Equal(t, http.StatusForbidden, a.do(t, stranger, nil))

	assert.Equal(t, http.StatusBadRequest, a.do(t, admin(http.MethodGet, "/orders/not-a-uuid", nil), nil))
	assert.Equal(t, http.StatusNotFound, a.do(t, admin(http.MethodGet, "/orders/"+uuid.NewString(), nil), nil))

	var mine []httpx.OrderResponse
	require.Equal(t, http.StatusOK, a.do(t, customer(http.MethodGet, "/orders", nil), &mine))
	assert.Len(t, mine, 1)

	var theirs []httpx.OrderResponse
	stranger.path = "/orders"
	require.Equal(t, http.StatusOK, a.do(t, stranger, &theirs))
	assert.Empty(t, theirs)

	var all []httpx.OrderResponse
	require.Equal(t, http.StatusOK, a.do(t, admin(http.MethodGet, "/orders?status=pending&payment_status=pending", nil), &all))
	assert.Len(t, all, 1)

	var none []httpx.OrderResponse
	require.Equal(t, http.StatusOK, a.do(t, admin(http.MethodGet, "/orders?status=delivered", nil), &none))
	assert.Empty(t, none)

	assert.Equal(t, http.StatusBadRequest, a.do(t, admin(http.MethodGet, "/orders?status=lost", nil), nil))
	assert.Equal(t, http.StatusBadRequest, a.do(t, admin(http.MethodGet, "/orders?created_after=yesterday", nil), nil))
}

func TestCheckoutErrors(t *testing.T) {
	a := newAPI(t)

	var resp httpx.ErrorResponse
	code := a.do(t, customer(http.MethodPost, "/orders", validCheckout()), &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "empty_cart", resp.Error)

	a.do(t, customer(http.MethodPost, "/cart/items", httpx.AddItemRequest{MenuItemID: a.pizza.ID, Quantity: 1}), nil)

	bad := validCheckout()
	bad.PaymentMethod = "shells"
	code = a.do(t, customer(http.MethodPost, "/orders", bad), &resp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", resp.Error)

	code = a.do(t, admin(http.MethodPost, "/orders", validCheckout()), &resp)
	assert.Equal(t, http.StatusForbidden, code)
}
