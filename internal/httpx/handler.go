package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/service"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetOrCreate(ctx context.Context, actor domain.Actor) (domain.Cart, error)
	AddItem(ctx context.Context, actor domain.Actor, req service.AddItemRequest) (domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, actor domain.Actor, index, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, actor domain.Actor, index int) (domain.Cart, error)
	ApplyCoupon(ctx context.Context, actor domain.Actor, code string) (domain.Cart, error)
	RemoveCoupon(ctx context.Context, actor domain.Actor) (domain.Cart, error)
	Clear(ctx context.Context, actor domain.Actor) (domain.Cart, error)
}

type OrderService interface {
	Get(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (domain.Order, error)
	GetByNumber(ctx context.Context, actor domain.Actor, number string) (domain.Order, error)
	List(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID, status, note string) (domain.Order, error)
	SetPaymentStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID, status string) (domain.Order, error)
	Cancel(ctx context.Context, actor domain.Actor, orderID uuid.UUID, reason string) (domain.Order, error)
	ProcessRefund(ctx context.Context, actor domain.Actor, orderID uuid.UUID, amount decimal.Decimal) (domain.Order, error)
	AddRating(ctx context.Context, actor domain.Actor, orderID uuid.UUID, in domain.RatingInput) (domain.Order, error)
	CanBeModified(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (bool, error)
}

type Checkout interface {
	PlaceOrder(ctx context.Context, actor domain.Actor, req service.PlaceOrderRequest) (domain.Order, error)
}

// Handler translates HTTP requests into cart, order and checkout operations.
type Handler struct {
	carts    CartService
	orders   OrderService
	checkout Checkout
	log      *slog.Logger
	timeout  time.Duration
}

func NewHandler(carts CartService, orders OrderService, checkout Checkout, log *slog.Logger) *Handler {
	return &Handler{
		carts:    carts,
		orders:   orders,
		checkout: checkout,
		log:      log,
		timeout:  5 * time.Second,
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.GetOrCreate(ctx, actor)
	})
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decode(w, r, &req) {
		return
	}

	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.AddItem(ctx, actor, service.AddItemRequest{
			MenuItemID: req.MenuItemID,
			Quantity:   req.Quantity,
			Customizations: lo.Map(req.Customizations, func(c CustomizationDTO, _ int) domain.Customization {
				return domain.Customization{Name: c.Name, Choice: c.Choice}
			}),
			Instructions: req.SpecialInstructions,
		})
	})
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if !decode(w, r, &req) {
		return
	}

	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.UpdateItemQuantity(ctx, actor, index, req.Quantity)
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.RemoveItem(ctx, actor, index)
	})
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if !decode(w, r, &req) {
		return
	}

	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.ApplyCoupon(ctx, actor, req.Code)
	})
}

func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.RemoveCoupon(ctx, actor)
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
		return h.carts.Clear(ctx, actor)
	})
}

// PlaceOrder checks out the caller's cart. X-Idempotency-Key makes retries safe.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decode(w, r, &req) {
		return
	}

	h.orderAction(w, r, http.StatusCreated, func(ctx context.Context, actor domain.Actor) (domain.Order, error) {
		return h.checkout.PlaceOrder(ctx, actor, service.PlaceOrderRequest{
			DeliveryAddress:     req.address(),
			Contact:             req.contact(),
			PaymentMethod:       req.PaymentMethod,
			SpecialInstructions: req.SpecialInstructions,
			IdempotencyKey:      r.Header.Get(HeaderIdempotencyKey),
		})
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.List(ctx, ActorFrom(ctx), filter)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) OrderResponse { return mapOrder(o) }))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.orderByID(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error) {
		return h.orders.Get(ctx, actor, id)
	})
}

func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	h.orderAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Order, error) {
		return h.orders.GetByNumber(ctx, actor, number)
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decode(w, r, &req) {
		return
	}

	h.orderByID(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error) {
		return h.orders.UpdateStatus(ctx, actor, id, req.Status, req.Note)
	})
}

func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req PaymentStatusRequest
	if !decode(w, r, &req) {
		return
	}

	h.orderByID(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error) {
		return h.orders.SetPaymentStatus(ctx, actor, id, req.PaymentStatus)
	})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !decode(w, r, &req) {
		return
	}

	h.orderByID(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error) {
		return h.orders.Cancel(ctx, actor, id, req.Reason)
	})
}

func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if !decode(w, r, &req) {
		return
	}

	h.orderByID(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error) {
		return h.orders.ProcessRefund(ctx, actor, id, req.Amount)
	})
}

func (h *Handler) RateOrder(w http.ResponseWriter, r *http.Request) {
	var req RatingRequest
	if !decode(w, r, &req) {
		return
	}

	h.orderByID(w, r, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error) {
		return h.orders.AddRating(ctx, actor, id, domain.RatingInput{
			Food:     req.Food,
			Delivery: req.Delivery,
			Overall:  req.Overall,
			Review:   req.Review,
		})
	})
}

func (h *Handler) OrderModifiable(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	modifiable, err := h.orders.CanBeModified(ctx, ActorFrom(ctx), id)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, ModifiableResponse{Modifiable: modifiable})
}

func (h *Handler) cartAction(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, actor domain.Actor) (domain.Cart, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := fn(ctx, ActorFrom(ctx))
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, status, mapCart(cart))
}

func (h *Handler) orderAction(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, actor domain.Actor) (domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := fn(ctx, ActorFrom(ctx))
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, status, mapOrder(order))
}

func (h *Handler) orderByID(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Order, error)) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	h.orderAction(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor) (domain.Order, error) {
		return fn(ctx, actor, id)
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", err.Error())
		return 0, false
	}
	return index, true
}

// parseOrderFilter reads repeatable status, payment_status, customer_id and
// restaurant_id parameters plus RFC 3339 created_after and created_before.
func parseOrderFilter(r *http.Request) (domain.OrderFilter, error) {
	q := r.URL.Query()

	var filter domain.OrderFilter

	for _, s := range q["status"] {
		status, err := domain.ToOrderStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, s := range q["payment_status"] {
		status, err := domain.ToPaymentStatus(s)
		if err != nil {
			return filter, err
		}
		filter.PaymentStatuses = append(filter.PaymentStatuses, status)
	}

	filter.CustomerIDs = q["customer_id"]

	for _, s := range q["restaurant_id"] {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, fmt.Errorf("restaurant_id[%s]: %w", s, err)
		}
		filter.RestaurantIDs = append(filter.RestaurantIDs, id)
	}

	after, err := parseTime(q.Get("created_after"))
	if err != nil {
		return filter, fmt.Errorf("created_after: %w", err)
	}
	before, err := parseTime(q.Get("created_before"))
	if err != nil {
		return filter, fmt.Errorf("created_before: %w", err)
	}
	if after != nil || before != nil {
		filter.CreatedAt = &domain.TimeRange{After: after, Before: before}
	}

	return filter, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
