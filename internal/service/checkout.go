package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
	"github.com/samber/lo"
)

type CheckoutConfig struct {
	// MaxAttempts bounds retries on order number collisions.
	MaxAttempts            int
	DefaultDeliveryMinutes int
	IdempotencyTTL         time.Duration
}

// CheckoutCoordinator turns a customer's active cart into an order.
type CheckoutCoordinator struct {
	carts     port.CartRepository
	catalog   port.CatalogRepository
	orders    port.OrderRepository
	tx        port.Transactor
	cache     port.IdempotencyCache
	publisher port.EventPublisher
	numbers   domain.OrderNumberGenerator
	clock     Clock
	cfg       CheckoutConfig
	log       *slog.Logger
}

type CheckoutDeps struct {
	Carts     port.CartRepository
	Catalog   port.CatalogRepository
	Orders    port.OrderRepository
	Tx        port.Transactor
	Cache     port.IdempotencyCache // optional
	Publisher port.EventPublisher
	Numbers   domain.OrderNumberGenerator
	Clock     Clock
}

func NewCheckoutCoordinator(deps CheckoutDeps, cfg CheckoutConfig, log *slog.Logger) *CheckoutCoordinator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &CheckoutCoordinator{
		carts:     deps.Carts,
		catalog:   deps.Catalog,
		orders:    deps.Orders,
		tx:        deps.Tx,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		numbers:   deps.Numbers,
		clock:     deps.Clock,
		cfg:       cfg,
		log:       log.With(slog.String("component", "checkout")),
	}
}

type PlaceOrderRequest struct {
	DeliveryAddress     domain.Address
	Contact             domain.ContactInfo
	PaymentMethod       string
	SpecialInstructions string
	IdempotencyKey      string
}

// PlaceOrder validates the active cart against current catalog state, creates
// the order and deactivates the cart in one transaction. Repeating a checkout
// with the same idempotency key, or of the same cart version, returns the order
// created the first time.
func (c *CheckoutCoordinator) PlaceOrder(ctx context.Context, actor domain.Actor, req PlaceOrderRequest) (domain.Order, error) {
	customerID, ok := actor.CustomerID()
	if !ok {
		return domain.Order{}, fmt.Errorf("actor[%s] cannot check out: %w", actor, domain.ErrUnauthorized)
	}

	method, err := domain.ToPaymentMethod(req.PaymentMethod)
	if err != nil {
		return domain.Order{}, err
	}

	if req.IdempotencyKey != "" {
		if o, found := c.findByIdempotencyKey(ctx, customerID, req.IdempotencyKey); found {
			c.log.InfoContext(ctx, "checkout replayed", slog.String("order_id", o.ID.String()))
			return o, nil
		}
	}

	cart, err := c.carts.GetActiveCart(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Order{}, fmt.Errorf("customer[%s] has no active cart: %w", customerID, domain.ErrEmptyCart)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("carts.GetActiveCart: %w", err)
	}
	if cart.IsEmpty() || cart.RestaurantID == nil {
		return domain.Order{}, fmt.Errorf("cart[%s]: %w", cart.ID, domain.ErrEmptyCart)
	}

	restaurant, err := c.validateCart(ctx, cart)
	if err != nil {
		return domain.Order{}, err
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		now := c.clock.Now()

		order, err := domain.NewOrder(domain.NewOrderParams{
			Number:              c.numbers.Next(now),
			Cart:                cart,
			PaymentMethod:       method,
			DeliveryAddress:     req.DeliveryAddress,
			Contact:             req.Contact,
			SpecialInstructions: req.SpecialInstructions,
			EstimatedDeliveryAt: now.Add(time.Duration(c.deliveryMinutes(ctx, restaurant)) * time.Minute),
			IdempotencyKey:      req.IdempotencyKey,
		}, now)
		if err != nil {
			return domain.Order{}, err
		}

		err = c.tx.WithinTx(ctx, func(repos port.Repositories) error {
			if _, err := repos.Orders.InsertOrder(ctx, order); err != nil {
				return err
			}
			return repos.Carts.DeactivateCart(ctx, cart.ID, cart.Version, now)
		})

		switch {
		case err == nil:
			c.placed(ctx, order)
			return order, nil
		case errors.Is(err, port.ErrOrderNumberTaken):
			c.log.WarnContext(ctx, "order number collision", slog.String("number", order.Number), slog.Int("attempt", attempt))
			continue
		case errors.Is(err, port.ErrCheckoutKeyTaken):
			return c.existingOrder(ctx, cart, customerID, req.IdempotencyKey)
		case errors.Is(err, domain.ErrConflict):
			return domain.Order{}, fmt.Errorf("cart[%s] changed during checkout: %w", cart.ID, domain.ErrConflict)
		default:
			return domain.Order{}, fmt.Errorf("tx.WithinTx: %w", err)
		}
	}

	return domain.Order{}, fmt.Errorf("no free order number after %d attempts: %w", c.cfg.MaxAttempts, domain.ErrConflict)
}

// validateCart re-checks the restaurant and every referenced menu item; the
// cart's staged state is not trusted.
func (c *CheckoutCoordinator) validateCart(ctx context.Context, cart domain.Cart) (domain.Restaurant, error) {
	restaurant, err := c.catalog.GetRestaurant(ctx, *cart.RestaurantID)
	if err != nil {
		return restaurant, fmt.Errorf("catalog.GetRestaurant: %w", err)
	}
	if !restaurant.Active {
		return restaurant, fmt.Errorf("restaurant[%s]: %w", restaurant.ID, domain.ErrRestaurantInactive)
	}

	if cart.Totals.Subtotal.LessThan(restaurant.MinimumOrder) {
		return restaurant, fmt.Errorf("subtotal %s below minimum %s: %w",
			cart.Totals.Subtotal.StringFixed(2), restaurant.MinimumOrder.StringFixed(2), domain.ErrMinimumOrderNotMet)
	}

	ids := lo.Map(cart.Items, func(item domain.LineItem, _ int) uuid.UUID { return item.MenuItemID })

	menuItems, err := c.catalog.GetMenuItems(ctx, ids)
	if err != nil {
		return restaurant, fmt.Errorf("catalog.GetMenuItems: %w", err)
	}
	byID := lo.KeyBy(menuItems, func(m domain.MenuItem) uuid.UUID { return m.ID })

	for _, item := range cart.Items {
		menuItem, ok := byID[item.MenuItemID]
		if !ok || !menuItem.Available {
			return restaurant, fmt.Errorf("menu item[%s] %q: %w", item.MenuItemID, item.Name, domain.ErrItemUnavailable)
		}
	}

	return restaurant, nil
}

func (c *CheckoutCoordinator) deliveryMinutes(ctx context.Context, restaurant domain.Restaurant) int {
	minutes, err := domain.ParseDeliveryMinutes(restaurant.DeliveryTime)
	if err != nil {
		c.log.DebugContext(ctx, "delivery time not parsable, using default",
			slog.String("restaurant_id", restaurant.ID.String()),
			slog.String("delivery_time", restaurant.DeliveryTime))
		return c.cfg.DefaultDeliveryMinutes
	}
	return minutes
}

// existingOrder resolves the order that won the checkout of this cart version
// or idempotency key.
func (c *CheckoutCoordinator) existingOrder(ctx context.Context, cart domain.Cart, customerID, idempotencyKey string) (domain.Order, error) {
	o, err := c.orders.GetOrderByCheckoutKey(ctx, cart.CheckoutKey())
	if err == nil && o.CustomerID == customerID {
		return o, nil
	}

	if idempotencyKey != "" {
		o, err = c.orders.GetOrderByIdempotencyKey(ctx, customerID, idempotencyKey)
		if err == nil {
			return o, nil
		}
	}

	return domain.Order{}, fmt.Errorf("cart[%s] already checked out: %w", cart.ID, domain.ErrConflict)
}

func (c *CheckoutCoordinator) findByIdempotencyKey(ctx context.Context, customerID, key string) (domain.Order, bool) {
	cacheKey := idempotencyCacheKey(customerID, key)

	if c.cache != nil {
		orderID, err := c.cache.Get(ctx, cacheKey)
		if err != nil {
			c.log.WarnContext(ctx, "idempotency cache get", slog.Any("error", err))
		}
		if id, parseErr := uuid.Parse(orderID); err == nil && parseErr == nil {
			if o, err := c.orders.GetOrder(ctx, id); err == nil && o.CustomerID == customerID {
				return o, true
			}
		}
	}

	o, err := c.orders.GetOrderByIdempotencyKey(ctx, customerID, key)
	if err != nil {
		return domain.Order{}, false
	}

	c.remember(ctx, customerID, key, o.ID)
	return o, true
}

func (c *CheckoutCoordinator) remember(ctx context.Context, customerID, key string, orderID uuid.UUID) {
	if c.cache == nil || key == "" {
		return
	}
	if err := c.cache.Set(ctx, idempotencyCacheKey(customerID, key), orderID.String(), c.cfg.IdempotencyTTL); err != nil {
		c.log.WarnContext(ctx, "idempotency cache set", slog.Any("error", err))
	}
}

func (c *CheckoutCoordinator) placed(ctx context.Context, o domain.Order) {
	c.log.InfoContext(ctx, "order placed",
		slog.String("order_id", o.ID.String()),
		slog.String("order_number", o.Number),
		slog.String("customer_id", o.CustomerID),
		slog.String("total", o.Totals.Total.StringFixed(2)))

	c.remember(ctx, o.CustomerID, o.IdempotencyKey, o.ID)
	publish(ctx, c.log, c.publisher, domain.NewOrderEvent(domain.OrderEventPlaced, o, "Order placed", o.CreatedAt))
}

func idempotencyCacheKey(customerID, key string) string {
	return customerID + ":" + key
}
