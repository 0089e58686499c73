package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
)

type CartService struct {
	carts   port.CartRepository
	catalog port.CatalogRepository
	pricing domain.PricingEngine
	clock   Clock
	log     *slog.Logger
}

func NewCartService(carts port.CartRepository, catalog port.CatalogRepository, pricing domain.PricingEngine, clock Clock, log *slog.Logger) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		pricing: pricing,
		clock:   clock,
		log:     log.With(slog.String("component", "cart")),
	}
}

type AddItemRequest struct {
	MenuItemID     uuid.UUID
	Quantity       int
	Customizations []domain.Customization
	Instructions   string
}

// GetOrCreate returns the customer's active cart, creating and storing an empty one if needed.
func (s *CartService) GetOrCreate(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
	customerID, err := cartOwner(actor)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.carts.GetActiveCart(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Cart{}, fmt.Errorf("carts.GetActiveCart: %w", err)
	}

	cart, err = s.carts.InsertCart(ctx, s.newCart(customerID))
	if errors.Is(err, port.ErrActiveCartExists) {
		// lost a race with a concurrent create
		return s.carts.GetActiveCart(ctx, customerID)
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.InsertCart: %w", err)
	}

	s.log.InfoContext(ctx, "cart created", slog.String("cart_id", cart.ID.String()), slog.String("customer_id", customerID))
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, actor domain.Actor, req AddItemRequest) (domain.Cart, error) {
	customerID, err := cartOwner(actor)
	if err != nil {
		return domain.Cart{}, err
	}

	menuItem, err := s.catalog.GetMenuItem(ctx, req.MenuItemID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Cart{}, fmt.Errorf("menu item[%s]: %w", req.MenuItemID, domain.ErrItemNotFound)
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("catalog.GetMenuItem: %w", err)
	}

	restaurant, err := s.catalog.GetRestaurant(ctx, menuItem.RestaurantID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("catalog.GetRestaurant: %w", err)
	}

	customizations, err := menuItem.ResolveCustomizations(req.Customizations)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.load(ctx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}

	previous := cart.RestaurantID
	err = cart.AddItem(domain.AddItemInput{
		Restaurant:     restaurant,
		MenuItem:       menuItem,
		Quantity:       req.Quantity,
		Customizations: customizations,
		Instructions:   req.Instructions,
	}, s.pricing)
	if err != nil {
		return domain.Cart{}, err
	}

	if previous != nil && *previous != restaurant.ID {
		s.log.InfoContext(ctx, "cart switched restaurant",
			slog.String("cart_id", cart.ID.String()),
			slog.String("from", previous.String()),
			slog.String("to", restaurant.ID.String()))
	}

	return s.persist(ctx, cart)
}

// UpdateItemQuantity sets the quantity at index; quantity <= 0 removes the item.
func (s *CartService) UpdateItemQuantity(ctx context.Context, actor domain.Actor, index, quantity int) (domain.Cart, error) {
	return s.mutate(ctx, actor, func(c *domain.Cart) error {
		return c.UpdateItemQuantity(index, quantity, s.pricing)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, actor domain.Actor, index int) (domain.Cart, error) {
	return s.mutate(ctx, actor, func(c *domain.Cart) error {
		return c.RemoveItem(index, s.pricing)
	})
}

// ApplyCoupon resolves code against the coupon table and applies it.
func (s *CartService) ApplyCoupon(ctx context.Context, actor domain.Actor, code string) (domain.Cart, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Cart{}, fmt.Errorf("coupon code is empty: %w", domain.ErrInvalidCoupon)
	}

	return s.mutate(ctx, actor, func(c *domain.Cart) error {
		if c.IsEmpty() {
			return fmt.Errorf("apply coupon[%s]: %w", code, domain.ErrEmptyCart)
		}

		def, err := s.catalog.GetCoupon(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("coupon[%s] is unknown: %w", code, domain.ErrInvalidCoupon)
		}
		if err != nil {
			return fmt.Errorf("catalog.GetCoupon: %w", err)
		}

		if err := def.Redeemable(s.clock.Now(), c.Totals.Subtotal); err != nil {
			return err
		}

		return c.ApplyCoupon(def.Coupon, s.pricing)
	})
}

func (s *CartService) RemoveCoupon(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
	return s.mutate(ctx, actor, func(c *domain.Cart) error {
		c.RemoveCoupon(s.pricing)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
	return s.mutate(ctx, actor, func(c *domain.Cart) error {
		c.Clear(s.pricing)
		return nil
	})
}

func (s *CartService) mutate(ctx context.Context, actor domain.Actor, fn func(c *domain.Cart) error) (domain.Cart, error) {
	customerID, err := cartOwner(actor)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.load(ctx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}

	if err := fn(&cart); err != nil {
		return domain.Cart{}, err
	}

	return s.persist(ctx, cart)
}

// load returns the active cart or an unsaved empty one.
func (s *CartService) load(ctx context.Context, customerID string) (domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.newCart(customerID), nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.GetActiveCart: %w", err)
	}
	return cart, nil
}

// persist inserts a cart that was never stored and saves the others. An unsaved
// cart that ends up inactive is not stored at all.
func (s *CartService) persist(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.UpdatedAt = s.clock.Now()

	if cart.Version == 0 {
		if !cart.Active {
			return cart, nil
		}

		saved, err := s.carts.InsertCart(ctx, cart)
		if err != nil {
			if errors.Is(err, port.ErrActiveCartExists) {
				return domain.Cart{}, fmt.Errorf("carts.InsertCart: %w", domain.ErrConflict)
			}
			return domain.Cart{}, fmt.Errorf("carts.InsertCart: %w", err)
		}
		return saved, nil
	}

	saved, err := s.carts.SaveCart(ctx, cart)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.SaveCart: %w", err)
	}

	if !saved.Active {
		s.log.InfoContext(ctx, "cart deactivated", slog.String("cart_id", saved.ID.String()))
	}
	return saved, nil
}

func (s *CartService) newCart(customerID string) domain.Cart {
	cart := domain.NewCart(customerID)
	cart.CreatedAt = s.clock.Now()
	cart.UpdatedAt = cart.CreatedAt
	cart.Recalculate(s.pricing)
	return cart
}

func cartOwner(actor domain.Actor) (string, error) {
	customerID, ok := actor.CustomerID()
	if !ok {
		return "", fmt.Errorf("actor[%s] has no cart: %w", actor, domain.ErrUnauthorized)
	}
	return customerID, nil
}
