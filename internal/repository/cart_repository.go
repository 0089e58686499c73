package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
	"github.com/shopspring/decimal"
)

const cartColumns = `id, customer_id, restaurant_id, currency, delivery_fee, items, coupon,
	subtotal, tax, discount, total, active, version, created_at, updated_at`

type cartRepository struct {
	q DBTX
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{q: pool}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{q: tx}
}

func (r *cartRepository) GetActiveCart(ctx context.Context, customerID string) (domain.Cart, error) {
	var c domain.Cart

	row := r.q.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE customer_id = $1 AND active`, customerID)

	c, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, fmt.Errorf("q.GetActiveCart: %w", domain.ErrNotFound)
		}
		return c, fmt.Errorf("q.GetActiveCart: %w", err)
	}

	return c, nil
}

func (r *cartRepository) InsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if cart.ID == uuid.Nil {
		return cart, errors.New("cart id is empty")
	}

	params, err := mapCartToParams(cart)
	if err != nil {
		return cart, fmt.Errorf("mapCartToParams: %w", err)
	}

	err = r.q.QueryRow(ctx, `
		INSERT INTO carts (id, customer_id, restaurant_id, currency, delivery_fee, items, coupon,
		                   subtotal, tax, discount, total, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $13)
		RETURNING version`,
		cart.ID, cart.CustomerID, params.restaurantID, params.currency, cart.DeliveryFee, params.items, params.coupon,
		cart.Totals.Subtotal, cart.Totals.Tax, cart.Totals.Discount, cart.Totals.Total, cart.Active, cart.CreatedAt,
	).Scan(&cart.Version)
	if err != nil {
		if uniqueViolation(err) != "" {
			return cart, fmt.Errorf("q.InsertCart: %w", port.ErrActiveCartExists)
		}
		return cart, fmt.Errorf("q.InsertCart: %w", err)
	}

	cart.UpdatedAt = cart.CreatedAt
	return cart, nil
}

func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	params, err := mapCartToParams(cart)
	if err != nil {
		return cart, fmt.Errorf("mapCartToParams: %w", err)
	}

	err = r.q.QueryRow(ctx, `
		UPDATE carts
		SET restaurant_id = $2, currency = $3, delivery_fee = $4, items = $5, coupon = $6,
		    subtotal = $7, tax = $8, discount = $9, total = $10, active = $11,
		    version = version + 1, updated_at = $12
		WHERE id = $1 AND active AND version = $13
		RETURNING version`,
		cart.ID, params.restaurantID, params.currency, cart.DeliveryFee, params.items, params.coupon,
		cart.Totals.Subtotal, cart.Totals.Tax, cart.Totals.Discount, cart.Totals.Total, cart.Active, cart.UpdatedAt,
		cart.Version,
	).Scan(&cart.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, r.saveMiss(ctx, cart.ID)
		}
		if uniqueViolation(err) != "" {
			return cart, fmt.Errorf("q.SaveCart: %w", domain.ErrConflict)
		}
		return cart, fmt.Errorf("q.SaveCart: %w", err)
	}

	return cart, nil
}

// saveMiss tells an unknown cart from one that was deactivated or saved since it was loaded.
func (r *cartRepository) saveMiss(ctx context.Context, cartID uuid.UUID) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cartID).Scan(&exists); err != nil {
		return fmt.Errorf("q.SaveCart: %w", err)
	}
	if !exists {
		return fmt.Errorf("q.SaveCart: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("q.SaveCart: %w", domain.ErrConflict)
}

func (r *cartRepository) DeactivateCart(ctx context.Context, cartID uuid.UUID, version int64, at time.Time) error {
	if cartID == uuid.Nil {
		return fmt.Errorf("cartID is empty")
	}

	cmdTag, err := r.q.Exec(ctx, `
		UPDATE carts SET active = FALSE, version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $2 AND active`, cartID, version, at)
	if err != nil {
		return fmt.Errorf("q.DeactivateCart: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.DeactivateCart: %w", domain.ErrConflict)
	}

	return nil
}

type cartParams struct {
	restaurantID *uuid.UUID
	currency     string
	items        []byte
	coupon       []byte
}

func mapCartToParams(cart domain.Cart) (cartParams, error) {
	items, err := marshalItems(cart.Items)
	if err != nil {
		return cartParams{}, fmt.Errorf("marshalItems: %w", err)
	}

	coupon, err := marshalCoupon(cart.Coupon)
	if err != nil {
		return cartParams{}, fmt.Errorf("marshalCoupon: %w", err)
	}

	return cartParams{
		restaurantID: cart.RestaurantID,
		currency:     currencyToString(cart.Currency),
		items:        items,
		coupon:       coupon,
	}, nil
}

func scanCart(row pgx.Row) (domain.Cart, error) {
	var (
		c            domain.Cart
		restaurantID *uuid.UUID
		cur          string
		items        []byte
		coupon       []byte
		deliveryFee  decimal.Decimal
	)

	err := row.Scan(&c.ID, &c.CustomerID, &restaurantID, &cur, &deliveryFee, &items, &coupon,
		&c.Totals.Subtotal, &c.Totals.Tax, &c.Totals.Discount, &c.Totals.Total,
		&c.Active, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}

	c.RestaurantID = restaurantID
	c.DeliveryFee = deliveryFee
	c.Totals.DeliveryFee = deliveryFee
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	if c.Currency, err = parseCurrency(cur); err != nil {
		return c, fmt.Errorf("parseCurrency: %w", err)
	}
	if c.Items, err = unmarshalItems(items); err != nil {
		return c, fmt.Errorf("unmarshalItems: %w", err)
	}
	if c.Coupon, err = unmarshalCoupon(coupon); err != nil {
		return c, fmt.Errorf("unmarshalCoupon: %w", err)
	}

	return c, nil
}
