package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
)

type CartRepository interface {
	// GetActiveCart returns domain.ErrNotFound when the customer has no active cart.
	GetActiveCart(ctx context.Context, customerID string) (domain.Cart, error)

	// InsertCart fails with ErrActiveCartExists when the customer already has one.
	InsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)

	// SaveCart overwrites the cart and returns it with the new version. It returns
	// domain.ErrConflict when the stored cart is no longer active or no longer at
	// cart.Version, and domain.ErrNotFound when it was never stored.
	SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)

	// DeactivateCart succeeds only if the cart is active at the given version,
	// otherwise it returns domain.ErrConflict.
	DeactivateCart(ctx context.Context, cartID uuid.UUID, version int64, at time.Time) error
}
