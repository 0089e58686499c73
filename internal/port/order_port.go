package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (domain.Order, error)
	GetOrderByCheckoutKey(ctx context.Context, checkoutKey string) (domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, customerID, key string) (domain.Order, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// InsertOrder fails with ErrOrderNumberTaken or ErrCheckoutKeyTaken on the
	// respective unique constraint.
	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	// UpdateOrder loads the order, applies fn and stores the result atomically.
	// Nothing is written when fn returns an error.
	UpdateOrder(ctx context.Context, orderID uuid.UUID, fn func(o *domain.Order) error) (domain.Order, error)
}
