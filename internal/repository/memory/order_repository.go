package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
)

type orderRepository struct {
	store *Store
	tx    *state
}

func (r *orderRepository) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.findOrder("q.GetOrder", func(o domain.Order) bool {
		return o.ID == orderID
	})
}

func (r *orderRepository) GetOrderByNumber(_ context.Context, number string) (domain.Order, error) {
	return r.findOrder("q.GetOrderByNumber", func(o domain.Order) bool {
		return o.Number == number
	})
}

func (r *orderRepository) GetOrderByCheckoutKey(_ context.Context, checkoutKey string) (domain.Order, error) {
	return r.findOrder("q.GetOrderByCheckoutKey", func(o domain.Order) bool {
		return o.CheckoutKey == checkoutKey
	})
}

func (r *orderRepository) GetOrderByIdempotencyKey(_ context.Context, customerID, key string) (domain.Order, error) {
	return r.findOrder("q.GetOrderByIdempotencyKey", func(o domain.Order) bool {
		return key != "" && o.CustomerID == customerID && o.IdempotencyKey == key
	})
}

func (r *orderRepository) findOrder(op string, match func(o domain.Order) bool) (domain.Order, error) {
	var result domain.Order

	err := r.store.run(r.tx, func(st *state) error {
		for _, o := range st.orders {
			if match(o) {
				result = cloneOrder(o)
				return nil
			}
		}
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	})

	return result, err
}

func (r *orderRepository) SearchOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	var result []domain.Order

	err := r.store.run(r.tx, func(st *state) error {
		for _, o := range st.orders {
			if filter.Matches(o) {
				result = append(result, cloneOrder(o))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b domain.Order) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	return result, nil
}

func (r *orderRepository) InsertOrder(_ context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, errors.New("no items in order")
	}
	if order.ID == uuid.Nil {
		return uuid.Nil, errors.New("order id is empty")
	}

	err := r.store.run(r.tx, func(st *state) error {
		for _, o := range st.orders {
			switch {
			case o.ID == order.ID:
				return fmt.Errorf("q.InsertOrder: %w", domain.ErrConflict)
			case o.Number == order.Number:
				return fmt.Errorf("q.InsertOrder: %w", port.ErrOrderNumberTaken)
			case o.CheckoutKey == order.CheckoutKey:
				return fmt.Errorf("q.InsertOrder: %w", port.ErrCheckoutKeyTaken)
			case order.IdempotencyKey != "" && o.CustomerID == order.CustomerID && o.IdempotencyKey == order.IdempotencyKey:
				return fmt.Errorf("q.InsertOrder: %w", port.ErrCheckoutKeyTaken)
			}
		}

		st.orders[order.ID] = cloneOrder(order)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return order.ID, nil
}

func (r *orderRepository) UpdateOrder(_ context.Context, orderID uuid.UUID, fn func(o *domain.Order) error) (domain.Order, error) {
	if orderID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("orderID is empty")
	}

	var result domain.Order

	err := r.store.run(r.tx, func(st *state) error {
		stored, ok := st.orders[orderID]
		if !ok {
			return fmt.Errorf("q.GetOrderForUpdate: %w", domain.ErrNotFound)
		}

		o := cloneOrder(stored)
		if err := fn(&o); err != nil {
			return err
		}

		st.orders[orderID] = cloneOrder(o)
		result = o
		return nil
	})

	return result, err
}
