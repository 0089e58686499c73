package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
)

type cartRepository struct {
	store *Store
	tx    *state
}

func (r *cartRepository) GetActiveCart(_ context.Context, customerID string) (domain.Cart, error) {
	var result domain.Cart

	err := r.store.run(r.tx, func(st *state) error {
		c, ok := activeCart(st, customerID)
		if !ok {
			return fmt.Errorf("q.GetActiveCart: %w", domain.ErrNotFound)
		}
		result = cloneCart(c)
		return nil
	})

	return result, err
}

func (r *cartRepository) InsertCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	if cart.ID == uuid.Nil {
		return cart, errors.New("cart id is empty")
	}

	err := r.store.run(r.tx, func(st *state) error {
		if _, ok := st.carts[cart.ID]; ok {
			return fmt.Errorf("q.InsertCart: %w", domain.ErrConflict)
		}
		if _, ok := activeCart(st, cart.CustomerID); ok && cart.Active {
			return fmt.Errorf("q.InsertCart: %w", port.ErrActiveCartExists)
		}

		cart.Version = 1
		cart.UpdatedAt = cart.CreatedAt
		st.carts[cart.ID] = cloneCart(cart)
		return nil
	})

	return cart, err
}

func (r *cartRepository) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	err := r.store.run(r.tx, func(st *state) error {
		stored, ok := st.carts[cart.ID]
		if !ok {
			return fmt.Errorf("q.SaveCart: %w", domain.ErrNotFound)
		}
		if !stored.Active || stored.Version != cart.Version {
			return fmt.Errorf("q.SaveCart: %w", domain.ErrConflict)
		}
		if other, ok := activeCart(st, cart.CustomerID); ok && cart.Active && other.ID != cart.ID {
			return fmt.Errorf("q.SaveCart: %w", domain.ErrConflict)
		}

		cart.Version = stored.Version + 1
		cart.CreatedAt = stored.CreatedAt
		st.carts[cart.ID] = cloneCart(cart)
		return nil
	})

	return cart, err
}

func (r *cartRepository) DeactivateCart(_ context.Context, cartID uuid.UUID, version int64, at time.Time) error {
	if cartID == uuid.Nil {
		return fmt.Errorf("cartID is empty")
	}

	return r.store.run(r.tx, func(st *state) error {
		stored, ok := st.carts[cartID]
		if !ok || !stored.Active || stored.Version != version {
			return fmt.Errorf("q.DeactivateCart: %w", domain.ErrConflict)
		}

		stored.Active = false
		stored.Version++
		stored.UpdatedAt = at
		st.carts[cartID] = stored
		return nil
	})
}

func activeCart(st *state, customerID string) (domain.Cart, bool) {
	for _, c := range st.carts {
		if c.Active && c.CustomerID == customerID {
			return c, true
		}
	}
	return domain.Cart{}, false
}
