// Package memory implements the repository ports on in-process maps. It backs
// local runs without Postgres and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
)

type state struct {
	carts       map[uuid.UUID]domain.Cart
	orders      map[uuid.UUID]domain.Order
	restaurants map[uuid.UUID]domain.Restaurant
	menuItems   map[uuid.UUID]domain.MenuItem
	coupons     map[string]domain.CouponDefinition
}

func (s *state) clone() *state {
	return &state{
		carts:       maps.Clone(s.carts),
		orders:      maps.Clone(s.orders),
		restaurants: maps.Clone(s.restaurants),
		menuItems:   maps.Clone(s.menuItems),
		coupons:     maps.Clone(s.coupons),
	}
}

// Store holds all records behind one mutex. Values in the maps are never
// mutated in place; every read and write goes through a deep copy.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{
		carts:       make(map[uuid.UUID]domain.Cart),
		orders:      make(map[uuid.UUID]domain.Order),
		restaurants: make(map[uuid.UUID]domain.Restaurant),
		menuItems:   make(map[uuid.UUID]domain.MenuItem),
		coupons:     make(map[string]domain.CouponDefinition),
	}}
}

func (s *Store) Carts() port.CartRepository {
	return &cartRepository{store: s}
}

func (s *Store) Orders() port.OrderRepository {
	return &orderRepository{store: s}
}

func (s *Store) Catalog() port.CatalogRepository {
	return &catalogRepository{store: s}
}

func (s *Store) Transactor() port.Transactor {
	return s
}

// WithinTx runs fn against a private copy of the state and publishes it only
// when fn succeeds. Transactions are serialized with all other access.
func (s *Store) WithinTx(_ context.Context, fn func(repos port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	repos := port.Repositories{
		Carts:  &cartRepository{store: s, tx: tx},
		Orders: &orderRepository{store: s, tx: tx},
	}

	if err := fn(repos); err != nil {
		return err
	}

	s.st = tx
	return nil
}

// run executes fn on the transaction state when bound to one, otherwise on the
// shared state under the lock.
func (s *Store) run(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.st)
}

func cloneCart(c domain.Cart) domain.Cart {
	c.Items = cloneLineItems(c.Items)
	if c.Coupon != nil {
		coupon := *c.Coupon
		c.Coupon = &coupon
	}
	if c.RestaurantID != nil {
		id := *c.RestaurantID
		c.RestaurantID = &id
	}
	return c
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = cloneLineItems(o.Items)
	o.Timeline = slices.Clone(o.Timeline)
	if o.Rating != nil {
		rating := *o.Rating
		o.Rating = &rating
	}
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		o.DeliveredAt = &at
	}
	if o.RefundAmount != nil {
		amount := *o.RefundAmount
		o.RefundAmount = &amount
	}
	return o
}

func cloneLineItems(items []domain.LineItem) []domain.LineItem {
	if items == nil {
		return nil
	}
	result := make([]domain.LineItem, len(items))
	for i, item := range items {
		item.Customizations = slices.Clone(item.Customizations)
		result[i] = item
	}
	return result
}
