package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/samber/lo"
)

type catalogRepository struct {
	store *Store
}

func (r *catalogRepository) GetRestaurant(_ context.Context, restaurantID uuid.UUID) (domain.Restaurant, error) {
	var result domain.Restaurant

	err := r.store.run(nil, func(st *state) error {
		rest, ok := st.restaurants[restaurantID]
		if !ok {
			return fmt.Errorf("q.GetRestaurant: %w", domain.ErrNotFound)
		}
		result = rest
		return nil
	})

	return result, err
}

func (r *catalogRepository) GetMenuItem(_ context.Context, menuItemID uuid.UUID) (domain.MenuItem, error) {
	var result domain.MenuItem

	err := r.store.run(nil, func(st *state) error {
		item, ok := st.menuItems[menuItemID]
		if !ok {
			return fmt.Errorf("q.GetMenuItem: %w", domain.ErrNotFound)
		}
		result = cloneMenuItem(item)
		return nil
	})

	return result, err
}

func (r *catalogRepository) GetMenuItems(_ context.Context, menuItemIDs []uuid.UUID) ([]domain.MenuItem, error) {
	var result []domain.MenuItem

	err := r.store.run(nil, func(st *state) error {
		for _, id := range lo.Uniq(menuItemIDs) {
			if item, ok := st.menuItems[id]; ok {
				result = append(result, cloneMenuItem(item))
			}
		}
		return nil
	})

	return result, err
}

func (r *catalogRepository) GetCoupon(_ context.Context, code string) (domain.CouponDefinition, error) {
	var result domain.CouponDefinition

	err := r.store.run(nil, func(st *state) error {
		def, ok := st.coupons[code]
		if !ok {
			return fmt.Errorf("q.GetCoupon: %w", domain.ErrNotFound)
		}
		result = def
		return nil
	})

	return result, err
}

func (r *catalogRepository) UpsertRestaurant(_ context.Context, rest domain.Restaurant) error {
	if rest.ID == uuid.Nil {
		return errors.New("restaurant id is empty")
	}

	return r.store.run(nil, func(st *state) error {
		st.restaurants[rest.ID] = rest
		return nil
	})
}

func (r *catalogRepository) UpsertMenuItem(_ context.Context, item domain.MenuItem) error {
	if item.ID == uuid.Nil {
		return errors.New("menu item id is empty")
	}

	return r.store.run(nil, func(st *state) error {
		st.menuItems[item.ID] = cloneMenuItem(item)
		return nil
	})
}

func (r *catalogRepository) UpsertCoupon(_ context.Context, def domain.CouponDefinition) error {
	if def.Code == "" {
		return errors.New("coupon code is empty")
	}

	return r.store.run(nil, func(st *state) error {
		st.coupons[def.Code] = def
		return nil
	})
}

func cloneMenuItem(item domain.MenuItem) domain.MenuItem {
	item.Customizations = slices.Clone(item.Customizations)
	return item
}
