package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
)

// CatalogRepository is the read side of restaurant and menu data, owned elsewhere.
// The upserts exist for seeding and administration.
type CatalogRepository interface {
	GetRestaurant(ctx context.Context, restaurantID uuid.UUID) (domain.Restaurant, error)
	GetMenuItem(ctx context.Context, menuItemID uuid.UUID) (domain.MenuItem, error)
	GetMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]domain.MenuItem, error)
	GetCoupon(ctx context.Context, code string) (domain.CouponDefinition, error)

	UpsertRestaurant(ctx context.Context, restaurant domain.Restaurant) error
	UpsertMenuItem(ctx context.Context, item domain.MenuItem) error
	UpsertCoupon(ctx context.Context, coupon domain.CouponDefinition) error
}
