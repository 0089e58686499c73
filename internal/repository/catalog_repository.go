package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
	"github.com/samber/lo"
)

const (
	restaurantColumns = `id, owner_id, name, active, currency, delivery_fee, minimum_order, delivery_time, created_at, updated_at`
	menuItemColumns   = `id, restaurant_id, name, price_amount, price_currency, available, customizations, created_at, updated_at`
)

type catalogRepository struct {
	q DBTX
}

func NewCatalog(pool *pgxpool.Pool) port.CatalogRepository {
	return &catalogRepository{q: pool}
}

func (r *catalogRepository) GetRestaurant(ctx context.Context, restaurantID uuid.UUID) (domain.Restaurant, error) {
	var (
		rest domain.Restaurant
		cur  string
	)

	err := r.q.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, restaurantID).Scan(
		&rest.ID, &rest.OwnerID, &rest.Name, &rest.Active, &cur, &rest.DeliveryFee, &rest.MinimumOrder,
		&rest.DeliveryTime, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rest, fmt.Errorf("q.GetRestaurant: %w", domain.ErrNotFound)
		}
		return rest, fmt.Errorf("q.GetRestaurant: %w", err)
	}

	if rest.Currency, err = parseCurrency(cur); err != nil {
		return rest, fmt.Errorf("parseCurrency: %w", err)
	}
	rest.CreatedAt = rest.CreatedAt.UTC()
	rest.UpdatedAt = rest.UpdatedAt.UTC()

	return rest, nil
}

func (r *catalogRepository) GetMenuItem(ctx context.Context, menuItemID uuid.UUID) (domain.MenuItem, error) {
	item, err := scanMenuItem(r.q.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, menuItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item, fmt.Errorf("q.GetMenuItem: %w", domain.ErrNotFound)
		}
		return item, fmt.Errorf("q.GetMenuItem: %w", err)
	}

	return item, nil
}

// GetMenuItems returns the items that exist; missing ids are silently skipped.
func (r *catalogRepository) GetMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]domain.MenuItem, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = ANY ($1)`, lo.Uniq(menuItemIDs))
	if err != nil {
		return nil, fmt.Errorf("q.GetMenuItems: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanMenuItem: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

func (r *catalogRepository) GetCoupon(ctx context.Context, code string) (domain.CouponDefinition, error) {
	var (
		def  domain.CouponDefinition
		kind string
	)

	err := r.q.QueryRow(ctx, `
		SELECT code, kind, value, active, minimum_total, expires_at
		FROM coupons WHERE code = $1`, code).Scan(
		&def.Code, &kind, &def.Value, &def.Active, &def.MinimumTotal, &def.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return def, fmt.Errorf("q.GetCoupon: %w", domain.ErrNotFound)
		}
		return def, fmt.Errorf("q.GetCoupon: %w", err)
	}

	if def.Kind, err = domain.ToCouponKind(kind); err != nil {
		return def, fmt.Errorf("domain.ToCouponKind[%s]: %w", kind, err)
	}
	if def.ExpiresAt != nil {
		def.ExpiresAt = lo.ToPtr(def.ExpiresAt.UTC())
	}

	return def, nil
}

func (r *catalogRepository) UpsertRestaurant(ctx context.Context, rest domain.Restaurant) error {
	if rest.ID == uuid.Nil {
		return errors.New("restaurant id is empty")
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO restaurants (`+restaurantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET owner_id = EXCLUDED.owner_id, name = EXCLUDED.name, active = EXCLUDED.active,
		    currency = EXCLUDED.currency, delivery_fee = EXCLUDED.delivery_fee,
		    minimum_order = EXCLUDED.minimum_order, delivery_time = EXCLUDED.delivery_time,
		    updated_at = EXCLUDED.updated_at`,
		rest.ID, rest.OwnerID, rest.Name, rest.Active, currencyToString(rest.Currency), rest.DeliveryFee,
		rest.MinimumOrder, rest.DeliveryTime, rest.CreatedAt, rest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("q.UpsertRestaurant: %w", err)
	}

	return nil
}

func (r *catalogRepository) UpsertMenuItem(ctx context.Context, item domain.MenuItem) error {
	if item.ID == uuid.Nil {
		return errors.New("menu item id is empty")
	}

	options, err := json.Marshal(lo.Map(item.Customizations, func(o domain.CustomizationOption, _ int) customizationDoc {
		return customizationDoc{Name: o.Name, Choice: o.Choice, PriceDelta: o.PriceDelta}
	}))
	if err != nil {
		return fmt.Errorf("json.Marshal customizations: %w", err)
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO menu_items (`+menuItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET restaurant_id = EXCLUDED.restaurant_id, name = EXCLUDED.name,
		    price_amount = EXCLUDED.price_amount, price_currency = EXCLUDED.price_currency,
		    available = EXCLUDED.available, customizations = EXCLUDED.customizations,
		    updated_at = EXCLUDED.updated_at`,
		item.ID, item.RestaurantID, item.Name, item.Price.Amount, currencyToString(item.Price.Currency),
		item.Available, options, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("q.UpsertMenuItem: %w", err)
	}

	return nil
}

func (r *catalogRepository) UpsertCoupon(ctx context.Context, def domain.CouponDefinition) error {
	if def.Code == "" {
		return errors.New("coupon code is empty")
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO coupons (code, kind, value, active, minimum_total, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET kind = EXCLUDED.kind, value = EXCLUDED.value, active = EXCLUDED.active,
		    minimum_total = EXCLUDED.minimum_total, expires_at = EXCLUDED.expires_at`,
		def.Code, string(def.Kind), def.Value, def.Active, def.MinimumTotal, def.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("q.UpsertCoupon: %w", err)
	}

	return nil
}

func scanMenuItem(row pgx.Row) (domain.MenuItem, error) {
	var (
		item    domain.MenuItem
		cur     string
		options []byte
	)

	err := row.Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Price.Amount, &cur, &item.Available,
		&options, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, err
	}

	if item.Price.Currency, err = parseCurrency(cur); err != nil {
		return item, fmt.Errorf("parseCurrency: %w", err)
	}

	var docs []customizationDoc
	if err := json.Unmarshal(options, &docs); err != nil {
		return item, fmt.Errorf("json.Unmarshal customizations: %w", err)
	}
	if len(docs) > 0 {
		item.Customizations = lo.Map(docs, func(d customizationDoc, _ int) domain.CustomizationOption {
			return domain.CustomizationOption{Name: d.Name, Choice: d.Choice, PriceDelta: d.PriceDelta}
		})
	}

	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()

	return item, nil
}
