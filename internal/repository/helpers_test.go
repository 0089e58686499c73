package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/text/currency"
)

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("foodiez"),
		postgres.WithUsername("foodiez"),
		postgres.WithPassword("foodiez"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return container, connStr, nil
}

// setupPostgres starts a migrated database for a suite.
func setupPostgres(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	container, connStr, err := startPostgres(ctx)
	if err != nil {
		return container, nil, err
	}

	pool, err := repository.Connect(ctx, connStr)
	if err != nil {
		return container, nil, fmt.Errorf("repository.Connect: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		return container, pool, fmt.Errorf("repository.Migrate: %w", err)
	}

	return container, pool, nil
}

func randomCurrency() currency.Unit {
	var (
		result currency.Unit
		err    error
	)

	for {
		// tag is not a recognized currency
		result, err = currency.ParseISO(gofakeit.CurrencyShort())
		if err == nil && result != currency.XXX {
			break
		}
	}

	return result
}

func randomPrice() decimal.Decimal {
	return decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2)
}

func randomLineItem() domain.LineItem {
	item := domain.LineItem{
		MenuItemID: uuid.New(),
		Name:       gofakeit.Dessert(),
		UnitPrice:  randomPrice(),
		Quantity:   gofakeit.Number(1, 5),
	}

	if gofakeit.Bool() {
		item.Customizations = []domain.Customization{
			{Name: "Size", Choice: "Large", PriceDelta: decimal.RequireFromString("1.50")},
		}
	}
	if gofakeit.Bool() {
		item.SpecialInstructions = gofakeit.Sentence(5)
	}

	item.Total = item.ComputeTotal().Round(2)
	return item
}

func randomCart() domain.Cart {
	restaurantID := uuid.New()

	cart := domain.NewCart(gofakeit.UUID())
	cart.RestaurantID = &restaurantID
	cart.Currency = randomCurrency()
	cart.DeliveryFee = randomPrice()
	for i := 0; i < gofakeit.Number(1, 4); i++ {
		cart.Items = append(cart.Items, randomLineItem())
	}
	cart.Recalculate(domain.DefaultPricingEngine())
	cart.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	cart.UpdatedAt = cart.CreatedAt

	return cart
}

func randomOrder() domain.Order {
	cart := randomCart()
	cart.Version = 1
	now := time.Now().UTC().Truncate(time.Microsecond)

	order, err := domain.NewOrder(domain.NewOrderParams{
		Number:        fmt.Sprintf("FZ%011d", gofakeit.Number(0, 99_999_999)*1000+gofakeit.Number(0, 999)),
		Cart:          cart,
		PaymentMethod: domain.PaymentMethodCard,
		DeliveryAddress: domain.Address{
			Street:     gofakeit.Street(),
			City:       gofakeit.City(),
			State:      gofakeit.State(),
			PostalCode: gofakeit.Zip(),
			Country:    gofakeit.Country(),
		},
		Contact: domain.ContactInfo{
			Name:  gofakeit.Name(),
			Phone: gofakeit.Phone(),
			Email: gofakeit.Email(),
		},
		SpecialInstructions: gofakeit.Sentence(4),
		EstimatedDeliveryAt: now.Add(45 * time.Minute),
	}, now)
	if err != nil {
		panic(err)
	}

	return order
}

var currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
	return x.String() == y.String()
})

func assertCart(t *testing.T, expected, actual domain.Cart) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Cart{}, "Version", "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.Positive(t, actual.Version)
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.EquateEmpty(),
		cmpopts.EquateApproxTime(time.Millisecond),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}
