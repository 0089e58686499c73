package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Restaurant struct {
	ID           uuid.UUID
	OwnerID      string
	Name         string
	Active       bool
	Currency     currency.Unit
	DeliveryFee  decimal.Decimal
	MinimumOrder decimal.Decimal
	// DeliveryTime is the free-form duration the restaurant advertises, e.g. "30-45 mins".
	DeliveryTime string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type MenuItem struct {
	ID             uuid.UUID
	RestaurantID   uuid.UUID
	Name           string
	Price          Money
	Available      bool
	Customizations []CustomizationOption

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomizationOption is one selectable choice within a named group, e.g. Size/Large.
type CustomizationOption struct {
	Name       string
	Choice     string
	PriceDelta decimal.Decimal
}

// ResolveCustomizations matches requested selections against the options the menu
// item offers and returns them with menu-side price deltas.
func (m MenuItem) ResolveCustomizations(selected []Customization) ([]Customization, error) {
	result := make([]Customization, 0, len(selected))

	for _, s := range selected {
		option, ok := m.findOption(s.Name, s.Choice)
		if !ok {
			return nil, fmt.Errorf("customization[%s=%s]: %w", s.Name, s.Choice, ErrInvalidInput)
		}

		result = append(result, Customization{
			Name:       option.Name,
			Choice:     option.Choice,
			PriceDelta: option.PriceDelta,
		})
	}

	return result, nil
}

func (m MenuItem) findOption(name, choice string) (CustomizationOption, bool) {
	for _, o := range m.Customizations {
		if o.Name == name && o.Choice == choice {
			return o, true
		}
	}
	return CustomizationOption{}, false
}

type CouponKind string

const (
	CouponKindPercentage CouponKind = "percentage"
	CouponKindFixed      CouponKind = "fixed"
)

func ToCouponKind(s string) (CouponKind, error) {
	switch k := CouponKind(s); k {
	case CouponKindPercentage, CouponKindFixed:
		return k, nil
	}
	return "", fmt.Errorf("coupon kind[%s]: %w", s, ErrInvalidInput)
}

// Coupon is the discount descriptor applied to a cart. Value is a percentage
// for CouponKindPercentage and a flat amount for CouponKindFixed.
type Coupon struct {
	Code  string
	Kind  CouponKind
	Value decimal.Decimal
}

func (c Coupon) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("coupon code is empty: %w", ErrInvalidCoupon)
	}
	if _, err := ToCouponKind(string(c.Kind)); err != nil {
		return fmt.Errorf("coupon kind[%s]: %w", c.Kind, ErrInvalidCoupon)
	}
	if !c.Value.IsPositive() {
		return fmt.Errorf("coupon value must be positive: %w", ErrInvalidCoupon)
	}
	if c.Kind == CouponKindPercentage && c.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("coupon percentage above 100: %w", ErrInvalidCoupon)
	}
	return nil
}

// CouponDefinition is a row of the coupon lookup table.
type CouponDefinition struct {
	Coupon
	Active       bool
	MinimumTotal decimal.Decimal
	ExpiresAt    *time.Time
}

// Redeemable checks the definition against the time of use and the cart subtotal.
func (d CouponDefinition) Redeemable(now time.Time, subtotal decimal.Decimal) error {
	if !d.Active {
		return fmt.Errorf("coupon[%s] is inactive: %w", d.Code, ErrInvalidCoupon)
	}
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return fmt.Errorf("coupon[%s] expired: %w", d.Code, ErrInvalidCoupon)
	}
	if subtotal.LessThan(d.MinimumTotal) {
		return fmt.Errorf("coupon[%s] requires subtotal %s: %w", d.Code, d.MinimumTotal.StringFixed(2), ErrInvalidCoupon)
	}
	return d.Coupon.Validate()
}
