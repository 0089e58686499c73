package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied to the subtotal when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.08")

var hundred = decimal.NewFromInt(100)

// Totals is a pricing breakdown. Values produced by ComputeTotals are exact;
// call Rounded before persisting or displaying them.
type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Rounded rounds every component to cents and re-derives Total from the rounded
// components so the breakdown always adds up.
func (t Totals) Rounded() Totals {
	r := Totals{
		Subtotal:    roundMoney(t.Subtotal),
		DeliveryFee: roundMoney(t.DeliveryFee),
		Tax:         roundMoney(t.Tax),
		Discount:    roundMoney(t.Discount),
	}
	r.Total = grandTotal(r.Subtotal, r.DeliveryFee, r.Tax, r.Discount)
	return r
}

// PricingEngine computes cart and order totals. It is a pure function of its inputs.
type PricingEngine struct {
	taxRate decimal.Decimal
}

func NewPricingEngine(taxRate decimal.Decimal) (PricingEngine, error) {
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return PricingEngine{}, fmt.Errorf("tax rate[%s] must be in [0, 1): %w", taxRate, ErrInvalidInput)
	}
	return PricingEngine{taxRate: taxRate}, nil
}

func DefaultPricingEngine() PricingEngine {
	return PricingEngine{taxRate: DefaultTaxRate}
}

func (e PricingEngine) TaxRate() decimal.Decimal {
	return e.taxRate
}

func (e PricingEngine) ComputeTotals(items []LineItem, deliveryFee decimal.Decimal, coupon *Coupon) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.ComputeTotal())
	}

	tax := subtotal.Mul(e.taxRate)
	discount := Discount(subtotal, coupon)

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Tax:         tax,
		Discount:    discount,
		Total:       grandTotal(subtotal, deliveryFee, tax, discount),
	}
}

// Discount returns the coupon discount for subtotal, never more than subtotal.
func Discount(subtotal decimal.Decimal, coupon *Coupon) decimal.Decimal {
	if coupon == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.Kind {
	case CouponKindPercentage:
		discount = subtotal.Mul(coupon.Value).Div(hundred)
	case CouponKindFixed:
		discount = coupon.Value
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, subtotal)
}

func grandTotal(subtotal, deliveryFee, tax, discount decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, subtotal.Add(deliveryFee).Add(tax).Sub(discount))
}
