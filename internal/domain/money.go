package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount decimal.Decimal, cur currency.Unit) Money {
	return Money{Amount: amount, Currency: cur}
}

// InCurrency reports whether m is denominated in cur.
func (m Money) InCurrency(cur currency.Unit) bool {
	return m.Currency.String() == cur.String()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// roundMoney is the single rounding rule for persisted and displayed amounts.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
