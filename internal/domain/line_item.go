package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxInstructionsLength = 500

// Customization is a selected option captured on a line item with the price delta
// in effect when it was selected.
type Customization struct {
	Name       string
	Choice     string
	PriceDelta decimal.Decimal
}

// LineItem is owned by exactly one cart or order. Name and UnitPrice are copied from
// the menu so later menu edits never change what an order charged.
type LineItem struct {
	MenuItemID          uuid.UUID
	Name                string
	UnitPrice           decimal.Decimal
	Quantity            int
	Customizations      []Customization
	SpecialInstructions string
	Total               decimal.Decimal
}

// unitTotal is the unit price plus every customization delta.
func (li LineItem) unitTotal() decimal.Decimal {
	total := li.UnitPrice
	for _, c := range li.Customizations {
		total = total.Add(c.PriceDelta)
	}
	return total
}

// ComputeTotal returns (unit price + deltas) × quantity without rounding.
func (li LineItem) ComputeTotal() decimal.Decimal {
	return li.unitTotal().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// sameSelection reports whether other is the same menu item with the same
// customization set (order-insensitive) and the same instructions.
func (li LineItem) sameSelection(other LineItem) bool {
	if li.MenuItemID != other.MenuItemID || li.SpecialInstructions != other.SpecialInstructions {
		return false
	}
	return slices.Equal(customizationKeys(li.Customizations), customizationKeys(other.Customizations))
}

func (li LineItem) clone() LineItem {
	li.Customizations = slices.Clone(li.Customizations)
	return li
}

func customizationKeys(cs []Customization) []string {
	keys := make([]string, 0, len(cs))
	for _, c := range cs {
		keys = append(keys, c.Name+"\x00"+c.Choice)
	}
	slices.Sort(keys)
	return keys
}

func validateInstructions(s string) error {
	if len([]rune(s)) > MaxInstructionsLength {
		return fmt.Errorf("special instructions longer than %d characters: %w", MaxInstructionsLength, ErrInvalidInput)
	}
	return nil
}

func normalizeInstructions(s string) string {
	return strings.TrimSpace(s)
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	result := make([]LineItem, 0, len(items))
	for _, item := range items {
		result = append(result, item.clone())
	}
	return result
}
