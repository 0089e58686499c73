package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MaxItemQuantity bounds the quantity of a single line item.
const MaxItemQuantity = 999

// Cart is a customer's staging area for line items against a single restaurant.
// Every mutating method recomputes Totals before returning.
type Cart struct {
	ID           uuid.UUID
	CustomerID   string
	RestaurantID *uuid.UUID
	Currency     currency.Unit
	DeliveryFee  decimal.Decimal
	Items        []LineItem
	Coupon       *Coupon
	Totals       Totals
	Active       bool
	// Version is bumped by the store on every save; checkout keys off it.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCart(customerID string) Cart {
	return Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Currency:   currency.XXX,
		Active:     true,
	}
}

type AddItemInput struct {
	Restaurant Restaurant
	MenuItem   MenuItem
	Quantity   int
	// Customizations must already be resolved against MenuItem.
	Customizations []Customization
	Instructions   string
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AddItem adds the menu item to the cart. Adding an item from another restaurant
// drops the existing items and coupon first. An identical selection is merged by
// quantity instead of appended.
func (c *Cart) AddItem(in AddItemInput, pricing PricingEngine) error {
	if err := validateQuantity(in.Quantity); err != nil {
		return err
	}

	instructions := normalizeInstructions(in.Instructions)
	if err := validateInstructions(instructions); err != nil {
		return err
	}

	if !in.MenuItem.Available {
		return fmt.Errorf("menu item[%s]: %w", in.MenuItem.ID, ErrItemUnavailable)
	}
	if !in.Restaurant.Active {
		return fmt.Errorf("restaurant[%s]: %w", in.Restaurant.ID, ErrRestaurantInactive)
	}
	if in.MenuItem.RestaurantID != in.Restaurant.ID {
		return fmt.Errorf("menu item[%s] does not belong to restaurant[%s]: %w", in.MenuItem.ID, in.Restaurant.ID, ErrInvalidInput)
	}
	if !in.MenuItem.Price.InCurrency(in.Restaurant.Currency) {
		return fmt.Errorf("menu item[%s] priced in %s, restaurant uses %s: %w",
			in.MenuItem.ID, in.MenuItem.Price.Currency, in.Restaurant.Currency, ErrCurrencyMismatch)
	}

	item := LineItem{
		MenuItemID:          in.MenuItem.ID,
		Name:                in.MenuItem.Name,
		UnitPrice:           in.MenuItem.Price.Amount,
		Quantity:            in.Quantity,
		Customizations:      in.Customizations,
		SpecialInstructions: instructions,
	}

	if c.RestaurantID != nil && *c.RestaurantID != in.Restaurant.ID {
		c.reset()
	}

	merge := -1
	for i := range c.Items {
		if c.Items[i].sameSelection(item) {
			merge = i
			break
		}
	}
	if merge >= 0 {
		if err := validateQuantity(c.Items[merge].Quantity + item.Quantity); err != nil {
			return err
		}
	}

	restaurantID := in.Restaurant.ID
	c.RestaurantID = &restaurantID
	c.Currency = in.Restaurant.Currency
	c.DeliveryFee = in.Restaurant.DeliveryFee
	c.Active = true

	if merge >= 0 {
		c.Items[merge].Quantity += item.Quantity
		// cart items track the current menu price
		c.Items[merge].UnitPrice = item.UnitPrice
		c.Items[merge].Name = item.Name
	} else {
		c.Items = append(c.Items, item.clone())
	}

	c.Recalculate(pricing)
	return nil
}

// UpdateItemQuantity sets the quantity of the item at index; quantity <= 0 removes it.
func (c *Cart) UpdateItemQuantity(index, quantity int, pricing PricingEngine) error {
	if quantity <= 0 {
		return c.RemoveItem(index, pricing)
	}
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	c.Items[index].Quantity = quantity
	c.Recalculate(pricing)
	return nil
}

// RemoveItem removes the item at index. Removing the last item unsets the
// restaurant and coupon and deactivates the cart.
func (c *Cart) RemoveItem(index int, pricing PricingEngine) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}

	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	if len(c.Items) == 0 {
		c.reset()
		c.Active = false
	}

	c.Recalculate(pricing)
	return nil
}

// ApplyCoupon stores a coupon that the caller has already validated.
func (c *Cart) ApplyCoupon(coupon Coupon, pricing PricingEngine) error {
	if c.IsEmpty() {
		return fmt.Errorf("apply coupon[%s]: %w", coupon.Code, ErrEmptyCart)
	}
	if err := coupon.Validate(); err != nil {
		return err
	}

	c.Coupon = &coupon
	c.Recalculate(pricing)
	return nil
}

func (c *Cart) RemoveCoupon(pricing PricingEngine) {
	c.Coupon = nil
	c.Recalculate(pricing)
}

// Clear empties the cart and deactivates it.
func (c *Cart) Clear(pricing PricingEngine) {
	c.reset()
	c.Active = false
	c.Recalculate(pricing)
}

// Recalculate refreshes line totals and cart totals from the current contents.
func (c *Cart) Recalculate(pricing PricingEngine) {
	for i := range c.Items {
		c.Items[i].Total = roundMoney(c.Items[i].ComputeTotal())
	}
	c.Totals = pricing.ComputeTotals(c.Items, c.DeliveryFee, c.Coupon).Rounded()
}

// CheckoutKey identifies this exact cart content; an order is created at most once per key.
func (c *Cart) CheckoutKey() string {
	return fmt.Sprintf("%s:%d", c.ID, c.Version)
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.Items) {
		return fmt.Errorf("index[%d] with %d items: %w", index, len(c.Items), ErrInvalidIndex)
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxItemQuantity {
		return fmt.Errorf("quantity[%d] must be between 1 and %d: %w", quantity, MaxItemQuantity, ErrInvalidInput)
	}
	return nil
}

func (c *Cart) reset() {
	c.Items = nil
	c.Coupon = nil
	c.RestaurantID = nil
	c.Currency = currency.XXX
	c.DeliveryFee = decimal.Zero
}
