package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Order is the snapshot of a checked-out cart. Items, totals, address and contact
// are fixed at creation; only the status, payment and rating fields change later.
type Order struct {
	ID                  uuid.UUID
	Number              string
	CustomerID          string
	RestaurantID        uuid.UUID
	Currency            currency.Unit
	Items               []LineItem
	Status              OrderStatus
	PaymentStatus       PaymentStatus
	PaymentMethod       PaymentMethod
	DeliveryAddress     Address
	Contact             ContactInfo
	SpecialInstructions string
	Totals              Totals
	CouponCode          string

	EstimatedDeliveryAt time.Time
	DeliveredAt         *time.Time

	Timeline           []TimelineEntry
	Rating             *Rating
	CancellationReason string
	RefundAmount       *decimal.Decimal

	// CheckoutKey ties the order to the cart version it was created from.
	CheckoutKey    string
	IdempotencyKey string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Landmark   string
}

func (a Address) Validate() error {
	if a.Street == "" || a.City == "" {
		return fmt.Errorf("delivery address requires street and city: %w", ErrInvalidInput)
	}
	return nil
}

type ContactInfo struct {
	Name  string
	Phone string
	Email string
}

func (c ContactInfo) Validate() error {
	if c.Phone == "" {
		return fmt.Errorf("contact phone is empty: %w", ErrInvalidInput)
	}
	return nil
}

type TimelineEntry struct {
	Status OrderStatus
	At     time.Time
	Note   string
}

type Rating struct {
	Food     int
	Delivery int
	Overall  int
	Review   string
	RatedAt  time.Time
}

type RatingInput struct {
	Food     int
	Delivery int
	Overall  int
	Review   string
}

func (r RatingInput) Validate() error {
	scores := []struct {
		name  string
		score int
	}{
		{"food", r.Food},
		{"delivery", r.Delivery},
		{"overall", r.Overall},
	}

	for _, s := range scores {
		if s.score < MinRatingScore || s.score > MaxRatingScore {
			return fmt.Errorf("%s rating[%d] must be between %d and %d: %w", s.name, s.score, MinRatingScore, MaxRatingScore, ErrInvalidInput)
		}
	}
	if len([]rune(r.Review)) > MaxInstructionsLength {
		return fmt.Errorf("review longer than %d characters: %w", MaxInstructionsLength, ErrInvalidInput)
	}
	return nil
}

type NewOrderParams struct {
	Number              string
	Cart                Cart
	PaymentMethod       PaymentMethod
	DeliveryAddress     Address
	Contact             ContactInfo
	SpecialInstructions string
	EstimatedDeliveryAt time.Time
	IdempotencyKey      string
}

// NewOrder materializes an order from the cart's last computed state. The cart's
// totals are copied as-is; nothing is re-priced.
func NewOrder(p NewOrderParams, now time.Time) (Order, error) {
	var o Order

	if p.Cart.IsEmpty() || p.Cart.RestaurantID == nil {
		return o, ErrEmptyCart
	}
	if p.Number == "" {
		return o, fmt.Errorf("order number is empty: %w", ErrInvalidInput)
	}
	if _, err := ToPaymentMethod(string(p.PaymentMethod)); err != nil {
		return o, err
	}
	if err := p.DeliveryAddress.Validate(); err != nil {
		return o, err
	}
	if err := p.Contact.Validate(); err != nil {
		return o, err
	}

	instructions := normalizeInstructions(p.SpecialInstructions)
	if err := validateInstructions(instructions); err != nil {
		return o, err
	}

	var couponCode string
	if p.Cart.Coupon != nil {
		couponCode = p.Cart.Coupon.Code
	}

	o = Order{
		ID:                  uuid.New(),
		Number:              p.Number,
		CustomerID:          p.Cart.CustomerID,
		RestaurantID:        *p.Cart.RestaurantID,
		Currency:            p.Cart.Currency,
		Items:               cloneItems(p.Cart.Items),
		Status:              OrderStatusPending,
		PaymentStatus:       PaymentStatusPending,
		PaymentMethod:       p.PaymentMethod,
		DeliveryAddress:     p.DeliveryAddress,
		Contact:             p.Contact,
		SpecialInstructions: instructions,
		Totals:              p.Cart.Totals,
		CouponCode:          couponCode,
		EstimatedDeliveryAt: p.EstimatedDeliveryAt,
		CheckoutKey:         p.Cart.CheckoutKey(),
		IdempotencyKey:      p.IdempotencyKey,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	o.appendTimeline(OrderStatusPending, "Order placed", now)

	return o, nil
}

// UpdateStatus sets any recognized status. Delivering stamps DeliveredAt once.
func (o *Order) UpdateStatus(status OrderStatus, note string, now time.Time) error {
	if _, err := ToOrderStatus(string(status)); err != nil {
		return err
	}

	o.Status = status
	if status == OrderStatusDelivered && o.DeliveredAt == nil {
		deliveredAt := now
		o.DeliveredAt = &deliveredAt
	}
	o.appendTimeline(status, note, now)
	return nil
}

func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return true
}

func (o *Order) Cancel(reason string, now time.Time) error {
	if !o.CanBeCancelled() {
		return fmt.Errorf("order[%s] in status %s: %w", o.Number, o.Status, ErrOrderNotCancellable)
	}

	o.Status = OrderStatusCancelled
	o.CancellationReason = reason
	o.appendTimeline(OrderStatusCancelled, reason, now)
	return nil
}

// CanBeModified reports whether the kitchen has not started on the order yet.
func (o *Order) CanBeModified() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// ProcessRefund records a refund of amount. The amount is not checked against the
// order total so partial and goodwill refunds are representable.
func (o *Order) ProcessRefund(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("refund amount[%s] is negative: %w", amount, ErrInvalidInput)
	}

	refund := roundMoney(amount)
	o.RefundAmount = &refund
	o.PaymentStatus = PaymentStatusRefunded
	o.Status = OrderStatusRefunded
	o.appendTimeline(OrderStatusRefunded, fmt.Sprintf("Refunded %s", refund.StringFixed(2)), now)
	return nil
}

func (o *Order) SetPaymentStatus(status PaymentStatus, now time.Time) error {
	if _, err := ToPaymentStatus(string(status)); err != nil {
		return err
	}

	o.PaymentStatus = status
	o.UpdatedAt = now
	return nil
}

func (o *Order) AddRating(in RatingInput, now time.Time) error {
	if o.Status != OrderStatusDelivered {
		return fmt.Errorf("order[%s] in status %s: %w", o.Number, o.Status, ErrNotDelivered)
	}
	if o.Rating != nil {
		return fmt.Errorf("order[%s]: %w", o.Number, ErrAlreadyRated)
	}
	if err := in.Validate(); err != nil {
		return err
	}

	o.Rating = &Rating{
		Food:     in.Food,
		Delivery: in.Delivery,
		Overall:  in.Overall,
		Review:   in.Review,
		RatedAt:  now,
	}
	o.UpdatedAt = now
	return nil
}

func (o *Order) appendTimeline(status OrderStatus, note string, now time.Time) {
	o.Timeline = append(o.Timeline, TimelineEntry{Status: status, At: now, Note: note})
	o.UpdatedAt = now
}
