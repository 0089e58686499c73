package httpx

import (
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Amounts are rendered as strings with two decimals so clients never see floats.

type CustomizationDTO struct {
	Name       string `json:"name"`
	Choice     string `json:"choice"`
	PriceDelta string `json:"price_delta,omitempty"`
}

type AddItemRequest struct {
	MenuItemID          uuid.UUID          `json:"menu_item_id"`
	Quantity            int                `json:"quantity"`
	Customizations      []CustomizationDTO `json:"customizations"`
	SpecialInstructions string             `json:"special_instructions"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type AddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Landmark   string `json:"landmark,omitempty"`
}

type ContactDTO struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type CheckoutRequest struct {
	DeliveryAddress     AddressDTO `json:"delivery_address"`
	Contact             ContactDTO `json:"contact"`
	PaymentMethod       string     `json:"payment_method"`
	SpecialInstructions string     `json:"special_instructions"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type RatingRequest struct {
	Food     int    `json:"food"`
	Delivery int    `json:"delivery"`
	Overall  int    `json:"overall"`
	Review   string `json:"review"`
}

type TotalsDTO struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	Tax         string `json:"tax"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

type LineItemDTO struct {
	MenuItemID          uuid.UUID          `json:"menu_item_id"`
	Name                string             `json:"name"`
	UnitPrice           string             `json:"unit_price"`
	Quantity            int                `json:"quantity"`
	Customizations      []CustomizationDTO `json:"customizations"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	Total               string             `json:"total"`
}

type CouponDTO struct {
	Code  string `json:"code"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type CartResponse struct {
	ID           uuid.UUID     `json:"id"`
	CustomerID   string        `json:"customer_id"`
	RestaurantID *uuid.UUID    `json:"restaurant_id"`
	Currency     string        `json:"currency"`
	Items        []LineItemDTO `json:"items"`
	Coupon       *CouponDTO    `json:"coupon"`
	Totals       TotalsDTO     `json:"totals"`
	Active       bool          `json:"active"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type TimelineEntryDTO struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

type RatingDTO struct {
	Food     int       `json:"food"`
	Delivery int       `json:"delivery"`
	Overall  int       `json:"overall"`
	Review   string    `json:"review,omitempty"`
	RatedAt  time.Time `json:"rated_at"`
}

type OrderResponse struct {
	ID                  uuid.UUID          `json:"id"`
	Number              string             `json:"number"`
	CustomerID          string             `json:"customer_id"`
	RestaurantID        uuid.UUID          `json:"restaurant_id"`
	Currency            string             `json:"currency"`
	Items               []LineItemDTO      `json:"items"`
	Status              string             `json:"status"`
	PaymentStatus       string             `json:"payment_status"`
	PaymentMethod       string             `json:"payment_method"`
	DeliveryAddress     AddressDTO         `json:"delivery_address"`
	Contact             ContactDTO         `json:"contact"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	Totals              TotalsDTO          `json:"totals"`
	CouponCode          string             `json:"coupon_code,omitempty"`
	EstimatedDeliveryAt time.Time          `json:"estimated_delivery_at"`
	DeliveredAt         *time.Time         `json:"delivered_at,omitempty"`
	Timeline            []TimelineEntryDTO `json:"timeline"`
	Rating              *RatingDTO         `json:"rating,omitempty"`
	CancellationReason  string             `json:"cancellation_reason,omitempty"`
	RefundAmount        *string            `json:"refund_amount,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type ModifiableResponse struct {
	Modifiable bool `json:"modifiable"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func mapTotals(t domain.Totals) TotalsDTO {
	return TotalsDTO{
		Subtotal:    money(t.Subtotal),
		DeliveryFee: money(t.DeliveryFee),
		Tax:         money(t.Tax),
		Discount:    money(t.Discount),
		Total:       money(t.Total),
	}
}

func mapLineItems(items []domain.LineItem) []LineItemDTO {
	return lo.Map(items, func(li domain.LineItem, _ int) LineItemDTO {
		return LineItemDTO{
			MenuItemID: li.MenuItemID,
			Name:       li.Name,
			UnitPrice:  money(li.UnitPrice),
			Quantity:   li.Quantity,
			Customizations: lo.Map(li.Customizations, func(c domain.Customization, _ int) CustomizationDTO {
				return CustomizationDTO{Name: c.Name, Choice: c.Choice, PriceDelta: money(c.PriceDelta)}
			}),
			SpecialInstructions: li.SpecialInstructions,
			Total:               money(li.Total),
		}
	})
}

func mapCart(c domain.Cart) CartResponse {
	resp := CartResponse{
		ID:           c.ID,
		CustomerID:   c.CustomerID,
		RestaurantID: c.RestaurantID,
		Currency:     c.Currency.String(),
		Items:        mapLineItems(c.Items),
		Totals:       mapTotals(c.Totals),
		Active:       c.Active,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.Coupon != nil {
		resp.Coupon = &CouponDTO{
			Code:  c.Coupon.Code,
			Kind:  string(c.Coupon.Kind),
			Value: c.Coupon.Value.String(),
		}
	}
	return resp
}

func mapOrder(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		CustomerID:    o.CustomerID,
		RestaurantID:  o.RestaurantID,
		Currency:      o.Currency.String(),
		Items:         mapLineItems(o.Items),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		DeliveryAddress: AddressDTO{
			Street:     o.DeliveryAddress.Street,
			City:       o.DeliveryAddress.City,
			State:      o.DeliveryAddress.State,
			PostalCode: o.DeliveryAddress.PostalCode,
			Country:    o.DeliveryAddress.Country,
			Landmark:   o.DeliveryAddress.Landmark,
		},
		Contact: ContactDTO{
			Name:  o.Contact.Name,
			Phone: o.Contact.Phone,
			Email: o.Contact.Email,
		},
		SpecialInstructions: o.SpecialInstructions,
		Totals:              mapTotals(o.Totals),
		CouponCode:          o.CouponCode,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		DeliveredAt:         o.DeliveredAt,
		Timeline: lo.Map(o.Timeline, func(e domain.TimelineEntry, _ int) TimelineEntryDTO {
			return TimelineEntryDTO{Status: string(e.Status), At: e.At, Note: e.Note}
		}),
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if o.Rating != nil {
		resp.Rating = &RatingDTO{
			Food:     o.Rating.Food,
			Delivery: o.Rating.Delivery,
			Overall:  o.Rating.Overall,
			Review:   o.Rating.Review,
			RatedAt:  o.Rating.RatedAt,
		}
	}
	if o.RefundAmount != nil {
		resp.RefundAmount = lo.ToPtr(money(*o.RefundAmount))
	}
	return resp
}

func (r CheckoutRequest) address() domain.Address {
	return domain.Address{
		Street:     r.DeliveryAddress.Street,
		City:       r.DeliveryAddress.City,
		State:      r.DeliveryAddress.State,
		PostalCode: r.DeliveryAddress.PostalCode,
		Country:    r.DeliveryAddress.Country,
		Landmark:   r.DeliveryAddress.Landmark,
	}
}

func (r CheckoutRequest) contact() domain.ContactInfo {
	return domain.ContactInfo{Name: r.Contact.Name, Phone: r.Contact.Phone, Email: r.Contact.Email}
}
