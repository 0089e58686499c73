package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// JSONB documents stored inside cart, order and menu rows.

type customizationDoc struct {
	Name       string          `json:"name"`
	Choice     string          `json:"choice"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

type lineItemDoc struct {
	MenuItemID          uuid.UUID          `json:"menu_item_id"`
	Name                string             `json:"name"`
	UnitPrice           decimal.Decimal    `json:"unit_price"`
	Quantity            int                `json:"quantity"`
	Customizations      []customizationDoc `json:"customizations,omitempty"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	Total               decimal.Decimal    `json:"total"`
}

type couponDoc struct {
	Code  string          `json:"code"`
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type addressDoc struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Landmark   string `json:"landmark,omitempty"`
}

type contactDoc struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type timelineEntryDoc struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

type ratingDoc struct {
	Food     int       `json:"food"`
	Delivery int       `json:"delivery"`
	Overall  int       `json:"overall"`
	Review   string    `json:"review,omitempty"`
	RatedAt  time.Time `json:"rated_at"`
}

func mapCustomizationsToDocs(cs []domain.Customization) []customizationDoc {
	return lo.Map(cs, func(c domain.Customization, _ int) customizationDoc {
		return customizationDoc{Name: c.Name, Choice: c.Choice, PriceDelta: c.PriceDelta}
	})
}

func mapDocsToCustomizations(docs []customizationDoc) []domain.Customization {
	if len(docs) == 0 {
		return nil
	}
	return lo.Map(docs, func(d customizationDoc, _ int) domain.Customization {
		return domain.Customization{Name: d.Name, Choice: d.Choice, PriceDelta: d.PriceDelta}
	})
}

func marshalItems(items []domain.LineItem) ([]byte, error) {
	docs := lo.Map(items, func(item domain.LineItem, _ int) lineItemDoc {
		return lineItemDoc{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			UnitPrice:           item.UnitPrice,
			Quantity:            item.Quantity,
			Customizations:      mapCustomizationsToDocs(item.Customizations),
			SpecialInstructions: item.SpecialInstructions,
			Total:               item.Total,
		}
	})

	return json.Marshal(docs)
}

func unmarshalItems(b []byte) ([]domain.LineItem, error) {
	var docs []lineItemDoc
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("json.Unmarshal items: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	return lo.Map(docs, func(d lineItemDoc, _ int) domain.LineItem {
		return domain.LineItem{
			MenuItemID:          d.MenuItemID,
			Name:                d.Name,
			UnitPrice:           d.UnitPrice,
			Quantity:            d.Quantity,
			Customizations:      mapDocsToCustomizations(d.Customizations),
			SpecialInstructions: d.SpecialInstructions,
			Total:               d.Total,
		}
	}), nil
}

func marshalCoupon(c *domain.Coupon) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(couponDoc{Code: c.Code, Kind: string(c.Kind), Value: c.Value})
}

func unmarshalCoupon(b []byte) (*domain.Coupon, error) {
	if len(b) == 0 {
		return nil, nil
	}

	var doc couponDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("json.Unmarshal coupon: %w", err)
	}

	kind, err := domain.ToCouponKind(doc.Kind)
	if err != nil {
		return nil, fmt.Errorf("domain.ToCouponKind[%s]: %w", doc.Kind, err)
	}

	return &domain.Coupon{Code: doc.Code, Kind: kind, Value: doc.Value}, nil
}

func marshalTimeline(entries []domain.TimelineEntry) ([]byte, error) {
	docs := lo.Map(entries, func(e domain.TimelineEntry, _ int) timelineEntryDoc {
		return timelineEntryDoc{Status: string(e.Status), At: e.At.UTC(), Note: e.Note}
	})
	return json.Marshal(docs)
}

func unmarshalTimeline(b []byte) ([]domain.TimelineEntry, error) {
	var docs []timelineEntryDoc
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("json.Unmarshal timeline: %w", err)
	}

	entries := make([]domain.TimelineEntry, 0, len(docs))
	for _, d := range docs {
		status, err := domain.ToOrderStatus(d.Status)
		if err != nil {
			return nil, fmt.Errorf("domain.ToOrderStatus[%s]: %w", d.Status, err)
		}
		entries = append(entries, domain.TimelineEntry{Status: status, At: d.At.UTC(), Note: d.Note})
	}
	return entries, nil
}

func marshalRating(r *domain.Rating) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(ratingDoc{
		Food:     r.Food,
		Delivery: r.Delivery,
		Overall:  r.Overall,
		Review:   r.Review,
		RatedAt:  r.RatedAt.UTC(),
	})
}

func unmarshalRating(b []byte) (*domain.Rating, error) {
	if len(b) == 0 {
		return nil, nil
	}

	var doc ratingDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("json.Unmarshal rating: %w", err)
	}

	return &domain.Rating{
		Food:     doc.Food,
		Delivery: doc.Delivery,
		Overall:  doc.Overall,
		Review:   doc.Review,
		RatedAt:  doc.RatedAt.UTC(),
	}, nil
}

func currencyToString(u currency.Unit) string {
	if u == currency.XXX {
		return ""
	}
	return u.String()
}

func parseCurrency(s string) (currency.Unit, error) {
	if s == "" {
		return currency.XXX, nil
	}

	parsed, err := currency.ParseISO(s)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", s, err)
	}
	return parsed, nil
}
