// Package events publishes order lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rajarohan/foodiez/internal/domain"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPayload struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	CustomerID    string `json:"customer_id"`
	RestaurantID  string `json:"restaurant_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Total         string `json:"total"`
	Note          string `json:"note,omitempty"`
}

// NewEnvelope wraps the event; the request id in ctx, if any, becomes the trace id.
func NewEnvelope(ctx context.Context, producer string, e domain.OrderEvent) (Envelope, error) {
	payload, err := json.Marshal(OrderPayload{
		OrderID:       e.OrderID.String(),
		OrderNumber:   e.OrderNumber,
		CustomerID:    e.CustomerID,
		RestaurantID:  e.RestaurantID.String(),
		Status:        string(e.Status),
		PaymentStatus: string(e.PaymentStatus),
		Total:         e.Total.StringFixed(2),
		Note:          e.Note,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("json.Marshal payload: %w", err)
	}

	return Envelope{
		EventID:       e.ID.String(),
		EventType:     string(e.Type),
		EventVersion:  EventVersion,
		OccurredAt:    e.OccurredAt.UTC(),
		Producer:      producer,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: e.OrderID.String(),
		Payload:       payload,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.OrderEvent) error {
	return nil
}
