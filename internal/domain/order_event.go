package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventPlaced        OrderEventType = "order.placed"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventCancelled     OrderEventType = "order.cancelled"
	OrderEventRefunded      OrderEventType = "order.refunded"
	OrderEventRated         OrderEventType = "order.rated"
)

type OrderEvent struct {
	ID            uuid.UUID
	Type          OrderEventType
	OrderID       uuid.UUID
	OrderNumber   string
	CustomerID    string
	RestaurantID  uuid.UUID
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Total         decimal.Decimal
	Note          string
	OccurredAt    time.Time
}

func NewOrderEvent(eventType OrderEventType, o Order, note string, now time.Time) OrderEvent {
	return OrderEvent{
		ID:            uuid.New(),
		Type:          eventType,
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		CustomerID:    o.CustomerID,
		RestaurantID:  o.RestaurantID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Totals.Total,
		Note:          note,
		OccurredAt:    now,
	}
}
