package domain

import (
	"fmt"
	"slices"
)

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out-for-delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:        {},
	OrderStatusConfirmed:      {},
	OrderStatusPreparing:      {},
	OrderStatusReady:          {},
	OrderStatusOutForDelivery: {},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
	OrderStatusRefunded:       {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", fmt.Errorf("order status[%s]: %w", s, ErrInvalidStatusTransition)
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(validOrderStatuses))
	for status := range validOrderStatuses {
		result = append(result, status)
	}
	slices.Sort(result)
	return result
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:  {},
	PaymentStatusPaid:     {},
	PaymentStatusFailed:   {},
	PaymentStatusRefunded: {},
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := validPaymentStatuses[status]; ok {
		return status, nil
	}

	return "", fmt.Errorf("payment status[%s]: %w", s, ErrInvalidInput)
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodDebit  PaymentMethod = "debit"
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodUPI    PaymentMethod = "upi"
)

var validPaymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodCash:   {},
	PaymentMethodCard:   {},
	PaymentMethodDebit:  {},
	PaymentMethodWallet: {},
	PaymentMethodUPI:    {},
}

// ToPaymentMethod accepts "credit" as an alias of card.
func ToPaymentMethod(s string) (PaymentMethod, error) {
	if s == "credit" {
		return PaymentMethodCard, nil
	}

	method := PaymentMethod(s)
	if _, ok := validPaymentMethods[method]; ok {
		return method, nil
	}

	return "", fmt.Errorf("payment method[%s]: %w", s, ErrInvalidInput)
}
