package domain

import "errors"

// Error kinds surfaced by the ordering core. Callers match them with errors.Is;
// every layer wraps them with the failing operation for context.
var (
	ErrNotFound                = errors.New("not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidInput            = errors.New("invalid input")
	ErrConflict                = errors.New("conflict")
	ErrItemUnavailable         = errors.New("menu item is unavailable")
	ErrRestaurantInactive      = errors.New("restaurant is inactive")
	ErrInvalidIndex            = errors.New("invalid item index")
	ErrItemNotFound            = errors.New("item not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrMinimumOrderNotMet      = errors.New("minimum order amount not met")
	ErrInvalidCoupon           = errors.New("invalid coupon")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrOrderNotCancellable     = errors.New("order cannot be cancelled")
	ErrNotDelivered            = errors.New("order is not delivered")
	ErrAlreadyRated            = errors.New("order is already rated")
	ErrCurrencyMismatch        = errors.New("currency mismatch")
)
