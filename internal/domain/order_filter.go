package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice
type OrderFilter struct {
	IDs             []uuid.UUID
	CustomerIDs     []string
	RestaurantIDs   []uuid.UUID
	Statuses        []OrderStatus
	PaymentStatuses []PaymentStatus
	CreatedAt       *TimeRange
}

func (f OrderFilter) IsEmpty() bool {
	return len(f.IDs) == 0 && len(f.CustomerIDs) == 0 && len(f.RestaurantIDs) == 0 &&
		len(f.Statuses) == 0 && len(f.PaymentStatuses) == 0 && f.CreatedAt == nil
}

func (f OrderFilter) Validate() error {
	if f.IsEmpty() {
		return fmt.Errorf("all fields are empty: %w", ErrInvalidInput)
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	return nil
}

// Matches applies the filter to a single order, for stores without a query engine.
func (f OrderFilter) Matches(o Order) bool {
	if len(f.IDs) > 0 && !lo.Contains(f.IDs, o.ID) {
		return false
	}
	if len(f.CustomerIDs) > 0 && !lo.Contains(f.CustomerIDs, o.CustomerID) {
		return false
	}
	if len(f.RestaurantIDs) > 0 && !lo.Contains(f.RestaurantIDs, o.RestaurantID) {
		return false
	}
	if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, o.Status) {
		return false
	}
	if len(f.PaymentStatuses) > 0 && !lo.Contains(f.PaymentStatuses, o.PaymentStatus) {
		return false
	}
	if f.CreatedAt != nil {
		if f.CreatedAt.After != nil && !o.CreatedAt.After(*f.CreatedAt.After) {
			return false
		}
		if f.CreatedAt.Before != nil && !o.CreatedAt.Before(*f.CreatedAt.Before) {
			return false
		}
	}
	return true
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return fmt.Errorf("both Before and After are nil: %w", ErrInvalidInput)
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After: %w", ErrInvalidInput)
		}
	}

	return nil
}
