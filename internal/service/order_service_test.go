package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = domain.Admin("admin-1")

// placedOrder checks out two pizzas for cust-1.
func placedOrder(t *testing.T, f *fixture) domain.Order {
	t.Helper()

	customer := domain.Customer("cust-1")
	f.addPizzas(t, customer, 2)
	return f.placeOrder(t, customer)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	order := placedOrder(t, f)

	steps := []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusPreparing,
		domain.OrderStatusReady,
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusDelivered,
	}

	var err error
	for i, status := range steps {
		order, err = f.orders.UpdateStatus(ctx, admin, order.ID, string(status), "step")
		require.NoError(t, err)

		assert.Equal(t, status, order.Status)
		assert.Len(t, order.Timeline, i+2)
		assert.Equal(t, status, order.Timeline[len(order.Timeline)-1].Status)
	}

	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, testNow, *order.DeliveredAt)
	assert.False(t, order.CanBeModified())

	// any recognized status is accepted, even backwards
	order, err = f.orders.UpdateStatus(ctx, admin, order.ID, string(domain.OrderStatusPreparing), "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, order.Status)
	assert.NotNil(t, order.DeliveredAt, "delivery stamp is kept")

	events := f.publisher.types()
	assert.Equal(t, domain.OrderEventPlaced, events[0])
	assert.Len(t, events, len(steps)+2)
	for _, e := range events[1:] {
		assert.Equal(t, domain.OrderEventStatusChanged, e)
	}
}

func TestOrderService_UpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name      string
		actor     domain.Actor
		status    string
		unknownID bool
		wantError error
	}{
		{name: "customer: unauthorized", actor: domain.Customer("cust-1"), status: "confirmed", wantError: domain.ErrUnauthorized},
		{name: "unknown status: invalid status transition", actor: admin, status: "teleported", wantError: domain.ErrInvalidStatusTransition},
		{name: "unknown order: not found", actor: admin, status: "confirmed", unknownID: true, wantError: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			order := placedOrder(t, f)

			orderID := order.ID
			if tt.unknownID {
				orderID = uuid.New()
			}

			_, err := f.orders.UpdateStatus(t.Context(), tt.actor, orderID, tt.status, "")
			require.ErrorIs(t, err, tt.wantError)

			stored, err := f.store.Orders().GetOrder(t.Context(), order.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusPending, stored.Status)
			assert.Len(t, stored.Timeline, 1)
		})
	}
}

func TestOrderService_Cancel(t *testing.T) {
	tests := []struct {
		name      string
		actor     domain.Actor
		status    domain.OrderStatus
		wantError error
	}{
		{name: "owner pending: ok", actor: domain.Customer("cust-1"), status: domain.OrderStatusPending},
		{name: "owner preparing: ok", actor: domain.Customer("cust-1"), status: domain.OrderStatusPreparing},
		{name: "admin ready: ok", actor: admin, status: domain.OrderStatusReady},
		{name: "other customer: unauthorized", actor: domain.Customer("cust-2"), status: domain.OrderStatusPending, wantError: domain.ErrUnauthorized},
		{name: "out for delivery: not cancellable", actor: admin, status: domain.OrderStatusOutForDelivery, wantError: domain.ErrOrderNotCancellable},
		{name: "delivered: not cancellable", actor: admin, status: domain.OrderStatusDelivered, wantError: domain.ErrOrderNotCancellable},
		{name: "cancelled: not cancellable", actor: admin, status: domain.OrderStatusCancelled, wantError: domain.ErrOrderNotCancellable},
		{name: "refunded: not cancellable", actor: admin, status: domain.OrderStatusRefunded, wantError: domain.ErrOrderNotCancellable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := t.Context()
			order := placedOrder(t, f)

			if tt.status != domain.OrderStatusPending {
				_, err := f.orders.UpdateStatus(ctx, admin, order.ID, string(tt.status), "")
				require.NoError(t, err)
			}
			before, err := f.store.Orders().GetOrder(ctx, order.ID)
			require.NoError(t, err)

			cancelled, err := f.orders.Cancel(ctx, tt.actor, order.ID, "changed my mind")
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)

				after, err := f.store.Orders().GetOrder(ctx, order.ID)
				require.NoError(t, err)
				assert.Equal(t, before.Status, after.Status)
				assert.Len(t, after.Timeline, len(before.Timeline))
				return
			}
			require.NoError(t, err)

			assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
			assert.Equal(t, "changed my mind", cancelled.CancellationReason)
			assert.Len(t, cancelled.Timeline, len(before.Timeline)+1)
			assert.Contains(t, f.publisher.types(), domain.OrderEventCancelled)
		})
	}
}

func TestOrderService_ProcessRefund(t *testing.T) {
	tests := []struct {
		name      string
		actor     domain.Actor
		amount    string
		want      string
		wantError error
	}{
		{name: "partial refund: ok", actor: admin, amount: "10.005", want: "10.01"},
		{name: "refund above total: ok", actor: admin, amount: "100", want: "100.00"},
		{name: "customer: unauthorized", actor: domain.Customer("cust-1"), amount: "5", wantError: domain.ErrUnauthorized},
		{name: "negative amount: invalid input", actor: admin, amount: "-1", wantError: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			order := placedOrder(t, f)

			refunded, err := f.orders.ProcessRefund(t.Context(), tt.actor, order.ID, dec(tt.amount))
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			require.NotNil(t, refunded.RefundAmount)
			assert.Equal(t, tt.want, refunded.RefundAmount.StringFixed(2))
			assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)
			assert.Equal(t, domain.PaymentStatusRefunded, refunded.PaymentStatus)
			assert.Len(t, refunded.Timeline, 2)
			assert.True(t, order.Totals.Total.Equal(refunded.Totals.Total), "totals are frozen")
			assert.Equal(t, domain.OrderEventRefunded, f.publisher.types()[1])
		})
	}
}

func TestOrderService_SetPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	order := placedOrder(t, f)

	_, err := f.orders.SetPaymentStatus(ctx, domain.Customer("cust-1"), order.ID, "paid")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.orders.SetPaymentStatus(ctx, admin, order.ID, "maybe")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	order, err = f.orders.SetPaymentStatus(ctx, admin, order.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, order.Timeline, 1)
	assert.Equal(t, []domain.OrderEventType{domain.OrderEventPlaced}, f.publisher.types())
}

func TestOrderService_AddRating(t *testing.T) {
	valid := domain.RatingInput{Food: 5, Delivery: 4, Overall: 5, Review: "great crust"}

	tests := []struct {
		name      string
		actor     domain.Actor
		delivered bool
		input     domain.RatingInput
		wantError error
	}{
		{name: "owner after delivery: ok", actor: domain.Customer("cust-1"), delivered: true, input: valid},
		{name: "before delivery: not delivered", actor: domain.Customer("cust-1"), input: valid, wantError: domain.ErrNotDelivered},
		{name: "other customer: unauthorized", actor: domain.Customer("cust-2"), delivered: true, input: valid, wantError: domain.ErrUnauthorized},
		{name: "admin: unauthorized", actor: admin, delivered: true, input: valid, wantError: domain.ErrUnauthorized},
		{
			name:      "score out of range: invalid input",
			actor:     domain.Customer("cust-1"),
			delivered: true,
			input:     domain.RatingInput{Food: 6, Delivery: 4, Overall: 5},
			wantError: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := t.Context()
			order := placedOrder(t, f)

			if tt.delivered {
				_, err := f.orders.UpdateStatus(ctx, admin, order.ID, string(domain.OrderStatusDelivered), "")
				require.NoError(t, err)
			}

			rated, err := f.orders.AddRating(ctx, tt.actor, order.ID, tt.input)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			require.NotNil(t, rated.Rating)
			assert.Equal(t, 5, rated.Rating.Overall)
			assert.Equal(t, "great crust", rated.Rating.Review)
			assert.Equal(t, testNow, rated.Rating.RatedAt)

			_, err = f.orders.AddRating(ctx, tt.actor, order.ID, tt.input)
			assert.ErrorIs(t, err, domain.ErrAlreadyRated)
		})
	}
}

func TestOrderService_Access(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	order := placedOrder(t, f)

	got, err := f.orders.Get(ctx, domain.Customer("cust-1"), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	got, err = f.orders.GetByNumber(ctx, admin, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.orders.Get(ctx, domain.Customer("cust-2"), order.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.orders.GetByNumber(ctx, domain.Customer("cust-2"), order.Number)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.orders.Get(ctx, domain.Actor{}, order.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.orders.Get(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderService_List(t *testing.T) {
	f := newFixture(t, withRandom(sequence(1, 2, 3)))
	ctx := t.Context()

	first := placedOrder(t, f)

	f.addPizzas(t, domain.Customer("cust-2"), 2)
	second := f.placeOrder(t, domain.Customer("cust-2"))

	_, err := f.orders.UpdateStatus(ctx, admin, second.ID, string(domain.OrderStatusDelivered), "")
	require.NoError(t, err)

	tests := []struct {
		name      string
		actor     domain.Actor
		filter    domain.OrderFilter
		want      []uuid.UUID
		wantError error
	}{
		{
			name:  "customer sees own orders only",
			actor: domain.Customer("cust-1"),
			want:  []uuid.UUID{first.ID},
		},
		{
			name:   "customer cannot widen the filter",
			actor:  domain.Customer("cust-1"),
			filter: domain.OrderFilter{CustomerIDs: []string{"cust-2"}},
			want:   []uuid.UUID{first.ID},
		},
		{
			name:  "admin without criteria sees everything",
			actor: admin,
			want:  []uuid.UUID{first.ID, second.ID},
		},
		{
			name:   "admin by status",
			actor:  admin,
			filter: domain.OrderFilter{Statuses: []domain.OrderStatus{domain.OrderStatusDelivered}},
			want:   []uuid.UUID{second.ID},
		},
		{
			name:   "admin by restaurant",
			actor:  admin,
			filter: domain.OrderFilter{RestaurantIDs: []uuid.UUID{f.otherRestaurant.ID}},
		},
		{
			name:      "anonymous: unauthorized",
			actor:     domain.Actor{},
			wantError: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := f.orders.List(ctx, tt.actor, tt.filter)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			ids := make([]uuid.UUID, 0, len(orders))
			for _, o := range orders {
				ids = append(ids, o.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestOrderService_CanBeModified(t *testing.T) {
	tests := []struct {
		status domain.OrderStatus
		want   bool
	}{
		{status: domain.OrderStatusPending, want: true},
		{status: domain.OrderStatusConfirmed, want: true},
		{status: domain.OrderStatusPreparing, want: false},
		{status: domain.OrderStatusReady, want: false},
		{status: domain.OrderStatusCancelled, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture(t)
			ctx := t.Context()
			order := placedOrder(t, f)

			if tt.status != domain.OrderStatusPending {
				_, err := f.orders.UpdateStatus(ctx, admin, order.ID, string(tt.status), "")
				require.NoError(t, err)
			}

			got, err := f.orders.CanBeModified(ctx, domain.Customer("cust-1"), order.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderService_TimestampsFollowClock(t *testing.T) {
	f := newFixture(t)
	order := placedOrder(t, f)

	assert.Equal(t, testNow, order.CreatedAt)
	assert.True(t, order.EstimatedDeliveryAt.After(order.CreatedAt))
	assert.WithinDuration(t, testNow.Add(45*time.Minute), order.EstimatedDeliveryAt, 0)
}
