package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	orders    port.OrderRepository
	publisher port.EventPublisher
	clock     Clock
	log       *slog.Logger
}

func NewOrderService(orders port.OrderRepository, publisher port.EventPublisher, clock Clock, log *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		clock:     clock,
		log:       log.With(slog.String("component", "order")),
	}
}

func (s *OrderService) Get(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (domain.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}
	if err := checkAccess(actor, o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *OrderService) GetByNumber(ctx context.Context, actor domain.Actor, number string) (domain.Order, error) {
	o, err := s.orders.GetOrderByNumber(ctx, number)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrderByNumber: %w", err)
	}
	if err := checkAccess(actor, o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// List searches orders newest first. Customers only ever see their own orders;
// an admin without criteria sees every order.
func (s *OrderService) List(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error) {
	switch customerID, ok := actor.CustomerID(); {
	case ok:
		filter.CustomerIDs = []string{customerID}
	case actor.IsAdmin():
		if filter.IsEmpty() {
			filter.Statuses = domain.OrderStatuses()
		}
	default:
		return nil, fmt.Errorf("actor[%s] cannot list orders: %w", actor, domain.ErrUnauthorized)
	}

	orders, err := s.orders.SearchOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("orders.SearchOrders: %w", err)
	}
	return orders, nil
}

// UpdateStatus sets any recognized status. Admin only.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID, status, note string) (domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Order{}, err
	}

	newStatus, err := domain.ToOrderStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	return s.update(ctx, orderID, domain.OrderEventStatusChanged, note, func(o *domain.Order) error {
		return o.UpdateStatus(newStatus, note, s.clock.Now())
	})
}

func (s *OrderService) SetPaymentStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID, status string) (domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Order{}, err
	}

	paymentStatus, err := domain.ToPaymentStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	return s.update(ctx, orderID, "", "", func(o *domain.Order) error {
		return o.SetPaymentStatus(paymentStatus, s.clock.Now())
	})
}

// Cancel is allowed to the owning customer and to admins.
func (s *OrderService) Cancel(ctx context.Context, actor domain.Actor, orderID uuid.UUID, reason string) (domain.Order, error) {
	return s.update(ctx, orderID, domain.OrderEventCancelled, reason, func(o *domain.Order) error {
		if err := checkAccess(actor, *o); err != nil {
			return err
		}
		return o.Cancel(reason, s.clock.Now())
	})
}

func (s *OrderService) ProcessRefund(ctx context.Context, actor domain.Actor, orderID uuid.UUID, amount decimal.Decimal) (domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Order{}, err
	}

	return s.update(ctx, orderID, domain.OrderEventRefunded, "", func(o *domain.Order) error {
		if amount.GreaterThan(o.Totals.Total) {
			s.log.WarnContext(ctx, "refund exceeds order total",
				slog.String("order_id", o.ID.String()),
				slog.String("amount", amount.StringFixed(2)),
				slog.String("total", o.Totals.Total.StringFixed(2)))
		}
		return o.ProcessRefund(amount, s.clock.Now())
	})
}

// AddRating is allowed to the owning customer only.
func (s *OrderService) AddRating(ctx context.Context, actor domain.Actor, orderID uuid.UUID, in domain.RatingInput) (domain.Order, error) {
	customerID, ok := actor.CustomerID()
	if !ok {
		return domain.Order{}, fmt.Errorf("actor[%s] cannot rate orders: %w", actor, domain.ErrUnauthorized)
	}

	return s.update(ctx, orderID, domain.OrderEventRated, "", func(o *domain.Order) error {
		if o.CustomerID != customerID {
			return fmt.Errorf("order[%s] belongs to another customer: %w", o.Number, domain.ErrUnauthorized)
		}
		return o.AddRating(in, s.clock.Now())
	})
}

func (s *OrderService) CanBeModified(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (bool, error) {
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return false, err
	}
	return o.CanBeModified(), nil
}

// update applies fn atomically and publishes eventType after commit when it is set.
func (s *OrderService) update(ctx context.Context, orderID uuid.UUID, eventType domain.OrderEventType, note string, fn func(o *domain.Order) error) (domain.Order, error) {
	o, err := s.orders.UpdateOrder(ctx, orderID, fn)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.UpdateOrder: %w", err)
	}

	s.log.InfoContext(ctx, "order updated",
		slog.String("order_id", o.ID.String()),
		slog.String("status", string(o.Status)),
		slog.String("payment_status", string(o.PaymentStatus)))

	if eventType != "" {
		publish(ctx, s.log, s.publisher, domain.NewOrderEvent(eventType, o, note, s.clock.Now()))
	}
	return o, nil
}

// publish never fails the caller; the change it reports is already committed.
func publish(ctx context.Context, log *slog.Logger, publisher port.EventPublisher, e domain.OrderEvent) {
	if err := publisher.Publish(ctx, e); err != nil {
		log.WarnContext(ctx, "publish order event",
			slog.String("event_type", string(e.Type)),
			slog.String("order_id", e.OrderID.String()),
			slog.Any("error", err))
	}
}

func checkAccess(actor domain.Actor, o domain.Order) error {
	if !actor.CanAccess(o.CustomerID) {
		return fmt.Errorf("actor[%s] on order[%s]: %w", actor, o.Number, domain.ErrUnauthorized)
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("actor[%s] is not an admin: %w", actor, domain.ErrUnauthorized)
	}
	return nil
}
