package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, customer_id, restaurant_id, currency, items, status, payment_status,
	payment_method, delivery_address, contact, special_instructions,
	subtotal, delivery_fee, tax, discount, total, coupon_code,
	estimated_delivery_at, delivered_at, timeline, rating, cancellation_reason, refund_amount,
	checkout_key, idempotency_key, created_at, updated_at`

type orderRepository struct {
	q DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{q: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{q: tx}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrderBy(ctx, "q.GetOrder", `id = $1`, orderID)
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, number string) (domain.Order, error) {
	return r.getOrderBy(ctx, "q.GetOrderByNumber", `order_number = $1`, number)
}

func (r *orderRepository) GetOrderByCheckoutKey(ctx context.Context, checkoutKey string) (domain.Order, error) {
	return r.getOrderBy(ctx, "q.GetOrderByCheckoutKey", `checkout_key = $1`, checkoutKey)
}

func (r *orderRepository) GetOrderByIdempotencyKey(ctx context.Context, customerID, key string) (domain.Order, error) {
	return r.getOrderBy(ctx, "q.GetOrderByIdempotencyKey", `customer_id = $1 AND idempotency_key = $2`, customerID, key)
}

func (r *orderRepository) getOrderBy(ctx context.Context, op, where string, args ...any) (domain.Order, error) {
	var o domain.Order

	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return o, fmt.Errorf("%s: %w", op, err)
	}

	return o, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, errors.New("no items in order")
	}
	if order.ID == uuid.Nil {
		return uuid.Nil, errors.New("order id is empty")
	}

	docs, err := mapOrderToDocs(order)
	if err != nil {
		return uuid.Nil, fmt.Errorf("mapOrderToDocs: %w", err)
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`,
		order.ID, order.Number, order.CustomerID, order.RestaurantID, currencyToString(order.Currency), docs.items,
		string(order.Status), string(order.PaymentStatus), string(order.PaymentMethod), docs.address, docs.contact,
		order.SpecialInstructions,
		order.Totals.Subtotal, order.Totals.DeliveryFee, order.Totals.Tax, order.Totals.Discount, order.Totals.Total,
		order.CouponCode, order.EstimatedDeliveryAt, order.DeliveredAt, docs.timeline, docs.rating,
		order.CancellationReason, refundToNullDecimal(order.RefundAmount),
		order.CheckoutKey, lo.EmptyableToPtr(order.IdempotencyKey), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		switch uniqueViolation(err) {
		case "orders_order_number_key":
			return uuid.Nil, fmt.Errorf("q.InsertOrder: %w", port.ErrOrderNumberTaken)
		case "orders_checkout_key_key", "orders_customer_idempotency_key":
			return uuid.Nil, fmt.Errorf("q.InsertOrder: %w", port.ErrCheckoutKeyTaken)
		}
		return uuid.Nil, fmt.Errorf("q.InsertOrder: %w", err)
	}

	return order.ID, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	var createdAfter, createdBefore *time.Time
	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })
	paymentStatuses := lo.Map(filter.PaymentStatuses, func(s domain.PaymentStatus, _ int) string { return string(s) })

	rows, err := r.q.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::uuid[] IS NULL OR id = ANY ($1))
		  AND ($2::text[] IS NULL OR customer_id = ANY ($2))
		  AND ($3::uuid[] IS NULL OR restaurant_id = ANY ($3))
		  AND ($4::text[] IS NULL OR status = ANY ($4))
		  AND ($5::text[] IS NULL OR payment_status = ANY ($5))
		  AND ($6::timestamptz IS NULL OR created_at > $6)
		  AND ($7::timestamptz IS NULL OR created_at < $7)
		ORDER BY created_at DESC`,
		nilSliceIfEmpty(filter.IDs),
		nilSliceIfEmpty(filter.CustomerIDs),
		nilSliceIfEmpty(filter.RestaurantIDs),
		nilSliceIfEmpty(statuses),
		nilSliceIfEmpty(paymentStatuses),
		createdAfter,
		createdBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("q.SearchOrders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanOrder: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, orderID uuid.UUID, fn func(o *domain.Order) error) (domain.Order, error) {
	if orderID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("orderID is empty")
	}

	order, err := withTx(ctx, r.q, func(q DBTX) (domain.Order, error) {
		o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("q.GetOrderForUpdate: %w", domain.ErrNotFound)
			}
			return o, fmt.Errorf("q.GetOrderForUpdate: %w", err)
		}

		if err := fn(&o); err != nil {
			return o, err
		}

		docs, err := mapOrderToDocs(o)
		if err != nil {
			return o, fmt.Errorf("mapOrderToDocs: %w", err)
		}

		_, err = q.Exec(ctx, `
			UPDATE orders
			SET status = $2, payment_status = $3, delivered_at = $4, timeline = $5, rating = $6,
			    cancellation_reason = $7, refund_amount = $8, updated_at = $9
			WHERE id = $1`,
			o.ID, string(o.Status), string(o.PaymentStatus), o.DeliveredAt, docs.timeline, docs.rating,
			o.CancellationReason, refundToNullDecimal(o.RefundAmount), o.UpdatedAt,
		)
		if err != nil {
			return o, fmt.Errorf("q.UpdateOrder: %w", err)
		}

		return o, nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

type orderDocs struct {
	items    []byte
	address  []byte
	contact  []byte
	timeline []byte
	rating   []byte
}

func mapOrderToDocs(o domain.Order) (orderDocs, error) {
	var (
		docs orderDocs
		err  error
	)

	if docs.items, err = marshalItems(o.Items); err != nil {
		return docs, fmt.Errorf("marshalItems: %w", err)
	}
	if docs.address, err = json.Marshal(addressDoc(o.DeliveryAddress)); err != nil {
		return docs, fmt.Errorf("json.Marshal address: %w", err)
	}
	if docs.contact, err = json.Marshal(contactDoc(o.Contact)); err != nil {
		return docs, fmt.Errorf("json.Marshal contact: %w", err)
	}
	if docs.timeline, err = marshalTimeline(o.Timeline); err != nil {
		return docs, fmt.Errorf("marshalTimeline: %w", err)
	}
	if docs.rating, err = marshalRating(o.Rating); err != nil {
		return docs, fmt.Errorf("marshalRating: %w", err)
	}

	return docs, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                                  domain.Order
		cur, status, paymentStatus, method string
		items, address, contact, timeline  []byte
		rating                             []byte
		refund                             decimal.NullDecimal
		idempotencyKey                     *string
	)

	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.RestaurantID, &cur, &items, &status, &paymentStatus,
		&method, &address, &contact, &o.SpecialInstructions,
		&o.Totals.Subtotal, &o.Totals.DeliveryFee, &o.Totals.Tax, &o.Totals.Discount, &o.Totals.Total, &o.CouponCode,
		&o.EstimatedDeliveryAt, &o.DeliveredAt, &timeline, &rating, &o.CancellationReason, &refund,
		&o.CheckoutKey, &idempotencyKey, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}

	if o.Currency, err = parseCurrency(cur); err != nil {
		return o, fmt.Errorf("parseCurrency: %w", err)
	}
	if o.Status, err = domain.ToOrderStatus(status); err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}
	if o.PaymentStatus, err = domain.ToPaymentStatus(paymentStatus); err != nil {
		return o, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", paymentStatus, err)
	}
	if o.PaymentMethod, err = domain.ToPaymentMethod(method); err != nil {
		return o, fmt.Errorf("domain.ToPaymentMethod[%s]: %w", method, err)
	}
	if o.Items, err = unmarshalItems(items); err != nil {
		return o, fmt.Errorf("unmarshalItems: %w", err)
	}
	if o.Timeline, err = unmarshalTimeline(timeline); err != nil {
		return o, fmt.Errorf("unmarshalTimeline: %w", err)
	}
	if o.Rating, err = unmarshalRating(rating); err != nil {
		return o, fmt.Errorf("unmarshalRating: %w", err)
	}

	var addr addressDoc
	if err := json.Unmarshal(address, &addr); err != nil {
		return o, fmt.Errorf("json.Unmarshal address: %w", err)
	}
	o.DeliveryAddress = domain.Address(addr)

	var cont contactDoc
	if err := json.Unmarshal(contact, &cont); err != nil {
		return o, fmt.Errorf("json.Unmarshal contact: %w", err)
	}
	o.Contact = domain.ContactInfo(cont)

	if refund.Valid {
		o.RefundAmount = lo.ToPtr(refund.Decimal)
	}
	o.IdempotencyKey = lo.FromPtr(idempotencyKey)

	o.EstimatedDeliveryAt = o.EstimatedDeliveryAt.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	if o.DeliveredAt != nil {
		o.DeliveredAt = lo.ToPtr(o.DeliveredAt.UTC())
	}

	return o, nil
}

func refundToNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
