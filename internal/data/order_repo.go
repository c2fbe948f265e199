package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/taponn/taponn-api/internal/data/pgxutil"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

const orderColumns = `
	id, user_id, order_number, product_type, quantity, total_amount::text AS total_amount,
	status, payment_status, shipping_address, tracking_number, notes, created_at, updated_at`

// OrderRepo provides database operations for card orders.
type OrderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOrderRepo creates an OrderRepo with the real clock.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewOrderRepoWithTimeProvider creates an OrderRepo with a custom clock (useful for tests).
func NewOrderRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *OrderRepo {
	return &OrderRepo{DB: db, timeProvider: tp}
}

// Create inserts a new order under the supplied order number. A duplicate
// order number surfaces as a conflict so the service can retry with a
// fresh number.
func (r *OrderRepo) Create(ctx context.Context, orderNumber string, req *model.CreateOrderRequest) (*model.Order, error) {
	if req == nil {
		return nil, apperrors.Validation("create order request is required")
	}
	if orderNumber == "" {
		return nil, apperrors.Validation("order number is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	now := r.timeProvider.Now().UTC()
	var out model.Order
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.Order](ctx, conn, `
			INSERT INTO orders (
				user_id, order_number, product_type, quantity, total_amount,
				shipping_address, notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $8)
			RETURNING `+orderColumns,
			req.UserID, orderNumber, req.ProductType, req.Quantity, req.TotalAmount,
			req.ShippingAddress, req.Notes, now,
		)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves an order by id.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getByQuery(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByOrderNumber retrieves an order by its public order number.
func (r *OrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return r.getByQuery(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

// ListByUser retrieves a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)

	var rowsOut []model.Order
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		rowsOut, err = pgxutil.QueryMany[model.Order](ctx, conn,
			`SELECT `+orderColumns+` FROM orders WHERE user_id = $1
			 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			userID, limit, offset,
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Order, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateStatus moves the order to a new fulfilment status, optionally
// attaching a tracking number.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, trackingNumber *string) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.ValidationField("status", "order status is not supported")
	}

	now := r.timeProvider.Now().UTC()
	var out model.Order
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.Order](ctx, conn, `
			UPDATE orders SET
				status = $2,
				tracking_number = COALESCE($3, tracking_number),
				updated_at = $4
			WHERE id = $1
			RETURNING `+orderColumns,
			id, status, trackingNumber, now,
		)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// UpdatePaymentStatus records a payment transition.
func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Order, error) {
	now := r.timeProvider.Now().UTC()
	var out model.Order
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.Order](ctx, conn, `
			UPDATE orders SET payment_status = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+orderColumns,
			id, status, now,
		)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

func (r *OrderRepo) getByQuery(ctx context.Context, query string, args ...any) (*model.Order, error) {
	var out model.Order
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.Order](ctx, conn, query, args...)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
