package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/taponn/taponn-api/internal/core"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

// orderNumberAttempts bounds retries when a generated order number
// collides with an existing one.
const orderNumberAttempts = 5

// OrderServiceOptions groups dependencies for OrderService.
type OrderServiceOptions struct {
	Orders core.OrderRepository // Required
	Logger *slog.Logger
	Now    func() time.Time
	// Rand overrides the order-number digit source in tests.
	Rand func(n int) int
}

// OrderService handles card purchases: order placement with generated
// order numbers and fulfilment status transitions.
type OrderService struct {
	orders core.OrderRepository
	logger *slog.Logger
	now    func() time.Time
	randN  func(n int) int
}

// NewOrderService constructs a new OrderService.
func NewOrderService(opts OrderServiceOptions) (*OrderService, error) {
	if opts.Orders == nil {
		return nil, errors.New("OrderRepository is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.IntN
	}
	return &OrderService{
		orders: opts.Orders,
		logger: opts.Logger.With("component", "order_service"),
		now:    opts.Now,
		randN:  opts.Rand,
	}, nil
}

// Create places an order for the requesting user. The order number is
// generated server-side; a collision with an existing number is retried
// with a fresh number.
func (s *OrderService) Create(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error) {
	if req == nil {
		return nil, errors.New("create order request is required")
	}
	req.UserID = userID

	var lastErr error
	for range orderNumberAttempts {
		order, err := s.orders.Create(ctx, s.generateOrderNumber(), req)
		if err == nil {
			s.logger.InfoContext(ctx, "order placed",
				"order_id", order.ID, "order_number", order.OrderNumber, "user_id", userID)
			return order, nil
		}
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("generate unique order number: %w", lastErr)
}

// Get retrieves an order the user owns.
func (s *OrderService) Get(ctx context.Context, userID, id string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("Order not found")
	}
	return order, nil
}

// GetByOrderNumber retrieves an order the user owns by its order number.
func (s *OrderService) GetByOrderNumber(ctx context.Context, userID, orderNumber string) (*model.Order, error) {
	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("Order not found")
	}
	return order, nil
}

// List returns a page of the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// UpdateStatus moves an order through fulfilment. Admin-only; the handler
// enforces the role. A nil tracking number keeps the existing one.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, trackingNumber *string) (*model.Order, error) {
	order, err := s.orders.UpdateStatus(ctx, id, status, trackingNumber)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "order status updated", "order_id", id, "status", status)
	return order, nil
}

// UpdatePaymentStatus records a payment outcome against an order.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Order, error) {
	return s.orders.UpdatePaymentStatus(ctx, id, status)
}

// generateOrderNumber produces "TAP-<YYYYMMDD>-<6 digits>".
func (s *OrderService) generateOrderNumber() string {
	return fmt.Sprintf("TAP-%s-%06d", s.now().UTC().Format("20060102"), s.randN(1000000))
}
