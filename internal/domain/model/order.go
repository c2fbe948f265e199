//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxOrderNotesLen = 500
	maxOrderQuantity = 1000
)

// ProductType enumerates purchasable card products.
type ProductType string

const (
	ProductNFCCard    ProductType = "nfc_card"
	ProductReviewCard ProductType = "review_card"
)

// Valid reports whether the product type is supported.
func (p ProductType) Valid() bool {
	switch p {
	case ProductNFCCard, ProductReviewCard:
		return true
	default:
		return false
	}
}

// OrderStatus tracks fulfilment progress.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the order status is supported.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks payment progress.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ShippingAddress is the delivery destination stored with an order.
type ShippingAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Order represents a card purchase.
type Order struct {
	ID              string          `json:"id"               db:"id"`
	UserID          string          `json:"user_id"          db:"user_id"`
	OrderNumber     string          `json:"order_number"     db:"order_number"`
	ProductType     ProductType     `json:"product_type"     db:"product_type"`
	Quantity        int             `json:"quantity"         db:"quantity"`
	TotalAmount     string          `json:"total_amount"     db:"total_amount"`
	Status          OrderStatus     `json:"status"           db:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"   db:"payment_status"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	TrackingNumber  *string         `json:"tracking_number,omitempty" db:"tracking_number"`
	Notes           *string         `json:"notes,omitempty"  db:"notes"`
	CreatedAt       time.Time       `json:"created_at"       db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"       db:"updated_at"`
}

// CreateOrderRequest represents parameters to create an Order. The order
// number is generated server-side, never supplied by the caller.
type CreateOrderRequest struct {
	UserID          string          `json:"user_id"`
	ProductType     ProductType     `json:"product_type"`
	Quantity        int             `json:"quantity"`
	TotalAmount     string          `json:"total_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Notes           *string         `json:"notes,omitempty"`
}

// Validate validates CreateOrderRequest.
func (r *CreateOrderRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	r.ProductType = ProductType(strings.ToLower(strings.TrimSpace(string(r.ProductType))))
	if !r.ProductType.Valid() {
		return errors.New("product_type must be nfc_card or review_card")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	if r.Quantity > maxOrderQuantity {
		return errors.New("quantity cannot exceed 1000")
	}
	if strings.TrimSpace(r.TotalAmount) == "" {
		return errors.New("total_amount is required")
	}
	if r.Notes != nil && utf8.RuneCountInString(*r.Notes) > maxOrderNotesLen {
		return errors.New("notes cannot exceed 500 characters")
	}
	return nil
}
