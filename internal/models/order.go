package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents valid order states
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDeclined  OrderStatus = "declined"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a cart checkout recorded by the harness. Amounts are in
// minor units (cents).
type Order struct {
	ID           string
	Reference    string
	VisitorID    string
	Platform     string // "woocommerce" or "shopify"
	Amount       int64
	Currency     string
	Status       OrderStatus
	ProductNames []string
	FailureCode  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Domain errors
var (
	ErrInvalidAmount           = errors.New("order amount must be positive")
	ErrInvalidCurrency         = errors.New("currency code must be 3 characters")
	ErrInvalidPlatform         = errors.New("platform must be woocommerce or shopify")
	ErrEmptyOrder              = errors.New("order must contain at least one product")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// NewOrder creates a new pending order with validation
func NewOrder(visitorID, platform string, productNames []string, amount int64, currency string) (*Order, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}
	if platform != "woocommerce" && platform != "shopify" {
		return nil, ErrInvalidPlatform
	}
	if len(productNames) == 0 {
		return nil, ErrEmptyOrder
	}

	prefix := "WC"
	if platform == "shopify" {
		prefix = "SHOP"
	}
	now := time.Now()

	return &Order{
		ID:           uuid.New().String(),
		Reference:    fmt.Sprintf("%s-%d", prefix, now.UnixNano()),
		VisitorID:    visitorID,
		Platform:     platform,
		Amount:       amount,
		Currency:     currency,
		Status:       OrderStatusPending,
		ProductNames: productNames,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// MarkPaid marks the order as paid
func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPending && o.Status != OrderStatusDeclined {
		return fmt.Errorf("%w: cannot pay order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusPaid
	o.FailureCode = ""
	o.UpdatedAt = time.Now()
	return nil
}

// MarkDeclined marks the order as declined with the gateway's refusal code
func (o *Order) MarkDeclined(failureCode string) error {
	if o.Status == OrderStatusPaid {
		return fmt.Errorf("%w: cannot decline a paid order", ErrInvalidStatusTransition)
	}
	if o.Status == OrderStatusCancelled {
		return fmt.Errorf("%w: cannot decline a cancelled order", ErrInvalidStatusTransition)
	}
	if failureCode == "" {
		return errors.New("failure code cannot be empty")
	}

	o.Status = OrderStatusDeclined
	o.FailureCode = failureCode
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() error {
	if o.Status == OrderStatusPaid {
		return fmt.Errorf("%w: cannot cancel a paid order", ErrInvalidStatusTransition)
	}

	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// IsPaid returns true if the order is paid
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// CanRetryPayment returns true if another payment attempt is allowed
func (o *Order) CanRetryPayment() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusDeclined
}

// ProductSummary returns the product names joined for display
func (o *Order) ProductSummary() string {
	return strings.Join(o.ProductNames, ", ")
}

// GetFormattedAmount returns the amount formatted with currency
func (o *Order) GetFormattedAmount() string {
	amountInMajorUnits := float64(o.Amount) / 100.0
	return fmt.Sprintf("%.2f %s", amountInMajorUnits, o.Currency)
}
