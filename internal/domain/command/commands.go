// Package command defines the write-side request objects accepted by the
// dispatcher. Each command maps to exactly one handler method.
package command

import (
	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain/model"
)

// CreatePaymentIntentCommand creates a pending payment without touching the
// gateway; used by asynchronous (3-D-secure style) flows.
type CreatePaymentIntentCommand struct {
	UserID    string
	ProductID string
	Amount    decimal.Decimal
	Currency  string
	Method    model.PaymentMethod
}

// ProcessPaymentCommand charges the gateway and records the outcome in one
// shot. TransactionID, when supplied by the caller, is the idempotency key.
type ProcessPaymentCommand struct {
	UserID        string
	ProductID     string
	Amount        decimal.Decimal
	Currency      string
	Method        model.PaymentMethod
	Gateway       string
	TransactionID *string
}

// UpdatePaymentStatusCommand performs an administrative transition, e.g.
// completing a pending intent after an out-of-band gateway confirmation.
type UpdatePaymentStatusCommand struct {
	PaymentID     string
	Status        model.PaymentStatus
	TransactionID *string
}

// RefundPaymentCommand refunds a completed payment, partially or in full.
type RefundPaymentCommand struct {
	PaymentID    string
	RefundAmount decimal.Decimal
	Reason       string
}

// CancelPaymentCommand withdraws a pending payment intent.
type CancelPaymentCommand struct {
	PaymentID string
	Reason    string
}
