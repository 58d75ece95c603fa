package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created; gateway outcome not yet known
	PaymentStatusCompleted PaymentStatus = "completed" // gateway approved the charge
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway declined the charge
	PaymentStatusRefunded  PaymentStatus = "refunded"  // a completed charge was refunded
	PaymentStatusCancelled PaymentStatus = "cancelled" // a pending intent was withdrawn
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the full legal-transition table:
// pending -> completed|failed|cancelled, completed -> refunded.
// Everything else is terminal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusCompleted || next == PaymentStatusFailed || next == PaymentStatusCancelled
	case PaymentStatusCompleted:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// Payment is the append-only audit record of a monetary transaction.
// Rows are never deleted; only the status-related fields mutate, and only
// along the transition table above.
type Payment struct {
	ID            string // UUID
	UserID        string // external user directory reference
	ProductID     string // external catalog reference
	Amount        decimal.Decimal
	Currency      string // ISO-ish code, e.g. "USD"
	Status        PaymentStatus
	Method        PaymentMethod
	Gateway       string  // which external processor handles the transaction
	TransactionID *string // gateway transaction id; unique across all payments (idempotency key)

	RefundAmount  *decimal.Decimal // set once when status becomes refunded
	RefundReason  *string
	FailureReason *string // set once when status becomes failed
	CancelReason  *string // set once when status becomes cancelled

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time // set when status becomes completed
	FailedAt    *time.Time // set when status becomes failed
}

// NewPayment builds a pending payment with a fresh id and timestamps.
func NewPayment(userID, productID string, amount decimal.Decimal, currency string, method PaymentMethod, gateway string) *Payment {
	now := time.Now()
	return &Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Amount:    amount,
		Currency:  currency,
		Status:    PaymentStatusPending,
		Method:    method,
		Gateway:   gateway,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkCompleted transitions the payment to completed and stamps processed_at.
func (p *Payment) MarkCompleted(transactionID string, at time.Time) {
	p.Status = PaymentStatusCompleted
	p.TransactionID = &transactionID
	p.ProcessedAt = &at
	p.UpdatedAt = at
}

// MarkFailed transitions the payment to failed and records the gateway reason.
func (p *Payment) MarkFailed(reason string, at time.Time) {
	p.Status = PaymentStatusFailed
	p.FailureReason = &reason
	p.FailedAt = &at
	p.UpdatedAt = at
}

// MarkRefunded records the (possibly partial) refund on a completed payment.
func (p *Payment) MarkRefunded(amount decimal.Decimal, reason string, at time.Time) {
	p.Status = PaymentStatusRefunded
	p.RefundAmount = &amount
	p.RefundReason = &reason
	p.UpdatedAt = at
}

// MarkCancelled withdraws a pending intent.
func (p *Payment) MarkCancelled(reason string, at time.Time) {
	p.Status = PaymentStatusCancelled
	p.CancelReason = &reason
	p.UpdatedAt = at
}
