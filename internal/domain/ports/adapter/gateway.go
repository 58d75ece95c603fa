package adapter

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeRequest is the narrow contract the engine submits to an external
// processor. The processor's own retry/fraud logic is out of scope.
type ChargeRequest struct {
	PaymentID     string
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	Method        string
	TransactionID string // caller-supplied idempotency key, empty when the gateway assigns one
}

// ChargeResult reports the processor's decision. Approved=false is a normal
// business outcome (a decline), not a transport error.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Status        string
	ErrorMessage  string
}

type RefundRequest struct {
	PaymentID     string
	TransactionID string // the gateway transaction id of the original charge
	Amount        decimal.Decimal
	Reason        string
}

type RefundResult struct {
	Approved bool
	RefundID string
	Status   string
}

// PaymentGateway is the hex port for payment processors. Implementations own
// a bounded timeout on every call; a transport-level failure must surface as
// domain.ErrGatewayUnavailable so the caller can retry safely.
type PaymentGateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}
