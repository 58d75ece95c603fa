package gateway

import (
	"context"
	"fmt"
	"sync"

	"course-payment-engine/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway for tests and local runs. It
// approves every charge unless DeclineAll is set, and remembers issued
// transaction ids so refunds can be matched against them.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int64
	charges map[string]bool // transaction id -> charged

	DeclineAll    bool
	DeclineReason string
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{charges: make(map[string]bool)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-txn-%d", g.seq)
}

func (g *NoopGateway) Charge(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeclineAll {
		reason := g.DeclineReason
		if reason == "" {
			reason = "card declined"
		}
		return adapter.ChargeResult{Approved: false, Status: "declined", ErrorMessage: reason}, nil
	}
	txID := req.TransactionID
	if txID == "" {
		txID = g.next()
	}
	g.charges[txID] = true
	return adapter.ChargeResult{Approved: true, TransactionID: txID, Status: "captured"}, nil
}

func (g *NoopGateway) Refund(ctx context.Context, req adapter.RefundRequest) (adapter.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if req.TransactionID != "" && !g.charges[req.TransactionID] {
		return adapter.RefundResult{Approved: false, Status: "unknown_transaction"}, nil
	}
	return adapter.RefundResult{Approved: true, RefundID: "refund-" + req.TransactionID, Status: "done"}, nil
}
