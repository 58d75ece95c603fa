package usecase

import (
	"context"
	"fmt"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/command"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/query"
)

// Dispatcher routes command and query objects to their handlers. It is the
// only entry point consumers use; routing is by static type switch, so an
// unhandled request type is a programming error reported at the call site.
type Dispatcher struct {
	commands PaymentCommandUseCase
	queries  PaymentQueryUseCase
}

func NewDispatcher(commands PaymentCommandUseCase, queries PaymentQueryUseCase) *Dispatcher {
	return &Dispatcher{commands: commands, queries: queries}
}

// Send executes a write command and returns the resulting payment.
func (d *Dispatcher) Send(ctx context.Context, cmd any) (*model.Payment, error) {
	switch c := cmd.(type) {
	case command.CreatePaymentIntentCommand:
		return d.commands.CreateIntent(ctx, c)
	case command.ProcessPaymentCommand:
		return d.commands.Process(ctx, c)
	case command.UpdatePaymentStatusCommand:
		return d.commands.UpdateStatus(ctx, c)
	case command.RefundPaymentCommand:
		return d.commands.Refund(ctx, c)
	case command.CancelPaymentCommand:
		return d.commands.Cancel(ctx, c)
	default:
		return nil, fmt.Errorf("unhandled command type %T: %w", cmd, domain.ErrInvalidArgument)
	}
}

// Ask executes a read query. The result is *model.Payment,
// []*model.Payment or *query.PaymentStats depending on the query type.
func (d *Dispatcher) Ask(ctx context.Context, q any) (any, error) {
	switch r := q.(type) {
	case query.GetPaymentByIDQuery:
		return d.queries.ByID(ctx, r)
	case query.GetPaymentsByTransactionIDQuery:
		return d.queries.ByTransactionID(ctx, r)
	case query.GetPaymentsQuery:
		return d.queries.List(ctx, r)
	case query.GetUserPaymentsQuery:
		return d.queries.ByUser(ctx, r)
	case query.GetPaymentsByGatewayQuery:
		return d.queries.ByGateway(ctx, r)
	case query.GetPaymentStatsQuery:
		return d.queries.Stats(ctx, r)
	default:
		return nil, fmt.Errorf("unhandled query type %T: %w", q, domain.ErrInvalidArgument)
	}
}
