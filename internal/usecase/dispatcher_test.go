//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/command"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/query"
	"course-payment-engine/internal/usecase"
)

func newDispatcher(t *testing.T) (*usecase.Dispatcher, *commandUCTestDeps) {
	t.Helper()
	deps := newCommandUCDeps()
	commands := deps.newUC(t)
	queries := usecase.NewPaymentQueryUseCase(deps.payments, newTestLogger())
	return usecase.NewDispatcher(commands, queries), deps
}

func TestDispatcher_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("routes each command to its handler", func(t *testing.T) {
		d, _ := newDispatcher(t)

		intent, err := d.Send(ctx, command.CreatePaymentIntentCommand{
			UserID: "user-1", ProductID: "course-go",
			Amount: decimal.NewFromInt(100), Currency: "USD",
			Method: model.PaymentMethodCreditCard,
		})
		if err != nil {
			t.Fatalf("create intent via dispatcher failed: %v", err)
		}
		if intent.Status != model.PaymentStatusPending {
			t.Fatalf("expected pending, got %s", intent.Status)
		}

		cancelled, err := d.Send(ctx, command.CancelPaymentCommand{PaymentID: intent.ID, Reason: "test"})
		if err != nil {
			t.Fatalf("cancel via dispatcher failed: %v", err)
		}
		if cancelled.Status != model.PaymentStatusCancelled {
			t.Errorf("expected cancelled, got %s", cancelled.Status)
		}
	})

	t.Run("rejects an unknown command type", func(t *testing.T) {
		d, _ := newDispatcher(t)
		if _, err := d.Send(ctx, struct{ X int }{1}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("rejects a command passed by pointer", func(t *testing.T) {
		d, _ := newDispatcher(t)
		cmd := &command.CreatePaymentIntentCommand{UserID: "user-1", ProductID: "course-go", Amount: decimal.NewFromInt(1), Currency: "USD"}
		if _, err := d.Send(ctx, cmd); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for pointer dispatch, got %v", err)
		}
	})
}

func TestDispatcher_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("routes queries and returns typed results", func(t *testing.T) {
		d, _ := newDispatcher(t)
		p, err := d.Send(ctx, command.ProcessPaymentCommand{
			UserID: "user-1", ProductID: "course-go",
			Amount: decimal.NewFromInt(100), Currency: "USD",
			Method: model.PaymentMethodCreditCard, Gateway: "mock",
		})
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		res, err := d.Ask(ctx, query.GetPaymentByIDQuery{PaymentID: p.ID})
		if err != nil {
			t.Fatalf("ask by id failed: %v", err)
		}
		got, ok := res.(*model.Payment)
		if !ok || got.ID != p.ID {
			t.Fatalf("expected *model.Payment %s, got %T", p.ID, res)
		}

		res, err = d.Ask(ctx, query.GetPaymentsQuery{})
		if err != nil {
			t.Fatalf("ask list failed: %v", err)
		}
		list, ok := res.([]*model.Payment)
		if !ok || len(list) != 1 {
			t.Fatalf("expected a one-element payment list, got %T", res)
		}

		res, err = d.Ask(ctx, query.GetPaymentStatsQuery{StartDate: p.CreatedAt.Add(-1), EndDate: p.CreatedAt.Add(1)})
		if err != nil {
			t.Fatalf("ask stats failed: %v", err)
		}
		if _, ok := res.(*query.PaymentStats); !ok {
			t.Fatalf("expected *query.PaymentStats, got %T", res)
		}
	})

	t.Run("rejects an unknown query type", func(t *testing.T) {
		d, _ := newDispatcher(t)
		if _, err := d.Ask(ctx, "what"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
