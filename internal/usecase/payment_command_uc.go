package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/command"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/adapter"
	"course-payment-engine/internal/domain/ports/repository"
	"course-payment-engine/internal/infra/logging"
	"course-payment-engine/internal/infra/metrics"
)

// Compile-time check
var _ PaymentCommandUseCase = (*paymentCommandUC)(nil)

// PaymentCommandUseCase hosts the write-side handlers. Every handler runs
// its duplicate check, payment write and enrollment writes under one
// transaction; gateway calls happen outside the transaction with a bounded
// timeout.
type PaymentCommandUseCase interface {
	CreateIntent(ctx context.Context, cmd command.CreatePaymentIntentCommand) (*model.Payment, error)
	Process(ctx context.Context, cmd command.ProcessPaymentCommand) (*model.Payment, error)
	UpdateStatus(ctx context.Context, cmd command.UpdatePaymentStatusCommand) (*model.Payment, error)
	Refund(ctx context.Context, cmd command.RefundPaymentCommand) (*model.Payment, error)
	Cancel(ctx context.Context, cmd command.CancelPaymentCommand) (*model.Payment, error)
}

type paymentCommandUC struct {
	payments repository.PaymentRepository
	catalog  repository.CatalogRepository
	users    repository.UserDirectory
	enroll   EnrollmentProcessor
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager

	gatewayTimeout time.Duration
	log            *zerolog.Logger
}

func NewPaymentCommandUseCase(
	payments repository.PaymentRepository,
	catalog repository.CatalogRepository,
	users repository.UserDirectory,
	enroll EnrollmentProcessor,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	gatewayTimeout time.Duration,
	logger *zerolog.Logger,
) *paymentCommandUC {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 15 * time.Second
	}
	return &paymentCommandUC{
		payments: payments, catalog: catalog, users: users,
		enroll: enroll, gateway: gateway, tm: tm,
		gatewayTimeout: gatewayTimeout, log: logger,
	}
}

// validatePurchase checks the command fields and that the referenced user and
// product exist in their external stores.
func (u *paymentCommandUC) validatePurchase(ctx context.Context, userID, productID string, amount decimal.Decimal, currency string) error {
	if userID == "" || productID == "" || currency == "" {
		return fmt.Errorf("user, product and currency are required: %w", domain.ErrInvalidArgument)
	}
	if amount.IsNegative() {
		return fmt.Errorf("amount must be non-negative: %w", domain.ErrInvalidArgument)
	}
	ok, err := u.users.Exists(ctx, repository.NoTX, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if _, err := u.catalog.FindProduct(ctx, repository.NoTX, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (u *paymentCommandUC) CreateIntent(ctx context.Context, cmd command.CreatePaymentIntentCommand) (*model.Payment, error) {
	if err := u.validatePurchase(ctx, cmd.UserID, cmd.ProductID, cmd.Amount, cmd.Currency); err != nil {
		return nil, err
	}
	// No gateway call here: the intent waits for an out-of-band confirmation
	// delivered through UpdateStatus.
	p := model.NewPayment(cmd.UserID, cmd.ProductID, cmd.Amount, cmd.Currency, cmd.Method, "")
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(p.Status))
	u.log.Info().Str("payment_id", p.ID).Str("user_id", p.UserID).Msg("payment intent created")
	return p, nil
}

func (u *paymentCommandUC) Process(ctx context.Context, cmd command.ProcessPaymentCommand) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentCommandUC.Process")()
	if err := u.validatePurchase(ctx, cmd.UserID, cmd.ProductID, cmd.Amount, cmd.Currency); err != nil {
		return nil, err
	}
	if cmd.Gateway == "" {
		return nil, fmt.Errorf("gateway is required: %w", domain.ErrInvalidArgument)
	}

	p := model.NewPayment(cmd.UserID, cmd.ProductID, cmd.Amount, cmd.Currency, cmd.Method, cmd.Gateway)
	p.TransactionID = cmd.TransactionID

	// The duplicate check and the pending insert share one transaction; the
	// unique index on transaction_id closes the remaining race window.
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if cmd.TransactionID != nil {
			_, err := u.payments.FindByTransactionID(ctx, tx, *cmd.TransactionID)
			if err == nil {
				return fmt.Errorf("transaction %s: %w", *cmd.TransactionID, domain.ErrDuplicateTransaction)
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	res, gwErr := u.charge(ctx, p)
	if gwErr != nil {
		// The record stays pending so the caller can retry with backoff
		// without risking a double charge.
		u.log.Warn().Err(gwErr).Str("payment_id", p.ID).Str("gateway", u.gateway.Name()).Msg("gateway unreachable")
		return p, fmt.Errorf("charge payment %s: %w", p.ID, domain.ErrGatewayUnavailable)
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.payments.FindByID(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		now := time.Now()
		if res.Approved {
			if !cur.Status.CanTransitionTo(model.PaymentStatusCompleted) {
				return fmt.Errorf("payment %s is %s: %w", cur.ID, cur.Status, domain.ErrInvalidTransition)
			}
			cur.MarkCompleted(res.TransactionID, now)
			if err := u.payments.Save(ctx, tx, cur); err != nil {
				return err
			}
			if err := u.enroll.GrantForPayment(ctx, tx, cur); err != nil {
				return err
			}
		} else {
			// A decline is a successful command execution, not an error.
			if !cur.Status.CanTransitionTo(model.PaymentStatusFailed) {
				return fmt.Errorf("payment %s is %s: %w", cur.ID, cur.Status, domain.ErrInvalidTransition)
			}
			cur.MarkFailed(res.ErrorMessage, now)
			if err := u.payments.Save(ctx, tx, cur); err != nil {
				return err
			}
		}
		*p = *cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(p.Status))
	if p.Status == model.PaymentStatusCompleted {
		metrics.AddPaymentRevenue(p.Currency, p.Amount.InexactFloat64())
		u.log.Info().Str("payment_id", p.ID).Str("transaction_id", res.TransactionID).Msg("payment completed")
	} else {
		u.log.Info().Str("payment_id", p.ID).Str("reason", res.ErrorMessage).Msg("payment declined")
	}
	return p, nil
}

func (u *paymentCommandUC) charge(ctx context.Context, p *model.Payment) (adapter.ChargeResult, error) {
	gwCtx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()

	req := adapter.ChargeRequest{
		PaymentID: p.ID,
		UserID:    p.UserID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Method:    string(p.Method),
	}
	if p.TransactionID != nil {
		req.TransactionID = *p.TransactionID
	}
	started := time.Now()
	res, err := u.gateway.Charge(gwCtx, req)
	metrics.ObserveGatewayCall(u.gateway.Name(), "charge", time.Since(started), err == nil)
	return res, err
}

func (u *paymentCommandUC) UpdateStatus(ctx context.Context, cmd command.UpdatePaymentStatusCommand) (*model.Payment, error) {
	if !cmd.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", cmd.Status, domain.ErrInvalidArgument)
	}

	var out *model.Payment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, cmd.PaymentID)
		if err != nil {
			return err
		}
		if cmd.TransactionID != nil {
			existing, err := u.payments.FindByTransactionID(ctx, tx, *cmd.TransactionID)
			if err == nil && existing.ID != p.ID {
				return fmt.Errorf("transaction %s: %w", *cmd.TransactionID, domain.ErrDuplicateTransaction)
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			p.TransactionID = cmd.TransactionID
		}
		if !p.Status.CanTransitionTo(cmd.Status) {
			return fmt.Errorf("payment %s: %s -> %s: %w", p.ID, p.Status, cmd.Status, domain.ErrInvalidTransition)
		}
		now := time.Now()
		switch cmd.Status {
		case model.PaymentStatusCompleted:
			p.ProcessedAt = &now
		case model.PaymentStatusFailed:
			p.FailedAt = &now
		}
		p.Status = cmd.Status
		p.UpdatedAt = now
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		if cmd.Status == model.PaymentStatusCompleted {
			if err := u.enroll.GrantForPayment(ctx, tx, p); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(out.Status))
	if out.Status == model.PaymentStatusCompleted {
		metrics.AddPaymentRevenue(out.Currency, out.Amount.InexactFloat64())
	}
	u.log.Info().Str("payment_id", out.ID).Str("status", string(out.Status)).Msg("payment status updated")
	return out, nil
}

func (u *paymentCommandUC) Refund(ctx context.Context, cmd command.RefundPaymentCommand) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentCommandUC.Refund")()
	if cmd.RefundAmount.Sign() <= 0 {
		return nil, fmt.Errorf("refund amount must be positive: %w", domain.ErrInvalidArgument)
	}

	p, err := u.payments.FindByID(ctx, repository.NoTX, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(model.PaymentStatusRefunded) {
		return nil, fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, domain.ErrInvalidTransition)
	}
	if cmd.RefundAmount.GreaterThan(p.Amount) {
		return nil, fmt.Errorf("refund %s exceeds charged %s: %w", cmd.RefundAmount, p.Amount, domain.ErrInvalidArgument)
	}

	req := adapter.RefundRequest{PaymentID: p.ID, Amount: cmd.RefundAmount, Reason: cmd.Reason}
	if p.TransactionID != nil {
		req.TransactionID = *p.TransactionID
	}
	gwCtx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()
	started := time.Now()
	res, gwErr := u.gateway.Refund(gwCtx, req)
	metrics.ObserveGatewayCall(u.gateway.Name(), "refund", time.Since(started), gwErr == nil)
	if gwErr != nil {
		return nil, fmt.Errorf("refund payment %s: %w", p.ID, domain.ErrGatewayUnavailable)
	}
	if !res.Approved {
		return nil, fmt.Errorf("gateway rejected refund for payment %s (%s): %w", p.ID, res.Status, domain.ErrOperationFailed)
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.payments.FindByID(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		// Re-check under the row lock: a concurrent refund may have won.
		if !cur.Status.CanTransitionTo(model.PaymentStatusRefunded) {
			return fmt.Errorf("payment %s is %s: %w", cur.ID, cur.Status, domain.ErrInvalidTransition)
		}
		cur.MarkRefunded(cmd.RefundAmount, cmd.Reason, time.Now())
		if err := u.payments.Save(ctx, tx, cur); err != nil {
			return err
		}
		*p = *cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(p.Status))
	u.log.Info().Str("payment_id", p.ID).Str("refund_id", res.RefundID).Msg("payment refunded")
	return p, nil
}

func (u *paymentCommandUC) Cancel(ctx context.Context, cmd command.CancelPaymentCommand) (*model.Payment, error) {
	var out *model.Payment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, cmd.PaymentID)
		if err != nil {
			return err
		}
		// Only pending intents can be withdrawn; a completed payment must be
		// refunded instead.
		if !p.Status.CanTransitionTo(model.PaymentStatusCancelled) {
			return fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, domain.ErrInvalidTransition)
		}
		p.MarkCancelled(cmd.Reason, time.Now())
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(out.Status))
	u.log.Info().Str("payment_id", out.ID).Msg("payment cancelled")
	return out, nil
}
