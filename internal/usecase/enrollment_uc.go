package usecase

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
	"course-payment-engine/internal/infra/metrics"
)

// Compile-time check
var _ EnrollmentProcessor = (*enrollmentProcessor)(nil)

// EnrollmentProcessor grants program access as a side effect of a completed
// purchase. It is triggered only when a command moves a payment into the
// completed status, never for pending or failed payments.
type EnrollmentProcessor interface {
	// GrantForPayment upserts one active grant per program the product maps
	// to (bundles map to several). Runs inside the caller's transaction so
	// the grants commit atomically with the payment row.
	GrantForPayment(ctx context.Context, tx repository.Tx, p *model.Payment) error
	// Reconcile re-creates any grants missing for a completed payment and
	// reports the inconsistency. Idempotent.
	Reconcile(ctx context.Context, paymentID string) ([]*model.EnrollmentGrant, error)
}

type enrollmentProcessor struct {
	catalog  repository.CatalogRepository
	grants   repository.EnrollmentRepository
	payments repository.PaymentRepository
	tm       repository.TransactionManager

	log *zerolog.Logger
}

func NewEnrollmentProcessor(catalog repository.CatalogRepository, grants repository.EnrollmentRepository, payments repository.PaymentRepository, tm repository.TransactionManager, logger *zerolog.Logger) *enrollmentProcessor {
	return &enrollmentProcessor{catalog: catalog, grants: grants, payments: payments, tm: tm, log: logger}
}

func (e *enrollmentProcessor) GrantForPayment(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if p.Status != model.PaymentStatusCompleted {
		return fmt.Errorf("payment %s is %s, not completed: %w", p.ID, p.Status, domain.ErrInvalidArgument)
	}
	product, err := e.catalog.FindProduct(ctx, tx, p.ProductID)
	if err != nil {
		return fmt.Errorf("resolve product %s: %w", p.ProductID, err)
	}
	for _, programID := range product.ProgramIDs {
		g := model.NewEnrollmentGrant(p.UserID, programID, p.ID)
		if err := e.grants.Save(ctx, tx, g); err != nil {
			return fmt.Errorf("grant user %s program %s: %w", p.UserID, programID, err)
		}
	}
	metrics.AddEnrollmentGrants(len(product.ProgramIDs))
	e.log.Info().Str("payment_id", p.ID).Str("user_id", p.UserID).
		Int("programs", len(product.ProgramIDs)).Msg("enrollment granted")
	return nil
}

func (e *enrollmentProcessor) Reconcile(ctx context.Context, paymentID string) ([]*model.EnrollmentGrant, error) {
	p, err := e.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusCompleted {
		return nil, fmt.Errorf("payment %s is %s, nothing to reconcile: %w", p.ID, p.Status, domain.ErrInvalidArgument)
	}

	var created []*model.EnrollmentGrant
	err = e.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		product, err := e.catalog.FindProduct(ctx, tx, p.ProductID)
		if err != nil {
			return fmt.Errorf("resolve product %s: %w", p.ProductID, err)
		}
		for _, programID := range product.ProgramIDs {
			ok, err := e.grants.ExistsForUserProgram(ctx, tx, p.UserID, programID)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			// A completed payment without its grants is the reportable
			// inconsistency; the payment's success state is the source of
			// truth, so converge enrollment to match it.
			e.log.Error().Err(domain.ErrEnrollmentInconsistency).
				Str("payment_id", p.ID).Str("user_id", p.UserID).Str("program_id", programID).
				Msg("reconciling missing grant")
			g := model.NewEnrollmentGrant(p.UserID, programID, p.ID)
			if err := e.grants.Save(ctx, tx, g); err != nil {
				return err
			}
			created = append(created, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		metrics.AddEnrollmentGrants(len(created))
	}
	return created, nil
}
