package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
	"course-payment-engine/internal/domain/query"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Compile-time check
var _ PaymentQueryUseCase = (*paymentQueryUC)(nil)

// PaymentQueryUseCase hosts the read-side handlers. Lookups return nil (not
// an error) when nothing matches; listings return empty slices.
type PaymentQueryUseCase interface {
	ByID(ctx context.Context, q query.GetPaymentByIDQuery) (*model.Payment, error)
	ByTransactionID(ctx context.Context, q query.GetPaymentsByTransactionIDQuery) (*model.Payment, error)
	List(ctx context.Context, q query.GetPaymentsQuery) ([]*model.Payment, error)
	ByUser(ctx context.Context, q query.GetUserPaymentsQuery) ([]*model.Payment, error)
	ByGateway(ctx context.Context, q query.GetPaymentsByGatewayQuery) ([]*model.Payment, error)
	Stats(ctx context.Context, q query.GetPaymentStatsQuery) (*query.PaymentStats, error)
}

type paymentQueryUC struct {
	payments repository.PaymentRepository

	log *zerolog.Logger
}

func NewPaymentQueryUseCase(payments repository.PaymentRepository, logger *zerolog.Logger) *paymentQueryUC {
	return &paymentQueryUC{payments: payments, log: logger}
}

func (u *paymentQueryUC) ByID(ctx context.Context, q query.GetPaymentByIDQuery) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, q.PaymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (u *paymentQueryUC) ByTransactionID(ctx context.Context, q query.GetPaymentsByTransactionIDQuery) (*model.Payment, error) {
	p, err := u.payments.FindByTransactionID(ctx, repository.NoTX, q.TransactionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (u *paymentQueryUC) List(ctx context.Context, q query.GetPaymentsQuery) ([]*model.Payment, error) {
	filter := repository.PaymentFilter{
		Status:    q.Status,
		UserID:    q.UserID,
		ProductID: q.ProductID,
		Gateway:   q.Gateway,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}
	page := normalizePage(repository.PageRequest{
		SortBy:        q.SortBy,
		SortDirection: q.SortDirection,
		Skip:          q.Skip,
		Take:          q.Take,
	})
	return u.payments.List(ctx, repository.NoTX, filter, page)
}

func (u *paymentQueryUC) ByUser(ctx context.Context, q query.GetUserPaymentsQuery) ([]*model.Payment, error) {
	return u.payments.ListByUser(ctx, repository.NoTX, q.UserID)
}

func (u *paymentQueryUC) ByGateway(ctx context.Context, q query.GetPaymentsByGatewayQuery) ([]*model.Payment, error) {
	gw := q.Gateway
	page := normalizePage(repository.PageRequest{Skip: q.Skip, Take: q.Take})
	return u.payments.List(ctx, repository.NoTX, repository.PaymentFilter{Gateway: &gw}, page)
}

func (u *paymentQueryUC) Stats(ctx context.Context, q query.GetPaymentStatsQuery) (*query.PaymentStats, error) {
	return u.payments.Stats(ctx, repository.NoTX, q.StartDate, q.EndDate)
}

// normalizePage applies the documented defaults: created_at desc ordering
// and a bounded page size.
func normalizePage(page repository.PageRequest) repository.PageRequest {
	if page.SortBy == "" {
		page.SortBy = "created_at"
	}
	if page.SortDirection != query.SortAsc {
		page.SortDirection = query.SortDesc
	}
	if page.Skip < 0 {
		page.Skip = 0
	}
	if page.Take <= 0 {
		page.Take = defaultPageSize
	}
	if page.Take > maxPageSize {
		page.Take = maxPageSize
	}
	return page
}
