package repository

import (
	"context"
	"time"

	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/query"
)

// PaymentFilter narrows List results. Nil fields mean "any"; date bounds are
// inclusive on created_at.
type PaymentFilter struct {
	Status    *model.PaymentStatus
	UserID    *string
	ProductID *string
	Gateway   *string
	StartDate *time.Time
	EndDate   *time.Time
}

// PageRequest controls ordering and pagination. SortBy must be one of the
// stored column names; implementations whitelist it. The default ordering is
// created_at descending with id as tiebreaker so that repeated pages neither
// overlap nor skip records.
type PageRequest struct {
	SortBy        string
	SortDirection query.SortDirection
	Skip          int
	Take          int
}

type PaymentRepository interface {
	// Save inserts or updates a payment. A unique index on transaction_id is
	// the concurrency backstop for idempotency: a collision surfaces as
	// domain.ErrDuplicateTransaction.
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// FindByID returns domain.ErrNotFound for a missing id. Inside a
	// transaction the row is locked for update.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByTransactionID returns at most one payment per the uniqueness
	// invariant, or domain.ErrNotFound.
	FindByTransactionID(ctx context.Context, tx Tx, transactionID string) (*model.Payment, error)
	List(ctx context.Context, tx Tx, filter PaymentFilter, page PageRequest) ([]*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Payment, error)
	Stats(ctx context.Context, tx Tx, start, end time.Time) (*query.PaymentStats, error)
}
