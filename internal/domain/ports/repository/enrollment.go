package repository

import (
	"context"

	"course-payment-engine/internal/domain/model"
)

type EnrollmentRepository interface {
	// Save upserts a grant; re-saving the same (user, program) pair is a
	// no-op, which makes re-processing a completed payment idempotent.
	Save(ctx context.Context, tx Tx, g *model.EnrollmentGrant) error
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.EnrollmentGrant, error)
	ExistsForUserProgram(ctx context.Context, tx Tx, userID, programID string) (bool, error)
}
