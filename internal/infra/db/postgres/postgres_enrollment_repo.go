package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

// Save upserts a grant. The (user_id, program_id) unique index makes
// re-processing a completed payment a no-op instead of a duplicate row.
func (r *enrollmentRepo) Save(ctx context.Context, tx repository.Tx, g *model.EnrollmentGrant) error {
	const q = `
INSERT INTO enrollment_grants (id, user_id, program_id, payment_id, acquisition_type, status, granted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, program_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, g.ID, g.UserID, g.ProgramID, g.PaymentID, g.AcquisitionType, g.Status, g.GrantedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.EnrollmentGrant, error) {
	const q = `SELECT id, user_id, program_id, payment_id, acquisition_type, status, granted_at
FROM enrollment_grants WHERE payment_id=$1 ORDER BY id;`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := []*model.EnrollmentGrant{}
	for rows.Next() {
		g := &model.EnrollmentGrant{}
		if err := rows.Scan(&g.ID, &g.UserID, &g.ProgramID, &g.PaymentID, &g.AcquisitionType, &g.Status, &g.GrantedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, g)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *enrollmentRepo) ExistsForUserProgram(ctx context.Context, tx repository.Tx, userID, programID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM enrollment_grants WHERE user_id=$1 AND program_id=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, programID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
