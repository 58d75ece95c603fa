package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/ports/repository"
)

var _ repository.UserDirectory = (*userDirectory)(nil)

// userDirectory answers existence checks against the externally-owned users
// table.
type userDirectory struct{ pool *pgxpool.Pool }

func NewUserDirectory(pool *pgxpool.Pool) *userDirectory {
	return &userDirectory{pool: pool}
}

func (r *userDirectory) Exists(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1);`, userID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
