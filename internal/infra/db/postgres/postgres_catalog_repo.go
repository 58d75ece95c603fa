package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

// catalogRepo reads the externally-owned product/program tables. The engine
// never writes them.
type catalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) FindProduct(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, type FROM products WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Type); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	rows, err := queryRows(ctx, r.pool, tx, `SELECT program_id FROM product_programs WHERE product_id=$1 ORDER BY program_id;`, id)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	for rows.Next() {
		var programID string
		if err := rows.Scan(&programID); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		p.ProgramIDs = append(p.ProgramIDs, programID)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
