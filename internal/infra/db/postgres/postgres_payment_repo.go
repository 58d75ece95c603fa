package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
	"course-payment-engine/internal/domain/query"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const paymentColumns = `id, user_id, product_id, amount, currency, status, method, gateway, transaction_id, refund_amount, refund_reason, failure_reason, cancel_reason, created_at, updated_at, processed_at, failed_at`

// sortColumns whitelists ORDER BY targets; anything else falls back to created_at.
var sortColumns = map[string]string{
	"id": "id", "user_id": "user_id", "product_id": "product_id",
	"amount": "amount", "currency": "currency", "status": "status",
	"method": "method", "gateway": "gateway",
	"created_at": "created_at", "updated_at": "updated_at",
	"processed_at": "processed_at", "failed_at": "failed_at",
}

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, product_id, amount, currency, status, method, gateway, transaction_id, refund_amount, refund_reason, failure_reason, cancel_reason, created_at, updated_at, processed_at, failed_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
) ON CONFLICT (id) DO UPDATE SET
  status=$6, transaction_id=$9, refund_amount=$10, refund_reason=$11, failure_reason=$12, cancel_reason=$13, updated_at=$15, processed_at=$16, failed_at=$17;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.ProductID, p.Amount, p.Currency, p.Status, p.Method, p.Gateway,
		p.TransactionID, nullDecimal(p.RefundAmount), p.RefundReason, p.FailureReason, p.CancelReason,
		p.CreatedAt, p.UpdatedAt, p.ProcessedAt, p.FailedAt)
	if err != nil {
		if isUniqueViolation(err, "payments_transaction_id_key") {
			return domain.ErrDuplicateTransaction
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) List(ctx context.Context, tx repository.Tx, filter repository.PaymentFilter, page repository.PageRequest) ([]*model.Payment, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != nil {
		where = append(where, "status = "+arg(*filter.Status))
	}
	if filter.UserID != nil {
		where = append(where, "user_id = "+arg(*filter.UserID))
	}
	if filter.ProductID != nil {
		where = append(where, "product_id = "+arg(*filter.ProductID))
	}
	if filter.Gateway != nil {
		where = append(where, "gateway = "+arg(*filter.Gateway))
	}
	if filter.StartDate != nil {
		where = append(where, "created_at >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "created_at <= "+arg(*filter.EndDate))
	}

	q := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	col, ok := sortColumns[page.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if page.SortDirection == query.SortAsc {
		dir = "ASC"
	}
	// id as tiebreaker keeps pagination stable when sort values collide.
	q += fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
	q += " OFFSET " + arg(page.Skip) + " LIMIT " + arg(page.Take) + ";"

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC, id DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *paymentRepo) Stats(ctx context.Context, tx repository.Tx, start, end time.Time) (*query.PaymentStats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'completed'),
       COUNT(*) FILTER (WHERE status = 'failed'),
       COUNT(*) FILTER (WHERE status = 'pending'),
       COUNT(*) FILTER (WHERE status = 'refunded'),
       COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
  FROM payments
 WHERE created_at >= $1 AND created_at <= $2;`

	row, err := pickRow(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return nil, err
	}
	st := &query.PaymentStats{}
	var revenue decimal.Decimal
	if err := row.Scan(&st.TotalPayments, &st.CompletedPayments, &st.FailedPayments,
		&st.PendingPayments, &st.RefundedPayments, &revenue); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	st.TotalRevenue = revenue
	st.AveragePaymentAmount = decimal.Zero
	if st.CompletedPayments > 0 {
		st.AveragePaymentAmount = revenue.Div(decimal.NewFromInt(int64(st.CompletedPayments)))
	}
	return st, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var refund decimal.NullDecimal
	err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Amount, &p.Currency, &p.Status, &p.Method,
		&p.Gateway, &p.TransactionID, &refund, &p.RefundReason, &p.FailureReason, &p.CancelReason,
		&p.CreatedAt, &p.UpdatedAt, &p.ProcessedAt, &p.FailedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if refund.Valid {
		p.RefundAmount = &refund.Decimal
	}
	return p, nil
}

func scanPayments(rows pgx.Rows) ([]*model.Payment, error) {
	out := []*model.Payment{}
	for rows.Next() {
		p := &model.Payment{}
		var refund decimal.NullDecimal
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Amount, &p.Currency, &p.Status, &p.Method,
			&p.Gateway, &p.TransactionID, &refund, &p.RefundReason, &p.FailureReason, &p.CancelReason,
			&p.CreatedAt, &p.UpdatedAt, &p.ProcessedAt, &p.FailedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if refund.Valid {
			p.RefundAmount = &refund.Decimal
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}
