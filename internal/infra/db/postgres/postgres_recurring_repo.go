package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
)

var _ repository.RecurringRepository = (*recurringRepo)(nil)

type recurringRepo struct{ pool *pgxpool.Pool }

func NewRecurringRepo(pool *pgxpool.Pool) *recurringRepo {
	return &recurringRepo{pool: pool}
}

const recurringCols = `id, owner_id, product_id, instrument_id, status, amount, next_charge_at, last_attempt_at, last_attempt_status, created_at, updated_at`

func (r *recurringRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RecurringSubscription, error) {
	q := `SELECT ` + recurringCols + ` FROM recurring_subscriptions WHERE id=$1`
	// The charge processor holds this lock for the whole attempt, which is
	// what serializes concurrent jobs for one subscription.
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanRecurring(row)
}

func (r *recurringRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) (*model.RecurringSubscription, error) {
	q := `SELECT ` + recurringCols + ` FROM recurring_subscriptions WHERE owner_id=$1 ORDER BY created_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, ownerID)
	if err != nil {
		return nil, err
	}
	return scanRecurring(row)
}

func (r *recurringRepo) Save(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error {
	const q = `
INSERT INTO recurring_subscriptions (` + recurringCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
ON CONFLICT (id) DO UPDATE SET
  instrument_id=$4, status=$5, amount=$6, next_charge_at=$7,
  last_attempt_at=$8, last_attempt_status=$9, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.OwnerID, s.ProductID, s.InstrumentID, s.Status, s.Amount, s.NextChargeAt, s.LastAttemptAt, s.LastAttemptStatus)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *recurringRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.RecurringSubscription, error) {
	const q = `
SELECT ` + recurringCols + `
  FROM recurring_subscriptions
 WHERE status='ACTIVE'
   AND instrument_id IS NOT NULL
   AND next_charge_at IS NOT NULL
   AND next_charge_at <= $1
 ORDER BY next_charge_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.RecurringSubscription
	for rows.Next() {
		s, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *recurringRepo) HasActiveForOwner(ctx context.Context, tx repository.Tx, ownerID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1
    FROM recurring_subscriptions s
    JOIN products p ON p.id = s.product_id
   WHERE s.owner_id=$1 AND s.status='ACTIVE' AND p.kind='subscription'
);`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

func (r *recurringRepo) SetLastAttempt(ctx context.Context, tx repository.Tx, id string, at time.Time, status model.ChargeStatus) error {
	const q = `UPDATE recurring_subscriptions SET last_attempt_at=$2, last_attempt_status=$3, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, at, status)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanRecurring(row pgx.Row) (*model.RecurringSubscription, error) {
	s := &model.RecurringSubscription{}
	var status, attemptStatus string
	if err := row.Scan(&s.ID, &s.OwnerID, &s.ProductID, &s.InstrumentID, &status, &s.Amount, &s.NextChargeAt, &s.LastAttemptAt, &attemptStatus, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.RecurringStatus(status)
	s.LastAttemptStatus = model.ChargeStatus(attemptStatus)
	return s, nil
}
