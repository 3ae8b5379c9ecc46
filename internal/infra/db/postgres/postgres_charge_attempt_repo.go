package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
)

var (
	_ repository.ChargeAttemptRepository    = (*chargeAttemptRepo)(nil)
	_ repository.ChargeAttemptLogRepository = (*chargeAttemptLogRepo)(nil)
)

type chargeAttemptRepo struct{ pool *pgxpool.Pool }

func NewChargeAttemptRepo(pool *pgxpool.Pool) *chargeAttemptRepo {
	return &chargeAttemptRepo{pool: pool}
}

func (r *chargeAttemptRepo) Create(ctx context.Context, tx repository.Tx, a *model.ChargeAttempt) error {
	const q = `
INSERT INTO charge_attempts (
  id, recurring_id, payment_id, status, amount, currency, error_code, error_message, external_payment_id, provider_response, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW());`

	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.RecurringID, a.PaymentID, a.Status, a.Amount, a.Currency, a.ErrorCode, a.ErrorMessage, a.ExternalPaymentID, a.ProviderResponse)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *chargeAttemptRepo) CountSince(ctx context.Context, tx repository.Tx, recurringID string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM charge_attempts WHERE recurring_id=$1 AND created_at >= $2;`
	row, err := pickRow(ctx, r.pool, tx, q, recurringID, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

type chargeAttemptLogRepo struct{ pool *pgxpool.Pool }

func NewChargeAttemptLogRepo(pool *pgxpool.Pool) *chargeAttemptLogRepo {
	return &chargeAttemptLogRepo{pool: pool}
}

func (r *chargeAttemptLogRepo) Create(ctx context.Context, tx repository.Tx, l *model.ChargeAttemptLog) error {
	const q = `
INSERT INTO charge_attempt_logs (
  id, owner_id, external_payment_id, provider, provider_response, error_message, stack, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW());`

	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.OwnerID, l.ExternalPaymentID, l.Provider, l.ProviderResponse, l.ErrorMessage, l.Stack)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
