package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
)

var _ repository.PaymentInstrumentRepository = (*instrumentRepo)(nil)

type instrumentRepo struct{ pool *pgxpool.Pool }

func NewInstrumentRepo(pool *pgxpool.Pool) *instrumentRepo {
	return &instrumentRepo{pool: pool}
}

const instrumentCols = `id, owner_id, provider, method, card_mask, exp_date, rebill_id, status, created_at, updated_at`

func (r *instrumentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentInstrument, error) {
	const q = `SELECT ` + instrumentCols + ` FROM payment_instruments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanInstrument(row)
}

func (r *instrumentRepo) UpsertByNaturalKey(ctx context.Context, tx repository.Tx, i *model.PaymentInstrument) (*model.PaymentInstrument, error) {
	const q = `
INSERT INTO payment_instruments (` + instrumentCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
ON CONFLICT (owner_id, provider, method, rebill_id) DO UPDATE SET
  card_mask=$5, exp_date=$6, status=$8, updated_at=NOW()
RETURNING ` + instrumentCols + `;`

	row, err := pickRow(ctx, r.pool, tx, q, i.ID, i.OwnerID, i.Provider, i.Method, i.CardMask, i.ExpDate, i.RebillID, i.Status)
	if err != nil {
		return nil, err
	}
	return scanInstrument(row)
}

func (r *instrumentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.InstrumentStatus) error {
	const q = `UPDATE payment_instruments SET status=$2, updated_at=NOW() WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanInstrument(row pgx.Row) (*model.PaymentInstrument, error) {
	i := &model.PaymentInstrument{}
	var method, status string
	if err := row.Scan(&i.ID, &i.OwnerID, &i.Provider, &method, &i.CardMask, &i.ExpDate, &i.RebillID, &status, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	i.Method = model.PaymentMethod(method)
	i.Status = model.InstrumentStatus(status)
	return i, nil
}
