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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentCols = `id, external_payment_id, order_id, owner_id, product_id, instrument_id, recurring_id, is_recurrent, source, provider, method, status, amount, paid_at, provider_response, created_at, updated_at`

func (r *paymentRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
ON CONFLICT (external_payment_id) DO UPDATE SET
  order_id=$3, owner_id=$4, product_id=$5, instrument_id=$6, recurring_id=$7,
  is_recurrent=$8, source=$9, provider=$10, method=$11, status=$12, amount=$13,
  paid_at=$14, provider_response=$15, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.ExternalPaymentID, p.OrderID, p.OwnerID, p.ProductID, p.InstrumentID, p.RecurringID,
		p.IsRecurrent, p.Source, p.Provider, p.Method, p.Status, p.Amount, p.PaidAt, p.ProviderResponse)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE external_payment_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, externalPaymentID)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{}
	var source, method, status string
	if err := row.Scan(&p.ID, &p.ExternalPaymentID, &p.OrderID, &p.OwnerID, &p.ProductID, &p.InstrumentID, &p.RecurringID, &p.IsRecurrent, &source, &p.Provider, &method, &status, &p.Amount, &p.PaidAt, &p.ProviderResponse, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Source = model.PaymentSource(source)
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	return p, nil
}

func (r *paymentRepo) ExistsPaidSince(ctx context.Context, tx repository.Tx, ownerID, productID string, since time.Time) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM payments
   WHERE owner_id=$1 AND product_id=$2 AND status='PAID' AND paid_at >= $3
);`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, productID, since)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
