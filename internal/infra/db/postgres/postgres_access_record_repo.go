package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
)

var _ repository.AccessRecordRepository = (*accessRecordRepo)(nil)

type accessRecordRepo struct{ pool *pgxpool.Pool }

func NewAccessRecordRepo(pool *pgxpool.Pool) *accessRecordRepo {
	return &accessRecordRepo{pool: pool}
}

const accessCols = `id, order_id, owner_id, product_id, start_at, end_at, granted_at, revoked_at, created_at, updated_at`

func (r *accessRecordRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.AccessRecord, error) {
	q := `SELECT ` + accessCols + ` FROM access_records WHERE order_id=$1`
	// A live tx means the caller is reconciling this order id and needs the
	// row lock held until commit.
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanAccess(row)
}

func (r *accessRecordRepo) Create(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	const q = `
INSERT INTO access_records (` + accessCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW());`

	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.OrderID, rec.OwnerID, rec.ProductID, rec.StartAt, rec.EndAt, rec.GrantedAt, rec.RevokedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *accessRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	const q = `
UPDATE access_records
   SET owner_id=$2, product_id=$3, start_at=$4, end_at=$5, granted_at=$6, revoked_at=$7, updated_at=NOW()
 WHERE order_id=$1;`

	_, err := execSQL(ctx, r.pool, tx, q, rec.OrderID, rec.OwnerID, rec.ProductID, rec.StartAt, rec.EndAt, rec.GrantedAt, rec.RevokedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *accessRecordRepo) DeleteByOrderID(ctx context.Context, tx repository.Tx, orderID string) error {
	const q = `DELETE FROM access_records WHERE order_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, orderID)
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

func (r *accessRecordRepo) HasActiveAccess(ctx context.Context, tx repository.Tx, ownerID string, kind model.ProductKind, at time.Time) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1
    FROM access_records a
    JOIN products p ON p.id = a.product_id
   WHERE a.owner_id=$1
     AND p.kind=$2
     AND a.revoked_at IS NULL
     AND a.start_at <= $3
     AND (a.end_at IS NULL OR a.end_at >= $3)
);`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, kind, at)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

func (r *accessRecordRepo) CurrentSubscriptionWindow(ctx context.Context, tx repository.Tx, ownerID string, at time.Time) (*model.AccessRecord, error) {
	const q = `
SELECT a.id, a.order_id, a.owner_id, a.product_id, a.start_at, a.end_at, a.granted_at, a.revoked_at, a.created_at, a.updated_at
  FROM access_records a
  JOIN products p ON p.id = a.product_id
 WHERE a.owner_id=$1
   AND p.kind='subscription'
   AND a.revoked_at IS NULL
   AND a.start_at <= $2
   AND (a.end_at IS NULL OR a.end_at >= $2)
 ORDER BY a.start_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, at)
	if err != nil {
		return nil, err
	}
	return scanAccess(row)
}

func (r *accessRecordRepo) LatestSubscriptionWindow(ctx context.Context, tx repository.Tx, ownerID string) (*model.AccessRecord, error) {
	const q = `
SELECT a.id, a.order_id, a.owner_id, a.product_id, a.start_at, a.end_at, a.granted_at, a.revoked_at, a.created_at, a.updated_at
  FROM access_records a
  JOIN products p ON p.id = a.product_id
 WHERE a.owner_id=$1
   AND p.kind='subscription'
   AND a.revoked_at IS NULL
 ORDER BY a.start_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID)
	if err != nil {
		return nil, err
	}
	return scanAccess(row)
}

func scanAccess(row pgx.Row) (*model.AccessRecord, error) {
	rec := &model.AccessRecord{}
	if err := row.Scan(&rec.ID, &rec.OrderID, &rec.OwnerID, &rec.ProductID, &rec.StartAt, &rec.EndAt, &rec.GrantedAt, &rec.RevokedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rec, nil
}
