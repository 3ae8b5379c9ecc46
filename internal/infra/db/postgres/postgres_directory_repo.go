package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
)

var (
	_ repository.DirectoryRepository  = (*directoryRepo)(nil)
	_ repository.DeadLetterRepository = (*deadLetterRepo)(nil)
)

type directoryRepo struct{ pool *pgxpool.Pool }

func NewDirectoryRepo(pool *pgxpool.Pool) *directoryRepo {
	return &directoryRepo{pool: pool}
}

func (r *directoryRepo) FindOrCreateOwner(ctx context.Context, tx repository.Tx, o *model.Owner) (*model.Owner, error) {
	if o.Username == "" {
		return nil, domain.ErrInvalidArgument
	}
	// ON CONFLICT keeps first-reference creation idempotent under
	// concurrent checkout events for the same user.
	const q = `
INSERT INTO owners (id, username, first_name, last_name, phone, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (username) DO UPDATE SET
  first_name=COALESCE(NULLIF($3,''), owners.first_name),
  last_name=COALESCE(NULLIF($4,''), owners.last_name),
  phone=COALESCE(NULLIF($5,''), owners.phone)
RETURNING id, username, first_name, last_name, phone, created_at;`

	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}
	row, err := pickRow(ctx, r.pool, tx, q, id, o.Username, o.FirstName, o.LastName, o.Phone)
	if err != nil {
		return nil, err
	}
	return scanOwner(row)
}

func (r *directoryRepo) FindOwnerByID(ctx context.Context, tx repository.Tx, id string) (*model.Owner, error) {
	const q = `SELECT id, username, first_name, last_name, phone, created_at FROM owners WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOwner(row)
}

func (r *directoryRepo) FindOrCreateProduct(ctx context.Context, tx repository.Tx, shopID, name string, lifetimeDays int) (*model.Product, error) {
	if shopID == "" {
		return nil, domain.ErrInvalidArgument
	}
	// The lifetime applies on first creation only; catalogue updates own the
	// stored value afterwards.
	const q = `
INSERT INTO products (id, shop_id, name, kind, lifetime_days, created_at)
VALUES ($1,$2,$3,'course',$4,NOW())
ON CONFLICT (shop_id) DO UPDATE SET name=COALESCE(NULLIF($3,''), products.name)
RETURNING id, shop_id, name, kind, lifetime_days, created_at;`

	row, err := pickRow(ctx, r.pool, tx, q, uuid.NewString(), shopID, name, lifetimeDays)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *directoryRepo) FindProductByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT id, shop_id, name, kind, lifetime_days, created_at FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *directoryRepo) FindProductByShopID(ctx context.Context, tx repository.Tx, shopID string) (*model.Product, error) {
	const q = `SELECT id, shop_id, name, kind, lifetime_days, created_at FROM products WHERE shop_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, shopID)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func scanOwner(row pgx.Row) (*model.Owner, error) {
	o := &model.Owner{}
	if err := row.Scan(&o.ID, &o.Username, &o.FirstName, &o.LastName, &o.Phone, &o.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	var kind string
	if err := row.Scan(&p.ID, &p.ShopID, &p.Name, &kind, &p.LifetimeDays, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Kind = model.ProductKind(kind)
	return p, nil
}

type deadLetterRepo struct{ pool *pgxpool.Pool }

func NewDeadLetterRepo(pool *pgxpool.Pool) *deadLetterRepo {
	return &deadLetterRepo{pool: pool}
}

func (r *deadLetterRepo) Create(ctx context.Context, tx repository.Tx, d *model.DeadLetter) error {
	const q = `INSERT INTO shop_dead_letters (id, event_type, raw_data, details, created_at) VALUES ($1,$2,$3,$4,NOW());`
	_, err := execSQL(ctx, r.pool, tx, q, d.ID, d.EventType, d.RawData, d.Details)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
