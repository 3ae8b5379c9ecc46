package repository

import (
	"context"

	"lms-access-billing/internal/domain/model"
)

// DirectoryRepository resolves the owner/product foreign keys referenced by
// access records and subscriptions. It may create records on first
// reference; full user and catalogue management live outside this system.
type DirectoryRepository interface {
	FindOrCreateOwner(ctx context.Context, tx Tx, o *model.Owner) (*model.Owner, error)
	FindOwnerByID(ctx context.Context, tx Tx, id string) (*model.Owner, error)
	// FindOrCreateProduct resolves a product by its shop id, creating it with
	// the given lifetime on first reference. An existing product keeps its
	// stored lifetime.
	FindOrCreateProduct(ctx context.Context, tx Tx, shopID, name string, lifetimeDays int) (*model.Product, error)
	FindProductByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	FindProductByShopID(ctx context.Context, tx Tx, shopID string) (*model.Product, error)
}

// DeadLetterRepository persists failed inbound events.
type DeadLetterRepository interface {
	Create(ctx context.Context, tx Tx, d *model.DeadLetter) error
}
