package repository

import (
	"context"
	"time"

	"lms-access-billing/internal/domain/model"
)

// AccessRecordRepository is the port for the entitlement table.
type AccessRecordRepository interface {
	// FindByOrderID locks the row (FOR UPDATE) when called with a live tx.
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.AccessRecord, error)
	Create(ctx context.Context, tx Tx, rec *model.AccessRecord) error
	// Save updates every mutable field and bumps updated_at.
	Save(ctx context.Context, tx Tx, rec *model.AccessRecord) error
	// DeleteByOrderID is administrative only; normal operation never deletes.
	DeleteByOrderID(ctx context.Context, tx Tx, orderID string) error

	// Read side for the subscription window index.
	HasActiveAccess(ctx context.Context, tx Tx, ownerID string, kind model.ProductKind, at time.Time) (bool, error)
	// CurrentSubscriptionWindow returns the latest-starting subscription
	// access active at `at`, or ErrNotFound.
	CurrentSubscriptionWindow(ctx context.Context, tx Tx, ownerID string, at time.Time) (*model.AccessRecord, error)
	// LatestSubscriptionWindow returns the most recent unrevoked subscription
	// access regardless of whether it is still active, or ErrNotFound.
	LatestSubscriptionWindow(ctx context.Context, tx Tx, ownerID string) (*model.AccessRecord, error)
}
