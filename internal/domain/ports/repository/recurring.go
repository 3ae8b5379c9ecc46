package repository

import (
	"context"
	"time"

	"lms-access-billing/internal/domain/model"
)

// RecurringRepository is the port for recurring subscriptions.
type RecurringRepository interface {
	// FindByID locks the row (FOR UPDATE) when called with a live tx; this
	// serializes concurrent charge jobs for the same subscription.
	FindByID(ctx context.Context, tx Tx, id string) (*model.RecurringSubscription, error)
	FindByOwner(ctx context.Context, tx Tx, ownerID string) (*model.RecurringSubscription, error)
	Save(ctx context.Context, tx Tx, r *model.RecurringSubscription) error
	// ListDue returns ACTIVE subscriptions with an instrument and a
	// next_charge_at at or before `now`.
	ListDue(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.RecurringSubscription, error)
	// HasActiveForOwner reports whether the owner has an ACTIVE recurring
	// subscription tied to a subscription-kind product.
	HasActiveForOwner(ctx context.Context, tx Tx, ownerID string) (bool, error)
	// SetLastAttempt mirrors the newest charge attempt onto the subscription.
	SetLastAttempt(ctx context.Context, tx Tx, id string, at time.Time, status model.ChargeStatus) error
}

// ChargeAttemptRepository is the append-only attempt log.
type ChargeAttemptRepository interface {
	Create(ctx context.Context, tx Tx, a *model.ChargeAttempt) error
	// CountSince counts attempts for the subscription created at or after
	// `since` (the current billing cycle start).
	CountSince(ctx context.Context, tx Tx, recurringID string, since time.Time) (int, error)
}

// ChargeAttemptLogRepository stores error logs for failed charge machinery.
type ChargeAttemptLogRepository interface {
	Create(ctx context.Context, tx Tx, l *model.ChargeAttemptLog) error
}
