package repository

import (
	"context"
	"time"

	"lms-access-billing/internal/domain/model"
)

// PaymentRepository is the port for durable payments.
type PaymentRepository interface {
	// Upsert creates or updates the payment by external_payment_id, the
	// provider-side idempotency key.
	Upsert(ctx context.Context, tx Tx, p *model.Payment) error
	FindByExternalID(ctx context.Context, tx Tx, externalPaymentID string) (*model.Payment, error)
	// ExistsPaidSince reports whether a PAID payment for the owner/product
	// pair was recorded at or after `since` (double-charge backstop).
	ExistsPaidSince(ctx context.Context, tx Tx, ownerID, productID string, since time.Time) (bool, error)
}

// PaymentInstrumentRepository is the port for stored payment methods.
type PaymentInstrumentRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentInstrument, error)
	// UpsertByNaturalKey creates or refreshes an instrument keyed by
	// (owner, provider, method, rebill id) and returns the stored row.
	UpsertByNaturalKey(ctx context.Context, tx Tx, i *model.PaymentInstrument) (*model.PaymentInstrument, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.InstrumentStatus) error
}
