package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeAttempt is one append-only record of a single try to execute a
// recurring charge. The newest attempt's status and time are mirrored onto
// the subscription's LastAttempt* fields for cheap precondition checks.
type ChargeAttempt struct {
	ID                string // ULID, sortable by creation time
	RecurringID       string
	PaymentID         *string // set when the charge produced a payment
	Status            ChargeStatus
	Amount            decimal.Decimal
	Currency          string
	ErrorCode         string
	ErrorMessage      string
	ExternalPaymentID string
	ProviderResponse  map[string]any
	CreatedAt         time.Time
}

// ChargeAttemptLog is the error-attempt log for support triage: it keeps the
// raw provider payload and a stack trace whenever charging blew up.
type ChargeAttemptLog struct {
	ID                string // ULID
	OwnerID           *string
	ExternalPaymentID string
	Provider          string
	ProviderResponse  map[string]any
	ErrorMessage      string
	Stack             string
	CreatedAt         time.Time
}
