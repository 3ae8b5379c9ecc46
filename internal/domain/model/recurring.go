package model

import (
	"time"

	"github.com/shopspring/decimal"

	"lms-access-billing/internal/domain"
)

type RecurringStatus string

const (
	RecurringStatusActive    RecurringStatus = "ACTIVE"
	RecurringStatusCancelled RecurringStatus = "CANCELLED" // terminal
)

type ChargeStatus string

const (
	ChargeStatusSuccess ChargeStatus = "SUCCESS"
	ChargeStatusFail    ChargeStatus = "FAIL"
)

// RecurringSubscription is a standing authorization to charge a stored
// payment instrument on a schedule to maintain continuous product access.
type RecurringSubscription struct {
	ID                string // UUID
	OwnerID           string
	ProductID         string
	InstrumentID      *string // nil when the instrument was detached
	Status            RecurringStatus
	Amount            decimal.Decimal
	NextChargeAt      *time.Time
	LastAttemptAt     *time.Time
	LastAttemptStatus ChargeStatus // empty until the first attempt
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r *RecurringSubscription) IsActive() bool {
	return r.Status == RecurringStatusActive
}

// AdvanceNextCharge moves NextChargeAt one billing period forward, counted
// from the last attempt (or now when there was none).
func (r *RecurringSubscription) AdvanceNextCharge(lifetimeDays int) error {
	if lifetimeDays <= 0 {
		return domain.ErrInvalidArgument
	}
	base := time.Now()
	if r.LastAttemptAt != nil {
		base = *r.LastAttemptAt
	}
	next := base.Add(time.Duration(lifetimeDays) * 24 * time.Hour)
	r.NextChargeAt = &next
	return nil
}

func (r *RecurringSubscription) Deactivate() {
	r.Status = RecurringStatusCancelled
}
