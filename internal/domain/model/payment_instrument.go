package model

import "time"

type InstrumentStatus string

const (
	InstrumentStatusActive   InstrumentStatus = "ACTIVE"
	InstrumentStatusInactive InstrumentStatus = "INACTIVE"
	InstrumentStatusRevoked  InstrumentStatus = "REVOKED"
	InstrumentStatusExpired  InstrumentStatus = "EXPIRED"
)

// PaymentInstrument is a stored payment method usable for recurring charges.
// RebillID is the provider-side token that authorizes charging without the
// cardholder present; only ACTIVE instruments may be charged.
type PaymentInstrument struct {
	ID        string // UUID
	OwnerID   string
	Provider  string
	Method    PaymentMethod
	CardMask  string // e.g. ****7382
	ExpDate   string // MMYY
	RebillID  string
	Status    InstrumentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *PaymentInstrument) IsChargeable() bool {
	return i.Status == InstrumentStatusActive && i.RebillID != ""
}
