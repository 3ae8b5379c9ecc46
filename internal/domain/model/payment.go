package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type PaymentSource string

const (
	PaymentSourceSite      PaymentSource = "SITE"
	PaymentSourceInternal  PaymentSource = "INTERNAL"
	PaymentSourceRecurring PaymentSource = "RECURRING"
)

type PaymentMethod string

const (
	PaymentMethodCard          PaymentMethod = "CARD"
	PaymentMethodCardRecurrent PaymentMethod = "CARD_RECURRENT"
	PaymentMethodSBP           PaymentMethod = "SBP"
)

// Payment is the durable, user-visible record of a transaction. It is
// upserted by ExternalPaymentID, which is the provider-side idempotency key.
type Payment struct {
	ID                string // UUID
	ExternalPaymentID string // unique; id in the payment provider (or shop)
	OrderID           string
	OwnerID           *string
	ProductID         *string
	InstrumentID      *string
	RecurringID       *string
	IsRecurrent       bool
	Source            PaymentSource
	Provider          string
	Method            PaymentMethod
	Status            PaymentStatus
	Amount            decimal.Decimal
	PaidAt            *time.Time
	ProviderResponse  map[string]any // raw provider payload, serialized as JSONB
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusPaid
}
