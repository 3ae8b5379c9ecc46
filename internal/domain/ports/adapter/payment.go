package adapter

import "context"

// InitParams describes the first phase of a recurring charge: registering
// the intended payment with the provider. Amount is in minor units.
type InitParams struct {
	Amount      int64
	OrderID     string
	Description string
	Email       string
	Phone       string
}

// ChargeResult is the provider's verdict on the second phase. Raw carries
// the full provider payload for record keeping and support replay.
type ChargeResult struct {
	Success           bool
	Status            string
	ExternalPaymentID string
	ErrorCode         string
	ErrorMessage      string
	RebillID          string // present when the provider rotated the token
	CardMask          string
	ExpDate           string
	Raw               map[string]any
}

// RecurringGateway is the two-phase provider protocol. Init failures never
// created a provider-side payment; Charge failures did, which is why the
// phases stay separate calls.
type RecurringGateway interface {
	Name() string
	Init(ctx context.Context, p InitParams) (paymentID string, err error)
	Charge(ctx context.Context, paymentID, rebillID, email string) (*ChargeResult, error)
}
