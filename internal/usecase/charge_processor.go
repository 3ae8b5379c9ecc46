// File: internal/usecase/charge_processor.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/adapter"
	"lms-access-billing/internal/domain/ports/repository"
)

// ChargeProcessor executes one charge end to end: provider calls plus the
// durable records (payment, attempt, last-attempt mirror, instrument
// refresh). It runs inside the caller's transaction and returns the attempt
// it recorded; a declined charge is a FAIL attempt, not an error.
type ChargeProcessor interface {
	Provider() string
	Charge(ctx context.Context, tx repository.Tx, sub *model.RecurringSubscription, inst *model.PaymentInstrument, owner *model.Owner, product *model.Product) (*model.ChargeAttempt, error)
}

// Compile-time check
var _ ChargeProcessor = (*gatewayChargeProcessor)(nil)

type gatewayChargeProcessor struct {
	gateway     adapter.RecurringGateway
	payments    repository.PaymentRepository
	attempts    repository.ChargeAttemptRepository
	recurrings  repository.RecurringRepository
	instruments repository.PaymentInstrumentRepository
	log         *zerolog.Logger
}

func NewChargeProcessor(
	gateway adapter.RecurringGateway,
	payments repository.PaymentRepository,
	attempts repository.ChargeAttemptRepository,
	recurrings repository.RecurringRepository,
	instruments repository.PaymentInstrumentRepository,
	logger *zerolog.Logger,
) *gatewayChargeProcessor {
	l := logger.With().Str("component", "charge_processor").Logger()
	return &gatewayChargeProcessor{
		gateway:     gateway,
		payments:    payments,
		attempts:    attempts,
		recurrings:  recurrings,
		instruments: instruments,
		log:         &l,
	}
}

func (p *gatewayChargeProcessor) Provider() string { return p.gateway.Name() }

func (p *gatewayChargeProcessor) Charge(
	ctx context.Context,
	tx repository.Tx,
	sub *model.RecurringSubscription,
	inst *model.PaymentInstrument,
	owner *model.Owner,
	product *model.Product,
) (*model.ChargeAttempt, error) {
	now := time.Now()
	orderID := fmt.Sprintf("%s-%d", sub.ID, now.Unix())

	// Amount is stored in major units; the provider wants minor units.
	minor := sub.Amount.Shift(2).IntPart()
	paymentID, err := p.gateway.Init(ctx, adapter.InitParams{
		Amount:      minor,
		OrderID:     orderID,
		Description: product.Name,
		Email:       owner.Username,
		Phone:       owner.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("init payment: %w", err)
	}

	res, err := p.gateway.Charge(ctx, paymentID, inst.RebillID, owner.Username)
	if err != nil {
		return nil, fmt.Errorf("charge payment %s: %w", paymentID, err)
	}

	status := model.ChargeStatusFail
	if res.Success {
		status = model.ChargeStatusSuccess
	}

	externalID := res.ExternalPaymentID
	if externalID == "" {
		externalID = paymentID
	}

	// A decline leaves only the attempt behind; Payment rows record money
	// actually taken.
	var payment *model.Payment
	if status == model.ChargeStatusSuccess {
		payment = &model.Payment{
			ID:                uuid.NewString(),
			ExternalPaymentID: externalID,
			OrderID:           orderID,
			OwnerID:           &sub.OwnerID,
			ProductID:         &sub.ProductID,
			InstrumentID:      sub.InstrumentID,
			RecurringID:       &sub.ID,
			IsRecurrent:       true,
			Source:            model.PaymentSourceRecurring,
			Provider:          p.gateway.Name(),
			Method:            inst.Method,
			Status:            model.PaymentStatusPaid,
			Amount:            sub.Amount,
			PaidAt:            &now,
			ProviderResponse:  res.Raw,
		}
		if err := p.payments.Upsert(ctx, tx, payment); err != nil {
			return nil, err
		}
	}

	attempt := &model.ChargeAttempt{
		ID:                ulid.Make().String(),
		RecurringID:       sub.ID,
		Status:            status,
		Amount:            sub.Amount,
		Currency:          "RUB",
		ErrorCode:         res.ErrorCode,
		ErrorMessage:      res.ErrorMessage,
		ExternalPaymentID: externalID,
		ProviderResponse:  res.Raw,
		CreatedAt:         now,
	}
	if payment != nil {
		attempt.PaymentID = &payment.ID
	}
	if err := p.attempts.Create(ctx, tx, attempt); err != nil {
		return nil, err
	}
	if err := p.recurrings.SetLastAttempt(ctx, tx, sub.ID, now, status); err != nil {
		return nil, err
	}
	sub.LastAttemptAt = &now
	sub.LastAttemptStatus = status

	// The provider may rotate the rebill token on a successful charge.
	if res.RebillID != "" && res.RebillID != inst.RebillID {
		refreshed, err := p.instruments.UpsertByNaturalKey(ctx, tx, &model.PaymentInstrument{
			ID:       uuid.NewString(),
			OwnerID:  sub.OwnerID,
			Provider: p.gateway.Name(),
			Method:   inst.Method,
			CardMask: pick(res.CardMask, inst.CardMask),
			ExpDate:  pick(res.ExpDate, inst.ExpDate),
			RebillID: res.RebillID,
			Status:   model.InstrumentStatusActive,
		})
		if err != nil {
			return nil, err
		}
		sub.InstrumentID = &refreshed.ID
		if err := p.recurrings.Save(ctx, tx, sub); err != nil {
			return nil, err
		}
		if payment != nil {
			payment.InstrumentID = &refreshed.ID
			if err := p.payments.Upsert(ctx, tx, payment); err != nil {
				return nil, err
			}
		}
	}

	p.log.Info().
		Str("recurring_id", sub.ID).
		Str("external_payment_id", externalID).
		Str("status", string(status)).
		Msg("charge attempt recorded")
	return attempt, nil
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
