// File: internal/usecase/ingest.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
	"lms-access-billing/internal/infra/metrics"
)

// Event type names as the shop sends them.
const (
	EventOrderCheckout = "order-checkedout"
	EventOrderRefund   = "order-refunded"
	EventPromoAccess   = "promo-access"
)

// Compile-time check
var _ CheckoutUseCase = (*deadLetterIngest)(nil)

// deadLetterIngest wraps the checkout handlers with a dead-letter sink.
// Unexpected failures persist the raw event for replay and still propagate.
// Database failures do not dead-letter; if the database is down the sink
// write would fail too, and the upstream retry covers us.
type deadLetterIngest struct {
	inner       CheckoutUseCase
	deadLetters repository.DeadLetterRepository
	log         *zerolog.Logger
}

func NewDeadLetterIngest(inner CheckoutUseCase, deadLetters repository.DeadLetterRepository, logger *zerolog.Logger) *deadLetterIngest {
	l := logger.With().Str("component", "ingest").Logger()
	return &deadLetterIngest{inner: inner, deadLetters: deadLetters, log: &l}
}

// Raw payload travels via context so the wrapped methods keep the plain
// CheckoutUseCase signatures.
type rawPayloadKey struct{}

func WithRawPayload(ctx context.Context, raw []byte) context.Context {
	return context.WithValue(ctx, rawPayloadKey{}, raw)
}

func rawPayload(ctx context.Context) []byte {
	if v, ok := ctx.Value(rawPayloadKey{}).([]byte); ok {
		return v
	}
	return nil
}

func (d *deadLetterIngest) ProcessCheckout(ctx context.Context, in CheckoutInput) error {
	return d.guard(ctx, EventOrderCheckout, func() error {
		return d.inner.ProcessCheckout(ctx, in)
	})
}

func (d *deadLetterIngest) ProcessRefund(ctx context.Context, in RefundInput) error {
	return d.guard(ctx, EventOrderRefund, func() error {
		return d.inner.ProcessRefund(ctx, in)
	})
}

func (d *deadLetterIngest) ProcessPromo(ctx context.Context, in PromoInput) error {
	return d.guard(ctx, EventPromoAccess, func() error {
		return d.inner.ProcessPromo(ctx, in)
	})
}

func (d *deadLetterIngest) guard(ctx context.Context, eventType string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if domain.IsBusinessViolation(err) || isInfraError(err) {
		return err
	}
	d.sink(ctx, eventType, err)
	return err
}

func isInfraError(err error) bool {
	for _, e := range []error{domain.ErrOperationFailed, domain.ErrReadDatabaseRow, domain.ErrInvalidExecContext} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func (d *deadLetterIngest) sink(ctx context.Context, eventType string, cause error) {
	dl := &model.DeadLetter{
		ID:        ulid.Make().String(),
		EventType: eventType,
		RawData:   rawPayload(ctx),
		Details:   fmt.Sprintf("%v\n%s", cause, debug.Stack()),
	}
	if err := d.deadLetters.Create(ctx, repository.NoTX, dl); err != nil {
		d.log.Error().Err(err).Str("event_type", eventType).Msg("dead-letter write failed")
		return
	}
	metrics.IncDeadLetter(eventType)
	d.log.Error().Err(cause).
		Str("event_type", eventType).
		Str("dead_letter_id", dl.ID).
		Msg("event dead-lettered")
}
