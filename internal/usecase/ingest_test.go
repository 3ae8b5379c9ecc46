//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/usecase"
)

// stubCheckout lets each test dictate the inner handler outcome.
type stubCheckout struct {
	err error
}

func (s *stubCheckout) ProcessCheckout(ctx context.Context, in usecase.CheckoutInput) error {
	return s.err
}

func (s *stubCheckout) ProcessRefund(ctx context.Context, in usecase.RefundInput) error {
	return s.err
}

func (s *stubCheckout) ProcessPromo(ctx context.Context, in usecase.PromoInput) error {
	return s.err
}

func TestDeadLetterIngest(t *testing.T) {
	logger := newTestLogger()
	raw := []byte(`{"order":{"id":"order-1"}}`)

	t.Run("unexpected failure sinks the raw event and propagates", func(t *testing.T) {
		// --- Arrange ---
		cause := errors.New("malformed payload shape")
		sink := NewMockDeadLetterRepo()
		ingest := usecase.NewDeadLetterIngest(&stubCheckout{err: cause}, sink, logger)
		ctx := usecase.WithRawPayload(context.Background(), raw)

		// --- Act ---
		err := ingest.ProcessCheckout(ctx, usecase.CheckoutInput{OrderID: "order-1", EventTime: time.Now()})

		// --- Assert ---
		if !errors.Is(err, cause) {
			t.Fatalf("expected the cause to propagate, got %v", err)
		}
		if len(sink.Letters) != 1 {
			t.Fatalf("expected one dead letter, got %d", len(sink.Letters))
		}
		dl := sink.Letters[0]
		if dl.EventType != usecase.EventOrderCheckout {
			t.Errorf("expected event type %q, got %q", usecase.EventOrderCheckout, dl.EventType)
		}
		if string(dl.RawData) != string(raw) {
			t.Error("expected the raw payload preserved for replay")
		}
		if !strings.Contains(dl.Details, cause.Error()) {
			t.Error("expected the cause recorded in the details")
		}
	})

	t.Run("business violation is not dead-lettered", func(t *testing.T) {
		// --- Arrange ---
		sink := NewMockDeadLetterRepo()
		ingest := usecase.NewDeadLetterIngest(&stubCheckout{err: domain.ErrActiveSubscriptionExists}, sink, logger)
		ctx := usecase.WithRawPayload(context.Background(), raw)

		// --- Act ---
		err := ingest.ProcessPromo(ctx, usecase.PromoInput{EventID: "evt-1", EventTime: time.Now()})

		// --- Assert ---
		if !errors.Is(err, domain.ErrActiveSubscriptionExists) {
			t.Fatalf("expected the violation to propagate, got %v", err)
		}
		if len(sink.Letters) != 0 {
			t.Errorf("expected no dead letter, got %d", len(sink.Letters))
		}
	})

	t.Run("database failure is not dead-lettered", func(t *testing.T) {
		// --- Arrange ---
		sink := NewMockDeadLetterRepo()
		ingest := usecase.NewDeadLetterIngest(&stubCheckout{err: domain.ErrOperationFailed}, sink, logger)
		ctx := usecase.WithRawPayload(context.Background(), raw)

		// --- Act ---
		err := ingest.ProcessRefund(ctx, usecase.RefundInput{OrderID: "order-1", EventTime: time.Now()})

		// --- Assert ---
		if !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("expected the failure to propagate, got %v", err)
		}
		if len(sink.Letters) != 0 {
			t.Errorf("expected no dead letter, got %d", len(sink.Letters))
		}
	})

	t.Run("success passes through untouched", func(t *testing.T) {
		// --- Arrange ---
		sink := NewMockDeadLetterRepo()
		ingest := usecase.NewDeadLetterIngest(&stubCheckout{}, sink, logger)

		// --- Act ---
		err := ingest.ProcessCheckout(context.Background(), usecase.CheckoutInput{OrderID: "order-1"})

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(sink.Letters) != 0 {
			t.Errorf("expected no dead letter, got %d", len(sink.Letters))
		}
	})
}
