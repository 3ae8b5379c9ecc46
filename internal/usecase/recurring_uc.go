// File: internal/usecase/recurring_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/adapter"
	"lms-access-billing/internal/domain/ports/repository"
	"lms-access-billing/internal/infra/metrics"
)

// MaxChargeAttempts caps failed attempts per billing cycle; reaching the cap
// cancels the subscription instead of retrying forever.
const MaxChargeAttempts = 3

// Compile-time check
var _ RecurringUseCase = (*recurringUC)(nil)

// RecurringUseCase runs the scheduled charge machinery and the user-facing
// cancellation.
type RecurringUseCase interface {
	// ProcessCharge attempts one charge for one subscription. Business
	// precondition stops are terminal for the run and return nil; only
	// infrastructure failures propagate to the scheduler.
	ProcessCharge(ctx context.Context, recurringID string) error
	// Cancel deactivates the owner's recurring subscription and its
	// instrument. Paid-for access is untouched.
	Cancel(ctx context.Context, ownerID string) error
}

type recurringUC struct {
	tm          repository.TransactionManager
	recurrings  repository.RecurringRepository
	attempts    repository.ChargeAttemptRepository
	attemptLogs repository.ChargeAttemptLogRepository
	payments    repository.PaymentRepository
	instruments repository.PaymentInstrumentRepository
	directory   repository.DirectoryRepository
	processor   ChargeProcessor
	access      AccessUseCase
	cache       adapter.WindowCache
	notify      adapter.NotificationDispatcher
	log         *zerolog.Logger
}

func NewRecurringUseCase(
	tm repository.TransactionManager,
	recurrings repository.RecurringRepository,
	attempts repository.ChargeAttemptRepository,
	attemptLogs repository.ChargeAttemptLogRepository,
	payments repository.PaymentRepository,
	instruments repository.PaymentInstrumentRepository,
	directory repository.DirectoryRepository,
	processor ChargeProcessor,
	access AccessUseCase,
	cache adapter.WindowCache,
	notify adapter.NotificationDispatcher,
	logger *zerolog.Logger,
) *recurringUC {
	l := logger.With().Str("component", "recurring_uc").Logger()
	return &recurringUC{
		tm:          tm,
		recurrings:  recurrings,
		attempts:    attempts,
		attemptLogs: attemptLogs,
		payments:    payments,
		instruments: instruments,
		directory:   directory,
		processor:   processor,
		access:      access,
		cache:       cache,
		notify:      notify,
		log:         &l,
	}
}

func (u *recurringUC) ProcessCharge(ctx context.Context, recurringID string) error {
	if u.processor == nil {
		return domain.ErrUnsupportedProvider
	}
	var (
		ownerID string
		attempt *model.ChargeAttempt
		product *model.Product
		outcome string
		stopErr error
	)
	// The provider charge and its durable records commit here, before any
	// window bookkeeping. Money taken must stay on record even when a later
	// step fails.
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.recurrings.FindByID(ctx, tx, recurringID)
		if err != nil {
			return err
		}
		ownerID = sub.OwnerID

		inst, prod, owner, err := u.checkPreconditions(ctx, tx, sub)
		if err != nil {
			// Business stops return nil so the transaction commits; the
			// attempt-cap path cancels the subscription in that commit.
			if domain.IsBusinessViolation(err) {
				stopErr = err
				return nil
			}
			return err
		}
		product = prod

		a, err := u.processor.Charge(ctx, tx, sub, inst, owner, product)
		if err != nil {
			return err
		}
		attempt = a

		if a.Status != model.ChargeStatusSuccess {
			outcome = "fail"
			u.log.Info().
				Str("recurring_id", sub.ID).
				Str("error_code", a.ErrorCode).
				Msg("recurring charge declined")
			// This decline may have been the last allowed attempt.
			count, err := u.attempts.CountSince(ctx, tx, sub.ID, *sub.NextChargeAt)
			if err != nil {
				return err
			}
			if count >= MaxChargeAttempts {
				sub.Deactivate()
				if err := u.recurrings.Save(ctx, tx, sub); err != nil {
					return err
				}
				u.log.Warn().
					Str("recurring_id", sub.ID).
					Int("attempts", count).
					Msg("attempt cap reached, subscription cancelled")
				metrics.IncRecurringCharge("deactivated")
			}
			return nil
		}
		outcome = "success"
		return nil
	})
	if err != nil {
		u.recordFailure(ctx, recurringID, ownerID, err)
		metrics.IncRecurringCharge("error")
		return err
	}
	if stopErr != nil {
		u.stopOnPrecondition(recurringID, stopErr)
		return nil
	}

	if outcome == "success" {
		if err := u.settleSuccess(ctx, recurringID, product, attempt); err != nil {
			u.recordFailure(ctx, recurringID, ownerID, err)
			metrics.IncRecurringCharge("error")
			return err
		}
	}

	metrics.IncRecurringCharge(outcome)
	if ownerID != "" && u.cache != nil {
		if cerr := u.cache.InvalidateOwner(ctx, ownerID); cerr != nil {
			u.log.Warn().Err(cerr).Str("owner_id", ownerID).Msg("cache invalidation failed")
		}
	}
	if u.notify != nil && attempt != nil {
		u.notify.NotifyChargeAttempt(ctx, ownerID, attempt.ID)
	}
	return nil
}

// settleSuccess advances the billing cycle and grants the paid window in its
// own transaction. The payment and attempt are already committed, so a
// failure here leaves the next run stopped at the already-charged guard
// instead of charging the card again.
func (u *recurringUC) settleSuccess(ctx context.Context, recurringID string, product *model.Product, attempt *model.ChargeAttempt) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.recurrings.FindByID(ctx, tx, recurringID)
		if err != nil {
			return err
		}
		if err := sub.AdvanceNextCharge(product.LifetimeDays); err != nil {
			return err
		}
		if err := u.recurrings.Save(ctx, tx, sub); err != nil {
			return err
		}

		now := time.Now()
		end := *sub.NextChargeAt
		return u.access.GrantWithin(ctx, tx, GrantInput{
			OrderID:   chargeOrderID(attempt),
			OwnerID:   sub.OwnerID,
			ProductID: sub.ProductID,
			StartAt:   now,
			EndAt:     &end,
			EventTime: now,
		})
	})
}

// checkPreconditions validates, in order: subscription state, instrument,
// due date, cycle guard, attempt cap, duplicate payment. The attempt cap is
// special: hitting it cancels the subscription in place.
func (u *recurringUC) checkPreconditions(ctx context.Context, tx repository.Tx, sub *model.RecurringSubscription) (*model.PaymentInstrument, *model.Product, *model.Owner, error) {
	if !sub.IsActive() {
		return nil, nil, nil, domain.ErrRecurringNotActive
	}
	if sub.InstrumentID == nil {
		return nil, nil, nil, domain.ErrMissingInstrument
	}
	inst, err := u.instruments.FindByID(ctx, tx, *sub.InstrumentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, nil, domain.ErrMissingInstrument
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if !inst.IsChargeable() {
		return nil, nil, nil, domain.ErrInstrumentNotActive
	}

	now := time.Now()
	if sub.NextChargeAt == nil || sub.NextChargeAt.After(now) {
		return nil, nil, nil, domain.ErrChargeNotDue
	}
	if sub.LastAttemptStatus == model.ChargeStatusSuccess &&
		sub.LastAttemptAt != nil && !sub.LastAttemptAt.Before(*sub.NextChargeAt) {
		return nil, nil, nil, domain.ErrAlreadyChargedThisCycle
	}

	count, err := u.attempts.CountSince(ctx, tx, sub.ID, *sub.NextChargeAt)
	if err != nil {
		return nil, nil, nil, err
	}
	if count >= MaxChargeAttempts {
		sub.Deactivate()
		if err := u.recurrings.Save(ctx, tx, sub); err != nil {
			return nil, nil, nil, err
		}
		u.log.Warn().
			Str("recurring_id", sub.ID).
			Int("attempts", count).
			Msg("attempt cap reached, subscription cancelled")
		metrics.IncRecurringCharge("deactivated")
		return nil, nil, nil, domain.ErrTooManyChargeAttempts
	}

	exists, err := u.payments.ExistsPaidSince(ctx, tx, sub.OwnerID, sub.ProductID, *sub.NextChargeAt)
	if err != nil {
		return nil, nil, nil, err
	}
	if exists {
		return nil, nil, nil, domain.ErrPaymentAlreadyExists
	}

	product, err := u.directory.FindProductByID(ctx, tx, sub.ProductID)
	if err != nil {
		return nil, nil, nil, err
	}
	owner, err := u.directory.FindOwnerByID(ctx, tx, sub.OwnerID)
	if err != nil {
		return nil, nil, nil, err
	}
	return inst, product, owner, nil
}

// stopOnPrecondition logs and counts a business stop. ErrTooManyChargeAttempts
// already committed the cancellation inside the transaction.
func (u *recurringUC) stopOnPrecondition(recurringID string, err error) {
	reason := preconditionReason(err)
	metrics.IncChargePreconditionStop(reason)
	u.log.Info().
		Str("recurring_id", recurringID).
		Str("reason", reason).
		Msg("recurring charge stopped by precondition")
}

func preconditionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRecurringNotActive):
		return "not_active"
	case errors.Is(err, domain.ErrMissingInstrument):
		return "missing_instrument"
	case errors.Is(err, domain.ErrInstrumentNotActive):
		return "instrument_not_active"
	case errors.Is(err, domain.ErrChargeNotDue):
		return "not_due"
	case errors.Is(err, domain.ErrAlreadyChargedThisCycle):
		return "already_charged"
	case errors.Is(err, domain.ErrTooManyChargeAttempts):
		return "too_many_attempts"
	case errors.Is(err, domain.ErrPaymentAlreadyExists):
		return "payment_exists"
	default:
		return "other"
	}
}

// recordFailure persists an error log row for support triage. The charge
// transaction already rolled back, so this writes outside any transaction.
func (u *recurringUC) recordFailure(ctx context.Context, recurringID, ownerID string, cause error) {
	provider := ""
	if u.processor != nil {
		provider = u.processor.Provider()
	}
	l := &model.ChargeAttemptLog{
		ID:           ulid.Make().String(),
		Provider:     provider,
		ErrorMessage: fmt.Sprintf("recurring %s: %v", recurringID, cause),
		Stack:        string(debug.Stack()),
	}
	if ownerID != "" {
		l.OwnerID = &ownerID
	}
	if err := u.attemptLogs.Create(ctx, repository.NoTX, l); err != nil {
		u.log.Error().Err(err).Str("recurring_id", recurringID).Msg("failed to persist charge error log")
	}
	u.log.Error().Err(cause).Str("recurring_id", recurringID).Msg("recurring charge failed")
}

func (u *recurringUC) Cancel(ctx context.Context, ownerID string) error {
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.recurrings.FindByOwner(ctx, tx, ownerID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoRecurringSubscription
		}
		if err != nil {
			return err
		}
		if !sub.IsActive() {
			return domain.ErrNoRecurringSubscription
		}
		if sub.InstrumentID != nil {
			if err := u.instruments.UpdateStatus(ctx, tx, *sub.InstrumentID, model.InstrumentStatusInactive); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		sub.Deactivate()
		return u.recurrings.Save(ctx, tx, sub)
	})
	if err != nil {
		return err
	}
	if u.cache != nil {
		if cerr := u.cache.InvalidateOwner(ctx, ownerID); cerr != nil {
			u.log.Warn().Err(cerr).Str("owner_id", ownerID).Msg("cache invalidation failed")
		}
	}
	u.log.Info().Str("owner_id", ownerID).Msg("recurring subscription cancelled by user")
	return nil
}

func chargeOrderID(a *model.ChargeAttempt) string {
	if a.ExternalPaymentID != "" {
		return "recurring-" + a.ExternalPaymentID
	}
	return "recurring-" + a.ID
}
