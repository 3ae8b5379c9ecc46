// File: internal/usecase/access_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/adapter"
	"lms-access-billing/internal/domain/ports/repository"
	"lms-access-billing/internal/infra/metrics"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// GrantInput carries one grant event. EventTime is the shop-side timestamp
// of the event, not the time we received it.
type GrantInput struct {
	OrderID   string
	OwnerID   string
	ProductID string
	StartAt   time.Time
	EndAt     *time.Time
	EventTime time.Time
}

// AccessUseCase reconciles grant and revoke events into access records.
// Events may arrive out of order and more than once; applying the same
// stream in any order converges on the same final record per order id.
type AccessUseCase interface {
	Grant(ctx context.Context, in GrantInput) error
	Revoke(ctx context.Context, orderID string, eventTime time.Time) error
	// GrantWithin applies a grant inside an already-open transaction; the
	// recurring charge flow uses it to keep charge and grant atomic.
	GrantWithin(ctx context.Context, tx repository.Tx, in GrantInput) error
	// DeleteOrder removes the record outright. Administrative recovery only.
	DeleteOrder(ctx context.Context, orderID string) error
}

type accessUC struct {
	tm      repository.TransactionManager
	records repository.AccessRecordRepository
	cache   adapter.WindowCache
	notify  adapter.NotificationDispatcher
	log     *zerolog.Logger
}

func NewAccessUseCase(
	tm repository.TransactionManager,
	records repository.AccessRecordRepository,
	cache adapter.WindowCache,
	notify adapter.NotificationDispatcher,
	logger *zerolog.Logger,
) *accessUC {
	l := logger.With().Str("component", "access_uc").Logger()
	return &accessUC{tm: tm, records: records, cache: cache, notify: notify, log: &l}
}

func (u *accessUC) Grant(ctx context.Context, in GrantInput) error {
	applied := false
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		applied, err = u.applyGrant(ctx, tx, in)
		return err
	})
	if err != nil {
		return err
	}
	if applied {
		u.afterApply(ctx, in.OwnerID, in.OrderID, true)
	}
	return nil
}

func (u *accessUC) GrantWithin(ctx context.Context, tx repository.Tx, in GrantInput) error {
	_, err := u.applyGrant(ctx, tx, in)
	return err
}

// applyGrant holds the reconciliation rules for the grant side. The row is
// locked for the duration of the transaction, so concurrent events for one
// order id serialize here.
func (u *accessUC) applyGrant(ctx context.Context, tx repository.Tx, in GrantInput) (bool, error) {
	rec, err := u.records.FindByOrderID(ctx, tx, in.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		now := time.Now()
		granted := in.EventTime
		rec = &model.AccessRecord{
			ID:        uuid.NewString(),
			OrderID:   in.OrderID,
			OwnerID:   &in.OwnerID,
			ProductID: &in.ProductID,
			StartAt:   in.StartAt,
			EndAt:     in.EndAt,
			GrantedAt: &granted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := u.records.Create(ctx, tx, rec); err != nil {
			// ErrAlreadyExists means we lost the insert race. The unique
			// violation aborted this transaction, so the event has to be
			// redelivered rather than retried in place.
			return false, err
		}
		metrics.IncAccessEvent("grant", "created")
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if rec.State() == model.AccessStatePlaceholder {
		// A revoke got here first. The grant fills in everything the
		// placeholder is missing but keeps the recorded revocation.
		granted := in.EventTime
		rec.OwnerID = &in.OwnerID
		rec.ProductID = &in.ProductID
		rec.StartAt = in.StartAt
		rec.EndAt = in.EndAt
		rec.GrantedAt = &granted
		if err := u.records.Save(ctx, tx, rec); err != nil {
			return false, err
		}
		metrics.IncAccessEvent("grant", "filled")
		return true, nil
	}

	if !rec.ShouldApply(in.EventTime) {
		metrics.IncAccessEvent("grant", "out_of_turn")
		metrics.IncOutOfTurn("grant")
		u.log.Warn().
			Str("order_id", in.OrderID).
			Time("event_time", in.EventTime).
			Msg("grant arrived out of turn, dropped")
		return false, nil
	}

	granted := in.EventTime
	rec.OwnerID = &in.OwnerID
	rec.ProductID = &in.ProductID
	rec.StartAt = in.StartAt
	rec.EndAt = in.EndAt
	rec.GrantedAt = &granted
	rec.RevokedAt = nil
	if err := u.records.Save(ctx, tx, rec); err != nil {
		return false, err
	}
	metrics.IncAccessEvent("grant", "applied")
	return true, nil
}

func (u *accessUC) Revoke(ctx context.Context, orderID string, eventTime time.Time) error {
	var ownerID string
	applied := false
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.records.FindByOrderID(ctx, tx, orderID)
		if errors.Is(err, domain.ErrNotFound) {
			// Revoke before grant: park a placeholder so the later grant
			// still sees the revocation and loses the timestamp contest.
			now := time.Now()
			revoked := eventTime
			rec = &model.AccessRecord{
				ID:        uuid.NewString(),
				OrderID:   orderID,
				StartAt:   startOfDay(now),
				RevokedAt: &revoked,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := u.records.Create(ctx, tx, rec); err != nil {
				return err
			}
			metrics.IncAccessEvent("revoke", "created")
			applied = true
			return nil
		}
		if err != nil {
			return err
		}
		if rec.OwnerID != nil {
			ownerID = *rec.OwnerID
		}
		if !rec.ShouldApply(eventTime) {
			metrics.IncAccessEvent("revoke", "out_of_turn")
			metrics.IncOutOfTurn("revoke")
			u.log.Warn().
				Str("order_id", orderID).
				Time("event_time", eventTime).
				Msg("revoke arrived out of turn, dropped")
			return nil
		}
		revoked := eventTime
		rec.RevokedAt = &revoked
		if err := u.records.Save(ctx, tx, rec); err != nil {
			return err
		}
		metrics.IncAccessEvent("revoke", "applied")
		applied = true
		return nil
	})
	if err != nil {
		return err
	}
	if applied && ownerID != "" {
		u.afterApply(ctx, ownerID, orderID, false)
	}
	return nil
}

func (u *accessUC) DeleteOrder(ctx context.Context, orderID string) error {
	var ownerID string
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.records.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if rec.OwnerID != nil {
			ownerID = *rec.OwnerID
		}
		return u.records.DeleteByOrderID(ctx, tx, orderID)
	})
	if err != nil {
		return err
	}
	if ownerID != "" {
		u.invalidate(ctx, ownerID)
	}
	return nil
}

// afterApply runs the post-commit side effects: cache eviction and the CRM
// notification. Neither may affect the outcome of the event itself.
func (u *accessUC) afterApply(ctx context.Context, ownerID, orderID string, granted bool) {
	u.invalidate(ctx, ownerID)
	if u.notify != nil && granted {
		u.notify.NotifyAccessGranted(ctx, ownerID, orderID)
	}
}

func (u *accessUC) invalidate(ctx context.Context, ownerID string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidateOwner(ctx, ownerID); err != nil {
		u.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache invalidation failed")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
