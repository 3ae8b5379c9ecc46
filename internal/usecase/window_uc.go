// File: internal/usecase/window_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/adapter"
	"lms-access-billing/internal/domain/ports/repository"
	"lms-access-billing/internal/infra/metrics"
)

// Compile-time check
var _ WindowUseCase = (*windowUC)(nil)

// WindowUseCase is the read side of the entitlement store: the subscription
// window queries the site asks on nearly every page view. Answers are cached
// per owner; any applied access event evicts that owner's entries.
type WindowUseCase interface {
	HasActiveSubscription(ctx context.Context, ownerID string) (bool, error)
	// Boundaries returns the window active right now, or Found=false.
	Boundaries(ctx context.Context, ownerID string) (*adapter.CachedWindow, error)
	// AnyBoundaries returns the most recent unrevoked window even if it has
	// ended, for "your subscription expired on X" surfaces.
	AnyBoundaries(ctx context.Context, ownerID string) (*adapter.CachedWindow, error)
	HasActiveRecurring(ctx context.Context, ownerID string) (bool, error)
}

type windowUC struct {
	records    repository.AccessRecordRepository
	recurrings repository.RecurringRepository
	cache      adapter.WindowCache // nil when caching is disabled
	log        *zerolog.Logger
}

func NewWindowUseCase(
	records repository.AccessRecordRepository,
	recurrings repository.RecurringRepository,
	cache adapter.WindowCache,
	logger *zerolog.Logger,
) *windowUC {
	l := logger.With().Str("component", "window_uc").Logger()
	return &windowUC{records: records, recurrings: recurrings, cache: cache, log: &l}
}

func (u *windowUC) HasActiveSubscription(ctx context.Context, ownerID string) (bool, error) {
	if u.cache == nil {
		metrics.IncCacheRequest("checker", "bypass")
		return u.records.HasActiveAccess(ctx, repository.NoTX, ownerID, model.ProductKindSubscription, time.Now())
	}
	if active, ok := u.cache.GetActive(ctx, ownerID); ok {
		metrics.IncCacheRequest("checker", "hit")
		return active, nil
	}
	metrics.IncCacheRequest("checker", "miss")
	active, err := u.records.HasActiveAccess(ctx, repository.NoTX, ownerID, model.ProductKindSubscription, time.Now())
	if err != nil {
		return false, err
	}
	if err := u.cache.SetActive(ctx, ownerID, active); err != nil {
		u.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache set failed")
	}
	return active, nil
}

func (u *windowUC) Boundaries(ctx context.Context, ownerID string) (*adapter.CachedWindow, error) {
	if u.cache != nil {
		if w, ok := u.cache.GetWindow(ctx, ownerID); ok {
			metrics.IncCacheRequest("boundaries", "hit")
			return w, nil
		}
		metrics.IncCacheRequest("boundaries", "miss")
	} else {
		metrics.IncCacheRequest("boundaries", "bypass")
	}

	w, err := u.lookupWindow(ctx, ownerID, time.Now())
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		if err := u.cache.SetWindow(ctx, ownerID, w); err != nil {
			u.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache set failed")
		}
	}
	return w, nil
}

// AnyBoundaries is uncached: it only backs low-traffic account pages.
func (u *windowUC) AnyBoundaries(ctx context.Context, ownerID string) (*adapter.CachedWindow, error) {
	rec, err := u.records.LatestSubscriptionWindow(ctx, repository.NoTX, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return &adapter.CachedWindow{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &adapter.CachedWindow{Found: true, StartAt: &rec.StartAt, EndAt: rec.EndAt}, nil
}

func (u *windowUC) HasActiveRecurring(ctx context.Context, ownerID string) (bool, error) {
	if u.cache != nil {
		if active, ok := u.cache.GetRecurringActive(ctx, ownerID); ok {
			metrics.IncCacheRequest("recurring", "hit")
			return active, nil
		}
		metrics.IncCacheRequest("recurring", "miss")
	} else {
		metrics.IncCacheRequest("recurring", "bypass")
	}
	active, err := u.recurrings.HasActiveForOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return false, err
	}
	if u.cache != nil {
		if err := u.cache.SetRecurringActive(ctx, ownerID, active); err != nil {
			u.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache set failed")
		}
	}
	return active, nil
}

func (u *windowUC) lookupWindow(ctx context.Context, ownerID string, at time.Time) (*adapter.CachedWindow, error) {
	rec, err := u.records.CurrentSubscriptionWindow(ctx, repository.NoTX, ownerID, at)
	if errors.Is(err, domain.ErrNotFound) {
		return &adapter.CachedWindow{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &adapter.CachedWindow{Found: true, StartAt: &rec.StartAt, EndAt: rec.EndAt}, nil
}
