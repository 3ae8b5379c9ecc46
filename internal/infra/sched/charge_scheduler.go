package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain/ports/repository"
	"lms-access-billing/internal/infra/redis"
	"lms-access-billing/internal/infra/worker"
	"lms-access-billing/internal/usecase"
)

// ChargeScheduler periodically picks due recurring subscriptions and submits
// one charge job per subscription to the worker pool. A Redis counter caps
// dispatches per minute so the provider never sees a thundering herd.
type ChargeScheduler struct {
	interval   time.Duration
	ratePerMin int
	batchLimit int
	recurrings repository.RecurringRepository
	recurUC    usecase.RecurringUseCase
	pool       *worker.Pool
	limiter    *redis.RateLimiter // nil disables rate limiting
	log        *zerolog.Logger
}

func NewChargeScheduler(
	interval time.Duration,
	ratePerMin int,
	batchLimit int,
	recurrings repository.RecurringRepository,
	recurUC usecase.RecurringUseCase,
	pool *worker.Pool,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *ChargeScheduler {
	l := logger.With().Str("component", "charge_scheduler").Logger()
	return &ChargeScheduler{
		interval:   interval,
		ratePerMin: ratePerMin,
		batchLimit: batchLimit,
		recurrings: recurrings,
		recurUC:    recurUC,
		pool:       pool,
		limiter:    limiter,
		log:        &l,
	}
}

func (s *ChargeScheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("starting charge scheduler")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("stopping charge scheduler")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ChargeScheduler) tick(ctx context.Context) {
	due, err := s.recurrings.ListDue(ctx, repository.NoTX, time.Now(), s.batchLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("listing due subscriptions failed")
		return
	}
	if len(due) == 0 {
		return
	}
	s.log.Info().Int("count", len(due)).Msg("due subscriptions found")

	for _, sub := range due {
		if s.limiter != nil {
			ok, err := s.limiter.Allow(ctx, redis.ChargeDispatchKey(time.Now()), s.ratePerMin, time.Minute)
			if err != nil {
				s.log.Warn().Err(err).Msg("rate limiter unavailable, deferring to next tick")
				return
			}
			// The rest of the batch stays due and is retried next tick.
			if !ok {
				s.log.Debug().Msg("dispatch rate cap reached for this minute")
				return
			}
		}
		id := sub.ID
		if err := s.pool.Submit(func(ctx context.Context) error {
			return s.recurUC.ProcessCharge(ctx, id)
		}); err != nil {
			s.log.Warn().Err(err).Str("recurring_id", id).Msg("charge job not submitted")
			return
		}
	}
}
