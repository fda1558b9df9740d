// Package worker holds background deliveries that run beside the API server.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stampauth/config"
	"stampauth/internal/delivery"
	"stampauth/internal/domain/lifecycle"
	"stampauth/internal/domain/repository"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sweeper periodically deletes expired challenges so abandoned handshakes do not pile up.
type sweeper struct {
	store    repository.ChallengeStore
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// SweeperParams holds dependencies for the challenge sweeper, injected by Fx.
type SweeperParams struct {
	fx.In

	Lc         fx.Lifecycle
	Cfg        *config.Config
	Logger     *slog.Logger
	Challenges repository.ChallengeStore
}

// NewSweeper returns the sweeper delivery. An interval of zero disables it.
func NewSweeper(params SweeperParams) (delivery.Delivery, error) {
	s := newSweeper(params.Challenges, params.Cfg.Challenge.SweepInterval, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: s.shutdown,
	})

	return s, nil
}

func newSweeper(store repository.ChallengeStore, interval time.Duration, logger *slog.Logger) *sweeper {
	return &sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Serve blocks until ctx is cancelled or the sweeper is stopped.
func (s *sweeper) Serve(ctx context.Context) error {
	defer close(s.done)

	if s.interval <= 0 {
		s.logger.Info("Challenge sweeper disabled")

		return nil
	}

	s.logger.Info("Starting challenge sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	removed, err := s.store.PurgeExpired(sweepCtx)
	if err != nil {
		s.logger.Warn("Failed to purge expired challenges", slog.Any("error", err))

		return
	}
	if removed > 0 {
		s.logger.Debug("Purged expired challenges", slog.Int64("removed", removed))
	}
}

func (s *sweeper) shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "challenge sweeper did not stop in time")
	}
}
