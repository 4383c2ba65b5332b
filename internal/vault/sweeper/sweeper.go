// Package sweeper periodically rejects proposals whose voting period ended.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"covault/internal/vault/service"
	"covault/pkg/requestcontext"
)

// Expirer is the slice of the vault service the sweeper drives.
type Expirer interface {
	ExpireProposals(ctx context.Context, now time.Time) ([]service.ExpiredProposal, error)
}

type Sweeper struct {
	vaults   Expirer
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(vaults Expirer, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		vaults:   vaults,
		interval: interval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx is cancelled. A failed sweep is logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepAt(ctx, s.now()); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.WarnContext(ctx, "proposal expiry sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepAt expires everything due at now.
// Exported for testability; Run passes wall-clock time.
func (s *Sweeper) SweepAt(ctx context.Context, now time.Time) (int, error) {
	ctx = requestcontext.WithTime(ctx, now)
	expired, err := s.vaults.ExpireProposals(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) > 0 {
		s.logger.InfoContext(ctx, "expired proposals", "count", len(expired))
	}
	return len(expired), nil
}
