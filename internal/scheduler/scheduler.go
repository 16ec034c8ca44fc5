package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketdata/internal/provider"
)

const (
	DefaultInterval    = time.Hour
	DefaultQuotaWindow = 24 * time.Hour
)

// Config holds reset scheduler configuration.
type Config struct {
	Interval    time.Duration // Scan interval (default: 1h)
	QuotaWindow time.Duration // Age after which a key is reset (default: 24h)
}

// DefaultConfig returns the hourly scan over a 24h quota window.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, QuotaWindow: DefaultQuotaWindow}
}

// ResetScheduler periodically reactivates credentials whose quota window has
// elapsed. It is the only path that resets a credential.
type ResetScheduler struct {
	cfg      Config
	registry *provider.Registry
	logger   zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a ResetScheduler. Zero config fields take the defaults.
func New(cfg Config, registry *provider.Registry, logger zerolog.Logger) *ResetScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.QuotaWindow <= 0 {
		cfg.QuotaWindow = DefaultQuotaWindow
	}
	return &ResetScheduler{cfg: cfg, registry: registry, logger: logger, now: time.Now}
}

// RunOnce resets every stale credential and returns how many were reset.
func (s *ResetScheduler) RunOnce(now time.Time) int {
	n := s.registry.ResetExpired(now, s.cfg.QuotaWindow)
	if n > 0 {
		s.logger.Info().Int("reset", n).Dur("window", s.cfg.QuotaWindow).Msg("credentials reset")
	}
	return n
}

// Start begins the scan loop. Calling Start on a running scheduler is a no-op.
func (s *ResetScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Dur("window", s.cfg.QuotaWindow).
		Msg("reset scheduler started")
	return nil
}

// Stop cancels the loop and waits for it to exit, or for ctx to expire.
func (s *ResetScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("reset scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ResetScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(s.now())
		}
	}
}
