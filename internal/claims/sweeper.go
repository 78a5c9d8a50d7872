package claims

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"relist/internal/config"
	"relist/internal/logging"
)

// Sweeper periodically releases stale claims so an abandoned session cannot
// hold an item forever.
type Sweeper struct {
	manager  *Manager
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSweeper constructs a sweeper using the configured interval.
func NewSweeper(cfg *config.Config, manager *Manager, logger *slog.Logger) *Sweeper {
	interval := time.Minute
	if cfg != nil && cfg.Workflow.SweepIntervalSeconds > 0 {
		interval = time.Duration(cfg.Workflow.SweepIntervalSeconds) * time.Second
	}
	return &Sweeper{
		manager:  manager,
		logger:   logging.NewComponentLogger(logger, "claim-sweeper"),
		interval: interval,
	}
}

// Start launches the background sweep loop. Starting a running sweeper is a
// no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.loop(runCtx, s.done)
}

// Stop halts the sweep loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.manager.ReleaseStale(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("claim sweep failed", logging.Error(err))
			}
		}
	}
}
