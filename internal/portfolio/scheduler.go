package portfolio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"portfel/internal/metrics"
)

// Scheduler re-fetches prices for every ticketed row on a fixed interval.
// A manual refresh additionally re-fetches dividends and resets the interval
// window, so the next periodic scan is a full interval away.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler for one engine.
func NewScheduler(engine *Engine, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		log:      log,
	}
}

// Start begins periodic scanning with an immediate first scan.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(true)
}

// Stop cancels the periodic timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Refresh runs one manual full scan (prices, then dividends) synchronously
// and restarts the periodic timer so the interval window begins anew.
func (s *Scheduler) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.stopLocked()
	s.startLocked(false)
	s.mu.Unlock()

	rows := s.engine.RefreshAll(ctx, true)
	m := metrics.Get()
	m.RefreshScansTotal.WithLabelValues("manual").Inc()
	m.RefreshScanRows.WithLabelValues("manual").Observe(float64(rows))
}

func (s *Scheduler) startLocked(scanNow bool) {
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx, scanNow)
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// run executes scans on the configured interval until cancelled.
func (s *Scheduler) run(ctx context.Context, scanNow bool) {
	if scanNow {
		s.scan(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scan(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) scan(ctx context.Context) {
	started := time.Now()
	rows := s.engine.RefreshAll(ctx, false)

	m := metrics.Get()
	m.RefreshScansTotal.WithLabelValues("periodic").Inc()
	m.RefreshScanRows.WithLabelValues("periodic").Observe(float64(rows))

	s.log.Debug("price scan finished",
		zap.Int("rows", rows),
		zap.Duration("took", time.Since(started)),
	)
}
