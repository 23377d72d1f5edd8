package portfolio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is one user's portfolio: the engine holding the table plus the
// scheduler driving its periodic refresh. Sessions live in memory only and
// disappear on logout or server restart.
type Session struct {
	Engine    *Engine
	Scheduler *Scheduler
}

// Registry creates and tears down sessions, one per user id.
type Registry struct {
	market    MarketData
	dividends DividendSource
	interval  time.Duration
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry.
func NewRegistry(market MarketData, dividends DividendSource, interval time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		market:    market,
		dividends: dividends,
		interval:  interval,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the user's session, creating and starting it on first use.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s
	}

	engine := NewEngine(r.market, r.dividends, r.log.With(zap.String("user_id", userID)))
	s := &Session{
		Engine:    engine,
		Scheduler: NewScheduler(engine, r.interval, r.log),
	}
	s.Scheduler.Start()
	r.sessions[userID] = s

	r.log.Info("portfolio session started", zap.String("user_id", userID))
	return s
}

// Close tears down a user's session, stopping its scheduler.
func (r *Registry) Close(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.Scheduler.Stop()
		r.log.Info("portfolio session closed", zap.String("user_id", userID))
	}
}

// CloseAll stops every session, for server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Scheduler.Stop()
	}
}
