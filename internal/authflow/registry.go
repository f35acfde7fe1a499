package authflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/eduauth/internal/metrics"
)

// DefaultVisitTTL is how long an idle controller is kept for a visit.
const DefaultVisitTTL = 30 * time.Minute

type visitKey struct {
	visit string
	mode  Mode
}

// Registry holds one Controller per browser visit and mode, so concurrent
// requests from the same page visit share one re-entrancy guard.
type Registry struct {
	opts   Options
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu          sync.Mutex
	controllers map[visitKey]*Controller

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a Registry whose controllers are built from opts.
// Controllers idle for longer than ttl are evicted by a background sweeper
// that runs until Close is called. A ttl <= 0 uses DefaultVisitTTL.
func NewRegistry(opts Options, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultVisitTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		opts:        opts,
		ttl:         ttl,
		now:         now,
		logger:      logger,
		controllers: make(map[visitKey]*Controller),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	go r.sweepLoop()

	return r
}

// Controller returns the controller for visit and mode, creating it if needed.
func (r *Registry) Controller(visit string, mode Mode) *Controller {
	key := visitKey{visit: visit, mode: mode}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[key]; ok {
		return c
	}
	c := NewController(mode, r.opts)
	r.controllers[key] = c
	metrics.AuthVisitsActive.Set(float64(len(r.controllers)))
	return c
}

// State returns the state of the controller for visit and mode without
// creating one. An unknown visit is Idle.
func (r *Registry) State(visit string, mode Mode) State {
	r.mu.Lock()
	c, ok := r.controllers[visitKey{visit: visit, mode: mode}]
	r.mu.Unlock()

	if !ok {
		return State{}
	}
	return c.State()
}

// Len returns the number of controllers held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Sweep evicts controllers that are not pending and have been unused for
// longer than the TTL. It returns the number evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, c := range r.controllers {
		if c.State().Pending() {
			continue
		}
		if c.LastUsed().Before(cutoff) {
			delete(r.controllers, key)
			evicted++
		}
	}
	metrics.AuthVisitsActive.Set(float64(len(r.controllers)))
	return evicted
}

// Close stops the background sweeper. It is safe to call more than once.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
}

func (r *Registry) sweepLoop() {
	defer close(r.done)

	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle auth visits", "count", n)
			}
		}
	}
}
