// Package sweep periodically checks live sessions against their
// staleness deadlines and reports sessions that stopped reporting.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/event"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/session"
)

// DefaultInterval is the sweep period when none is configured.
const DefaultInterval = time.Second

// Monitor walks the session registry on a fixed interval and publishes
// a stale event the first time each session misses its deadline. A
// session that reports again re-arms its event.
type Monitor struct {
	registry *session.Registry
	bus      *event.Bus
	log      *logging.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	reported map[int64]bool
}

// NewMonitor creates a Monitor. A non-positive interval falls back to
// DefaultInterval.
func NewMonitor(registry *session.Registry, bus *event.Bus, log *logging.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Monitor{
		registry: registry,
		bus:      bus,
		log:      log.WithComponent("sweep"),
		interval: interval,
		now:      time.Now,
		reported: make(map[int64]bool),
	}
}

// Run sweeps until the context is cancelled. It blocks; callers run it
// on its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep performs one pass over the registry.
func (m *Monitor) Sweep() {
	now := m.now()
	sessions := m.registry.List()

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int64]bool, len(sessions))
	for _, s := range sessions {
		id := s.ID()
		seen[id] = true

		if s.IsClosed() || !s.IsActive() {
			delete(m.reported, id)
			continue
		}
		if !s.IsStale(now) {
			delete(m.reported, id)
			continue
		}
		if m.reported[id] {
			continue
		}
		m.reported[id] = true
		m.log.Debug("session went stale", "session_id", s.IDString())
		m.bus.Publish(event.NewSessionStaleEvent(id, s.IDString()))
	}

	// Forget sessions that left the registry.
	for id := range m.reported {
		if !seen[id] {
			delete(m.reported, id)
		}
	}
}
