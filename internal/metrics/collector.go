package metrics

import (
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/event"
)

// Collector translates arbiter bus events into prometheus metrics.
// Registering it is the only coupling the arbiter has to metrics for
// lifecycle and vote accounting.
type Collector struct {
	bus *event.Bus
	ids []string
}

// NewCollector creates a Collector attached to the given bus.
func NewCollector(bus *event.Bus) *Collector {
	return &Collector{bus: bus}
}

// Register subscribes the collector to the event types it consumes.
func (c *Collector) Register() {
	c.ids = append(c.ids,
		c.bus.Subscribe(event.TypeSessionAdded, func(event.Event) {
			ActiveSessions.Inc()
		}),
		c.bus.Subscribe(event.TypeSessionRemoved, func(event.Event) {
			ActiveSessions.Dec()
		}),
		c.bus.Subscribe(event.TypeVoteSet, func(e event.Event) {
			if ev, ok := e.(event.VoteSetEvent); ok {
				VotesSetTotal.WithLabelValues(ev.VoteKind).Inc()
			}
		}),
		c.bus.Subscribe(event.TypeVoteExpired, func(e event.Event) {
			if ev, ok := e.(event.VoteExpiredEvent); ok {
				VotesExpiredTotal.WithLabelValues(ev.VoteKind).Inc()
			}
		}),
		c.bus.Subscribe(event.TypeUniversalBoost, func(e event.Event) {
			if ev, ok := e.(event.UniversalBoostEvent); ok {
				if ev.Enabled {
					UniversalBoostEnabled.Set(1)
				} else {
					UniversalBoostEnabled.Set(0)
				}
			}
		}),
	)
}

// Unregister removes the collector's subscriptions.
func (c *Collector) Unregister() {
	for _, id := range c.ids {
		c.bus.Unsubscribe(id)
	}
	c.ids = nil
}
