package sweep

import (
	"testing"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/event"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/session"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/testutil"
)

type nopArbiter struct{}

func (nopArbiter) AddPowerSession(*session.Descriptor, []int)                      {}
func (nopArbiter) RemovePowerSession(int64)                                        {}
func (nopArbiter) SetThreadsFromPowerSession(int64, []int)                         {}
func (nopArbiter) DisableBoosts(int64)                                             {}
func (nopArbiter) Pause(int64)                                                     {}
func (nopArbiter) Resume(int64)                                                    {}
func (nopArbiter) UpdateUniversalBoostMode()                                       {}
func (nopArbiter) VoteSet(int64, boost.VoteID, int, int, time.Time, time.Duration) {}
func (nopArbiter) UpdateTargetWorkDuration(int64, boost.VoteID, time.Duration)     {}

const target = 10 * time.Millisecond

func newStack(t *testing.T) (*session.Registry, *Monitor, *testutil.Clock, *session.Session, *int) {
	t.Helper()
	p := profile.Default().Profile
	store := profile.NewStore(&p)
	clock := testutil.NewClock(time.Unix(7000, 0))
	registry := session.NewRegistry()
	bus := event.NewBus()

	staleCount := 0
	bus.Subscribe(event.TypeSessionStale, func(event.Event) {
		staleCount++
	})

	s, err := session.New(session.Config{
		TGID:      1,
		UID:       boost.MinAppUID,
		ThreadIDs: []int{5},
		Target:    target,
		Arbiter:   nopArbiter{},
		Profiles:  store,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	registry.Add(s)

	m := NewMonitor(registry, bus, nil, time.Second)
	m.now = clock.Now
	return registry, m, clock, s, &staleCount
}

func TestSweepReportsStaleSessionOnce(t *testing.T) {
	_, m, clock, s, staleCount := newStack(t)
	deadline := 200 * time.Millisecond // target * stale factor

	m.Sweep()
	if *staleCount != 0 {
		t.Fatalf("fresh session reported stale")
	}

	clock.Advance(deadline + time.Millisecond)
	m.Sweep()
	if *staleCount != 1 {
		t.Fatalf("stale events = %d, want 1", *staleCount)
	}

	// No repeat while it stays stale.
	m.Sweep()
	if *staleCount != 1 {
		t.Fatalf("stale events = %d after resweep, want 1", *staleCount)
	}

	// A report re-arms the event.
	if err := s.ReportActualWorkDuration([]boost.WorkDuration{
		{Timestamp: clock.Now(), Duration: target},
	}); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	m.Sweep()
	if *staleCount != 1 {
		t.Fatalf("stale events = %d after report, want 1", *staleCount)
	}
	clock.Advance(deadline + time.Millisecond)
	m.Sweep()
	if *staleCount != 2 {
		t.Fatalf("stale events = %d after second lapse, want 2", *staleCount)
	}
}

func TestSweepSkipsPausedAndClosedSessions(t *testing.T) {
	registry, m, clock, s, staleCount := newStack(t)

	if err := s.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	clock.Advance(time.Hour)
	m.Sweep()
	if *staleCount != 0 {
		t.Fatalf("paused session reported stale")
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	m.Sweep()
	if *staleCount != 0 {
		t.Fatalf("closed session reported stale")
	}

	registry.Remove(s.ID())
	m.Sweep()
	if *staleCount != 0 {
		t.Fatalf("removed session reported stale")
	}
}
