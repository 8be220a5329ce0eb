// Package arbiter folds the clamp votes of every live session into
// per-thread uclamp.min values and owns the session registry, the
// thread-to-session mapping, the vote timeout worker, and the
// system-wide top-app boost decision.
package arbiter

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/errors"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/event"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/metrics"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/platform"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/session"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/uclamp"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/vote"
)

// hintDisableTABoost holds off the system-wide top-app boost while an
// application session is actively steering its own clamps.
const hintDisableTABoost = "ADPF_DISABLE_TA_BOOST"

// boostVotes are the one-shot votes DisableBoosts turns off. The
// default vote survives so the PID set point keeps its influence.
var boostVotes = []boost.VoteID{
	boost.VoteCPULoadUp,
	boost.VoteCPULoadReset,
	boost.VoteCPULoadResume,
	boost.VotePowerEfficiency,
}

// entry is the arbiter's view of one session.
type entry struct {
	sessionID   int64
	tgid        int
	uid         int
	idString    string
	isApp       bool
	active      bool
	lastUpdated time.Time
	votes       *vote.Set
	linkedTasks []int
}

// Config carries the dependencies for NewManager.
type Config struct {
	Setter   uclamp.Setter
	Hints    platform.HintSink
	Profiles profile.Source
	Bus      *event.Bus
	Logger   *logging.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Manager is the clamp arbiter. It implements session.Arbiter.
type Manager struct {
	log      *logging.Logger
	bus      *event.Bus
	setter   uclamp.Setter
	hints    platform.HintSink
	profiles profile.Source
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]*entry
	tasks    map[int][]int64

	universalKnown   bool
	universalEnabled bool

	timeouts *timeoutWorker
	cancel   context.CancelFunc
}

// NewManager creates a Manager. Start must be called before votes can
// expire on their own.
func NewManager(cfg Config) *Manager {
	if cfg.Setter == nil {
		cfg.Setter = uclamp.NewRecordingSetter()
	}
	if cfg.Hints == nil {
		cfg.Hints = platform.NopSink{}
	}
	if cfg.Bus == nil {
		cfg.Bus = event.NewBus()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		log:      cfg.Logger.WithComponent("arbiter"),
		bus:      cfg.Bus,
		setter:   cfg.Setter,
		hints:    cfg.Hints,
		profiles: cfg.Profiles,
		now:      cfg.Now,
		sessions: make(map[int64]*entry),
		tasks:    make(map[int][]int64),
	}
	m.timeouts = newTimeoutWorker(m)
	return m
}

// Start launches the vote timeout worker.
func (m *Manager) Start(ctx context.Context) {
	wctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.timeouts.run(wctx)
}

// Stop halts the timeout worker.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// AddPowerSession registers a new session, seeds its inactive default
// vote spanning the descriptor target, and links its threads.
func (m *Manager) AddPowerSession(desc *session.Descriptor, threadIDs []int) {
	m.mu.Lock()
	now := m.now()
	e := &entry{
		sessionID:   desc.SessionID,
		tgid:        desc.TGID,
		uid:         desc.UID,
		idString:    desc.IDString,
		isApp:       desc.IsApp(),
		active:      true,
		lastUpdated: now,
		votes:       vote.NewSet(),
	}
	e.votes.AddInactive(boost.VoteDefault,
		vote.New(boost.UclampMin, boost.UclampMax, now, desc.Target()))
	m.sessions[desc.SessionID] = e
	m.setThreadsLocked(e, threadIDs, now)
	m.mu.Unlock()

	m.log.Info("session registered", "session_id", desc.IDString, "threads", len(threadIDs))
	m.bus.Publish(event.NewSessionAddedEvent(desc.SessionID, desc.IDString, threadIDs, desc.IsApp()))
}

// RemovePowerSession deactivates the session, releases its threads,
// and drops it from the registry.
func (m *Manager) RemovePowerSession(sessionID int64) {
	m.mu.Lock()
	e := m.sessions[sessionID]
	if e == nil {
		m.mu.Unlock()
		return
	}
	now := m.now()
	e.active = false
	m.setThreadsLocked(e, nil, now)
	delete(m.sessions, sessionID)
	idString := e.idString
	m.mu.Unlock()

	m.log.Info("session removed", "session_id", idString)
	m.bus.Publish(event.NewSessionRemovedEvent(sessionID))
	m.UpdateUniversalBoostMode()
}

// SetThreadsFromPowerSession replaces the session's thread links.
// Threads that left the session get their clamps recomputed without
// it, dropping to zero when no other session owns them.
func (m *Manager) SetThreadsFromPowerSession(sessionID int64, threadIDs []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.sessions[sessionID]
	if e == nil {
		return
	}
	m.setThreadsLocked(e, threadIDs, m.now())
}

// VoteSet upserts a vote for the session and re-applies clamps to its
// threads. The timeout worker is woken when the vote was previously
// inactive or its deadline moved earlier.
func (m *Manager) VoteSet(sessionID int64, id boost.VoteID, uclampMin, uclampMax int, start time.Time, validFor time.Duration) {
	m.mu.Lock()
	e := m.sessions[sessionID]
	if e == nil {
		m.mu.Unlock()
		return
	}

	wasActive := e.votes.Active(id)
	oldDeadline := e.votes.TimeoutOf(id)
	e.votes.Add(id, vote.New(uclampMin, uclampMax, start, validFor))
	e.lastUpdated = start
	m.applyClampsLocked(e.linkedTasks, start)
	m.mu.Unlock()

	deadline := start.Add(validFor)
	if !wasActive || deadline.Before(oldDeadline) {
		m.timeouts.schedule(sessionID, id, deadline)
	}
	m.bus.Publish(event.NewVoteSetEvent(sessionID, id.String(), uclampMin, uclampMax, validFor))
}

// UpdateTargetWorkDuration stretches or shrinks the validity window of
// one vote without touching its clamp values.
func (m *Manager) UpdateTargetWorkDuration(sessionID int64, id boost.VoteID, validFor time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.sessions[sessionID]
	if e == nil {
		return
	}
	e.votes.UpdateDuration(id, validFor)
}

// DisableBoosts deactivates the session's one-shot boost votes. The
// next report re-votes the default and re-applies clamps.
func (m *Manager) DisableBoosts(sessionID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.sessions[sessionID]
	if e == nil {
		return
	}
	for _, id := range boostVotes {
		e.votes.SetUseVote(id, false)
	}
}

// Pause suspends the session's influence on clamp folding.
func (m *Manager) Pause(sessionID int64) {
	m.setSessionActive(sessionID, false)
}

// Resume restores a paused session's influence.
func (m *Manager) Resume(sessionID int64) {
	m.setSessionActive(sessionID, true)
}

func (m *Manager) setSessionActive(sessionID int64, active bool) {
	m.mu.Lock()
	e := m.sessions[sessionID]
	if e == nil {
		m.mu.Unlock()
		return
	}
	e.active = active
	m.applyClampsLocked(e.linkedTasks, m.now())
	m.mu.Unlock()
	m.UpdateUniversalBoostMode()
}

// UpdateUniversalBoostMode recomputes whether any application session
// is actively steering its clamps and flips the system-wide top-app
// boost hint on transitions.
func (m *Manager) UpdateUniversalBoostMode() {
	m.mu.Lock()
	now := m.now()
	anyAppActive := false
	for _, e := range m.sessions {
		if e.isApp && e.active && !e.votes.AllTimedOut(now) {
			anyAppActive = true
			break
		}
	}
	enabled := !anyAppActive
	changed := !m.universalKnown || m.universalEnabled != enabled
	m.universalKnown = true
	m.universalEnabled = enabled
	m.mu.Unlock()

	if !changed {
		return
	}
	if enabled {
		m.hints.EndHint(hintDisableTABoost)
	} else {
		m.hints.DoHint(hintDisableTABoost)
	}
	m.log.Debug("universal boost mode changed", "enabled", enabled)
	m.bus.Publish(event.NewUniversalBoostEvent(enabled))
}

// SessionCount returns the number of registered sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// DumpToWriter renders the registry for the status command.
func (m *Manager) DumpToWriter(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	now := m.now()
	fmt.Fprintf(w, "sessions: %d\n", len(ids))
	for _, id := range ids {
		e := m.sessions[id]
		fmt.Fprintf(w, "  %s active=%t votes=%d threads=%d idle=%s\n",
			e.idString, e.active, e.votes.Len(), len(e.linkedTasks),
			now.Sub(e.lastUpdated).Round(time.Millisecond))
	}
}

// setThreadsLocked replaces e's thread links and re-applies clamps to
// every thread that joined or left. Caller holds m.mu.
func (m *Manager) setThreadsLocked(e *entry, threadIDs []int, now time.Time) {
	old := e.linkedTasks

	next := make([]int, 0, len(threadIDs))
	seen := make(map[int]bool, len(threadIDs))
	for _, tid := range threadIDs {
		if !seen[tid] {
			seen[tid] = true
			next = append(next, tid)
		}
	}

	for _, tid := range old {
		m.unlinkTaskLocked(tid, e.sessionID)
	}
	e.linkedTasks = next
	for _, tid := range next {
		m.tasks[tid] = append(m.tasks[tid], e.sessionID)
	}

	touched := slices.Clone(next)
	for _, tid := range old {
		if !seen[tid] {
			touched = append(touched, tid)
		}
	}
	m.applyClampsLocked(touched, now)
}

func (m *Manager) unlinkTaskLocked(tid int, sessionID int64) {
	owners := m.tasks[tid]
	owners = slices.DeleteFunc(owners, func(sid int64) bool { return sid == sessionID })
	if len(owners) == 0 {
		delete(m.tasks, tid)
	} else {
		m.tasks[tid] = owners
	}
}

// applyClampsLocked recomputes and writes uclamp.min for each thread.
// Caller holds m.mu.
func (m *Manager) applyClampsLocked(threadIDs []int, now time.Time) {
	if !m.profiles.Current().UclampMinOn {
		return
	}
	// Clone: a dead thread found mid-loop rewrites the link slices.
	for _, tid := range slices.Clone(threadIDs) {
		m.applyClampLocked(tid, now)
	}
}

// applyClampLocked folds the votes of every active session owning tid
// into one range and writes its minimum. A thread that no longer
// exists is dropped from the mappings.
func (m *Manager) applyClampLocked(tid int, now time.Time) {
	r := vote.FullRange()
	for _, sid := range m.tasks[tid] {
		e := m.sessions[sid]
		if e == nil || !e.active {
			continue
		}
		e.votes.Restrict(&r, now)
	}

	if err := m.setter.SetUclampMin(tid, r.Min); err != nil {
		if errors.Is(err, uclamp.ErrNoSuchThread) {
			m.dropDeadTaskLocked(tid)
			return
		}
		m.log.Warn("failed to apply clamp", "tid", tid, "value", r.Min, "error", err)
		return
	}
	metrics.UclampAppliesTotal.Inc()
}

// dropDeadTaskLocked removes a vanished thread from the task map and
// from every session that linked it. Caller holds m.mu.
func (m *Manager) dropDeadTaskLocked(tid int) {
	for _, sid := range m.tasks[tid] {
		if e := m.sessions[sid]; e != nil {
			e.linkedTasks = slices.DeleteFunc(e.linkedTasks, func(t int) bool { return t == tid })
		}
	}
	delete(m.tasks, tid)
	m.log.Debug("dropped dead thread", "tid", tid)
}

// handleVoteTimeout is called by the timeout worker when a vote's
// deadline passes. A deadline that moved later re-arms the worker; an
// expired vote is deactivated and the session's clamps recomputed.
func (m *Manager) handleVoteTimeout(sessionID int64, id boost.VoteID) {
	m.mu.Lock()
	e := m.sessions[sessionID]
	if e == nil || !e.votes.Active(id) {
		m.mu.Unlock()
		return
	}
	now := m.now()
	deadline := e.votes.TimeoutOf(id)
	if deadline.After(now) {
		m.mu.Unlock()
		m.timeouts.schedule(sessionID, id, deadline)
		return
	}
	e.votes.SetUseVote(id, false)
	m.applyClampsLocked(e.linkedTasks, now)
	m.mu.Unlock()

	m.bus.Publish(event.NewVoteExpiredEvent(sessionID, id.String()))
	m.UpdateUniversalBoostMode()
}
