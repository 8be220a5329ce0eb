// Package session implements the per-session boost controller: a PID
// feedback loop over reported work durations, a small state machine
// (active, paused, closed), and the vote traffic a session generates
// toward the clamp arbiter.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/errors"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/metrics"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/platform"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
)

// hintFirstFrame is sent to the platform when an app session reports
// after going stale, so the platform can absorb the cold first frame.
const hintFirstFrame = "ADPF_FIRST_FRAME"

// Arbiter is the vote and lifecycle boundary a session talks to. The
// clamp arbiter implements it; tests substitute a recorder.
type Arbiter interface {
	AddPowerSession(desc *Descriptor, threadIDs []int)
	RemovePowerSession(sessionID int64)
	SetThreadsFromPowerSession(sessionID int64, threadIDs []int)
	VoteSet(sessionID int64, vote boost.VoteID, uclampMin, uclampMax int, start time.Time, validFor time.Duration)
	UpdateTargetWorkDuration(sessionID int64, vote boost.VoteID, validFor time.Duration)
	DisableBoosts(sessionID int64)
	Pause(sessionID int64)
	Resume(sessionID int64)
	UpdateUniversalBoostMode()
}

// sessionIDCounter hands out monotonic session ids process-wide.
var sessionIDCounter atomic.Int64

// Config carries the dependencies and initial state for New.
type Config struct {
	TGID      int
	UID       int
	ThreadIDs []int
	// Target is the initial target work duration. It is stored as
	// given; only later updates are scaled by the profile's target
	// time factor. Zero leaves the session untargeted.
	Target   time.Duration
	Arbiter  Arbiter
	Profiles profile.Source
	Hints    platform.HintSink
	Logger   *logging.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Session is one client boost session. All mutating methods are safe
// for concurrent use.
type Session struct {
	desc     *Descriptor
	arbiter  Arbiter
	profiles profile.Source
	hints    platform.HintSink
	log      *logging.Logger
	now      func() time.Time

	closed atomic.Bool

	mu            sync.Mutex
	setPoint      int
	updateCount   uint64
	integralError int64
	previousError int64
	threadIDs     []int
	modes         [boost.ModeCount]bool
	lastHintSent  boost.Hint
	hintSent      bool
	hintSupport   map[string]bool
}

// New creates a session, registers it with the arbiter, and issues its
// startup votes: a load-reset boost at the profile's high clamp and
// the long-lived default vote at the initial clamp. A zero target
// creates the session untargeted; reporting and hints are rejected
// until UpdateTargetWorkDuration sets one.
func New(cfg Config) (*Session, error) {
	if cfg.Arbiter == nil {
		return nil, errors.IllegalArgument("arbiter is required").WithOperation("create")
	}
	if cfg.Profiles == nil {
		return nil, errors.IllegalArgument("profile source is required").WithOperation("create")
	}
	if len(cfg.ThreadIDs) == 0 {
		return nil, errors.IllegalArgument("thread list is empty").WithOperation("create")
	}
	if cfg.Target < 0 {
		return nil, errors.IllegalArgument("target work duration is negative").WithOperation("create")
	}

	if cfg.Hints == nil {
		cfg.Hints = platform.NopSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	id := sessionIDCounter.Add(1)
	idString := fmt.Sprintf("%d-%d-%d", cfg.TGID, cfg.UID, id)
	now := cfg.Now()

	p := cfg.Profiles.Current()
	s := &Session{
		desc:         newDescriptor(id, cfg.TGID, cfg.UID, idString, cfg.Target, now),
		arbiter:      cfg.Arbiter,
		profiles:     cfg.Profiles,
		hints:        cfg.Hints,
		log:          cfg.Logger.WithSession(idString),
		now:          cfg.Now,
		setPoint:     p.UclampMinInit,
		threadIDs:    append([]int(nil), cfg.ThreadIDs...),
		lastHintSent: -1,
		hintSupport:  make(map[string]bool),
	}

	s.arbiter.AddPowerSession(s.desc, s.threadIDs)

	// Startup boost: a short reset vote at the high clamp, and the
	// default vote the PID loop will keep refreshing. An untargeted
	// session skips both; its votes start with the first target.
	if cfg.Target > 0 {
		s.arbiter.VoteSet(id, boost.VoteCPULoadReset, p.UclampMinHigh, boost.UclampMax,
			now, p.StaleTimeout(cfg.Target)/2)
		s.arbiter.VoteSet(id, boost.VoteDefault, p.UclampMinInit, boost.UclampMax,
			now, cfg.Target)
	}

	s.log.Debug("session created",
		"tgid", cfg.TGID, "uid", cfg.UID,
		"threads", len(s.threadIDs), "target", cfg.Target)
	return s, nil
}

// ID returns the session's numeric id.
func (s *Session) ID() int64 { return s.desc.SessionID }

// IDString returns the "tgid-uid-sid" identity string.
func (s *Session) IDString() string { return s.desc.IDString }

// Descriptor returns the session's shared descriptor.
func (s *Session) Descriptor() *Descriptor { return s.desc }

// IsActive reports whether the session is active (not paused).
func (s *Session) IsActive() bool { return s.desc.IsActive() }

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool { return s.closed.Load() }

// SetPoint returns the current PID set point.
func (s *Session) SetPoint() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPoint
}

// UpdateCount returns the number of accepted report batches.
func (s *Session) UpdateCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCount
}

// LastHintSent returns the most recent accepted hint, if any.
func (s *Session) LastHintSent() (boost.Hint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHintSent, s.hintSent
}

// Mode reports whether the given session mode is enabled.
func (s *Session) Mode(mode boost.Mode) bool {
	if !mode.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[mode]
}

// IsStale reports whether the session has missed its staleness
// deadline as of now.
func (s *Session) IsStale(now time.Time) bool {
	return s.isStale(s.profiles.Current(), now)
}

func (s *Session) isStale(p *profile.Profile, now time.Time) bool {
	deadline := s.desc.LastUpdated().Add(p.StaleTimeout(s.desc.Target()))
	return !now.Before(deadline)
}

// UpdateTargetWorkDuration sets a new target work duration, scaled by
// the profile's target time factor, and stretches the default vote to
// the new target.
func (s *Session) UpdateTargetWorkDuration(target time.Duration) error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("update_target"))
	}
	if target <= 0 {
		return s.reject(errors.IllegalArgument("target work duration must be positive").WithOperation("update_target"))
	}

	p := s.profiles.Current()
	scaled := time.Duration(float64(target) * p.TargetTimeFactor)
	s.desc.setTarget(scaled)
	s.arbiter.UpdateTargetWorkDuration(s.desc.SessionID, boost.VoteDefault, scaled)
	s.log.Debug("target updated", "target", scaled)
	return nil
}

// ReportActualWorkDuration feeds a batch of observed work durations
// through the PID controller and re-votes the default clamp at the new
// set point.
func (s *Session) ReportActualWorkDuration(durations []boost.WorkDuration) error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("report"))
	}
	target := s.desc.Target()
	if target == 0 {
		return s.reject(errors.IllegalState("target work duration is not set").WithOperation("report"))
	}
	if len(durations) == 0 {
		return s.reject(errors.IllegalArgument("empty work duration batch").WithOperation("report"))
	}
	if !s.desc.IsActive() {
		return s.reject(errors.IllegalState("session is paused").WithOperation("report"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles.Current()
	now := s.now()
	s.updateCount++
	firstFrame := s.isStale(p, now)
	s.desc.touch(now)
	metrics.ReportsTotal.Inc()

	if firstFrame {
		metrics.FirstFramesTotal.Inc()
		if s.desc.IsApp() {
			s.tryToSendPowerHint(hintFirstFrame)
		}
		s.arbiter.UpdateUniversalBoostMode()
	}

	// A fresh report supersedes whatever one-shot boost was in flight.
	s.arbiter.DisableBoosts(s.desc.SessionID)

	if !p.PidOn {
		s.updateSetPoint(p, p.UclampMinHigh, true, now)
		return nil
	}

	output := s.pidOutput(p, target, durations)
	next := int64(s.setPoint) + output
	next = min(int64(p.UclampMinHigh), max(int64(p.UclampMinLow), next))
	s.updateSetPoint(p, int(next), true, now)
	return nil
}

// pidOutput runs the controller over the batch and returns the clamp
// adjustment. Caller holds s.mu.
func (s *Session) pidOutput(p *profile.Profile, target time.Duration, durations []boost.WorkDuration) int64 {
	length := int64(len(durations))
	pStart := windowStart(p.SamplingWindowP, length)
	iStart := windowStart(p.SamplingWindowI, length)
	dStart := windowStart(p.SamplingWindowD, length)

	// Errors are accumulated in 100us units; dt is the target in the
	// same units. Targets under 100us round up to one unit.
	dt := nsTo100us(target)
	if dt == 0 {
		dt = 1
	}

	integralHigh := p.IntegralHighBound()
	integralLow := p.IntegralLowBound()

	var errSum, derivativeSum int64
	for i := min(pStart, iStart, dStart); i < length; i++ {
		actual := durations[i].Duration
		if actual > 20*target || actual < -20*target {
			s.log.Warn("work duration far outside target", "actual", actual, "target", target)
		}
		err := nsTo100us(actual - target)
		if i >= dStart {
			derivativeSum += err - s.previousError
		}
		if i >= pStart {
			errSum += err
		}
		if i >= iStart {
			s.integralError += err * dt
			s.integralError = min(integralHigh, s.integralError)
			s.integralError = max(integralLow, s.integralError)
		}
		s.previousError = err
	}

	pGain := p.PidPu
	if errSum > 0 {
		pGain = p.PidPo
	}
	pOut := int64(pGain * float64(errSum) / float64(length-pStart))

	iOut := int64(p.PidI * float64(s.integralError))

	dGain := p.PidDu
	if derivativeSum > 0 {
		dGain = p.PidDo
	}
	dOut := int64(dGain * float64(derivativeSum) / float64(dt) / float64(length-dStart))

	return pOut + iOut + dOut
}

// SendHint applies a one-shot load hint outside the report cycle.
func (s *Session) SendHint(hint boost.Hint) error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("hint"))
	}
	if s.desc.Target() == 0 {
		return s.reject(errors.IllegalState("target work duration is not set").WithOperation("hint"))
	}
	if !hint.Valid() {
		return s.reject(errors.IllegalArgument("unknown hint").WithOperation("hint"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles.Current()
	now := s.now()
	target := s.desc.Target()
	id := s.desc.SessionID

	switch hint {
	case boost.HintCPULoadUp:
		s.updateSetPoint(p, s.setPoint, true, now)
		s.arbiter.VoteSet(id, boost.VoteCPULoadUp, p.UclampMinHigh, boost.UclampMax, now, 2*target)
	case boost.HintCPULoadDown:
		s.updateSetPoint(p, p.UclampMinLow, true, now)
	case boost.HintCPULoadReset:
		s.updateSetPoint(p, max(p.UclampMinInit, s.setPoint), false, now)
		s.arbiter.VoteSet(id, boost.VoteCPULoadReset, p.UclampMinHigh, boost.UclampMax,
			now, p.StaleTimeout(target)/2)
	case boost.HintCPULoadResume:
		s.arbiter.VoteSet(id, boost.VoteCPULoadResume, s.setPoint, boost.UclampMax,
			now, p.StaleTimeout(target)/2)
	}

	s.tryToSendPowerHint(hint.String())
	s.desc.touch(now)
	s.lastHintSent = hint
	s.hintSent = true
	s.log.Debug("hint applied", "hint", hint.String(), "set_point", s.setPoint)
	return nil
}

// SetMode toggles a session mode flag.
func (s *Session) SetMode(mode boost.Mode, enabled bool) error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("set_mode"))
	}
	if !mode.Valid() {
		return s.reject(errors.IllegalArgument("unknown mode").WithOperation("set_mode"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[mode] = enabled
	s.desc.touch(s.now())
	s.log.Debug("mode changed", "mode", mode.String(), "enabled", enabled)
	return nil
}

// SetThreads replaces the session's thread list and resets the set
// point to the initial clamp for the new threads.
func (s *Session) SetThreads(threadIDs []int) error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("set_threads"))
	}
	if len(threadIDs) == 0 {
		return s.reject(errors.IllegalArgument("thread list is empty").WithOperation("set_threads"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.threadIDs = append([]int(nil), threadIDs...)
	s.arbiter.SetThreadsFromPowerSession(s.desc.SessionID, s.threadIDs)

	p := s.profiles.Current()
	s.updateSetPoint(p, p.UclampMinInit, true, s.now())
	s.log.Debug("threads replaced", "threads", len(s.threadIDs))
	return nil
}

// ThreadIDs returns a copy of the session's thread list.
func (s *Session) ThreadIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.threadIDs...)
}

// Pause suspends the session's boost influence.
func (s *Session) Pause() error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("pause"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.desc.IsActive() {
		return s.reject(errors.IllegalState("session is already paused").WithOperation("pause"))
	}
	s.desc.setActive(false)
	s.arbiter.Pause(s.desc.SessionID)
	s.log.Debug("session paused")
	return nil
}

// Resume restores a paused session.
func (s *Session) Resume() error {
	if s.closed.Load() {
		return s.reject(errors.IllegalState("session is closed").WithOperation("resume"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desc.IsActive() {
		return s.reject(errors.IllegalState("session is already active").WithOperation("resume"))
	}
	s.desc.setActive(true)
	s.arbiter.Resume(s.desc.SessionID)
	s.log.Debug("session resumed")
	return nil
}

// Close ends the session. It is one-shot; a second call is rejected.
// The session is removed from the arbiter before it is marked
// inactive, so a racing clamp recompute never sees a half-dead entry.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return s.reject(errors.IllegalState("session is already closed").WithOperation("close"))
	}

	s.arbiter.RemovePowerSession(s.desc.SessionID)
	s.desc.setActive(false)
	metrics.SetPointGauge.DeleteLabelValues(s.desc.IDString)
	s.log.Debug("session closed")
	return nil
}

// DumpString renders the session's live state for the status dump.
func (s *Session) DumpString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles.Current()
	return fmt.Sprintf("ID.Min.Act.Timeout(%s, %d, %t, %t)",
		s.desc.IDString, s.setPoint, s.desc.IsActive(), s.isStale(p, s.now()))
}

// updateSetPoint stores the new set point and, when updateVote is set,
// re-votes the default clamp at it. Caller holds s.mu.
func (s *Session) updateSetPoint(p *profile.Profile, v int, updateVote bool, now time.Time) {
	s.setPoint = v
	metrics.SetPointGauge.WithLabelValues(s.desc.IDString).Set(float64(v))
	if updateVote {
		s.arbiter.VoteSet(s.desc.SessionID, boost.VoteDefault, v, boost.UclampMax,
			now, p.StaleTimeout(s.desc.Target()))
	}
}

// tryToSendPowerHint forwards a named hint to the platform, caching
// support lookups per hint name. Caller holds s.mu.
func (s *Session) tryToSendPowerHint(name string) {
	supported, ok := s.hintSupport[name]
	if !ok {
		supported = s.hints.IsHintSupported(name)
		s.hintSupport[name] = supported
	}
	if supported {
		s.hints.DoHint(name)
	}
}

func (s *Session) reject(err *errors.SessionError) error {
	err.WithSessionID(s.desc.IDString)
	metrics.RejectedCallsTotal.WithLabelValues(err.Operation).Inc()
	return err
}

// windowStart returns the index the sampling window begins at. A zero
// or oversized window covers the whole batch.
func windowStart(window uint64, length int64) int64 {
	if window == 0 || int64(window) > length {
		return 0
	}
	return length - int64(window)
}

// nsTo100us converts a duration to 100us units, truncating toward
// zero.
func nsTo100us(d time.Duration) int64 {
	return d.Nanoseconds() / 100000
}
