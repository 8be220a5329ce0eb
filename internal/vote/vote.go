// Package vote models the time-bounded utilization-clamp requests a
// session holds with the arbiter, and folds a session's live votes
// into a single acceptable clamp range.
package vote

import (
	"fmt"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
)

// Range holds a min and max for acceptable uclamp values.
type Range struct {
	Min int
	Max int
}

// FullRange returns the widest acceptable clamp range. Folding votes
// into it only ever narrows it.
func FullRange() Range {
	return Range{Min: boost.UclampMin, Max: boost.UclampMax}
}

// Vote is one time-bounded clamp request: an acceptable min/max range,
// an active flag, and a validity window.
type Vote struct {
	active   bool
	min      int
	max      int
	start    time.Time
	duration time.Duration
}

// New creates an active Vote. Swapped min/max inputs are normalized.
func New(uclampMin, uclampMax int, start time.Time, duration time.Duration) Vote {
	if uclampMin > uclampMax {
		uclampMin, uclampMax = uclampMax, uclampMin
	}
	return Vote{
		active:   true,
		min:      uclampMin,
		max:      uclampMax,
		start:    start,
		duration: duration,
	}
}

// Active reports whether the vote participates in range folding.
func (v Vote) Active() bool { return v.active }

// Min returns the utilization clamp minimum.
func (v Vote) Min() int { return v.min }

// Max returns the utilization clamp maximum.
func (v Vote) Max() int { return v.max }

// Timeout returns the instant the vote's validity window ends.
func (v Vote) Timeout() time.Time { return v.start.Add(v.duration) }

// InRangeAt reports whether the vote is active and t falls inside its
// validity window.
func (v Vote) InRangeAt(t time.Time) bool {
	return v.active && !t.Before(v.start) && !t.After(v.start.Add(v.duration))
}

// String renders the vote range for logs.
func (v Vote) String() string {
	return fmt.Sprintf("[%d,%d]", v.min, v.max)
}

// Set is a session's collection of votes keyed by vote id. It is not
// safe for concurrent use; the arbiter serializes access.
type Set struct {
	votes map[boost.VoteID]Vote
}

// NewSet creates an empty vote set.
func NewSet() *Set {
	return &Set{votes: make(map[boost.VoteID]Vote)}
}

// Add inserts a vote, overwriting any existing vote with the same id.
func (s *Set) Add(id boost.VoteID, v Vote) {
	s.votes[id] = v
}

// AddInactive inserts a vote that starts deactivated; it is counted
// but excluded from folding until SetUseVote enables it.
func (s *Set) AddInactive(id boost.VoteID, v Vote) {
	v.active = false
	s.votes[id] = v
}

// UpdateDuration changes the validity window of the vote with the
// given id, if present.
func (s *Set) UpdateDuration(id boost.VoteID, duration time.Duration) {
	if v, ok := s.votes[id]; ok {
		v.duration = duration
		s.votes[id] = v
	}
}

// Restrict narrows r by every vote that is in range at t: the result
// carries the largest min and the smallest max.
func (s *Set) Restrict(r *Range, t time.Time) {
	if r == nil {
		return
	}
	for _, v := range s.votes {
		if !v.InRangeAt(t) {
			continue
		}
		r.Min = max(r.Min, v.min)
		r.Max = min(r.Max, v.max)
	}
}

// AnyTimedOut reports whether at least one vote is out of range at t.
func (s *Set) AnyTimedOut(t time.Time) bool {
	for _, v := range s.votes {
		if !v.InRangeAt(t) {
			return true
		}
	}
	return false
}

// AllTimedOut reports whether no vote is in range at t.
func (s *Set) AllTimedOut(t time.Time) bool {
	for _, v := range s.votes {
		if v.InRangeAt(t) {
			return false
		}
	}
	return true
}

// Remove deletes the vote with the given id, reporting whether it
// existed.
func (s *Set) Remove(id boost.VoteID) bool {
	if _, ok := s.votes[id]; !ok {
		return false
	}
	delete(s.votes, id)
	return true
}

// SetUseVote turns a vote on or off, reporting whether it existed.
func (s *Set) SetUseVote(id boost.VoteID, active bool) bool {
	v, ok := s.votes[id]
	if !ok {
		return false
	}
	v.active = active
	s.votes[id] = v
	return true
}

// Active reports whether the vote with the given id exists and is on.
func (s *Set) Active(id boost.VoteID) bool {
	v, ok := s.votes[id]
	return ok && v.active
}

// TimeoutOf returns the deadline of the vote with the given id, or the
// zero time if it does not exist.
func (s *Set) TimeoutOf(id boost.VoteID) time.Time {
	v, ok := s.votes[id]
	if !ok {
		return time.Time{}
	}
	return v.Timeout()
}

// Len returns the number of votes in the set.
func (s *Set) Len() int {
	return len(s.votes)
}
