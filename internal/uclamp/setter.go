// Package uclamp writes per-thread utilization clamp minimums to the
// scheduler.
package uclamp

import (
	"sync"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/errors"
)

// ErrNoSuchThread is returned when the target thread no longer exists.
// The arbiter uses it to drop dead threads from its mappings.
var ErrNoSuchThread = errors.New("no such thread")

// Setter applies a uclamp.min value to one thread.
type Setter interface {
	SetUclampMin(tid int, value int) error
}

// RecordingSetter is a Setter for tests and non-linux builds. It
// records the last value applied per tid and can be told to report
// specific tids as dead.
type RecordingSetter struct {
	mu      sync.Mutex
	applied map[int]int
	dead    map[int]bool
}

// NewRecordingSetter creates an empty RecordingSetter.
func NewRecordingSetter() *RecordingSetter {
	return &RecordingSetter{
		applied: make(map[int]int),
		dead:    make(map[int]bool),
	}
}

// SetUclampMin records the value, or returns ErrNoSuchThread for tids
// marked dead.
func (s *RecordingSetter) SetUclampMin(tid int, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead[tid] {
		return ErrNoSuchThread
	}
	s.applied[tid] = value
	return nil
}

// MarkDead makes future SetUclampMin calls for tid fail with
// ErrNoSuchThread.
func (s *RecordingSetter) MarkDead(tid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead[tid] = true
}

// Applied returns the last value applied to tid.
func (s *RecordingSetter) Applied(tid int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.applied[tid]
	return v, ok
}

// AppliedAll returns a copy of all recorded values.
func (s *RecordingSetter) AppliedAll() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int, len(s.applied))
	for tid, v := range s.applied {
		out[tid] = v
	}
	return out
}
