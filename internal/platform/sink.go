// Package platform forwards named power hints to the platform layer
// that owns DVFS and scheduler tunables. The daemon only decides WHEN
// a hint fires; what the platform does with it is device policy.
package platform

import (
	"sync"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
)

// HintSink receives named power hints.
type HintSink interface {
	// IsHintSupported reports whether the device knows the hint.
	IsHintSupported(name string) bool
	// DoHint fires (or begins) the named hint.
	DoHint(name string)
	// EndHint ends a previously started hint.
	EndHint(name string)
}

// ConfigSink is a HintSink backed by the configured supported-hint
// list. Forwarded hints are logged; unsupported hints are dropped.
type ConfigSink struct {
	log       *logging.Logger
	supported map[string]struct{}

	mu     sync.Mutex
	active map[string]bool
}

// NewConfigSink creates a ConfigSink that accepts the given hint names.
func NewConfigSink(supported []string, log *logging.Logger) *ConfigSink {
	set := make(map[string]struct{}, len(supported))
	for _, name := range supported {
		set[name] = struct{}{}
	}
	return &ConfigSink{
		log:       log.WithComponent("platform"),
		supported: set,
		active:    make(map[string]bool),
	}
}

// IsHintSupported reports whether name is in the configured list.
func (s *ConfigSink) IsHintSupported(name string) bool {
	_, ok := s.supported[name]
	return ok
}

// DoHint fires the hint if supported.
func (s *ConfigSink) DoHint(name string) {
	if !s.IsHintSupported(name) {
		s.log.Debug("dropping unsupported hint", "hint", name)
		return
	}
	s.mu.Lock()
	s.active[name] = true
	s.mu.Unlock()
	s.log.Info("hint start", "hint", name)
}

// EndHint ends the hint if supported and currently active.
func (s *ConfigSink) EndHint(name string) {
	if !s.IsHintSupported(name) {
		return
	}
	s.mu.Lock()
	wasActive := s.active[name]
	delete(s.active, name)
	s.mu.Unlock()
	if wasActive {
		s.log.Info("hint end", "hint", name)
	}
}

// NopSink discards every hint and supports none.
type NopSink struct{}

func (NopSink) IsHintSupported(string) bool { return false }
func (NopSink) DoHint(string)               {}
func (NopSink) EndHint(string)              {}

// Recorder is a HintSink for tests. It supports every hint and records
// the calls it receives.
type Recorder struct {
	mu    sync.Mutex
	Do    []string
	Ended []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) IsHintSupported(string) bool { return true }

func (r *Recorder) DoHint(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Do = append(r.Do, name)
}

func (r *Recorder) EndHint(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ended = append(r.Ended, name)
}

// DoCalls returns a copy of the recorded DoHint names.
func (r *Recorder) DoCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Do...)
}

// EndCalls returns a copy of the recorded EndHint names.
func (r *Recorder) EndCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Ended...)
}
