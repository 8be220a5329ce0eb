// Package boost defines the core vocabulary of the adaptive boost
// subsystem: vote identifiers, session hints, session modes, and the
// utilization clamp bounds shared by the controller and the arbiter.
package boost

import (
	"fmt"
	"time"
)

// Utilization clamp bounds. The kernel accepts values in [0, 1024].
const (
	UclampMin = 0
	UclampMax = 1024
)

// MinAppUID is the lowest uid assigned to user applications. Sessions
// owned by uids at or above this value are application sessions.
const MinAppUID = 10000

// VoteID identifies one vote slot a session holds with the arbiter.
type VoteID int32

const (
	// VoteDefault is the long-lived vote carrying the PID set point.
	VoteDefault VoteID = iota + 1
	// VoteCPULoadUp is the time-bounded vote issued for a load-up hint.
	VoteCPULoadUp
	// VoteCPULoadReset is the time-bounded vote issued at session start
	// and for a load-reset hint.
	VoteCPULoadReset
	// VoteCPULoadResume is the time-bounded vote issued for a
	// load-resume hint.
	VoteCPULoadResume
	// VotePowerEfficiency is reserved for the power-efficiency mode
	// consumer.
	VotePowerEfficiency
)

// String returns a short name for the vote id.
func (v VoteID) String() string {
	switch v {
	case VoteDefault:
		return "DEFAULT"
	case VoteCPULoadUp:
		return "CPU_LOAD_UP"
	case VoteCPULoadReset:
		return "CPU_LOAD_RESET"
	case VoteCPULoadResume:
		return "CPU_LOAD_RESUME"
	case VotePowerEfficiency:
		return "POWER_EFFICIENCY"
	default:
		return fmt.Sprintf("VOTE(%d)", int32(v))
	}
}

// Hint is a one-shot load hint a client sends outside the periodic
// report cycle.
type Hint int32

const (
	HintCPULoadUp Hint = iota
	HintCPULoadDown
	HintCPULoadReset
	HintCPULoadResume
)

// String returns the platform hint name for forwarding to the
// platform hint sink.
func (h Hint) String() string {
	switch h {
	case HintCPULoadUp:
		return "CPU_LOAD_UP"
	case HintCPULoadDown:
		return "CPU_LOAD_DOWN"
	case HintCPULoadReset:
		return "CPU_LOAD_RESET"
	case HintCPULoadResume:
		return "CPU_LOAD_RESUME"
	default:
		return fmt.Sprintf("HINT(%d)", int32(h))
	}
}

// Valid reports whether h is a recognized hint.
func (h Hint) Valid() bool {
	return h >= HintCPULoadUp && h <= HintCPULoadResume
}

// Mode is a boolean session mode toggled by clients.
type Mode int32

const (
	ModePowerEfficiency Mode = iota
)

// ModeCount sizes the per-session mode flag array. It must track the
// enumerated set above; see the init check below.
const ModeCount = 1

func init() {
	if int(ModePowerEfficiency)+1 != ModeCount {
		panic("boost: ModeCount does not match the enumerated session modes")
	}
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModePowerEfficiency:
		return "POWER_EFFICIENCY"
	default:
		return fmt.Sprintf("MODE(%d)", int32(m))
	}
}

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	return m >= ModePowerEfficiency && m < Mode(ModeCount)
}

// WorkDuration is one observed duration for a unit of work.
type WorkDuration struct {
	// Timestamp is when the unit of work finished.
	Timestamp time.Time
	// Duration is how long the unit of work actually took.
	Duration time.Duration
}
