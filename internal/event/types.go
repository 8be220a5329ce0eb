package event

import (
	"time"
)

// Event type name constants used for subscriptions.
const (
	TypeSessionAdded   = "session.added"
	TypeSessionRemoved = "session.removed"
	TypeVoteSet        = "vote.set"
	TypeVoteExpired    = "vote.expired"
	TypeUniversalBoost = "boost.universal"
	TypeSessionStale   = "session.stale"
)

// Event is implemented by everything published on the bus.
type Event interface {
	EventType() string
}

// SessionAddedEvent is published when a session registers with the
// arbiter.
type SessionAddedEvent struct {
	SessionID int64
	IDString  string
	ThreadIDs []int
	AppOwned  bool
}

func (SessionAddedEvent) EventType() string { return TypeSessionAdded }

// NewSessionAddedEvent creates a SessionAddedEvent.
func NewSessionAddedEvent(sessionID int64, idString string, threadIDs []int, appOwned bool) SessionAddedEvent {
	return SessionAddedEvent{SessionID: sessionID, IDString: idString, ThreadIDs: threadIDs, AppOwned: appOwned}
}

// SessionRemovedEvent is published when a session deregisters.
type SessionRemovedEvent struct {
	SessionID int64
}

func (SessionRemovedEvent) EventType() string { return TypeSessionRemoved }

// NewSessionRemovedEvent creates a SessionRemovedEvent.
func NewSessionRemovedEvent(sessionID int64) SessionRemovedEvent {
	return SessionRemovedEvent{SessionID: sessionID}
}

// VoteSetEvent is published when a session upserts a vote.
type VoteSetEvent struct {
	SessionID int64
	VoteKind  string
	UclampMin int
	UclampMax int
	ValidFor  time.Duration
}

func (VoteSetEvent) EventType() string { return TypeVoteSet }

// NewVoteSetEvent creates a VoteSetEvent.
func NewVoteSetEvent(sessionID int64, voteKind string, min, max int, validFor time.Duration) VoteSetEvent {
	return VoteSetEvent{SessionID: sessionID, VoteKind: voteKind, UclampMin: min, UclampMax: max, ValidFor: validFor}
}

// VoteExpiredEvent is published when the timeout worker deactivates an
// expired vote.
type VoteExpiredEvent struct {
	SessionID int64
	VoteKind  string
}

func (VoteExpiredEvent) EventType() string { return TypeVoteExpired }

// NewVoteExpiredEvent creates a VoteExpiredEvent.
func NewVoteExpiredEvent(sessionID int64, voteKind string) VoteExpiredEvent {
	return VoteExpiredEvent{SessionID: sessionID, VoteKind: voteKind}
}

// UniversalBoostEvent is published when the arbiter toggles the
// system-wide top-app boost.
type UniversalBoostEvent struct {
	// Enabled reports whether the system top-app boost is now enabled
	// (no application session is actively hinting).
	Enabled bool
}

func (UniversalBoostEvent) EventType() string { return TypeUniversalBoost }

// NewUniversalBoostEvent creates a UniversalBoostEvent.
func NewUniversalBoostEvent(enabled bool) UniversalBoostEvent {
	return UniversalBoostEvent{Enabled: enabled}
}

// SessionStaleEvent is published by the sweep monitor when a session
// passes its staleness deadline without reporting.
type SessionStaleEvent struct {
	SessionID int64
	IDString  string
}

func (SessionStaleEvent) EventType() string { return TypeSessionStale }

// NewSessionStaleEvent creates a SessionStaleEvent.
func NewSessionStaleEvent(sessionID int64, idString string) SessionStaleEvent {
	return SessionStaleEvent{SessionID: sessionID, IDString: idString}
}
