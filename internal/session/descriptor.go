package session

import (
	"sync/atomic"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
)

// Descriptor is the shared, concurrently-read state of a session. The
// session controller owns the writes; the arbiter and the staleness
// sweep only read. All mutable fields are atomics so readers never
// take the session mutex.
type Descriptor struct {
	SessionID int64
	TGID      int
	UID       int
	IDString  string

	target      atomic.Int64 // nanoseconds
	active      atomic.Bool
	lastUpdated atomic.Int64 // unix nanoseconds
}

func newDescriptor(sessionID int64, tgid, uid int, idString string, target time.Duration, now time.Time) *Descriptor {
	d := &Descriptor{
		SessionID: sessionID,
		TGID:      tgid,
		UID:       uid,
		IDString:  idString,
	}
	d.target.Store(int64(target))
	d.active.Store(true)
	d.lastUpdated.Store(now.UnixNano())
	return d
}

// Target returns the session's current target work duration.
func (d *Descriptor) Target() time.Duration {
	return time.Duration(d.target.Load())
}

func (d *Descriptor) setTarget(target time.Duration) {
	d.target.Store(int64(target))
}

// IsActive reports whether the session is active (not paused).
func (d *Descriptor) IsActive() bool {
	return d.active.Load()
}

func (d *Descriptor) setActive(active bool) {
	d.active.Store(active)
}

// LastUpdated returns the instant of the last report, hint, or mode
// change.
func (d *Descriptor) LastUpdated() time.Time {
	return time.Unix(0, d.lastUpdated.Load())
}

func (d *Descriptor) touch(now time.Time) {
	d.lastUpdated.Store(now.UnixNano())
}

// IsApp reports whether the session belongs to a user application.
func (d *Descriptor) IsApp() bool {
	return d.UID >= boost.MinAppUID
}
