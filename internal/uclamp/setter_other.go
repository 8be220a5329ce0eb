//go:build !linux

package uclamp

// NewDefaultSetter returns the platform's clamp setter. Off linux the
// scheduler interface does not exist, so values are only recorded.
func NewDefaultSetter() Setter {
	return NewRecordingSetter()
}
