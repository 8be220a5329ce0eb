//go:build linux

package uclamp

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
)

// sched_setattr flag and size constants from the kernel uapi.
const (
	schedFlagKeepAll      = 0x18 // KEEP_POLICY | KEEP_PARAMS
	schedFlagUtilClampMin = 0x20

	schedAttrSize = 56
)

// schedAttr mirrors struct sched_attr up to util_max.
type schedAttr struct {
	size         uint32
	schedPolicy  uint32
	schedFlags   uint64
	schedNice    int32
	schedPrio    uint32
	schedRuntime uint64
	schedDeadln  uint64
	schedPeriod  uint64
	utilMin      uint32
	utilMax      uint32
}

// KernelSetter applies clamp values with the sched_setattr syscall,
// touching only uclamp.min and leaving policy and priority alone.
type KernelSetter struct{}

// NewKernelSetter creates a KernelSetter.
func NewKernelSetter() *KernelSetter {
	return &KernelSetter{}
}

// SetUclampMin writes value as the thread's uclamp.min. Values outside
// [0, 1024] are clamped. A vanished thread yields ErrNoSuchThread.
func (s *KernelSetter) SetUclampMin(tid int, value int) error {
	value = min(boost.UclampMax, max(boost.UclampMin, value))

	attr := schedAttr{
		size:       schedAttrSize,
		schedFlags: schedFlagKeepAll | schedFlagUtilClampMin,
		utilMin:    uint32(value),
	}

	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETATTR,
		uintptr(tid), uintptr(unsafe.Pointer(&attr)), 0)
	switch errno {
	case 0:
		return nil
	case unix.ESRCH:
		return ErrNoSuchThread
	default:
		return errno
	}
}

// NewDefaultSetter returns the platform's clamp setter.
func NewDefaultSetter() Setter {
	return NewKernelSetter()
}
