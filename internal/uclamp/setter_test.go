package uclamp

import (
	"testing"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/errors"
)

func TestRecordingSetter(t *testing.T) {
	s := NewRecordingSetter()

	if err := s.SetUclampMin(42, 300); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, ok := s.Applied(42); !ok || got != 300 {
		t.Errorf("applied = %d (ok=%t), want 300", got, ok)
	}

	if err := s.SetUclampMin(42, 100); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, _ := s.Applied(42); got != 100 {
		t.Errorf("applied = %d, want overwrite to 100", got)
	}
}

func TestRecordingSetterDeadThread(t *testing.T) {
	s := NewRecordingSetter()
	s.MarkDead(7)

	err := s.SetUclampMin(7, 200)
	if !errors.Is(err, ErrNoSuchThread) {
		t.Errorf("expected ErrNoSuchThread, got %v", err)
	}
	if _, ok := s.Applied(7); ok {
		t.Error("value recorded for dead thread")
	}
}
