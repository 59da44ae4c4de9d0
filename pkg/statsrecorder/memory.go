package statsrecorder

import (
	"time"

	"emperror.dev/errors"

	"github.com/voluzi/procpilot/pkg/procwatcher"
)

// MemoryDisplayName is the metric key used by MemoryAttributeSet.
const MemoryDisplayName = "Memory"

// MemoryAttributeSet records the process virtual memory size in bytes
// verbatim, with no derived state.
type MemoryAttributeSet struct {
	samples map[int64]float64
}

func NewMemoryAttributeSet() *MemoryAttributeSet {
	return &MemoryAttributeSet{
		samples: make(map[int64]float64),
	}
}

func (s *MemoryAttributeSet) DisplayName() string {
	return MemoryDisplayName
}

func (s *MemoryAttributeSet) Record(ts time.Time, h procwatcher.ProcessHandle) error {
	vms, err := h.VirtualMemory()
	if err != nil {
		return errors.Wrapf(ErrSampling, "virtual memory for pid %d: %v", h.Pid(), err)
	}
	s.samples[ts.UnixNano()] = float64(vms)
	return nil
}

func (s *MemoryAttributeSet) Remove(ts time.Time) bool {
	key := ts.UnixNano()
	if _, ok := s.samples[key]; !ok {
		return false
	}
	delete(s.samples, key)
	return true
}

func (s *MemoryAttributeSet) Value(ts time.Time) (float64, error) {
	value, ok := s.samples[ts.UnixNano()]
	if !ok {
		return 0, errors.Wrapf(ErrNoSample, "%s at %s", s.DisplayName(), ts)
	}
	return value, nil
}

func (s *MemoryAttributeSet) Clear() {
	s.samples = make(map[int64]float64)
}
