package statsrecorder

import (
	"runtime"
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/cpu"

	"github.com/voluzi/procpilot/pkg/procwatcher"
)

// CPUDisplayName is the metric key used by CPUAttributeSet.
const CPUDisplayName = "CPU"

type cpuSample struct {
	value   float64
	cpuTime time.Duration
}

// CPUAttributeSet records CPU utilization as a percentage across all
// logical cores, derived from deltas of the cumulative process CPU time.
// The very first sample has no baseline and always yields 0.
type CPUAttributeSet struct {
	samples map[int64]cpuSample

	// cursor is the timestamp key of the latest sample; deltas for the
	// next recording are computed against it.
	cursor    int64
	hasCursor bool

	cores int
}

func NewCPUAttributeSet() *CPUAttributeSet {
	cores, err := cpu.Counts(true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}

	return &CPUAttributeSet{
		samples: make(map[int64]cpuSample),
		cores:   cores,
	}
}

func (s *CPUAttributeSet) DisplayName() string {
	return CPUDisplayName
}

func (s *CPUAttributeSet) Record(ts time.Time, h procwatcher.ProcessHandle) error {
	cpuTime, err := h.CPUTime()
	if err != nil {
		return errors.Wrapf(ErrSampling, "cpu time for pid %d: %v", h.Pid(), err)
	}

	var value float64
	if s.hasCursor {
		wall := ts.Sub(time.Unix(0, s.cursor))
		delta := cpuTime - s.samples[s.cursor].cpuTime
		if wall > 0 {
			value = float64(delta) / (float64(s.cores) * float64(wall)) * 100
		}
	}

	key := ts.UnixNano()
	s.samples[key] = cpuSample{value: value, cpuTime: cpuTime}
	if !s.hasCursor || key > s.cursor {
		s.cursor = key
		s.hasCursor = true
	}
	return nil
}

func (s *CPUAttributeSet) Remove(ts time.Time) bool {
	key := ts.UnixNano()
	if _, ok := s.samples[key]; !ok {
		return false
	}
	delete(s.samples, key)

	if s.hasCursor && s.cursor == key {
		// The baseline went away; the latest remaining sample becomes the
		// new cursor, or the set reverts to its self-baseline state.
		s.hasCursor = false
		for k := range s.samples {
			if !s.hasCursor || k > s.cursor {
				s.cursor = k
				s.hasCursor = true
			}
		}
	}
	return true
}

func (s *CPUAttributeSet) Value(ts time.Time) (float64, error) {
	sample, ok := s.samples[ts.UnixNano()]
	if !ok {
		return 0, errors.Wrapf(ErrNoSample, "%s at %s", s.DisplayName(), ts)
	}
	return sample.value, nil
}

func (s *CPUAttributeSet) Clear() {
	s.samples = make(map[int64]cpuSample)
	s.hasCursor = false
	s.cursor = 0
}
