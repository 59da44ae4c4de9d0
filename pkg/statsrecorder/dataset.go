package statsrecorder

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"

	"github.com/voluzi/procpilot/pkg/procwatcher"
)

var datasetSeq atomic.Uint64

// ProcessDataSet aggregates attribute data sets for one process and keeps
// the sequence of committed frame timestamps. A timestamp is committed only
// when every registered attribute set recorded successfully at that
// instant; partial frames are rolled back, never committed.
type ProcessDataSet struct {
	cfg    *Options
	handle procwatcher.ProcessHandle
	sched  *Scheduler
	id     string

	mu        sync.Mutex
	order     []AttributeSet
	byName    map[string]AttributeSet
	frames    []time.Time
	observers []func(time.Time)
}

func NewProcessDataSet(h procwatcher.ProcessHandle, sched *Scheduler, opts ...Option) *ProcessDataSet {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &ProcessDataSet{
		cfg:    options,
		handle: h,
		sched:  sched,
		id:     fmt.Sprintf("dataset-%d", datasetSeq.Add(1)),
		byName: make(map[string]AttributeSet),
	}
}

func (d *ProcessDataSet) Pid() int32 {
	return d.handle.Pid()
}

// AddAttributeSet registers set, clearing any previous state it carried.
// It returns false when a set with the same display name is already
// present. Call before recording begins.
func (d *ProcessDataSet) AddAttributeSet(set AttributeSet) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[set.DisplayName()]; ok {
		return false
	}
	set.Clear()
	d.byName[set.DisplayName()] = set
	d.order = append(d.order, set)
	return true
}

// OnDataRecorded registers fn to run synchronously, on the recording
// goroutine, after every committed frame. Handlers must not block.
func (d *ProcessDataSet) OnDataRecorded(fn func(ts time.Time)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Record samples every registered attribute set at the current timestamp
// and commits the frame. An exited process is a lenient no-op. When any
// attribute set fails, sets that already recorded for this call are rolled
// back and the error is returned; no partial frame is ever committed.
func (d *ProcessDataSet) Record() error {
	ts, observers, committed, err := d.record()
	if err != nil || !committed {
		return err
	}

	for _, fn := range observers {
		fn(ts)
	}
	return nil
}

func (d *ProcessDataSet) record() (time.Time, []func(time.Time), bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle.Exited() {
		return time.Time{}, nil, false, nil
	}
	if len(d.order) == 0 {
		return time.Time{}, nil, false, ErrNoAttributeSets
	}

	ts := d.cfg.Clock()
	for i, set := range d.order {
		if err := set.Record(ts, d.handle); err != nil {
			for _, done := range d.order[:i] {
				done.Remove(ts)
			}
			return time.Time{}, nil, false, errors.Wrapf(err, "recording %s", set.DisplayName())
		}
	}

	d.frames = append(d.frames, ts)
	observers := make([]func(time.Time), len(d.observers))
	copy(observers, d.observers)
	return ts, observers, true, nil
}

// StartRecording registers this dataset with the shared scheduler. False
// means it is already registered. After a failed tick tore the scheduler
// entry down, StartRecording arms it again.
func (d *ProcessDataSet) StartRecording() bool {
	return d.sched.StartRecording(d.handle, d.id, d.Record)
}

// StopRecording unregisters this dataset from the shared scheduler. False
// means it was not recording.
func (d *ProcessDataSet) StopRecording() bool {
	return d.sched.StopRecording(d.handle.Pid(), d.id)
}

func (d *ProcessDataSet) IsRecording() bool {
	return d.sched.IsRecording(d.handle.Pid(), d.id)
}

// Clear drops the committed frames and the state of every attribute set.
func (d *ProcessDataSet) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames = nil
	for _, set := range d.order {
		set.Clear()
	}
}

// CommittedFrames returns a copy of the committed frame timestamps in
// commit order.
func (d *ProcessDataSet) CommittedFrames() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.frames...)
}

// Frame is one committed timestamp with the metric values readable at it.
type Frame struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Snapshot is an immutable compilation of a dataset, built on demand and
// never retained by the dataset itself.
type Snapshot struct {
	frames []Frame
}

func (s *Snapshot) Frames() []Frame {
	return s.frames
}

func (s *Snapshot) Len() int {
	return len(s.frames)
}

// Compile builds a snapshot of the committed frames in commit order. A
// metric whose attribute set has no entry at a frame timestamp is omitted
// from that frame; out-of-band removals are tolerated, not errors.
func (d *ProcessDataSet) Compile() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	frames := make([]Frame, 0, len(d.frames))
	for _, ts := range d.frames {
		values := make(map[string]float64, len(d.order))
		for _, set := range d.order {
			v, err := set.Value(ts)
			if err != nil {
				continue
			}
			values[set.DisplayName()] = v
		}
		frames = append(frames, Frame{Timestamp: ts, Values: values})
	}
	return &Snapshot{frames: frames}
}
