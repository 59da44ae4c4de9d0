package statsrecorder

import (
	"time"

	"github.com/voluzi/procpilot/pkg/procwatcher"
)

// AttributeSet records one scalar metric per timestamp for one process.
// Implementations are not safe for unsynchronized concurrent use; every
// call goes through the owning ProcessDataSet, which serializes access.
type AttributeSet interface {
	// DisplayName identifies the metric. It doubles as the uniqueness key
	// inside a ProcessDataSet and as the metric key in exported files.
	DisplayName() string

	// Record takes a sample from h and stores it under ts. Failures are
	// reported wrapped around ErrSampling.
	Record(ts time.Time, h procwatcher.ProcessHandle) error

	// Remove deletes the sample at ts, repairing any derived state, and
	// reports whether a sample existed.
	Remove(ts time.Time) bool

	// Value returns the sample recorded at ts, or ErrNoSample.
	Value(ts time.Time) (float64, error)

	Clear()
}
