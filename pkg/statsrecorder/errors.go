package statsrecorder

import "emperror.dev/errors"

var (
	// ErrSampling indicates the OS query behind a single metric failed,
	// typically because the process exited between the liveness check and
	// the read. It is recovered inside ProcessDataSet.Record.
	ErrSampling = errors.New("sample could not be taken")

	// ErrNoSample is returned by AttributeSet.Value when no sample exists
	// at the requested timestamp.
	ErrNoSample = errors.New("no sample at timestamp")

	// ErrNoAttributeSets is returned by Record when the dataset has no
	// registered attribute sets.
	ErrNoAttributeSets = errors.New("no attribute sets registered")

	// ErrExportRejected is returned by Export when the exporter rejects a
	// data point, e.g. on a duplicate key.
	ErrExportRejected = errors.New("exporter rejected data point")

	// ErrNoFrames is returned by Export when the dataset has no committed
	// frames to derive an output file from.
	ErrNoFrames = errors.New("no committed frames")
)
