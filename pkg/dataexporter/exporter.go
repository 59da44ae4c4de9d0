package dataexporter

import (
	"reflect"
	"sync"
	"time"

	"emperror.dev/errors"
)

// TimestampLayout formats data point timestamps in exported files.
const TimestampLayout = "2006-01-02 15:04:05"

var ErrInvalidExporter = errors.New("unknown exporter kind")

// Kind is the stable identifier an exporter implementation registers under.
type Kind string

// DataExporter serializes compiled data points into a textual format.
type DataExporter interface {
	// Reset drops all accumulated data points.
	Reset()

	// AddDataPoint stores one (key, timestamp, value) triple, returning
	// false when the (key, formatted-timestamp) pair is already present.
	AddDataPoint(ts time.Time, key string, value float64) bool

	// Export returns the serialized text for the accumulated data points.
	Export() (string, error)

	// Extension is the file extension for this format, dot included.
	Extension() string
}

type registration struct {
	displayName string
	factory     func() DataExporter
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]registration)
)

// Register adds an exporter constructor under kind, normally from an init
// function. An empty display name falls back to the implementation's type
// name.
func Register(kind Kind, displayName string, factory func() DataExporter) {
	if displayName == "" {
		t := reflect.TypeOf(factory())
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		displayName = t.Name()
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = registration{displayName: displayName, factory: factory}
}

// FindAll returns the registered kinds mapped to their display names.
func FindAll() map[Kind]string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make(map[Kind]string, len(registry))
	for kind, r := range registry {
		out[kind] = r.displayName
	}
	return out
}

// FromKind constructs a fresh exporter of the given kind.
func FromKind(kind Kind) (DataExporter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	r, ok := registry[kind]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidExporter, "%s", kind)
	}
	return r.factory(), nil
}
