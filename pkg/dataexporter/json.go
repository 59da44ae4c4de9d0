package dataexporter

import (
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
)

const KindJSON Kind = "json"

func init() {
	Register(KindJSON, "JSON", func() DataExporter {
		return NewJSONExporter()
	})
}

// JSONExporter accumulates metric name -> formatted timestamp -> value and
// serializes to indented JSON. Object keys come out sorted, so the same
// data always produces the same text.
type JSONExporter struct {
	data map[string]map[string]float64
}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{
		data: make(map[string]map[string]float64),
	}
}

func (e *JSONExporter) Reset() {
	e.data = make(map[string]map[string]float64)
}

func (e *JSONExporter) AddDataPoint(ts time.Time, key string, value float64) bool {
	formatted := ts.Format(TimestampLayout)

	series, ok := e.data[key]
	if !ok {
		series = make(map[string]float64)
		e.data[key] = series
	}
	if _, dup := series[formatted]; dup {
		return false
	}
	series[formatted] = value
	return true
}

func (e *JSONExporter) Export() (string, error) {
	out, err := json.MarshalIndent(e.data, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "serializing export")
	}
	return string(out), nil
}

func (e *JSONExporter) Extension() string {
	return ".json"
}
