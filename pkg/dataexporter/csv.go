package dataexporter

import (
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
)

const KindCSV Kind = "csv"

func init() {
	Register(KindCSV, "CSV", func() DataExporter {
		return NewCSVExporter()
	})
}

type csvPoint struct {
	formatted string
	key       string
	value     float64
}

// CSVExporter emits one timestamp,metric,value row per data point, sorted
// by timestamp then metric, with a header row. The duplicate rule is the
// same as for JSONExporter: one value per (metric, formatted timestamp).
type CSVExporter struct {
	points []csvPoint
	seen   map[string]struct{}
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{
		seen: make(map[string]struct{}),
	}
}

func (e *CSVExporter) Reset() {
	e.points = nil
	e.seen = make(map[string]struct{})
}

func (e *CSVExporter) AddDataPoint(ts time.Time, key string, value float64) bool {
	formatted := ts.Format(TimestampLayout)

	id := key + "\x00" + formatted
	if _, dup := e.seen[id]; dup {
		return false
	}
	e.seen[id] = struct{}{}
	e.points = append(e.points, csvPoint{formatted: formatted, key: key, value: value})
	return true
}

func (e *CSVExporter) Export() (string, error) {
	points := append([]csvPoint(nil), e.points...)
	sort.Slice(points, func(i, j int) bool {
		if points[i].formatted != points[j].formatted {
			return points[i].formatted < points[j].formatted
		}
		return points[i].key < points[j].key
	})

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"timestamp", "metric", "value"}); err != nil {
		return "", errors.Wrap(err, "writing csv header")
	}
	for _, p := range points {
		row := []string{p.formatted, p.key, strconv.FormatFloat(p.value, 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "writing csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flushing csv")
	}
	return sb.String(), nil
}

func (e *CSVExporter) Extension() string {
	return ".csv"
}
