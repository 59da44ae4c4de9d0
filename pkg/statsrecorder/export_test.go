package statsrecorder

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluzi/procpilot/pkg/dataexporter"
)

// rejectingExporter refuses every data point.
type rejectingExporter struct {
	dataexporter.DataExporter
}

func (r *rejectingExporter) Reset() {}

func (r *rejectingExporter) AddDataPoint(time.Time, string, float64) bool {
	return false
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		ts := current
		current = current.Add(step)
		return ts
	}
}

func TestExport_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	h := &fakeHandle{pid: 1, vms: 1024}
	d := NewProcessDataSet(h, NewScheduler(),
		WithExportDir(dir),
		WithClock(fixedClock(start, time.Second)),
	)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))

	require.NoError(t, d.Record())
	require.NoError(t, d.Record())

	path, err := d.Export(dataexporter.NewJSONExporter())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024_01_02_15_04_05.export.json"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]map[string]float64
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, map[string]map[string]float64{
		MemoryDisplayName: {
			"2024-01-02 15:04:05": 1024,
			"2024-01-02 15:04:06": 1024,
		},
	}, decoded)
}

func TestExport_DefaultSampleCadence(t *testing.T) {
	start := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	h := &fakeHandle{pid: 1, vms: 1024}
	d := NewProcessDataSet(h, NewScheduler(),
		WithExportDir(t.TempDir()),
		WithClock(fixedClock(start, DefaultSampleInterval)),
	)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))

	// Frames committed at the default tick cadence must land on distinct
	// exporter keys, despite the second-resolution timestamp format.
	require.NoError(t, d.Record())
	require.NoError(t, d.Record())
	require.NoError(t, d.Record())

	path, err := d.Export(dataexporter.NewJSONExporter())
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]map[string]float64
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Len(t, decoded[MemoryDisplayName], 3)
}

func TestExport_CreatesExportDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	h := &fakeHandle{pid: 1, vms: 1}
	d := NewProcessDataSet(h, NewScheduler(), WithExportDir(dir))
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))
	require.NoError(t, d.Record())

	path, err := d.Export(dataexporter.NewJSONExporter())
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExport_NoFrames(t *testing.T) {
	h := &fakeHandle{pid: 1}
	d := newTestDataSet(t, h)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))

	_, err := d.Export(dataexporter.NewJSONExporter())
	assert.True(t, errors.Is(err, ErrNoFrames))
}

func TestExport_RejectedDataPoint(t *testing.T) {
	h := &fakeHandle{pid: 1, vms: 1}
	d := newTestDataSet(t, h)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))
	require.NoError(t, d.Record())

	_, err := d.Export(&rejectingExporter{})
	assert.True(t, errors.Is(err, ErrExportRejected))
}

func TestExport_Gzip(t *testing.T) {
	start := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	h := &fakeHandle{pid: 1, vms: 1024}
	d := NewProcessDataSet(h, NewScheduler(),
		WithExportDir(t.TempDir()),
		WithClock(fixedClock(start, time.Second)),
	)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))
	require.NoError(t, d.Record())

	path, err := d.Export(dataexporter.NewJSONExporter(), dataexporter.WithGzip())
	require.NoError(t, err)
	assert.Equal(t, ".gz", filepath.Ext(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	r, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)

	var decoded map[string]map[string]float64
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, map[string]map[string]float64{
		MemoryDisplayName: {"2024-01-02 15:04:05": 1024},
	}, decoded)
}

func TestExportAsync(t *testing.T) {
	h := &fakeHandle{pid: 1, vms: 1}
	d := newTestDataSet(t, h)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))
	require.NoError(t, d.Record())

	select {
	case res := <-d.ExportAsync(dataexporter.NewJSONExporter()):
		require.NoError(t, res.Err)
		assert.FileExists(t, res.Path)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for async export")
	}
}

func TestExportAsync_PropagatesErrors(t *testing.T) {
	h := &fakeHandle{pid: 1}
	d := newTestDataSet(t, h)
	require.True(t, d.AddAttributeSet(NewMemoryAttributeSet()))

	res := <-d.ExportAsync(dataexporter.NewJSONExporter())
	assert.True(t, errors.Is(res.Err, ErrNoFrames))
}
