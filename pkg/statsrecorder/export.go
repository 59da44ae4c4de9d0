package statsrecorder

import (
	"os"
	"path/filepath"

	"emperror.dev/errors"

	"github.com/voluzi/procpilot/internal/utils"
	"github.com/voluzi/procpilot/pkg/dataexporter"
)

// exportTimestampLayout names export files after the first committed frame.
const exportTimestampLayout = "2006_01_02_15_04_05"

// Export compiles the dataset and writes it through exp. The output path is
// derived from the first committed frame and the exporter extension, under
// the configured export directory (created when missing). A data point
// rejected by the exporter aborts with ErrExportRejected; write failures
// propagate to the caller.
func (d *ProcessDataSet) Export(exp dataexporter.DataExporter, opts ...dataexporter.WriteOption) (string, error) {
	snapshot := d.Compile()
	if snapshot.Len() == 0 {
		return "", ErrNoFrames
	}

	exp.Reset()
	for _, frame := range snapshot.Frames() {
		for _, name := range utils.SortedKeys(frame.Values) {
			if !exp.AddDataPoint(frame.Timestamp, name, frame.Values[name]) {
				return "", errors.Wrapf(ErrExportRejected, "%s at %s", name, frame.Timestamp)
			}
		}
	}

	text, err := exp.Export()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.cfg.ExportDir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating export directory")
	}

	name := snapshot.Frames()[0].Timestamp.Format(exportTimestampLayout) + ".export" + exp.Extension()
	return dataexporter.WriteFile(filepath.Join(d.cfg.ExportDir, name), text, opts...)
}

type ExportResult struct {
	Path string
	Err  error
}

// ExportAsync runs Export off the calling goroutine and delivers the single
// result on the returned channel.
func (d *ProcessDataSet) ExportAsync(exp dataexporter.DataExporter, opts ...dataexporter.WriteOption) <-chan ExportResult {
	ch := make(chan ExportResult, 1)
	go func() {
		defer close(ch)
		path, err := d.Export(exp, opts...)
		ch <- ExportResult{Path: path, Err: err}
	}()
	return ch
}
