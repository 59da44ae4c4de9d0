package cmd

import (
	"sync"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/procpilot/internal/config"
	"github.com/voluzi/procpilot/pkg/dataexporter"
	"github.com/voluzi/procpilot/pkg/procwatcher"
	"github.com/voluzi/procpilot/pkg/statsrecorder"
)

// recorder subscribes to watcher events and maintains one ProcessDataSet
// per matched process. It is the display-layer stand-in of the watch
// command; the recording core knows nothing about it.
type recorder struct {
	sched *statsrecorder.Scheduler

	mu       sync.Mutex
	cfg      *config.Config
	datasets map[int32]*statsrecorder.ProcessDataSet
}

func newRecorder(cfg *config.Config, sched *statsrecorder.Scheduler) *recorder {
	return &recorder{
		sched:    sched,
		cfg:      cfg,
		datasets: make(map[int32]*statsrecorder.ProcessDataSet),
	}
}

// setConfig swaps the active configuration; used by config hot reload.
// Datasets already recording keep their original export settings.
func (r *recorder) setConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

func (r *recorder) config() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// NewProcess runs on the watcher goroutine and must stay fast: it only
// wires up a dataset and registers it with the shared scheduler.
func (r *recorder) NewProcess(h procwatcher.ProcessHandle) {
	var name string
	if named, ok := h.(interface{ Name() string }); ok {
		name = named.Name()
	}

	cfg := r.config()
	if !cfg.MatchesProcess(name) {
		return
	}

	ds := statsrecorder.NewProcessDataSet(h, r.sched,
		statsrecorder.WithExportDir(cfg.ExportDir),
	)
	ds.AddAttributeSet(statsrecorder.NewCPUAttributeSet())
	ds.AddAttributeSet(statsrecorder.NewMemoryAttributeSet())
	if !ds.StartRecording() {
		return
	}

	log.WithFields(log.Fields{"pid": h.Pid(), "name": name}).Info("recording new process")

	r.mu.Lock()
	r.datasets[h.Pid()] = ds
	r.mu.Unlock()
}

// ProcessStopped runs on the watcher goroutine; the export itself happens
// asynchronously so the watcher is never blocked on file I/O.
func (r *recorder) ProcessStopped(pid int32) {
	r.mu.Lock()
	ds, ok := r.datasets[pid]
	if ok {
		delete(r.datasets, pid)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	ds.StopRecording()
	cfg := r.config()

	exp, err := dataexporter.FromKind(dataexporter.Kind(cfg.Exporter))
	if err != nil {
		log.WithError(err).Error("cannot export stopped process")
		return
	}

	results := ds.ExportAsync(exp, writeOptions(cfg)...)
	go func() {
		res := <-results
		logExportResult(pid, res.Path, res.Err)
	}()
}

// drain stops and exports every remaining dataset, synchronously; used at
// shutdown.
func (r *recorder) drain() {
	r.mu.Lock()
	datasets := r.datasets
	r.datasets = make(map[int32]*statsrecorder.ProcessDataSet)
	r.mu.Unlock()

	cfg := r.config()
	exp, err := dataexporter.FromKind(dataexporter.Kind(cfg.Exporter))
	if err != nil {
		log.WithError(err).Error("cannot export remaining datasets")
		exp = nil
	}

	for pid, ds := range datasets {
		ds.StopRecording()
		if exp == nil {
			continue
		}
		// Export resets the exporter, so one instance serves all datasets.
		path, err := ds.Export(exp, writeOptions(cfg)...)
		logExportResult(pid, path, err)
	}
}

func writeOptions(cfg *config.Config) []dataexporter.WriteOption {
	if cfg.GzipExports {
		return []dataexporter.WriteOption{dataexporter.WithGzip()}
	}
	return nil
}

func logExportResult(pid int32, path string, err error) {
	switch {
	case errors.Is(err, statsrecorder.ErrNoFrames):
		log.WithField("pid", pid).Debug("nothing recorded, skipping export")
	case err != nil:
		log.WithField("pid", pid).WithError(err).Error("export failed")
	default:
		log.WithFields(log.Fields{"pid": pid, "path": path}).Info("exported process metrics")
	}
}
