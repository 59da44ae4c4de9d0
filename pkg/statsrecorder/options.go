package statsrecorder

import "time"

const (
	// DefaultSampleInterval is the pause between scheduler ticks for a
	// process with at least one registered dataset. Exported timestamps
	// carry second resolution, so sub-second cadences produce colliding
	// data point keys.
	DefaultSampleInterval = time.Second

	// DefaultIdleInterval is how often an idle scheduler entry re-checks
	// its callback table.
	DefaultIdleInterval = 100 * time.Millisecond

	// DefaultExportDir is the directory exported files are written to,
	// relative to the working directory.
	DefaultExportDir = "exports"
)

type Options struct {
	ExportDir string
	Clock     func() time.Time
}

func defaultOptions() *Options {
	return &Options{
		ExportDir: DefaultExportDir,
		Clock:     time.Now,
	}
}

type Option func(*Options)

// WithExportDir sets the directory export files are written to.
func WithExportDir(dir string) Option {
	return func(opts *Options) {
		opts.ExportDir = dir
	}
}

// WithClock replaces the timestamp source used for committed frames.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

type SchedulerOptions struct {
	SampleInterval time.Duration
	IdleInterval   time.Duration
}

func defaultSchedulerOptions() *SchedulerOptions {
	return &SchedulerOptions{
		SampleInterval: DefaultSampleInterval,
		IdleInterval:   DefaultIdleInterval,
	}
}

type SchedulerOption func(*SchedulerOptions)

// WithSampleInterval sets the pause between sampling ticks.
func WithSampleInterval(d time.Duration) SchedulerOption {
	return func(opts *SchedulerOptions) {
		opts.SampleInterval = d
	}
}

// WithIdleInterval sets the re-check pause for entries without callbacks.
func WithIdleInterval(d time.Duration) SchedulerOption {
	return func(opts *SchedulerOptions) {
		opts.IdleInterval = d
	}
}
