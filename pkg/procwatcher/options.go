package procwatcher

import (
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultPollInterval = 100 * time.Millisecond

func defaultOptions() *Options {
	return &Options{
		PollInterval: DefaultPollInterval,
		Lister:       process.Pids,
		HandleFactory: func(pid int32) (ProcessHandle, error) {
			return NewHandle(pid)
		},
	}
}

type Options struct {
	PollInterval  time.Duration
	Lister        func() ([]int32, error)
	HandleFactory func(pid int32) (ProcessHandle, error)
}

type Option func(*Options)

// WithPollInterval sets how often the process table is polled.
func WithPollInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.PollInterval = d
	}
}

// WithLister replaces the process table enumeration.
func WithLister(fn func() ([]int32, error)) Option {
	return func(opts *Options) {
		opts.Lister = fn
	}
}

// WithHandleFactory replaces how handles are built for newly seen pids.
func WithHandleFactory(fn func(pid int32) (ProcessHandle, error)) Option {
	return func(opts *Options) {
		opts.HandleFactory = fn
	}
}
