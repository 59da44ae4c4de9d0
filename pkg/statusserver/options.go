package statusserver

import "time"

func defaultOptions() *Options {
	return &Options{
		Host:    "0.0.0.0",
		Port:    8900,
		NameTTL: time.Minute,
	}
}

type Options struct {
	Host    string
	Port    int
	NameTTL time.Duration
}

type Option func(*Options)

func WithHost(s string) Option {
	return func(opts *Options) {
		opts.Host = s
	}
}

func WithPort(v int) Option {
	return func(opts *Options) {
		opts.Port = v
	}
}

// WithNameTTL sets how long resolved process names are cached.
func WithNameTTL(d time.Duration) Option {
	return func(opts *Options) {
		opts.NameTTL = d
	}
}
