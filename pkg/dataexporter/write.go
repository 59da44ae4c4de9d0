package dataexporter

import (
	"os"

	"emperror.dev/errors"
	"github.com/klauspost/pgzip"
)

type WriteOptions struct {
	Gzip bool
}

// WriteOption is a functional option for configuring export writes.
type WriteOption func(*WriteOptions)

// WithGzip compresses the written file, appending a .gz suffix to the path.
func WithGzip() WriteOption {
	return func(o *WriteOptions) {
		o.Gzip = true
	}
}

// WriteFile writes serialized export text to path and returns the path
// actually written.
func WriteFile(path, text string, opts ...WriteOption) (string, error) {
	options := &WriteOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if !options.Gzip {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return "", errors.Wrap(err, "writing export file")
		}
		return path, nil
	}

	path += ".gz"
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating export file")
	}

	gz, err := pgzip.NewWriterLevel(f, pgzip.BestSpeed)
	if err != nil {
		_ = f.Close()
		return "", errors.Wrap(err, "pgzip writer failed")
	}
	if _, err := gz.Write([]byte(text)); err != nil {
		_ = gz.Close()
		_ = f.Close()
		return "", errors.Wrap(err, "compressing export file")
	}
	if err := gz.Close(); err != nil {
		_ = f.Close()
		return "", errors.Wrap(err, "finishing compression")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "closing export file")
	}
	return path, nil
}
