package config

import (
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"

	"github.com/voluzi/procpilot/internal/utils"
	"github.com/voluzi/procpilot/pkg/dataexporter"
	"github.com/voluzi/procpilot/pkg/procwatcher"
	"github.com/voluzi/procpilot/pkg/statsrecorder"
)

// Duration makes time.Duration TOML-decodable from strings like "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type StatusServer struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type Config struct {
	LogLevel       string       `toml:"log_level"`
	PollInterval   Duration     `toml:"poll_interval"`
	SampleInterval Duration     `toml:"sample_interval"`
	ExportDir      string       `toml:"export_dir"`
	Exporter       string       `toml:"exporter"`
	GzipExports    bool         `toml:"gzip_exports"`
	Processes      []string     `toml:"processes"`
	StatusServer   StatusServer `toml:"status_server"`
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		PollInterval:   Duration{procwatcher.DefaultPollInterval},
		SampleInterval: Duration{statsrecorder.DefaultSampleInterval},
		ExportDir:      statsrecorder.DefaultExportDir,
		Exporter:       string(dataexporter.KindJSON),
		StatusServer: StatusServer{
			Host: "0.0.0.0",
			Port: 8900,
		},
	}
}

// Load reads TOML configuration from path on top of the defaults. An empty
// path yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	if _, err := dataexporter.FromKind(dataexporter.Kind(cfg.Exporter)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MatchesProcess reports whether a process with the given executable name
// should be recorded.
func (c *Config) MatchesProcess(name string) bool {
	return utils.SliceContains(c.Processes, name)
}
