package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// ErrInvalid marks a configuration value that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Source names for the process and socket tables.
const (
	SourcePS     = "ps"
	SourceNative = "native"
)

// Signaller names.
const (
	SignallerKill   = "kill"
	SignallerNative = "native"
)

// Config carries runtime options for gunicorn-console.
type Config struct {
	Tick           time.Duration
	PollInterval   time.Duration
	FrameEvery     int
	Marker         string
	Source         string
	Signaller      string
	CommandTimeout time.Duration
	JSON           bool
	Version        bool
	ConfigPath     string
	Logging        LoggingConfig
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	File   string `json:"file"`
	Level  string `json:"level"`
	Format string `json:"format"`
}

func Default() Config {
	return Config{
		Tick:           100 * time.Millisecond,
		PollInterval:   2 * time.Second,
		FrameEvery:     1,
		Marker:         "gunicorn: ",
		Source:         SourcePS,
		Signaller:      SignallerKill,
		CommandTimeout: 2 * time.Second,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// fileConfig mirrors Config with durations as strings, the way they are
// written in the config file.
type fileConfig struct {
	Tick           string         `json:"tick"`
	PollInterval   string         `json:"poll_interval"`
	FrameEvery     *int           `json:"frame_every"`
	Marker         *string        `json:"marker"`
	Source         string         `json:"source"`
	Signaller      string         `json:"signaller"`
	CommandTimeout string         `json:"command_timeout"`
	Logging        *LoggingConfig `json:"logging"`
}

// FromFlags parses flags, the optional config file and environment overrides.
// Environment overrides are applied last.
func FromFlags(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("gunicorn-console", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", DefaultPath(), "path to a JSON/JSONC config file")
	fs.DurationVar(&cfg.Tick, "tick", cfg.Tick, "screen refresh interval")
	fs.DurationVarP(&cfg.PollInterval, "interval", "i", cfg.PollInterval, "process table poll interval")
	fs.IntVar(&cfg.FrameEvery, "frame-every", cfg.FrameEvery, "ticks per worker animation frame")
	fs.StringVar(&cfg.Marker, "marker", cfg.Marker, "command line prefix identifying server processes")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "process/socket source: ps|native")
	fs.StringVar(&cfg.Signaller, "signaller", cfg.Signaller, "signal sender: kill|native")
	fs.DurationVar(&cfg.CommandTimeout, "timeout", cfg.CommandTimeout, "timeout for helper commands")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print the server table as JSON and exit")
	fs.BoolVarP(&cfg.Version, "version", "V", cfg.Version, "print version and exit")
	fs.StringVar(&cfg.Logging.File, "log-file", cfg.Logging.File, "write logs to this file")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg.ConfigPath = *configPath
	if cfg.ConfigPath != "" {
		fileCfg, err := loadFile(cfg.ConfigPath, fs.Changed("config"))
		if err != nil {
			return cfg, err
		}
		if fileCfg != nil {
			if err := fileCfg.apply(&cfg, fs); err != nil {
				return cfg, err
			}
		}
	}

	if v := os.Getenv("GUNICORN_CONSOLE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.PollInterval = parsed
		}
	}
	if v := os.Getenv("GUNICORN_CONSOLE_TICK"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Tick = parsed
		}
	}
	if v := os.Getenv("GUNICORN_CONSOLE_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("GUNICORN_CONSOLE_LOG"); v != "" {
		cfg.Logging.File = v
	}
	return cfg, cfg.Validate()
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	switch {
	case c.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalid, c.Tick)
	case c.PollInterval < c.Tick:
		return fmt.Errorf("%w: poll interval %s is shorter than tick %s", ErrInvalid, c.PollInterval, c.Tick)
	case c.FrameEvery < 1:
		return fmt.Errorf("%w: frame-every must be at least 1, got %d", ErrInvalid, c.FrameEvery)
	case c.Marker == "":
		return fmt.Errorf("%w: marker must not be empty", ErrInvalid)
	case c.CommandTimeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalid, c.CommandTimeout)
	}
	if c.Source != SourcePS && c.Source != SourceNative {
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}
	if c.Signaller != SignallerKill && c.Signaller != SignallerNative {
		return fmt.Errorf("%w: unknown signaller %q", ErrInvalid, c.Signaller)
	}
	return nil
}

// TicksPerPoll is the number of ticks between two process table polls.
func (c Config) TicksPerPoll() int {
	n := int(c.PollInterval / c.Tick)
	if n < 1 {
		return 1
	}
	return n
}

// DefaultPath returns $XDG_CONFIG_HOME/gunicorn-console/config.jsonc, falling
// back to ~/.config. It returns "" when no home directory is known.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gunicorn-console", "config.jsonc")
}

// loadFile reads a JSON or JSONC config file. A missing file is only an
// error when it was named explicitly.
func loadFile(path string, explicit bool) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return &fc, nil
}

// apply copies file values into cfg unless the matching flag was given.
func (fc *fileConfig) apply(cfg *Config, fs *flag.FlagSet) error {
	durations := []struct {
		flag string
		raw  string
		dst  *time.Duration
	}{
		{"tick", fc.Tick, &cfg.Tick},
		{"interval", fc.PollInterval, &cfg.PollInterval},
		{"timeout", fc.CommandTimeout, &cfg.CommandTimeout},
	}
	for _, d := range durations {
		if d.raw == "" || fs.Changed(d.flag) {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, d.flag, err)
		}
		*d.dst = parsed
	}
	if fc.FrameEvery != nil && !fs.Changed("frame-every") {
		cfg.FrameEvery = *fc.FrameEvery
	}
	if fc.Marker != nil && !fs.Changed("marker") {
		cfg.Marker = *fc.Marker
	}
	if fc.Source != "" && !fs.Changed("source") {
		cfg.Source = fc.Source
	}
	if fc.Signaller != "" && !fs.Changed("signaller") {
		cfg.Signaller = fc.Signaller
	}
	if fc.Logging != nil {
		if fc.Logging.File != "" && !fs.Changed("log-file") {
			cfg.Logging.File = fc.Logging.File
		}
		if fc.Logging.Level != "" && !fs.Changed("log-level") {
			cfg.Logging.Level = fc.Logging.Level
		}
		if fc.Logging.Format != "" {
			cfg.Logging.Format = fc.Logging.Format
		}
	}
	return nil
}
