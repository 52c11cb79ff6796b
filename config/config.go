/*
Package config loads the server's deployment configuration from YAML. This is
process-level configuration (listen address, storage backend, intervals);
the work schedule itself lives in the settings blob owned by the storage
layer and is editable at runtime through the API.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"-"`
	ShutdownRaw     string        `yaml:"shutdown_timeout"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	// Backend is "jsonfile" or "sqlite".
	Backend string `yaml:"backend"`
	// Dir is the data directory for the jsonfile backend.
	Dir string `yaml:"dir"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path"`
}

// MonitorConfig tunes the background polls.
type MonitorConfig struct {
	AbsenceInterval time.Duration `yaml:"-"`
	SweepInterval   time.Duration `yaml:"-"`
	AbsenceRaw      string        `yaml:"absence_interval"`
	SweepRaw        string        `yaml:"sweep_interval"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "jsonfile",
			Dir:     "data",
			Path:    "attendance.db",
		},
		Monitor: MonitorConfig{
			AbsenceInterval: 5 * time.Minute,
			SweepInterval:   1 * time.Hour,
		},
	}
}

// Load reads the configuration file at path. A missing file is not an error;
// defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}

	var err error
	if c.Server.ShutdownTimeout, err = parseDurationOr(c.Server.ShutdownRaw, 10*time.Second); err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}

	switch c.Storage.Backend {
	case "", "jsonfile":
		c.Storage.Backend = "jsonfile"
		if c.Storage.Dir == "" {
			c.Storage.Dir = "data"
		}
	case "sqlite":
		if c.Storage.Path == "" {
			c.Storage.Path = "attendance.db"
		}
	default:
		return fmt.Errorf("config: storage.backend must be jsonfile or sqlite, got %q", c.Storage.Backend)
	}

	if c.Monitor.AbsenceInterval, err = parseDurationOr(c.Monitor.AbsenceRaw, 5*time.Minute); err != nil {
		return fmt.Errorf("config: monitor.absence_interval: %w", err)
	}
	if c.Monitor.SweepInterval, err = parseDurationOr(c.Monitor.SweepRaw, 1*time.Hour); err != nil {
		return fmt.Errorf("config: monitor.sweep_interval: %w", err)
	}
	return nil
}

func parseDurationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
