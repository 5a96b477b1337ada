// Package config holds the monitor configuration: which servers to watch,
// where their player counts come from, and the polling/retention knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a field or does not exist.
const (
	DefaultAddr            = ":5173"
	DefaultMasterURL       = "https://cdn.rage.mp/master/"
	DefaultPollInterval    = 60 * time.Second
	DefaultStatusTimeout   = 4 * time.Second
	DefaultSnapshotPath    = "./data.json"
	DefaultBulkHistoryPath = "./onlinedata.json"
	DefaultWebDir          = "./web"
)

// Chart rendering limits shared by the layout engine and its handlers.
const (
	MaxChartPoints = 180
	ChartMinWidth  = 320
	ChartMinHeight = 200
)

// Server timeouts for the HTTP API.
const (
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second
	ShutdownTimeout    = 30 * time.Second
)

// ServerConfig describes one monitored game server and its data source.
// A server either appears in the shared master list or exposes its own
// status endpoint; with neither enabled it is reported offline with zero
// players.
type ServerConfig struct {
	ID            string            `yaml:"id"`
	UseMasterList bool              `yaml:"use_master_list"`
	StatusURL     string            `yaml:"status_url"`
	StatusHeaders map[string]string `yaml:"status_headers"`
	Color         string            `yaml:"color"`
}

// Config is the full monitor configuration.
type Config struct {
	Addr            string         `yaml:"addr"`
	MasterURL       string         `yaml:"master_url"`
	PollInterval    time.Duration  `yaml:"poll_interval"`
	StatusTimeout   time.Duration  `yaml:"status_timeout"`
	RefreshHint     time.Duration  `yaml:"refresh_hint"`
	HistoryDays     int            `yaml:"history_days"`
	SnapshotPath    string         `yaml:"snapshot_path"`
	BulkHistoryPath string         `yaml:"bulk_history_path"`
	WebDir          string         `yaml:"web_dir"`
	Servers         []ServerConfig `yaml:"servers"`
}

// Load reads the YAML config at path, filling defaults first. A missing
// file is not an error: the defaults alone are a runnable configuration.
// Environment variables META_ADDR, META_SNAPSHOT and META_POLL_INTERVAL
// override the file for deploy-time tweaks.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:            DefaultAddr,
		MasterURL:       DefaultMasterURL,
		PollInterval:    DefaultPollInterval,
		StatusTimeout:   DefaultStatusTimeout,
		SnapshotPath:    DefaultSnapshotPath,
		BulkHistoryPath: DefaultBulkHistoryPath,
		WebDir:          DefaultWebDir,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("META_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("META_SNAPSHOT"); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("META_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.StatusTimeout <= 0 {
		return fmt.Errorf("status_timeout must be positive, got %v", c.StatusTimeout)
	}
	if c.HistoryDays < 0 {
		return fmt.Errorf("history_days must not be negative, got %d", c.HistoryDays)
	}
	if c.RefreshHint < 0 {
		return fmt.Errorf("refresh_hint must not be negative, got %v", c.RefreshHint)
	}
	seen := make(map[string]bool, len(c.Servers))
	for i, s := range c.Servers {
		if s.ID == "" {
			return fmt.Errorf("servers[%d]: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("servers[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// ServerIDs returns the configured ids in declaration order.
func (c *Config) ServerIDs() []string {
	ids := make([]string, 0, len(c.Servers))
	for _, s := range c.Servers {
		ids = append(ids, s.ID)
	}
	return ids
}

// DashboardRefresh is how often the dashboard should re-poll the API:
// the configured hint, or the poll interval when no hint is set.
func (c *Config) DashboardRefresh() time.Duration {
	if c.RefreshHint > 0 {
		return c.RefreshHint
	}
	return c.PollInterval
}

// RetentionWindow converts history_days to a duration; zero means keep
// samples forever.
func (c *Config) RetentionWindow() time.Duration {
	if c.HistoryDays <= 0 {
		return 0
	}
	return time.Duration(c.HistoryDays) * 24 * time.Hour
}

// LegendColors maps configured server ids to their declared chart colors.
func (c *Config) LegendColors() map[string]string {
	colors := make(map[string]string)
	for _, s := range c.Servers {
		if s.Color != "" {
			colors[s.ID] = s.Color
		}
	}
	return colors
}
