package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/haven/config.yaml"

// Config holds all Haven configuration.
type Config struct {
	Panel     PanelConfig     `yaml:"panel" toml:"panel"`
	Retention RetentionConfig `yaml:"retention" toml:"retention"`
	Capture   CaptureConfig   `yaml:"capture" toml:"capture"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Daemon    DaemonConfig    `yaml:"daemon" toml:"daemon"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// PanelConfig tunes how the activity panel windows and groups records.
type PanelConfig struct {
	RecentWindowDays  int    `yaml:"recent_window_days" toml:"recent_window_days"`
	HistoryRangeDays  int    `yaml:"history_range_days" toml:"history_range_days"`
	SessionGapMinutes int    `yaml:"session_gap_minutes" toml:"session_gap_minutes"`
	WeekStart         string `yaml:"week_start" toml:"week_start"`
	Timezone          string `yaml:"timezone" toml:"timezone"`
}

type RetentionConfig struct {
	Days int `yaml:"days" toml:"days"`
}

type CaptureConfig struct {
	DenylistDomains []string `yaml:"denylist_domains" toml:"denylist_domains"`
}

type StorageConfig struct {
	Path       string `yaml:"path" toml:"path"`
	SQLiteFile string `yaml:"sqlite_file" toml:"sqlite_file"`
}

type DaemonConfig struct {
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port"`
	AuthToken string `yaml:"auth_token" toml:"auth_token"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Load reads a config file at path and merges it with defaults. Files
// ending in .toml are decoded as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing toml config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults in the
// format implied by the extension.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := marshal(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if strings.ToLower(filepath.Ext(path)) != ".toml" {
		return yaml.Marshal(cfg)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate reports every out-of-range or unparseable value.
func (c *Config) Validate() error {
	var errs []error
	if c.Panel.RecentWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("panel.recent_window_days must be positive, got %d", c.Panel.RecentWindowDays))
	}
	if c.Panel.HistoryRangeDays <= 0 {
		errs = append(errs, fmt.Errorf("panel.history_range_days must be positive, got %d", c.Panel.HistoryRangeDays))
	}
	if c.Panel.SessionGapMinutes <= 0 {
		errs = append(errs, fmt.Errorf("panel.session_gap_minutes must be positive, got %d", c.Panel.SessionGapMinutes))
	}
	if _, err := ParseWeekday(c.Panel.WeekStart); err != nil {
		errs = append(errs, fmt.Errorf("panel.week_start: %w", err))
	}
	if _, err := c.Panel.Location(); err != nil {
		errs = append(errs, fmt.Errorf("panel.timezone: %w", err))
	}
	if c.Retention.Days < 0 {
		errs = append(errs, fmt.Errorf("retention.days must not be negative, got %d", c.Retention.Days))
	}
	if c.Daemon.Port < 0 || c.Daemon.Port > 65535 {
		errs = append(errs, fmt.Errorf("daemon.port out of range: %d", c.Daemon.Port))
	}
	return errors.Join(errs...)
}

// DBPath returns the expanded path of the SQLite database.
func (c *Config) DBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Addr returns the daemon listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Daemon.Host, c.Daemon.Port)
}

// RecentWindow is the trailing window of the recent view.
func (p PanelConfig) RecentWindow() time.Duration {
	return time.Duration(p.RecentWindowDays) * 24 * time.Hour
}

// HistoryRange is how far back history visits are fetched.
func (p PanelConfig) HistoryRange() time.Duration {
	return time.Duration(p.HistoryRangeDays) * 24 * time.Hour
}

func (p PanelConfig) SessionGap() time.Duration {
	return time.Duration(p.SessionGapMinutes) * time.Minute
}

// Location resolves the configured timezone. "Local" and "" mean the
// system zone.
func (p PanelConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || strings.EqualFold(p.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(p.Timezone)
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
