package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Panel: PanelConfig{
			RecentWindowDays:  7,
			HistoryRangeDays:  7,
			SessionGapMinutes: 30,
			WeekStart:         "sunday",
			Timezone:          "Local",
		},
		Retention: RetentionConfig{
			Days: 90,
		},
		Capture: CaptureConfig{
			DenylistDomains: []string{},
		},
		Storage: StorageConfig{
			Path:       "~/.config/haven",
			SQLiteFile: "haven.db",
		},
		Daemon: DaemonConfig{
			Host:      "127.0.0.1",
			Port:      8722,
			AuthToken: "",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}
