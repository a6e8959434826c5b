package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/haven/internal/config"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30d", 30 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"45m", 45 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := parseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	for _, bad := range []string{"", "d", "abc", "10y", "-3d"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, "parseDuration(%q)", bad)
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "90 days", formatDurationHuman(90*24*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "30m0s", formatDurationHuman(30*time.Minute))
}

func TestPanelOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Panel.RecentWindowDays = 2
	cfg.Panel.SessionGapMinutes = 10
	cfg.Panel.WeekStart = "mon"
	cfg.Panel.Timezone = "UTC"

	opts, err := panelOptions(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, opts.RecentWindow)
	assert.Equal(t, 7*24*time.Hour, opts.HistoryRange)
	assert.Equal(t, 10*time.Minute, opts.SessionGap)
	assert.Equal(t, time.Monday, opts.WeekStart)
	assert.Equal(t, time.UTC, opts.Location)

	cfg.Panel.Timezone = "Not/AZone"
	_, err = panelOptions(cfg, nil)
	assert.Error(t, err)
}

func TestSetupFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	tomlContent := `
[capture]
denylist_domains = ["intranet.example"]

[logging]
level = "warn"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(tomlContent), 0644))

	dbPath := filepath.Join(dir, "data", "haven.db")
	b := &base{globals: &GlobalFlags{Config: cfgPath, DBPath: dbPath}}

	cleanup, err := b.setup(context.Background())
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, b.store)
	require.NotNil(t, b.log)
	assert.Equal(t, "warn", b.cfg.Logging.Level)
	assert.True(t, b.store.IsExcluded("intranet.example"))
	assert.True(t, b.store.IsExcluded("wiki.intranet.example"))
	assert.True(t, b.store.IsExcluded("1password.com"), "built-in denylist is seeded")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "--db-path overrides the configured location")
}

func TestSetupCreatesMissingConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "haven.db")

	b := &base{globals: &GlobalFlags{Config: cfgPath, DBPath: dbPath}}
	cleanup, err := b.setup(context.Background())
	require.NoError(t, err)
	cleanup()

	_, err = os.Stat(cfgPath)
	assert.NoError(t, err)
	assert.Equal(t, 90, b.cfg.Retention.Days)
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("daemon:\n  port: -1\n"), 0644))

	b := &base{globals: &GlobalFlags{Config: cfgPath}}
	cleanup, err := b.setup(context.Background())
	defer cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon.port")
	assert.Nil(t, b.store)
}
