package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "0 B", FormatBytes(-10))
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "10 MiB", FormatBytes(10<<20))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", TimeAgo(now.Add(-2*time.Second), now))
	assert.Equal(t, "3 minutes ago", TimeAgo(now.Add(-3*time.Minute), now))
	assert.Equal(t, "2 hours ago", TimeAgo(now.Add(-2*time.Hour), now))
	assert.Equal(t, "1 day ago", TimeAgo(now.Add(-30*time.Hour), now))
}

func TestRecordProgressPercent(t *testing.T) {
	assert.Equal(t, 100.0, Record{Status: StatusCompleted}.ProgressPercent())
	assert.Equal(t, 0.0, Record{Status: StatusPaused}.ProgressPercent())
	assert.Equal(t, 50.0, Record{Status: StatusPaused, SizeBytes: 10, ProgressBytes: 5}.ProgressPercent())
	assert.Equal(t, 100.0, Record{Status: StatusFailed, SizeBytes: 10, ProgressBytes: 50}.ProgressPercent())
}

func TestStatusDisplay(t *testing.T) {
	assert.Equal(t, "Completed", StatusCompleted.Display())
	assert.Equal(t, "Failed", StatusFailed.Display())
	assert.Equal(t, "Paused", StatusPaused.Display())
	assert.Equal(t, "Unknown", StatusUnknown.Display())
}
