package activity

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count in binary units, e.g. "1.5 KiB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// TimeAgo renders t relative to now, e.g. "3 minutes ago".
func TimeAgo(t, now time.Time) string {
	if d := now.Sub(t); d >= 0 && d < 5*time.Second {
		return "Just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
