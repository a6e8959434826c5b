package panel

import "time"

// Options tunes the windows and clustering used by the panel.
type Options struct {
	// RecentWindow separates the recent view from the history view.
	RecentWindow time.Duration
	// HistoryRange is how far back history visits are fetched.
	HistoryRange time.Duration
	// SessionGap is the largest gap allowed inside one session.
	SessionGap time.Duration
	WeekStart  time.Weekday
	Location   *time.Location
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions matches the browser panel: a 7-day recent window and
// history range, 30-minute sessions and Sunday-aligned weeks.
func DefaultOptions() Options {
	return Options{
		RecentWindow: 7 * 24 * time.Hour,
		HistoryRange: 7 * 24 * time.Hour,
		SessionGap:   30 * time.Minute,
		WeekStart:    time.Sunday,
		Location:     time.Local,
		Clock:        time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RecentWindow <= 0 {
		o.RecentWindow = d.RecentWindow
	}
	if o.HistoryRange <= 0 {
		o.HistoryRange = d.HistoryRange
	}
	if o.SessionGap <= 0 {
		o.SessionGap = d.SessionGap
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

func (o Options) labeler() Labeler {
	return Labeler{WeekStart: o.WeekStart, Location: o.Location}
}
