package panel

import (
	"fmt"
	"slices"
	"time"

	"github.com/runnerr0/haven/internal/activity"
)

const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
	LabelLastWeek  = "Last Week"
	LabelThisMonth = "Earlier this month"
)

// Labeler derives relative date labels from calendar days in Location.
// WeekStart controls where week-relative labels change over.
type Labeler struct {
	WeekStart time.Weekday
	Location  *time.Location
}

// Label returns the bucket label for t as seen from now.
func (l Labeler) Label(now, t time.Time) string {
	today := l.day(now)
	day := l.day(t)
	days := daysBetween(today, day)

	switch {
	case days <= 0:
		return LabelToday
	case days == 1:
		return LabelYesterday
	case days < 7:
		return day.Weekday().String()
	case days < 30:
		weeks := daysBetween(l.weekStart(today), l.weekStart(day)) / 7
		switch {
		case weeks == 1:
			return LabelLastWeek
		case weeks >= 2 && weeks <= 4:
			return fmt.Sprintf("%d Weeks Ago", weeks)
		default:
			return LabelThisMonth
		}
	case days < 365:
		return day.Month().String()
	default:
		return day.Format("January 2006")
	}
}

// day maps t to midnight UTC of its calendar date in l.Location so that
// day arithmetic is immune to DST transitions.
func (l Labeler) day(t time.Time) time.Time {
	if l.Location != nil {
		t = t.In(l.Location)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (l Labeler) weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) - int(l.WeekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

func (l Labeler) sameDay(a, b time.Time) bool {
	return l.day(a).Equal(l.day(b))
}

func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// Session is a run of consecutive records on one calendar day whose gaps
// never exceed the session gap. Start and End are the earliest and latest
// member times.
type Session struct {
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Records []activity.Record `json:"records"`
}

// Title renders the session header, numbering from 1.
func (s Session) Title(idx int) string {
	return fmt.Sprintf("Session %d • %s – %s", idx+1, s.Start.Format("15:04"), s.End.Format("15:04"))
}

// DayGroup is one date bucket of the history view.
type DayGroup struct {
	Label    string            `json:"label"`
	Newest   time.Time         `json:"newest"`
	Records  []activity.Record `json:"-"`
	Sessions []Session         `json:"sessions"`
}

// GroupByDay buckets records by relative date label. Today comes first,
// then Yesterday, then the remaining buckets by their newest member. Members
// are ordered newest first.
func GroupByDay(records []activity.Record, now time.Time, l Labeler) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)

	for _, r := range records {
		label := l.Label(now, r.Timestamp)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, DayGroup{Label: label, Newest: r.Timestamp})
		}
		g := &groups[i]
		g.Records = append(g.Records, r)
		if r.Timestamp.After(g.Newest) {
			g.Newest = r.Timestamp
		}
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Records, func(a, b activity.Record) int {
			return b.Timestamp.Compare(a.Timestamp)
		})
	}

	slices.SortStableFunc(groups, func(a, b DayGroup) int {
		if ra, rb := labelRank(a.Label), labelRank(b.Label); ra != rb {
			return ra - rb
		}
		return b.Newest.Compare(a.Newest)
	})
	return groups
}

func labelRank(label string) int {
	switch label {
	case LabelToday:
		return 0
	case LabelYesterday:
		return 1
	default:
		return 2
	}
}

// ClusterSessions splits records, which must be sorted newest first, into
// sessions. A new session starts when the gap to the next older record
// exceeds gap or the calendar day changes.
func ClusterSessions(records []activity.Record, gap time.Duration, l Labeler) []Session {
	var sessions []Session
	var current []activity.Record

	flush := func() {
		if len(current) == 0 {
			return
		}
		sessions = append(sessions, Session{
			Start:   l.local(current[len(current)-1].Timestamp),
			End:     l.local(current[0].Timestamp),
			Records: current,
		})
		current = nil
	}

	for i, r := range records {
		if i > 0 {
			prev := records[i-1]
			if prev.Timestamp.Sub(r.Timestamp) > gap || !l.sameDay(prev.Timestamp, r.Timestamp) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return sessions
}

func (l Labeler) local(t time.Time) time.Time {
	if l.Location != nil {
		return t.In(l.Location)
	}
	return t
}
