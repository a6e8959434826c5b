package panel

import (
	"time"

	"github.com/runnerr0/haven/internal/activity"
)

// Counts are panel-wide totals over the unfiltered snapshot.
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// ViewModel is the render-ready projection of a snapshot under a filter
// state. Items is populated in the recent view, Days in the history view.
type ViewModel struct {
	State   FilterState       `json:"state"`
	Counts  Counts            `json:"counts"`
	Info    string            `json:"info"`
	Matched int               `json:"matched"`
	Empty   bool              `json:"empty"`
	Items   []activity.Record `json:"items,omitempty"`
	Days    []DayGroup        `json:"days,omitempty"`
	Err     string            `json:"error,omitempty"`
}

// Builder computes view models. It holds no mutable state, so identical
// inputs always produce identical output.
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder using opts, with zero fields defaulted.
func NewBuilder(opts Options) Builder {
	return Builder{opts: opts.withDefaults()}
}

// Build projects snapshot through state as of now.
func (b Builder) Build(snapshot []activity.Record, state FilterState, now time.Time) ViewModel {
	filtered := Apply(snapshot, state, now.Add(-b.opts.RecentWindow))

	vm := ViewModel{
		State:   state,
		Counts:  countRecords(snapshot),
		Matched: len(filtered),
		Empty:   len(filtered) == 0,
	}

	if state.View == ViewHistory {
		vm.Info = "Showing activity history"
		l := b.opts.labeler()
		days := GroupByDay(filtered, now, l)
		for i := range days {
			days[i].Sessions = ClusterSessions(days[i].Records, b.opts.SessionGap, l)
		}
		vm.Days = days
		return vm
	}

	vm.Info = "Showing recent activity"
	vm.Items = filtered
	return vm
}

// Truncate keeps at most n records, newest first. In the history view the
// limit runs across days and sessions in display order; a cut session is
// narrowed to the records it keeps and emptied groups are dropped. Matched
// still reports the untruncated count. n <= 0 leaves vm unchanged.
func (vm *ViewModel) Truncate(n int) {
	if n <= 0 {
		return
	}
	if len(vm.Items) > n {
		vm.Items = vm.Items[:n]
	}
	if vm.Days == nil {
		return
	}

	remaining := n
	days := make([]DayGroup, 0, len(vm.Days))
	for _, d := range vm.Days {
		if remaining == 0 {
			break
		}
		kept := 0
		sessions := make([]Session, 0, len(d.Sessions))
		for _, s := range d.Sessions {
			if remaining == 0 {
				break
			}
			if len(s.Records) > remaining {
				s.Records = s.Records[:remaining]
				s.Start = s.Records[remaining-1].Timestamp.In(s.End.Location())
			}
			remaining -= len(s.Records)
			kept += len(s.Records)
			sessions = append(sessions, s)
		}
		d.Sessions = sessions
		if len(d.Records) > kept {
			d.Records = d.Records[:kept]
		}
		days = append(days, d)
	}
	vm.Days = days
}

func countRecords(records []activity.Record) Counts {
	c := Counts{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case activity.StatusPaused:
			c.Active++
		case activity.StatusCompleted:
			c.Completed++
		}
	}
	return c
}
