// Package panel turns a snapshot of activity records into the filtered,
// grouped view model shown by the activity panel, and owns the filter state
// that drives it.
package panel

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/runnerr0/haven/internal/activity"
)

// ViewMode selects which time window the panel shows.
type ViewMode string

const (
	ViewRecent  ViewMode = "recent"
	ViewHistory ViewMode = "history"
)

// StatusFilter restricts records by status. StatusAll disables it.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = StatusFilter(activity.StatusCompleted)
	StatusPaused    StatusFilter = StatusFilter(activity.StatusPaused)
	StatusFailed    StatusFilter = StatusFilter(activity.StatusFailed)
)

// CategoryFilter restricts records by category. CategoryAll disables it.
type CategoryFilter string

const (
	CategoryAll       CategoryFilter = "all"
	CategoryDocuments CategoryFilter = CategoryFilter(activity.CategoryDocuments)
	CategoryImages    CategoryFilter = CategoryFilter(activity.CategoryImages)
	CategoryMedia     CategoryFilter = CategoryFilter(activity.CategoryMedia)
)

// FilterState is the complete set of user-controlled filters.
type FilterState struct {
	SearchTerm string         `json:"search"`
	Status     StatusFilter   `json:"status"`
	Category   CategoryFilter `json:"category"`
	View       ViewMode       `json:"view"`
}

// DefaultFilterState is the state a freshly opened panel starts in.
func DefaultFilterState() FilterState {
	return FilterState{
		Status:   StatusAll,
		Category: CategoryAll,
		View:     ViewRecent,
	}
}

// ParseViewMode validates a view mode name.
func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewRecent, ViewHistory:
		return v, nil
	}
	return "", fmt.Errorf("invalid view mode %q (use recent or history)", s)
}

// ParseStatusFilter validates a status filter name.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch v := StatusFilter(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusAll, StatusCompleted, StatusPaused, StatusFailed:
		return v, nil
	}
	return "", fmt.Errorf("invalid status filter %q (use all, completed, paused or failed)", s)
}

// ParseCategoryFilter validates a category filter name.
func ParseCategoryFilter(s string) (CategoryFilter, error) {
	switch v := CategoryFilter(strings.ToLower(strings.TrimSpace(s))); v {
	case CategoryAll, CategoryDocuments, CategoryImages, CategoryMedia:
		return v, nil
	}
	return "", fmt.Errorf("invalid category filter %q (use all, documents, images or media)", s)
}

// Apply returns the records matching every active predicate in state,
// newest first. History visits always belong to the history view; every
// other record belongs to the recent view at or after cutoff and to the
// history view before it. The input slice is not modified.
func Apply(records []activity.Record, state FilterState, cutoff time.Time) []activity.Record {
	term := strings.ToLower(state.SearchTerm)

	out := make([]activity.Record, 0, len(records))
	for _, r := range records {
		if !matches(r, state, term, cutoff) {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b activity.Record) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

func matches(r activity.Record, state FilterState, term string, cutoff time.Time) bool {
	recent := r.Kind != activity.KindHistoryVisit && !r.Timestamp.Before(cutoff)
	switch state.View {
	case ViewHistory:
		if recent {
			return false
		}
	default:
		if !recent {
			return false
		}
	}

	if state.Status != StatusAll && state.Status != "" && string(r.Status) != string(state.Status) {
		return false
	}
	if state.Category != CategoryAll && state.Category != "" && string(r.Category) != string(state.Category) {
		return false
	}

	if term != "" &&
		!strings.Contains(strings.ToLower(r.Filename), term) &&
		!strings.Contains(strings.ToLower(r.URL), term) {
		return false
	}
	return true
}
