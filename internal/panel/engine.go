package panel

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/runnerr0/haven/internal/activity"
)

// DownloadSource lists every download known to the external store.
type DownloadSource interface {
	FetchDownloads(ctx context.Context) ([]activity.RawDownload, error)
}

// HistorySource lists history visits in [start, end].
type HistorySource interface {
	FetchHistory(ctx context.Context, start, end time.Time) ([]activity.RawVisit, error)
}

// Remover deletes a record from the external store it came from.
type Remover interface {
	RemoveRecord(ctx context.Context, rec activity.Record) error
}

// Source is everything the engine needs from the outside world.
type Source interface {
	DownloadSource
	HistorySource
	Remover
}

// Engine owns the record snapshot and filter state for one open panel and
// keeps the current view model in sync with both.
//
// The engine is single-threaded: callers must not invoke mutators
// concurrently. Concurrent Load calls are coalesced.
type Engine struct {
	src        Source
	log        *zap.Logger
	opts       Options
	normalizer *activity.Normalizer
	builder    Builder
	state      *StateStore

	snapshot []activity.Record
	loadErr  error
	view     ViewModel

	loads       singleflight.Group
	subscribers []func(ViewModel)
}

// New returns an engine with an empty snapshot and the default filter
// state. Call Load to fetch records.
func New(src Source, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()

	e := &Engine{
		src:        src,
		log:        log,
		opts:       opts,
		normalizer: activity.NewNormalizer(log.Named("normalize")),
		builder:    NewBuilder(opts),
	}
	e.state = NewStateStore(DefaultFilterState(), e.recompute)
	e.view = e.ComputeViewModel(e.state.State())
	return e
}

// Load fetches downloads and history into a fresh snapshot and recomputes
// the view. A Load issued while another is in flight waits for it and
// shares its result. On failure the snapshot is emptied, the view carries
// the error and a *FetchError is returned.
func (e *Engine) Load(ctx context.Context) error {
	_, err, shared := e.loads.Do("snapshot", func() (any, error) {
		records, err := e.fetch(ctx)
		if err != nil {
			e.log.Error("snapshot fetch failed", zap.Error(err))
			e.snapshot = nil
			e.loadErr = err
			e.recompute(e.state.State())
			return nil, err
		}

		e.log.Debug("snapshot loaded", zap.Int("records", len(records)))
		e.snapshot = records
		e.loadErr = nil
		e.recompute(e.state.State())
		return nil, nil
	})
	if shared {
		e.log.Debug("load coalesced with in-flight fetch")
	}
	return err
}

func (e *Engine) fetch(ctx context.Context) ([]activity.Record, error) {
	var (
		downloads []activity.RawDownload
		visits    []activity.RawVisit
	)
	now := e.opts.Clock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.src.FetchDownloads(gctx)
		if err != nil {
			return &FetchError{Source: "downloads", Err: err}
		}
		downloads = d
		return nil
	})
	g.Go(func() error {
		v, err := e.src.FetchHistory(gctx, now.Add(-e.opts.HistoryRange), now)
		if err != nil {
			return &FetchError{Source: "history", Err: err}
		}
		visits = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := e.normalizer.Downloads(downloads)
	records = append(records, e.normalizer.Visits(visits)...)
	return records, nil
}

// RemoveRecord removes the record with id from the external store and, only
// if that succeeds, evicts it from the snapshot and recomputes the view.
func (e *Engine) RemoveRecord(ctx context.Context, id string) error {
	idx := slices.IndexFunc(e.snapshot, func(r activity.Record) bool { return r.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := e.snapshot[idx]

	if err := e.src.RemoveRecord(ctx, rec); err != nil {
		e.log.Warn("external removal rejected",
			zap.String("id", id), zap.String("kind", string(rec.Kind)), zap.Error(err))
		return &RemovalError{ID: id, Err: err}
	}

	e.snapshot = slices.Delete(slices.Clone(e.snapshot), idx, idx+1)
	e.recompute(e.state.State())
	return nil
}

// ComputeViewModel projects the current snapshot through state without
// touching the engine's own filter state.
func (e *Engine) ComputeViewModel(state FilterState) ViewModel {
	vm := e.builder.Build(e.snapshot, state, e.opts.Clock())
	if e.loadErr != nil {
		vm.Err = e.loadErr.Error()
	}
	return vm
}

// View returns the view model for the current filter state.
func (e *Engine) View() ViewModel { return e.view }

// State returns the current filter state.
func (e *Engine) State() FilterState { return e.state.State() }

// Snapshot returns a copy of the records currently held.
func (e *Engine) Snapshot() []activity.Record { return slices.Clone(e.snapshot) }

// Subscribe registers fn to receive every recomputed view model.
func (e *Engine) Subscribe(fn func(ViewModel)) {
	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) SetSearchTerm(term string) { e.state.SetSearchTerm(term) }
func (e *Engine) SetStatusFilter(status StatusFilter) { e.state.SetStatusFilter(status) }
func (e *Engine) SetCategoryFilter(cat CategoryFilter) { e.state.SetCategoryFilter(cat) }
func (e *Engine) SetViewMode(view ViewMode) { e.state.SetViewMode(view) }

func (e *Engine) recompute(state FilterState) {
	e.view = e.ComputeViewModel(state)
	for _, fn := range e.subscribers {
		fn(e.view)
	}
}
