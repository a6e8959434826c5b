package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/activity"
	"github.com/runnerr0/haven/internal/panel"
	"github.com/runnerr0/haven/internal/storage"
)

// StatePatch carries the filter fields to change; nil fields are kept.
type StatePatch struct {
	Search   *string `json:"search"`
	Status   *string `json:"status"`
	Category *string `json:"category"`
	View     *string `json:"view"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetView returns the current view model. Filter query parameters
// project the snapshot without changing the stored filter state.
func handleGetView(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		patch := StatePatch{}
		for key, dst := range map[string]**string{
			"search": &patch.Search, "status": &patch.Status,
			"category": &patch.Category, "view": &patch.View,
		} {
			if q.Has(key) {
				v := q.Get(key)
				*dst = &v
			}
		}

		s.mu.Lock()
		state, err := applyPatch(s.Engine.State(), patch)
		if err != nil {
			s.mu.Unlock()
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		vm := s.Engine.ComputeViewModel(state)
		s.mu.Unlock()

		vm.Truncate(parseIntParam(r, "limit", 0, 0))
		writeJSON(w, http.StatusOK, vm)
	}
}

func handlePatchState(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var patch StatePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		// Validate everything before touching the engine so a bad field
		// leaves the state unchanged.
		next, err := applyPatch(s.Engine.State(), patch)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		if patch.Search != nil {
			s.Engine.SetSearchTerm(next.SearchTerm)
		}
		if patch.Status != nil {
			s.Engine.SetStatusFilter(next.Status)
		}
		if patch.Category != nil {
			s.Engine.SetCategoryFilter(next.Category)
		}
		if patch.View != nil {
			s.Engine.SetViewMode(next.View)
		}

		writeJSON(w, http.StatusOK, s.Engine.View())
	}
}

func applyPatch(state panel.FilterState, p StatePatch) (panel.FilterState, error) {
	if p.Search != nil {
		state.SearchTerm = *p.Search
	}
	if p.Status != nil {
		v, err := panel.ParseStatusFilter(*p.Status)
		if err != nil {
			return state, err
		}
		state.Status = v
	}
	if p.Category != nil {
		v, err := panel.ParseCategoryFilter(*p.Category)
		if err != nil {
			return state, err
		}
		state.Category = v
	}
	if p.View != nil {
		v, err := panel.ParseViewMode(*p.View)
		if err != nil {
			return state, err
		}
		state.View = v
	}
	return state, nil
}

func handleReload(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.Engine.Load(r.Context()); err != nil {
			var fetchErr *panel.FetchError
			if errors.As(err, &fetchErr) {
				httpError(w, http.StatusBadGateway, "upstream_error", "failed to load activity: %v", err)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load activity: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, s.Engine.View())
	}
}

func handleDeleteRecord(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s.mu.Lock()
		err := s.Engine.RemoveRecord(r.Context(), id)
		s.mu.Unlock()

		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		case errors.Is(err, panel.ErrRecordNotFound), errors.Is(err, storage.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found", "record not found")
		default:
			s.Log.Warn("record removal failed", zap.String("id", id), zap.Error(err))
			httpError(w, http.StatusBadGateway, "upstream_error", "failed to remove record: %v", err)
		}
	}
}

func handleAddVisit(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var v activity.RawVisit
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if v.URI == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "url is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.Store.AddVisit(r.Context(), &v); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to record visit: %v", err)
			return
		}
		if v.ID == "" {
			writeJSON(w, http.StatusOK, map[string]string{"status": "excluded"})
			return
		}
		s.reload(r)
		writeJSON(w, http.StatusCreated, map[string]string{"id": v.ID, "status": "recorded"})
	}
}

func handleAddDownload(s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var d activity.RawDownload
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if d.TargetPath == "" && d.SourceURL == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one of target_path or source_url is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.Store.AddDownload(r.Context(), &d); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to record download: %v", err)
			return
		}
		s.reload(r)
		writeJSON(w, http.StatusCreated, map[string]string{"id": d.ID, "status": "recorded"})
	}
}

// reload refreshes the snapshot after an ingest. The write already
// succeeded, so a failed reload is only logged. Callers hold s.mu.
func (s *server) reload(r *http.Request) {
	if err := s.Engine.Load(r.Context()); err != nil {
		s.Log.Warn("reload after ingest failed", zap.Error(err))
	}
}
