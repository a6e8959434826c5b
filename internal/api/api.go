// Package api exposes a panel engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/activity"
	"github.com/runnerr0/haven/internal/panel"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Ingester records new activity in the backing store.
type Ingester interface {
	AddDownload(ctx context.Context, d *activity.RawDownload) error
	AddVisit(ctx context.Context, v *activity.RawVisit) error
}

// Deps are the collaborators of the HTTP handler. Token may be empty to
// disable authentication.
type Deps struct {
	Engine *panel.Engine
	Store  Ingester
	Token  string
	Log    *zap.Logger
}

// server serializes every engine call; the engine does no locking.
type server struct {
	Deps
	mu sync.Mutex
}

// NewHandler returns the router for the panel API.
func NewHandler(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	s := &server{Deps: deps}

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Log))
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/view", handleGetView(s))
		r.Patch("/state", handlePatchState(s))
		r.Post("/reload", handleReload(s))
		r.Delete("/records/{id}", handleDeleteRecord(s))
		r.Post("/visits", handleAddVisit(s))
		r.Post("/downloads", handleAddDownload(s))
	})

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
