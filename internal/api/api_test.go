package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/activity"
	"github.com/runnerr0/haven/internal/panel"
	"github.com/runnerr0/haven/internal/storage"
)

const testToken = "test-token-12345"

func setupHandler(t *testing.T, token string) (http.Handler, *storage.SQLiteStore, *panel.Engine) {
	t.Helper()
	store, db, err := storage.Open(context.Background(), storage.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.AddDownload(ctx, &activity.RawDownload{
		ID: "dl-report", TargetPath: "/dl/report.pdf", Succeeded: true, TotalBytes: 100, EndTime: now.Add(-time.Hour),
	}))
	require.NoError(t, store.AddDownload(ctx, &activity.RawDownload{
		ID: "dl-photo", TargetPath: "/dl/photo.png", Stopped: true, TotalBytes: 100, BytesTransferred: 50, StartTime: now.Add(-2 * time.Hour),
	}))

	engine := panel.New(store, panel.Options{Location: time.UTC}, nil)
	require.NoError(t, engine.Load(ctx))

	h := NewHandler(Deps{Engine: engine, Store: store, Token: token})
	return h, store, engine
}

func doRequest(h http.Handler, method, url, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) panel.ViewModel {
	t.Helper()
	var vm panel.ViewModel
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vm))
	return vm
}

func itemIDs(vm panel.ViewModel) []string {
	var ids []string
	for _, r := range vm.Items {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h, _, _ := setupHandler(t, testToken)
	rec := doRequest(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	h, _, _ := setupHandler(t, testToken)

	rec := doRequest(h, http.MethodGet, "/view", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodGet, "/view", "", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_error")

	rec = doRequest(h, http.MethodGet, "/view", "", testToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_DisabledWithoutToken(t *testing.T) {
	h, _, _ := setupHandler(t, "")
	rec := doRequest(h, http.MethodGet, "/view", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetView(t *testing.T) {
	h, _, _ := setupHandler(t, "")

	rec := doRequest(h, http.MethodGet, "/view", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	vm := decodeView(t, rec)
	assert.Equal(t, []string{"dl-report", "dl-photo"}, itemIDs(vm))
	assert.Equal(t, panel.Counts{Total: 2, Active: 1, Completed: 1}, vm.Counts)
	assert.Equal(t, "Showing recent activity", vm.Info)
}

func TestGetView_QueryDoesNotChangeState(t *testing.T) {
	h, _, engine := setupHandler(t, "")

	rec := doRequest(h, http.MethodGet, "/view?category=images&search=PHOTO", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"dl-photo"}, itemIDs(decodeView(t, rec)))

	assert.Equal(t, panel.DefaultFilterState(), engine.State())
}

func TestGetView_Limit(t *testing.T) {
	h, _, _ := setupHandler(t, "")

	vm := decodeView(t, doRequest(h, http.MethodGet, "/view?limit=1", "", ""))
	assert.Equal(t, []string{"dl-report"}, itemIDs(vm))
	assert.Equal(t, 2, vm.Matched)
}

func TestGetView_LimitAppliesToHistorySessions(t *testing.T) {
	h, store, engine := setupHandler(t, "")
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, title := range []string{"First", "Second", "Third"} {
		require.NoError(t, store.AddVisit(ctx, &activity.RawVisit{
			ID:        fmt.Sprintf("visit-%d", i),
			URI:       fmt.Sprintf("https://go.dev/page/%d", i),
			Title:     title,
			VisitTime: base.Add(-time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, engine.Load(ctx))

	vm := decodeView(t, doRequest(h, http.MethodGet, "/view?view=history&limit=2", "", ""))
	assert.Equal(t, 3, vm.Matched)
	assert.Empty(t, vm.Items)

	var got []string
	for _, d := range vm.Days {
		for _, s := range d.Sessions {
			for _, r := range s.Records {
				got = append(got, r.ID)
			}
		}
	}
	assert.Equal(t, []string{"visit-0", "visit-1"}, got)
}

func TestGetView_InvalidFilter(t *testing.T) {
	h, _, _ := setupHandler(t, "")
	rec := doRequest(h, http.MethodGet, "/view?status=bogus", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchState(t *testing.T) {
	h, _, engine := setupHandler(t, "")

	rec := doRequest(h, http.MethodPatch, "/state", `{"status":"paused","search":"photo"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	vm := decodeView(t, rec)
	assert.Equal(t, []string{"dl-photo"}, itemIDs(vm))
	assert.Equal(t, panel.StatusPaused, engine.State().Status)
	assert.Equal(t, "photo", engine.State().SearchTerm)
	assert.Equal(t, panel.CategoryAll, engine.State().Category)
}

func TestPatchState_InvalidLeavesStateUnchanged(t *testing.T) {
	h, _, engine := setupHandler(t, "")

	rec := doRequest(h, http.MethodPatch, "/state", `{"search":"x","view":"timeline"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, panel.DefaultFilterState(), engine.State())

	rec = doRequest(h, http.MethodPatch, "/state", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRecord(t *testing.T) {
	h, store, _ := setupHandler(t, "")

	rec := doRequest(h, http.MethodDelete, "/records/dl-photo", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	downloads, err := store.FetchDownloads(context.Background())
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	assert.Equal(t, "dl-report", downloads[0].ID)

	vm := decodeView(t, doRequest(h, http.MethodGet, "/view", "", ""))
	assert.Equal(t, []string{"dl-report"}, itemIDs(vm))

	rec = doRequest(h, http.MethodDelete, "/records/dl-photo", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddVisit(t *testing.T) {
	h, _, _ := setupHandler(t, "")

	body := fmt.Sprintf(`{"url":"https://go.dev/doc/effective_go","title":"Effective Go","visit_time":%q}`,
		time.Now().Add(-10*time.Minute).UTC().Format(time.RFC3339))
	rec := doRequest(h, http.MethodPost, "/visits", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp["id"])

	vm := decodeView(t, doRequest(h, http.MethodGet, "/view", "", ""))
	assert.Equal(t, []string{"dl-report", "dl-photo"}, itemIDs(vm))

	vm = decodeView(t, doRequest(h, http.MethodGet, "/view?view=history", "", ""))
	require.Len(t, vm.Days, 1)
	require.Len(t, vm.Days[0].Sessions, 1)
	got := vm.Days[0].Sessions[0].Records
	require.Len(t, got, 1)
	assert.Equal(t, resp["id"], got[0].ID)
	assert.Equal(t, "Effective Go", got[0].Filename)
	assert.Equal(t, activity.KindHistoryVisit, got[0].Kind)
}

func TestAddVisit_Excluded(t *testing.T) {
	h, _, _ := setupHandler(t, "")

	rec := doRequest(h, http.MethodPost, "/visits", `{"url":"https://chase.com/"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "excluded")
}

func TestAddVisit_RequiresURL(t *testing.T) {
	h, _, _ := setupHandler(t, "")
	rec := doRequest(h, http.MethodPost, "/visits", `{"title":"no url"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDownload(t *testing.T) {
	h, _, _ := setupHandler(t, "")

	rec := doRequest(h, http.MethodPost, "/downloads", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := fmt.Sprintf(`{"source_url":"https://example.com/song.mp3","succeeded":true,"total_bytes":42,"end_time":%q}`,
		time.Now().Add(-time.Minute).UTC().Format(time.RFC3339))
	rec = doRequest(h, http.MethodPost, "/downloads", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	vm := decodeView(t, doRequest(h, http.MethodGet, "/view?category=media", "", ""))
	require.Len(t, vm.Items, 1)
	assert.Equal(t, "song.mp3", vm.Items[0].Filename)
	assert.Equal(t, activity.StatusCompleted, vm.Items[0].Status)
}

// failingSource fails every fetch and removal.
type failingSource struct{ err error }

func (f failingSource) FetchDownloads(context.Context) ([]activity.RawDownload, error) {
	return nil, f.err
}

func (f failingSource) FetchHistory(context.Context, time.Time, time.Time) ([]activity.RawVisit, error) {
	return nil, f.err
}

func (f failingSource) RemoveRecord(context.Context, activity.Record) error { return f.err }

func TestReload_FetchFailure(t *testing.T) {
	engine := panel.New(failingSource{err: errors.New("database is locked")}, panel.Options{}, nil)
	h := NewHandler(Deps{Engine: engine, Log: zap.NewNop()})

	rec := doRequest(h, http.MethodPost, "/reload", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")

	vm := decodeView(t, doRequest(h, http.MethodGet, "/view", "", ""))
	assert.True(t, vm.Empty)
	assert.Contains(t, vm.Err, "database is locked")
}

func TestReload(t *testing.T) {
	h, store, _ := setupHandler(t, "")
	require.NoError(t, store.AddDownload(context.Background(), &activity.RawDownload{
		ID: "late", TargetPath: "/dl/late.zip", EndTime: time.Now(),
	}))

	rec := doRequest(h, http.MethodPost, "/reload", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeView(t, rec).Counts.Total)
}

func TestParseIntParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/view?limit=500&bad=x&neg=-1", nil)
	assert.Equal(t, 100, parseIntParam(r, "limit", 10, 100))
	assert.Equal(t, 10, parseIntParam(r, "bad", 10, 100))
	assert.Equal(t, 10, parseIntParam(r, "neg", 10, 100))
	assert.Equal(t, 10, parseIntParam(r, "missing", 10, 100))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h, _, _ := setupHandler(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, h, zap.NewNop()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
