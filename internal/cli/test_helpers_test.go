package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/activity"
	"github.com/runnerr0/haven/internal/config"
	"github.com/runnerr0/haven/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testBase returns a base wired to a fresh in-memory store, default config
// in UTC and a no-op logger, so Execute never touches the user's files.
func testBase(t *testing.T) base {
	t.Helper()
	store, db, err := storage.Open(context.Background(), storage.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})

	cfg := config.DefaultConfig()
	cfg.Panel.Timezone = "UTC"
	// Nothing listens here, so the daemon check fails fast.
	cfg.Daemon.Port = 1

	return base{
		globals: &GlobalFlags{},
		version: "test",
		store:   store,
		cfg:     cfg,
		log:     zap.NewNop(),
	}
}

// seedActivity records two downloads and two visits relative to now:
//
//	dl-report  report.pdf   completed  1h ago
//	dl-movie   movie.mp4    paused     2h ago
//	visit-go   go.dev       visit      3h ago
//	visit-old  example.com  visit      3d ago
func seedActivity(t *testing.T, store *storage.SQLiteStore, now time.Time) {
	t.Helper()
	ctx := context.Background()

	downloads := []*activity.RawDownload{
		{
			ID:         "dl-report",
			TargetPath: "/home/u/Downloads/report.pdf",
			SourceURL:  "https://example.com/report.pdf",
			Succeeded:  true,
			TotalBytes: 2048,
			TargetSize: 2048,
			StartTime:  now.Add(-61 * time.Minute),
			EndTime:    now.Add(-time.Hour),
		},
		{
			ID:               "dl-movie",
			TargetPath:       "/home/u/Downloads/movie.mp4",
			SourceURL:        "https://cdn.example.com/movie.mp4",
			Stopped:          true,
			HasPartialData:   true,
			BytesTransferred: 512,
			TotalBytes:       1024,
			StartTime:        now.Add(-2 * time.Hour),
		},
	}
	for _, d := range downloads {
		require.NoError(t, store.AddDownload(ctx, d))
	}

	visits := []*activity.RawVisit{
		{ID: "visit-go", URI: "https://go.dev/doc/", Title: "Documentation", VisitTime: now.Add(-3 * time.Hour)},
		{ID: "visit-old", URI: "https://example.com/post", Title: "Old post", VisitTime: now.Add(-72 * time.Hour)},
	}
	for _, v := range visits {
		require.NoError(t, store.AddVisit(ctx, v))
	}
}

// parseOnly parses args without executing the selected command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands) {
	t.Helper()
	p, globals, cmds := buildParser("test")
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := p.ParseArgs(args)
	require.NoError(t, err)
	return globals, cmds
}
