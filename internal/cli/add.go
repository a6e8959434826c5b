package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/runnerr0/haven/internal/activity"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}

	ctx := context.Background()
	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	return c.executeWithStore(ctx)
}

// executeWithStore runs the add logic against the resolved store (used by tests).
func (c *AddCommand) executeWithStore(ctx context.Context) error {
	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}
	if c.Size < 0 {
		return fmt.Errorf("--size must not be negative")
	}
	if !c.Download && (c.Path != "" || c.Size != 0) {
		return fmt.Errorf("--path and --size require --download")
	}

	now := c.now()

	if c.Download {
		d := &activity.RawDownload{
			TargetPath: c.Path,
			TargetSize: c.Size,
			SourceURL:  c.URL,
			Succeeded:  true,
			TotalBytes: c.Size,
			StartTime:  now,
			EndTime:    now,
		}
		if err := c.store.AddDownload(ctx, d); err != nil {
			return fmt.Errorf("storing download: %w", err)
		}
		return c.printAdded(d.ID, "download", now)
	}

	// The store silently skips excluded domains, but the CLI user gets an
	// explicit error.
	domain := parsed.Hostname()
	if c.store.IsExcluded(domain) {
		return fmt.Errorf("domain %q is excluded by exclusion rules", domain)
	}

	v := &activity.RawVisit{URI: c.URL, Title: c.Title, VisitTime: now}
	if err := c.store.AddVisit(ctx, v); err != nil {
		return fmt.Errorf("storing visit: %w", err)
	}
	return c.printAdded(v.ID, "visit", now)
}

func (c *AddCommand) printAdded(id, kind string, ts time.Time) error {
	if c.jsonOutput() {
		out := map[string]any{
			"id":    id,
			"kind":  kind,
			"url":   c.URL,
			"title": c.Title,
			"ts":    ts.Format(time.RFC3339),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Added %s %s (%s)\n", kind, id, ts.Format(time.RFC3339))
	fmt.Printf("  URL: %s\n", c.URL)
	if c.Title != "" {
		fmt.Printf("  Title: %s\n", c.Title)
	}
	if c.Path != "" {
		fmt.Printf("  Path: %s\n", c.Path)
	}
	return nil
}
