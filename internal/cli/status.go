package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/haven/internal/storage"
)

const statusAuditEntries = 5

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string                `json:"version"`
	SchemaVersion     int                   `json:"schema_version"`
	DatabaseSizeBytes int64                 `json:"database_size_bytes"`
	TotalDownloads    int64                 `json:"total_downloads"`
	TotalVisits       int64                 `json:"total_visits"`
	Exclusions        int64                 `json:"exclusions"`
	OldestActivity    string                `json:"oldest_activity,omitempty"`
	NewestActivity    string                `json:"newest_activity,omitempty"`
	RetentionDays     int                   `json:"retention_days"`
	TopDomains        []storage.DomainCount `json:"top_domains"`
	RecentAudit       []storage.AuditEntry  `json:"recent_audit"`
	DaemonAddr        string                `json:"daemon_addr"`
	DaemonRunning     bool                  `json:"daemon_running"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	ctx := context.Background()
	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return err
	}
	return c.executeWithStore(ctx)
}

// executeWithStore runs status against the resolved store (for testing).
func (c *StatusCommand) executeWithStore(ctx context.Context) error {
	stats, err := c.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	schema, err := c.store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	audit, err := c.store.RecentAudit(ctx, statusAuditEntries)
	if err != nil {
		return fmt.Errorf("recent audit: %w", err)
	}

	out := statusJSON{
		Version:           c.version,
		SchemaVersion:     schema,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
		TotalDownloads:    stats.TotalDownloads,
		TotalVisits:       stats.TotalVisits,
		Exclusions:        stats.Exclusions,
		RetentionDays:     c.cfg.Retention.Days,
		TopDomains:        stats.TopDomains,
		RecentAudit:       audit,
		DaemonAddr:        c.cfg.Addr(),
		DaemonRunning:     checkDaemon(c.cfg.Addr()),
	}
	if !stats.OldestActivity.IsZero() {
		out.OldestActivity = stats.OldestActivity.UTC().Format(time.RFC3339)
		out.NewestActivity = stats.NewestActivity.UTC().Format(time.RFC3339)
	}
	if out.TopDomains == nil {
		out.TopDomains = []storage.DomainCount{}
	}
	if out.RecentAudit == nil {
		out.RecentAudit = []storage.AuditEntry{}
	}

	if c.jsonOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	c.printStatusHuman(stats, out)
	return nil
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, out statusJSON) {
	fmt.Println("Haven Status")
	fmt.Println("============")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Schema:        v%d\n", out.SchemaVersion)
	fmt.Printf("Database:      %s\n", humanize.IBytes(uint64(out.DatabaseSizeBytes)))
	fmt.Printf("Downloads:     %s\n", humanize.Comma(out.TotalDownloads))
	fmt.Printf("Visits:        %s\n", humanize.Comma(out.TotalVisits))
	fmt.Printf("Exclusions:    %s\n", humanize.Comma(out.Exclusions))

	if !stats.OldestActivity.IsZero() {
		fmt.Printf("Oldest:        %s (%s)\n", stats.OldestActivity.Local().Format("2006-01-02"), humanize.Time(stats.OldestActivity))
		fmt.Printf("Newest:        %s (%s)\n", stats.NewestActivity.Local().Format("2006-01-02"), humanize.Time(stats.NewestActivity))
	}

	if out.RetentionDays > 0 {
		fmt.Printf("Retention:     %d days\n", out.RetentionDays)
	} else {
		fmt.Println("Retention:     disabled")
	}

	if len(out.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range out.TopDomains {
			fmt.Printf("  %-20s %s\n", d.Domain, humanize.Comma(d.Count))
		}
	}

	if len(out.RecentAudit) > 0 {
		fmt.Println()
		fmt.Println("Recent Changes:")
		for _, e := range out.RecentAudit {
			fmt.Printf("  %-8s %-30s %s\n", e.Action, e.Detail, humanize.Time(e.Time))
		}
	}

	fmt.Println()
	if out.DaemonRunning {
		fmt.Printf("Daemon:        running (%s)\n", out.DaemonAddr)
	} else {
		fmt.Printf("Daemon:        not running (%s)\n", out.DaemonAddr)
	}
}

// checkDaemon attempts an HTTP GET to the daemon health endpoint.
// Returns true if the daemon responds within 1 second.
func checkDaemon(addr string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + addr + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
