package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	ctx := context.Background()
	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return err
	}

	window, err := c.retention()
	if err != nil {
		return err
	}
	cutoff := c.now().Add(-window)

	count, err := c.store.CountExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("count expired activity: %w", err)
	}

	if c.DryRun {
		return c.report(count, window, true)
	}

	if count == 0 {
		if c.jsonOutput() {
			return c.report(0, window, false)
		}
		fmt.Printf("No events to prune older than %s.\n", formatDurationHuman(window))
		return nil
	}

	if !c.Force {
		fmt.Printf("This will delete %d events older than %s.\n", count, formatDurationHuman(window))
		line := c.readLine("Proceed? [y/N]: ")
		if answer := strings.ToLower(line); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	pruned, err := c.store.PruneExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	c.log.Info("pruned expired activity",
		zap.Int64("deleted", pruned), zap.Time("cutoff", cutoff))
	return c.report(pruned, window, false)
}

// retention resolves --older-than, falling back to the configured
// retention period.
func (c *PruneCommand) retention() (time.Duration, error) {
	if c.OlderThan != "" {
		return parseDuration(c.OlderThan)
	}
	if c.cfg.Retention.Days <= 0 {
		return 0, fmt.Errorf("retention is disabled in config; pass --older-than")
	}
	return time.Duration(c.cfg.Retention.Days) * 24 * time.Hour, nil
}

func (c *PruneCommand) report(count int64, window time.Duration, dryRun bool) error {
	if c.jsonOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"pruned":     count,
			"dry_run":    dryRun,
			"older_than": formatDurationHuman(window),
		})
	}
	if dryRun {
		fmt.Printf("[DRY RUN] Would prune %d events older than %s.\n", count, formatDurationHuman(window))
		return nil
	}
	fmt.Printf("Pruned %d events older than %s.\n", count, formatDurationHuman(window))
	return nil
}
