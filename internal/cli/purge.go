package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL Haven activity.")
		fmt.Println("  - All recorded downloads")
		fmt.Println("  - All history visits")
		fmt.Println()
		fmt.Println("Exclusion rules and the audit log are kept. This action cannot be undone.")
		fmt.Println()
		if c.readLine(`Type "PURGE" to confirm: `) != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	ctx := context.Background()
	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return err
	}

	if err := c.store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	c.log.Warn("purged all activity")

	if c.jsonOutput() {
		out := map[string]any{
			"purged":  true,
			"message": "all activity deleted",
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	fmt.Println("Purged all activity. Haven is empty.")
	return nil
}
