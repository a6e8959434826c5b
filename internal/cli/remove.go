package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/haven/internal/panel"
)

// Execute implements the go-flags Commander interface for RemoveCommand.
func (c *RemoveCommand) Execute(args []string) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("--id is required")
	}

	ctx := context.Background()
	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return err
	}
	return c.executeWithStore(ctx)
}

// executeWithStore removes the record through the panel engine so the
// snapshot and the store never disagree (for testing).
func (c *RemoveCommand) executeWithStore(ctx context.Context) error {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return fmt.Errorf("--id is required")
	}

	engine, err := c.newEngine()
	if err != nil {
		return err
	}
	if err := engine.Load(ctx); err != nil {
		return err
	}

	if err := engine.RemoveRecord(ctx, id); err != nil {
		if errors.Is(err, panel.ErrRecordNotFound) {
			return fmt.Errorf("no record with id %q in the current panel window", id)
		}
		return err
	}

	if c.jsonOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"id":        id,
			"status":    "deleted",
			"remaining": engine.View().Counts.Total,
		})
	}
	fmt.Printf("Removed %s\n", id)
	return nil
}
