package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/haven/internal/activity"
	"github.com/runnerr0/haven/internal/panel"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	ctx := context.Background()
	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return err
	}
	return c.executeWithStore(ctx)
}

// executeWithStore renders the panel from the resolved store (for testing).
func (c *ListCommand) executeWithStore(ctx context.Context) error {
	state, err := c.filterState()
	if err != nil {
		return err
	}
	if c.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	engine, err := c.newEngine()
	if err != nil {
		return err
	}
	if err := engine.Load(ctx); err != nil {
		return err
	}

	engine.SetSearchTerm(state.SearchTerm)
	engine.SetStatusFilter(state.Status)
	engine.SetCategoryFilter(state.Category)
	engine.SetViewMode(state.View)

	vm := engine.View()
	vm.Truncate(c.Limit)

	if c.jsonOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(vm)
	}

	printViewHuman(vm, c.now())
	return nil
}

func (c *ListCommand) filterState() (panel.FilterState, error) {
	state := panel.DefaultFilterState()
	state.SearchTerm = c.Search

	var err error
	if c.Status != "" {
		if state.Status, err = panel.ParseStatusFilter(c.Status); err != nil {
			return state, err
		}
	}
	if c.Category != "" {
		if state.Category, err = panel.ParseCategoryFilter(c.Category); err != nil {
			return state, err
		}
	}
	if c.View != "" {
		if state.View, err = panel.ParseViewMode(c.View); err != nil {
			return state, err
		}
	}
	return state, nil
}

func printViewHuman(vm panel.ViewModel, now time.Time) {
	fmt.Println(vm.Info)
	fmt.Printf("%d total • %d active • %d completed\n", vm.Counts.Total, vm.Counts.Active, vm.Counts.Completed)
	fmt.Println()

	if vm.Empty {
		if vm.State.SearchTerm != "" {
			fmt.Printf("No activity matching %q.\n", vm.State.SearchTerm)
		} else {
			fmt.Println("No activity.")
		}
		return
	}

	if vm.State.View == panel.ViewHistory {
		for _, day := range vm.Days {
			fmt.Println(day.Label)
			for i, s := range day.Sessions {
				fmt.Printf("  %s\n", s.Title(i))
				for _, r := range s.Records {
					fmt.Printf("    %s  %s\n", r.Timestamp.In(s.End.Location()).Format("15:04"), recordLine(r))
				}
			}
			fmt.Println()
		}
		return
	}

	for _, r := range vm.Items {
		fmt.Printf("  %-12s %s\n", activity.TimeAgo(r.Timestamp, now), recordLine(r))
	}
}

// recordLine renders one record as "[PDF] report.pdf  Completed  1.2 KiB  (id)".
func recordLine(r activity.Record) string {
	detail := r.Status.Display()
	switch {
	case r.Kind == activity.KindHistoryVisit:
		detail = r.URL
	case r.Status == activity.StatusPaused:
		detail = fmt.Sprintf("%s %.0f%% of %s", detail, r.ProgressPercent(), activity.FormatBytes(r.SizeBytes))
	case r.SizeBytes > 0:
		detail = fmt.Sprintf("%s  %s", detail, activity.FormatBytes(r.SizeBytes))
	}
	return fmt.Sprintf("[%s] %s  %s  (%s)", r.TypeLabel(), r.Filename, detail, r.ID)
}
