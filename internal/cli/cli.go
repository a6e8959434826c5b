package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	List   *ListCommand
	Remove *RemoveCommand
	Add    *AddCommand
	Status *StatusCommand
	Prune  *PruneCommand
	Purge  *PurgeCommand
	Serve  *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "haven"
	parser.LongDescription = "Local download and browsing activity panel with search, filters, and day/session history."

	b := base{globals: &globals, version: version}
	cmds := &commands{
		List:   &ListCommand{base: b},
		Remove: &RemoveCommand{base: b},
		Add:    &AddCommand{base: b},
		Status: &StatusCommand{base: b},
		Prune:  &PruneCommand{base: b},
		Purge:  &PurgeCommand{base: b},
		Serve:  &ServeCommand{base: b},
	}

	parser.AddCommand("list", "Show the activity panel", "Show recent activity or the day/session history, filtered by search, status, and category.", cmds.List)
	parser.AddCommand("remove", "Remove one record", "Remove a single download or history visit from the store.", cmds.Remove)
	parser.AddCommand("add", "Manually record a visit or download", "Manually record a history visit or a completed download.", cmds.Add)
	parser.AddCommand("status", "Show store statistics", "Show database statistics, retention, recent audit entries, and daemon health.", cmds.Status)
	parser.AddCommand("prune", "Apply retention pruning", "Apply retention pruning to remove old activity.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL activity", "Delete ALL downloads and visits. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("serve", "Run the panel HTTP API", "Serve the activity panel over a local HTTP API.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the haven CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("haven %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
