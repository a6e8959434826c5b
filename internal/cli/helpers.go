package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/config"
	"github.com/runnerr0/haven/internal/logging"
	"github.com/runnerr0/haven/internal/panel"
	"github.com/runnerr0/haven/internal/storage"
)

// base is embedded by every subcommand. The store, cfg, log, clock and
// stdin fields are injectable for testing; nil means resolve from flags
// and config.
type base struct {
	globals *GlobalFlags
	version string

	store *storage.SQLiteStore
	cfg   *config.Config
	log   *zap.Logger
	clock func() time.Time
	stdin io.Reader
}

// setup resolves config, logger and store for a command invocation. The
// returned cleanup releases only what setup itself opened and must be
// called even when err is non-nil.
func (b *base) setup(ctx context.Context) (func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	if b.cfg == nil {
		cfg, err := loadConfig(b.globals)
		if err != nil {
			return cleanup, err
		}
		b.cfg = cfg
	}

	if b.log == nil {
		log, closeLog, err := logging.New(b.cfg.Logging, b.verbose(), os.Stderr)
		if err != nil {
			return cleanup, err
		}
		b.log = log
		closers = append(closers, func() error {
			_ = log.Sync()
			return closeLog()
		})
	}

	if b.store == nil {
		var path string
		if b.globals != nil && b.globals.DBPath != "" {
			path = b.globals.DBPath
		} else {
			p, err := b.cfg.DBPath()
			if err != nil {
				return cleanup, err
			}
			path = p
		}

		store, db, err := storage.Open(ctx, path, b.log.Named("store"))
		if err != nil {
			return cleanup, err
		}
		b.store = store
		closers = append(closers, func() error {
			_ = store.Close()
			return db.Close()
		})

		if _, err := store.AddExclusions(ctx, b.cfg.Capture.Domains(), "denylist"); err != nil {
			return cleanup, fmt.Errorf("seed denylist: %w", err)
		}
	}

	return cleanup, nil
}

func (b *base) verbose() bool {
	return b.globals != nil && b.globals.Verbose
}

func (b *base) jsonOutput() bool {
	return b.globals != nil && b.globals.JSON
}

func (b *base) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now()
}

func (b *base) input() io.Reader {
	if b.stdin != nil {
		return b.stdin
	}
	return os.Stdin
}

// readLine prints prompt and returns the next trimmed input line.
func (b *base) readLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(b.input()).ReadString('\n')
	return strings.TrimSpace(line)
}

// loadConfig loads --config when given, otherwise the default config file,
// creating it on first run.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		return config.LoadOrCreateAt(path)
	}
	return config.LoadOrCreate()
}

// panelOptions maps the panel config section onto engine options.
func panelOptions(cfg *config.Config, clock func() time.Time) (panel.Options, error) {
	weekStart, err := config.ParseWeekday(cfg.Panel.WeekStart)
	if err != nil {
		return panel.Options{}, err
	}
	loc, err := cfg.Panel.Location()
	if err != nil {
		return panel.Options{}, err
	}
	return panel.Options{
		RecentWindow: cfg.Panel.RecentWindow(),
		HistoryRange: cfg.Panel.HistoryRange(),
		SessionGap:   cfg.Panel.SessionGap(),
		WeekStart:    weekStart,
		Location:     loc,
		Clock:        clock,
	}, nil
}

// newEngine builds a panel engine over the command's store.
func (b *base) newEngine() (*panel.Engine, error) {
	opts, err := panelOptions(b.cfg, b.now)
	if err != nil {
		return nil, err
	}
	return panel.New(b.store, opts, b.log.Named("panel")), nil
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
