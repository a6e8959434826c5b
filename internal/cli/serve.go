package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/api"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := c.setup(ctx)
	defer cleanup()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", c.addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.addr(), err)
	}
	return c.serve(ctx, ln)
}

// addr applies --host and --port over the daemon config.
func (c *ServeCommand) addr() string {
	host, port := c.cfg.Daemon.Host, c.cfg.Daemon.Port
	if c.Host != "" {
		host = c.Host
	}
	if c.Port != 0 {
		port = c.Port
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// serve loads the panel and runs the API on ln until ctx is canceled.
func (c *ServeCommand) serve(ctx context.Context, ln net.Listener) error {
	engine, err := c.newEngine()
	if err != nil {
		ln.Close()
		return err
	}
	// A failed initial load leaves the panel in its error state; clients
	// can retry with POST /reload.
	if err := engine.Load(ctx); err != nil {
		c.log.Warn("initial load failed", zap.Error(err))
	}

	if c.cfg.Daemon.AuthToken == "" {
		c.log.Warn("daemon auth_token is empty; API is unauthenticated")
	}

	h := api.NewHandler(api.Deps{
		Engine: engine,
		Store:  c.store,
		Token:  c.cfg.Daemon.AuthToken,
		Log:    c.log.Named("api"),
	})
	return api.Serve(ctx, ln, h, c.log)
}
