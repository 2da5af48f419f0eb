package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes decode, merge, export, download-svg and the template
catalog over HTTP. Every response is {"success", "message", "data"}.`,
		Example: `  mockup serve --addr :9000
  MOCKUP_REDIS_ADDR=localhost:6379 mockup serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the remote asset cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	store, err := newTemplateStore(ctx, cfg, runner.Cache)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	} else {
		c.Logger.Warn("no template catalog configured")
	}

	c.Logger.Info("serving", "addr", cfg.Server.Addr, "cache", cfg.Cache.Backend,
		"output", cfg.OutputDir, "export", cfg.ExportDir)
	return server.New(runner, store, c.Logger).ListenAndServe(ctx, cfg.Server.Addr)
}
