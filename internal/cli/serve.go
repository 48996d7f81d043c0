package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reconlayout/pkg/observability"
	"github.com/matzehuels/reconlayout/pkg/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout HTTP API",
		Long: `Serve the layout HTTP API.

Routes:
  GET  /healthz
  POST /v1/layouts                          lay out and render a scenario
  GET  /v1/layouts                          list recent runs (?limit=N)
  GET  /v1/layouts/{id}                     fetch one run
  GET  /v1/layouts/{id}/artifacts/{format}  download a rendered output

The [server], [store] and [cache] tables of the config file select the
listen address, the run store (memory or mongo) and the cache backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg := c.config.Server
	if addr != "" {
		cfg.Addr = addr
	}

	store, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			c.Logger.Warn("close store", "err", err)
		}
	}()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	observability.SetHTTPHooks(observability.NewLogHooks(logger))

	logger.Info("starting server",
		"cache", c.config.Cache.Backend,
		"store", c.config.Store.Backend)
	return server.New(cfg, runner, store, logger).ListenAndServe(ctx)
}

func (c *CLI) newStore(ctx context.Context) (server.Store, error) {
	sc := c.config.Store
	if sc.Backend == storeMongo {
		return server.NewMongoStore(ctx, sc.MongoURI, sc.Database, sc.Collection)
	}
	return server.NewMemoryStore(), nil
}
