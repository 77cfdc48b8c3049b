package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jarscope/pkg/config"
	"github.com/matzehuels/jarscope/pkg/inventory"
	"github.com/matzehuels/jarscope/pkg/observability/prom"
	"github.com/matzehuels/jarscope/pkg/server"
)

type serveOpts struct {
	analysisFlags
	addr     string
	watch    bool
	redisURL string
	metrics  bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <inventory>",
		Short: "Serve the analysis report over HTTP",
		Long: `Analyze an archive inventory and serve the report as HTML, JSON and a
dependency graph. With --watch the inventory, its signature and the
configuration file are watched and the report is rebuilt when they change.
Cache and listener settings apply on restart.

Endpoints:
  /                                  HTML report
  /graph.svg, /graph.dot             dependency graph
  /api/v1/report                     full report (JSON)
  /api/v1/archives/{name}            one archive with its findings
  /api/v1/conflicts                  version conflicts
  /metrics                           Prometheus metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rebuild the report when inputs change")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "share rendered artifacts through redis")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "expose Prometheus metrics at /metrics")
	opts.analysisFlags.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cmd *cobra.Command, input string, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.redisURL != "" {
		cfg.Cache.Backend = config.BackendRedis
		cfg.Cache.RedisURL = opts.redisURL
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	watch := opts.watch || cfg.Server.Watch

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	scfg := server.Config{
		Runner:  runner,
		Options: opts.options(input, cfg),
		Title:   filepath.Base(input),
		Logger:  logger,
	}
	if opts.metrics {
		m := prom.New()
		m.Install()
		scfg.Metrics = m.Handler()
	}
	srv, err := server.New(scfg)
	if err != nil {
		return err
	}

	p := newProgress(logger)
	if err := srv.Reload(ctx); err != nil {
		return err
	}
	p.done("analyzed inventory",
		"archives", srv.Current().Stats.Archives,
		"severity", srv.Current().Report.Severity)

	printSuccess("Serving %s", input)
	printKeyValue("Address", cfg.Server.Addr)
	printStats(srv.Current().Stats, srv.Current().Report.Severity, false)
	if watch {
		printDetail("Watching for changes")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.Addr)
	})
	if watch {
		files := []string{input, opts.signature, c.configPath}
		if opts.keyring != "" && opts.signature == "" {
			files = append(files, input+".asc")
		}
		if c.configPath == "" {
			files = append(files, config.DefaultFile)
		}
		w := inventory.NewWatcher(files, inventory.DefaultDebounce, logger)
		g.Go(func() error {
			return w.Run(gctx, func(ctx context.Context) error {
				// Analysis settings follow the config file; cache and
				// listener settings keep their startup values.
				next, err := c.loadConfig()
				if err != nil {
					printWarning("Config reload failed: %v", err)
					return err
				}
				next.Cache, next.Server = cfg.Cache, cfg.Server
				srv.SetOptions(opts.options(input, next))
				if err := srv.Reload(ctx); err != nil {
					printWarning("Reload failed: %v", err)
					return err
				}
				printStats(srv.Current().Stats, srv.Current().Report.Severity, false)
				return nil
			})
		})
	}
	return g.Wait()
}
