package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/config"
	"github.com/matzehuels/ddlayout/pkg/dag"
	"github.com/matzehuels/ddlayout/pkg/drawing"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/metrics"
)

// configured lays out with whatever settings the loader currently holds, so
// a config reload takes effect on the next pass.
type configured struct {
	loader *config.Loader
	cli    *CLI
}

func (s configured) Compute(m *group.Manager[string], prev *animate.DiagramLayout[string], now int64) (animate.Result[string], error) {
	return config.BuildLayout[string](s.loader.Config().Layout, s.cli.Logger).Compute(m, prev, now)
}

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		format      string
		metricsAddr string
		expand      expandOpts
	)

	cmd := &cobra.Command{
		Use:   "watch [diagram]",
		Short: "Re-layout a diagram whenever it or the config changes",
		Long: `Watch a diagram document and the config file. Every change to the document is
applied to the loaded diagram as individual node and edge edits, so the new
layout animates from the previous one; the settled frame is printed to stdout.

With --metrics-addr, Prometheus metrics are served at /metrics.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDiagram,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], format, metricsAddr, expand)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", config.FormatText, "frame format: text, json, dot")
	_ = cmd.RegisterFlagCompletionFunc("format", completeOneOf(config.FormatText, config.FormatJSON, config.FormatDOT))
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	expand.register(cmd)

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input, format, metricsAddr string, expand expandOpts) error {
	logger := loggerFromContext(ctx)
	loader, err := config.NewLoader(c.configPath, logger)
	if err != nil {
		return err
	}
	renderer, err := newRenderer(format, os.Stdout, loader.Config().Render)
	if err != nil {
		return err
	}

	d, err := loadDiagram(input, logger)
	if err != nil {
		return err
	}
	defer d.manager.Close()
	if err := d.expand(expand); err != nil {
		return fmt.Errorf("expand: %w", err)
	}

	metrics.Register()
	if metricsAddr != "" {
		stop := serveMetrics(ctx, metricsAddr, c)
		defer stop()
	}

	start := time.Now()
	clock := func() int64 { return time.Since(start).Milliseconds() }
	drawer := drawing.New[string](d.manager, configured{loader: loader, cli: c}, renderer,
		drawing.WithLogger(logger), drawing.WithClock(clock))
	defer drawer.Close()

	redraw := func(reason string) {
		now := clock()
		if _, err := drawer.Layout(now); err != nil {
			printWarning("%s: %v", reason, err)
			return
		}
		if err := drawer.Render(now+loader.Config().Layout.Duration, nil, nil); err != nil {
			printWarning("render: %v", err)
		}
	}
	dispose := loader.Watchable().Observe(func(*config.Config) { redraw("config reload") })
	defer dispose()

	events, errs, err := config.WatchFiles(ctx, input, c.configPath)
	if err != nil {
		return err
	}
	redraw("initial layout")
	printInfo("Watching %s (ctrl+c to stop)", input)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("file watcher", "err", err)
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if path == c.configPath {
				// Observers redraw on success.
				_, _ = loader.Reload()
				continue
			}
			if err := c.applyDocument(d, path, expand); err != nil {
				printWarning("%v", err)
				continue
			}
			redraw("layout")
		}
	}
}

// applyDocument replays the document at path onto the loaded diagram.
func (c *CLI) applyDocument(d *diagram, path string, expand expandOpts) error {
	doc, err := dag.ReadDocument(path)
	if err != nil {
		return err
	}
	if err := dag.Apply(d.graph, doc); err != nil {
		return fmt.Errorf("apply %s: %w", path, err)
	}
	return d.expand(expand)
}

// serveMetrics starts the metrics server and returns a function that shuts
// it down.
func serveMetrics(ctx context.Context, addr string, c *CLI) func() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Logger.Error("metrics server", "err", err)
		}
	}()
	printDetail("Metrics at http://%s/metrics", addr)

	return func() {
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}
}
