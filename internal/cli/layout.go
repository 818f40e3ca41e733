package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/cache"
	"github.com/matzehuels/ddlayout/pkg/config"
	"github.com/matzehuels/ddlayout/pkg/drawing"
	"github.com/matzehuels/ddlayout/pkg/render/jsonsink"
)

// layoutCommand creates the layout command, which writes the settled layout
// of a diagram as a JSON frame.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		expand  expandOpts
	)

	cmd := &cobra.Command{
		Use:   "layout [diagram]",
		Short: "Compute the layout of a decision diagram",
		Long: `Compute the layered layout of a decision diagram and write it as a JSON frame
with group positions, edge routes and layer bands.

The root group is expanded --depth times; --expand and --all open more of the
diagram. Results are cached keyed by the document contents and layout settings.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDiagram,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, expand)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, - for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	expand.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool, expand expandOpts) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	d, err := loadDiagram(input, c.Logger)
	if err != nil {
		return err
	}
	defer d.manager.Close()
	if err := d.expand(expand); err != nil {
		return fmt.Errorf("expand: %w", err)
	}

	store, err := c.openCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return err
	}
	defer store.Close()
	key := keyer(cfg.Cache).LayoutKey(d.hash(), layoutKeyOpts(cfg.Layout, expand))

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	data, stats, cached, err := c.settledFrame(ctx, store, key, d, cfg)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(stats, cached)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}

// settledFrame returns the JSON frame of d once every transition of its first
// layout has finished, from the cache when possible.
func (c *CLI) settledFrame(ctx context.Context, store cache.Cache, key string, d *diagram, cfg *config.Config) ([]byte, animate.Result[string], bool, error) {
	if data, ok, err := store.Get(ctx, key); err != nil {
		c.Logger.Warn("cache read failed", "err", err)
	} else if ok {
		c.Logger.Debug("layout cache hit", "key", key)
		return data, animate.Result[string]{Groups: len(d.manager.Groups())}, true, nil
	}

	var buf bytes.Buffer
	prog := newProgress(c.Logger)
	drawer := drawing.New[string](d.manager, config.BuildLayout[string](cfg.Layout, c.Logger),
		jsonsink.Sink[string]{W: &buf}, drawing.WithLogger(c.Logger))
	defer drawer.Close()

	res, err := drawer.Layout(0)
	if err != nil {
		return nil, res, false, err
	}
	if err := drawer.Render(cfg.Layout.Duration, nil, nil); err != nil {
		return nil, res, false, err
	}
	prog.done(fmt.Sprintf("Laid out %d groups on %d layers", res.Groups, res.Layers))

	if err := store.Set(ctx, key, buf.Bytes(), cfg.Cache.TTL); err != nil {
		c.Logger.Warn("cache write failed", "err", err)
	}
	return buf.Bytes(), res, false, nil
}
