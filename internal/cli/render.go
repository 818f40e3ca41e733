package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ddlayout/pkg/cache"
	"github.com/matzehuels/ddlayout/pkg/config"
	"github.com/matzehuels/ddlayout/pkg/dag"
	"github.com/matzehuels/ddlayout/pkg/drawing"
	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
	"github.com/matzehuels/ddlayout/pkg/render/dot"
	"github.com/matzehuels/ddlayout/pkg/render/jsonsink"
	"github.com/matzehuels/ddlayout/pkg/render/text"
)

// formats lists every output format accepted by render.
var formats = []string{config.FormatText, config.FormatJSON, config.FormatDOT, config.FormatSVG, config.FormatPNG}

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string
	format   string
	time     int64    // ms after the layout pass; negative means settled
	previous string   // document the animation starts from
	selected []string // node names
	hovered  []string
	noCache  bool
	expand   expandOpts
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{time: -1}

	cmd := &cobra.Command{
		Use:   "render [diagram]",
		Short: "Render a decision diagram as text, DOT, SVG, PNG or JSON",
		Long: `Render a decision diagram at a point in time.

With --previous the diagram is first laid out from an older version of the
document, then updated to the current one; --time picks a moment of the
resulting transition in milliseconds (default: after it has settled).

Text, JSON and DOT go to stdout unless --output is given; SVG and PNG default
to <input>.<format>.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDiagram,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(formats, ", ")+" (default from config)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeOneOf(formats...))
	cmd.Flags().Int64VarP(&opts.time, "time", "t", opts.time, "render time in ms after the layout pass (negative: settled)")
	cmd.Flags().StringVar(&opts.previous, "previous", "", "previous version of the diagram to animate from")
	cmd.Flags().StringSliceVar(&opts.selected, "select", nil, "mark the groups holding these nodes as selected")
	cmd.Flags().StringSliceVar(&opts.hovered, "hover", nil, "mark the groups holding these nodes as hovered")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	opts.expand.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	if opts.format == "" {
		opts.format = cfg.Render.Format
	}
	if err := ddlerrors.ValidateOneOf("format", opts.format, formats...); err != nil {
		return err
	}
	at := opts.time
	if at < 0 {
		at = cfg.Layout.Duration
	}

	var (
		data   []byte
		cached bool
	)
	// Selections and animations depend on more than the document, so only
	// plain renders are cached.
	cacheable := opts.previous == "" && len(opts.selected) == 0 && len(opts.hovered) == 0
	if cacheable {
		data, cached, err = c.renderCached(ctx, input, opts, cfg, at)
	} else {
		data, err = c.renderFrame(input, opts, cfg, at)
	}
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" && (opts.format == config.FormatSVG || opts.format == config.FormatPNG) {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}
	if output == "" || output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printSuccess("Rendered %s", opts.format)
	printFile(output)
	if cached {
		printDetail("from cache")
	}
	return nil
}

func (c *CLI) renderCached(ctx context.Context, input string, opts renderOpts, cfg *config.Config, at int64) ([]byte, bool, error) {
	store, err := c.openCache(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", input, err)
	}
	keys := keyer(cfg.Cache)
	layoutKey := keys.LayoutKey(cache.Hash(raw), layoutKeyOpts(cfg.Layout, opts.expand))
	key := keys.ArtifactKey(layoutKey, cache.ArtifactKeyOpts{Format: opts.format, Time: at, Scale: cfg.Render.Scale})

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		return data, true, nil
	} else if err != nil {
		c.Logger.Warn("cache read failed", "err", err)
	}

	data, err := c.renderFrame(input, opts, cfg, at)
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(ctx, key, data, cfg.Cache.TTL); err != nil {
		c.Logger.Warn("cache write failed", "err", err)
	}
	return data, false, nil
}

// renderFrame lays out the diagram (animating from opts.previous when set)
// and renders it at time at.
func (c *CLI) renderFrame(input string, opts renderOpts, cfg *config.Config, at int64) ([]byte, error) {
	start := input
	if opts.previous != "" {
		start = opts.previous
	}
	d, err := loadDiagram(start, c.Logger)
	if err != nil {
		return nil, err
	}
	defer d.manager.Close()
	if err := d.expand(opts.expand); err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	var buf bytes.Buffer
	renderer, err := newRenderer(opts.format, &buf, cfg.Render)
	if err != nil {
		return nil, err
	}
	drawer := drawing.New[string](d.manager, config.BuildLayout[string](cfg.Layout, c.Logger), renderer,
		drawing.WithLogger(c.Logger))
	defer drawer.Close()

	if opts.previous != "" {
		// Settle the old version before time zero, then move to the new one.
		if _, err := drawer.Layout(-cfg.Layout.Duration); err != nil {
			return nil, err
		}
		doc, err := dag.ReadDocument(input)
		if err != nil {
			return nil, err
		}
		if err := dag.Apply(d.graph, doc); err != nil {
			return nil, fmt.Errorf("apply %s: %w", input, err)
		}
		if err := d.expand(opts.expand); err != nil {
			return nil, fmt.Errorf("expand: %w", err)
		}
	}

	res, err := drawer.Layout(0)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("layout", "groups", res.Groups, "dummies", res.Dummies, "crossings", res.Crossings)

	selected, err := d.groupSet(opts.selected)
	if err != nil {
		return nil, err
	}
	hovered, err := d.groupSet(opts.hovered)
	if err != nil {
		return nil, err
	}
	if err := drawer.Render(at, selected, hovered); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newRenderer returns the renderer for format writing to w.
func newRenderer(format string, w io.Writer, cfg config.RenderConfig) (drawing.Renderer[string], error) {
	switch format {
	case config.FormatText:
		return text.Renderer[string]{W: w, Options: text.Options{CellWidth: cfg.CellWidth, CellHeight: cfg.CellHeight}}, nil
	case config.FormatJSON:
		return jsonsink.Sink[string]{W: w}, nil
	case config.FormatDOT, config.FormatSVG, config.FormatPNG:
		return dot.Renderer[string]{W: w, Format: format, Options: dot.Options{Scale: cfg.Scale, EdgeLabels: cfg.EdgeLabels}}, nil
	default:
		return nil, ddlerrors.New(ddlerrors.ErrCodeUnsupported, "unsupported format %q", format)
	}
}
