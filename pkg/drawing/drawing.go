// Package drawing ties a grouped graph, a layout strategy and a renderer
// together.
//
// A [Drawer] owns the current animated layout. It watches the group manager's
// stale tracker, recomputes the layout on request (or automatically with
// [WithAutoLayout]) and hands the result to its [Renderer]. Layout passes are
// last-writer-wins: a pass that finishes after the graph changed again is
// discarded, and a pass that fails keeps the last good layout.
//
//	d := drawing.New(manager, layered.Layout[string]{}, renderer)
//	if _, err := d.Layout(now); err != nil {
//	    return err
//	}
//	err := d.Render(now, selected, hovered)
package drawing

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ddlayout/pkg/animate"
	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/observability"
	"github.com/matzehuels/ddlayout/pkg/watch"
)

var (
	// ErrNoLayout is returned by [Drawer.Render] before the first successful
	// layout pass.
	ErrNoLayout = errors.New("no layout computed yet")

	// ErrSuperseded is returned by [Drawer.Layout] when the graph changed while
	// the pass was running. The result is discarded and the drawer stays stale.
	ErrSuperseded = errors.New("layout superseded by a newer change")
)

// Renderer draws a layout at a point in time. Renderers interpolate
// transitions themselves; the drawer never does.
type Renderer[T cmp.Ordered] interface {
	Render(layout *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) error
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc[T cmp.Ordered] func(layout *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) error

// Render implements Renderer.
func (f RendererFunc[T]) Render(layout *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) error {
	return f(layout, now, selected, hovered)
}

// LayoutStrategy computes a new layout of the visible groups, diffed against
// the previous layout (nil on the first pass).
type LayoutStrategy[T cmp.Ordered] interface {
	Compute(m *group.Manager[T], prev *animate.DiagramLayout[T], now int64) (animate.Result[T], error)
}

// Option configures a Drawer.
type Option func(*options)

type options struct {
	logger *log.Logger
	auto   bool
	clock  func() int64
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAutoLayout makes the drawer recompute the layout synchronously every
// time the group manager reports a change. Debouncing is left to callers.
func WithAutoLayout() Option {
	return func(o *options) { o.auto = true }
}

// WithClock sets the time source used by automatic layout passes, in
// milliseconds. The default is the wall clock.
func WithClock(clock func() int64) Option {
	return func(o *options) { o.clock = clock }
}

// Drawer owns the current layout of one group manager.
// Drawer is not safe for concurrent use.
type Drawer[T cmp.Ordered] struct {
	manager  *group.Manager[T]
	strategy LayoutStrategy[T]
	renderer Renderer[T]
	logger   *log.Logger
	auto     bool
	clock    func() int64

	current   *animate.DiagramLayout[T]
	last      animate.Result[T]
	version   uint64
	computing bool
	stale     *watch.Watchable[watch.DataState]
	dispose   func()
}

// New creates a drawer. It starts out in whatever state the manager's stale
// tracker is in.
func New[T cmp.Ordered](m *group.Manager[T], strategy LayoutStrategy[T], renderer Renderer[T], opts ...Option) *Drawer[T] {
	o := options{
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		clock:  func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Drawer[T]{
		manager:  m,
		strategy: strategy,
		renderer: renderer,
		logger:   o.logger,
		auto:     o.auto,
		clock:    o.clock,
		stale:    watch.New(m.Stale().Get()),
	}
	d.dispose = m.Stale().Observe(d.onStale)
	if d.auto && d.stale.Get() == watch.Stale {
		d.autoLayout()
	}
	return d
}

// Close stops watching the manager.
func (d *Drawer[T]) Close() { d.dispose() }

// Manager returns the group manager being drawn.
func (d *Drawer[T]) Manager() *group.Manager[T] { return d.manager }

// Current returns the last good layout, or nil before the first pass.
func (d *Drawer[T]) Current() *animate.DiagramLayout[T] { return d.current }

// Last returns the result of the last accepted pass.
func (d *Drawer[T]) Last() animate.Result[T] { return d.last }

// Stale reports whether the current layout reflects the grouped graph.
// It is Loading while a pass runs.
func (d *Drawer[T]) Stale() *watch.Watchable[watch.DataState] { return d.stale }

// Layout runs one layout pass at time now (milliseconds). On success the new
// layout becomes current and the drawer is up to date. On error the previous
// layout is kept and the drawer stays stale.
func (d *Drawer[T]) Layout(now int64) (animate.Result[T], error) {
	passID := uuid.NewString()
	version := d.manager.Version()
	hooks := observability.Layout()
	hooks.OnLayoutStart(passID, len(d.manager.Groups()))
	logger := d.logger.With("pass", passID[:8])

	d.computing = true
	d.stale.Set(watch.Loading)
	start := time.Now()
	res, err := d.strategy.Compute(d.manager, d.current, now)
	d.computing = false

	stats := observability.LayoutStats{
		Duration:  time.Since(start),
		Groups:    res.Groups,
		Dummies:   res.Dummies,
		Layers:    res.Layers,
		Crossings: res.Crossings,
		Unchanged: res.Unchanged,
	}
	if err != nil {
		d.stale.Set(watch.Stale)
		hooks.OnLayoutComplete(passID, stats, err)
		logger.Warn("layout failed, keeping previous layout", "err", err)
		return animate.Result[T]{Layout: d.current}, fmt.Errorf("layout: %w", err)
	}
	if d.manager.Version() != version {
		d.stale.Set(watch.Stale)
		hooks.OnLayoutDiscarded(passID)
		logger.Debug("layout discarded", "version", version, "latest", d.manager.Version())
		return animate.Result[T]{Layout: d.current}, ErrSuperseded
	}

	d.current = res.Layout
	d.last = res
	d.version = version
	d.manager.MarkUpToDate()
	if d.stale.Get() != watch.UpToDate {
		d.stale.Set(watch.UpToDate)
	}
	hooks.OnLayoutComplete(passID, stats, nil)
	logger.Debug("layout done",
		"groups", res.Groups, "crossings", res.Crossings,
		"unchanged", res.Unchanged, "took", stats.Duration)
	return res, nil
}

// Render draws the current layout at time now.
func (d *Drawer[T]) Render(now int64, selected, hovered map[group.NodeGroupID]struct{}) error {
	if d.current == nil {
		return ErrNoLayout
	}
	start := time.Now()
	err := d.renderer.Render(d.current, now, selected, hovered)
	observability.Render().OnRender(fmt.Sprintf("%T", d.renderer), time.Since(start), err)
	if err != nil {
		return ddlerrors.Wrap(ddlerrors.ErrCodeRender, err, "render")
	}
	return nil
}

// Version returns the manager version the current layout was computed for.
func (d *Drawer[T]) Version() uint64 { return d.version }

func (d *Drawer[T]) onStale(s watch.DataState) {
	if d.computing {
		// The running pass notices the version bump and discards itself.
		d.stale.Set(watch.Stale)
		return
	}
	d.stale.Set(s)
	if s == watch.Stale && d.auto {
		d.autoLayout()
	}
}

func (d *Drawer[T]) autoLayout() {
	if _, err := d.Layout(d.clock()); err != nil {
		d.logger.Warn("automatic layout failed", "err", err)
	}
}
