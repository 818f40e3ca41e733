package layered

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddlayout/pkg/animate"
	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// DefaultDuration is the animation length used when Layout.Duration is zero.
const DefaultDuration int64 = 300

// DefaultSize is the size of every group box.
var DefaultSize = animate.Point{X: 1, Y: 1}

// Layout is a complete layered layout strategy.
type Layout[T cmp.Ordered] struct {
	Ordering    LayerOrdering    // nil means Identity
	Positioning LayerPositioning // nil means Basic
	Duration    int64            // animation length in ms; 0 means DefaultDuration
	Logger      *log.Logger
}

// Compute lays out the visible groups of m and diffs the result against prev,
// which may be nil. Discovery errors raised while collecting group edges are
// returned unmodified. A strategy producing an invalid order or missing a
// position panics with *errors.InvariantError.
func (l Layout[T]) Compute(m *group.Manager[T], prev *animate.DiagramLayout[T], now int64) (animate.Result[T], error) {
	ordering := l.Ordering
	if ordering == nil {
		ordering = Identity{}
	}
	positioning := l.Positioning
	if positioning == nil {
		positioning = Basic{}
	}
	duration := l.Duration
	if duration == 0 {
		duration = DefaultDuration
	}
	logger := l.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	groups := m.Groups()
	var edges []Edge[T]
	for _, id := range groups {
		children, err := m.Children(id)
		if err != nil {
			return animate.Result[T]{}, err
		}
		for _, c := range children {
			edges = append(edges, Edge[T]{From: id, Type: c.Type, To: c.Group})
		}
	}

	layering := AssignLayers(m, groups)
	dummyStart := group.NodeGroupID(1)
	if len(groups) > 0 {
		dummyStart = groups[len(groups)-1] + 1
	}
	routing := InsertDummies(layering, edges, dummyStart)
	seeded := seedOrder(routing, prev)

	ordered := ordering.OrderNodes(m, seeded, routing.Edges, dummyStart, routing.Owners)
	if err := ValidateOrder(seeded, ordered); err != nil {
		panic(&ddlerrors.InvariantError{Strategy: fmt.Sprintf("%T", ordering), Message: err.Error()})
	}

	points := positioning.PositionNodes(m, ordered, routing.Edges, dummyStart)
	for _, layer := range ordered {
		for id := range layer {
			if _, ok := points[id]; !ok {
				panic(&ddlerrors.InvariantError{
					Strategy: fmt.Sprintf("%T", positioning),
					Message:  fmt.Sprintf("no position for group %d", id),
				})
			}
		}
	}

	e := &emitter[T]{prev: prev, now: now, duration: duration, out: animate.NewDiagramLayout[T]()}
	for _, id := range groups {
		e.group(id, points[id], m.Label(id))
	}
	for _, edge := range edges {
		e.edge(edge, route(edge, routing, points))
	}
	for i, level := range layering.Levels {
		e.layer(level, i, layerY(ordered[i], points), m.Graph().LevelLabel(level))
	}
	e.fadeRemoved()
	e.prune()

	if err := e.out.Validate(); err != nil {
		panic(&ddlerrors.InvariantError{Strategy: "emission", Message: err.Error()})
	}

	res := animate.Result[T]{
		Layout:    e.out,
		Unchanged: prev != nil && !e.changed,
		Groups:    len(groups),
		Dummies:   routing.Dummies(),
		Layers:    layering.Count(),
		Crossings: CountCrossings(ordered, routing.Edges),
	}
	logger.Debug("layout computed",
		"groups", res.Groups, "dummies", res.Dummies, "layers", res.Layers,
		"crossings", res.Crossings, "unchanged", res.Unchanged)
	return res, nil
}

// seedOrder sorts every layer by the x coordinate groups had in the previous
// layout so that orderings start from what the user currently sees. Dummies
// follow their owner; groups without a previous position go last.
func seedOrder[T cmp.Ordered](r Routing[T], prev *animate.DiagramLayout[T]) []Order {
	x := func(id group.NodeGroupID) float64 {
		if prev == nil {
			return math.Inf(1)
		}
		if owner, ok := r.Owners[id]; ok {
			id = owner
		}
		if g, ok := prev.Groups[id]; ok {
			return g.Position.New.X
		}
		return math.Inf(1)
	}

	out := make([]Order, len(r.Layers))
	for i, layer := range r.Layers {
		ids := layer.IDs()
		slices.SortStableFunc(ids, func(a, b group.NodeGroupID) int {
			return cmp.Compare(x(a), x(b))
		})
		out[i] = OrderOf(ids...)
	}
	return out
}

func route[T cmp.Ordered](e Edge[T], r Routing[T], points map[group.NodeGroupID]animate.Point) []animate.Point {
	chain := r.Chains[e]
	path := make([]animate.Point, 0, len(chain)+2)
	path = append(path, points[e.From])
	for _, d := range chain {
		path = append(path, points[d])
	}
	path = append(path, points[e.To])
	return SimplifyBends(path)
}

func layerY(layer Order, points map[group.NodeGroupID]animate.Point) float64 {
	if len(layer) == 0 {
		return 0
	}
	sum := 0.0
	for id := range layer {
		sum += points[id].Y
	}
	return sum / float64(len(layer))
}

// emitter builds the new layout and records whether anything started moving.
type emitter[T cmp.Ordered] struct {
	prev     *animate.DiagramLayout[T]
	out      *animate.DiagramLayout[T]
	now      int64
	duration int64
	changed  bool
}

func (e *emitter[T]) point(prev animate.Transition[animate.Point], next animate.Point) animate.Transition[animate.Point] {
	if !prev.New.Equal(next) {
		e.changed = true
	}
	return animate.RetargetPoint(prev, next, e.now, e.duration)
}

func (e *emitter[T]) float(prev animate.Transition[float64], next float64) animate.Transition[float64] {
	if !animate.EqualFloat(prev.New, next) {
		e.changed = true
	}
	return animate.RetargetFloat(prev, next, e.now, e.duration)
}

func (e *emitter[T]) fadeIn() animate.Transition[float64] {
	e.changed = true
	return animate.Animate(0.0, 1.0, e.now, e.duration)
}

func (e *emitter[T]) prevGroup(id group.NodeGroupID) (animate.NodeGroupLayout[T], bool) {
	if e.prev == nil {
		return animate.NodeGroupLayout[T]{}, false
	}
	g, ok := e.prev.Groups[id]
	return g, ok
}

func (e *emitter[T]) group(id group.NodeGroupID, pos animate.Point, label string) {
	ng := animate.NodeGroupLayout[T]{
		Label: label,
		Edges: make(map[group.NodeGroupID]map[structure.EdgeType[T]]animate.EdgeLayout),
	}
	if pg, ok := e.prevGroup(id); ok {
		ng.Position = e.point(pg.Position, pos)
		ng.Size = e.point(pg.Size, DefaultSize)
		ng.Exists = e.float(pg.Exists, 1)
		if pg.Label != label {
			e.changed = true
		}
	} else {
		ng.Position = animate.Plain(pos)
		ng.Size = animate.Plain(DefaultSize)
		ng.Exists = e.fadeIn()
	}
	e.out.Groups[id] = ng
}

func (e *emitter[T]) edge(edge Edge[T], path []animate.Point) {
	var el animate.EdgeLayout
	pg, _ := e.prevGroup(edge.From)
	if pe, ok := pg.Edges[edge.To][edge.Type]; ok {
		el.Points = e.points(pe.Points, path)
		el.Exists = e.float(pe.Exists, 1)
	} else {
		el.Points = make([]animate.Transition[animate.Point], len(path))
		for i, p := range path {
			el.Points[i] = animate.Plain(p)
		}
		el.Exists = e.fadeIn()
	}

	ng := e.out.Groups[edge.From]
	if ng.Edges[edge.To] == nil {
		ng.Edges[edge.To] = make(map[structure.EdgeType[T]]animate.EdgeLayout)
	}
	ng.Edges[edge.To][edge.Type] = el
}

// points retargets a polyline. When the number of bends changed, every new
// point starts from the in-flight position of the proportionally matching
// old point.
func (e *emitter[T]) points(prev []animate.Transition[animate.Point], next []animate.Point) []animate.Transition[animate.Point] {
	out := make([]animate.Transition[animate.Point], len(next))
	if len(prev) == len(next) {
		for i, p := range next {
			out[i] = e.point(prev[i], p)
		}
		return out
	}

	e.changed = true
	for i, p := range next {
		j := 0
		if len(next) > 1 {
			j = i * (len(prev) - 1) / (len(next) - 1)
		}
		old := prev[j].At(e.now, animate.LerpPoint)
		out[i] = animate.Animate(old, p, e.now, e.duration)
	}
	return out
}

func (e *emitter[T]) layer(level, index int, y float64, label string) {
	ll := animate.LayerLayout{Label: label, Index: index}
	var pl animate.LayerLayout
	ok := false
	if e.prev != nil {
		pl, ok = e.prev.Layers[level]
	}
	if ok {
		ll.Start = e.float(pl.Start, y+1)
		ll.End = e.float(pl.End, y-1)
		ll.Exists = e.float(pl.Exists, 1)
		if pl.Label != label || pl.Index != index {
			e.changed = true
		}
	} else {
		ll.Start = animate.Plain(y + 1)
		ll.End = animate.Plain(y - 1)
		ll.Exists = e.fadeIn()
	}
	e.out.Layers[level] = ll
}

// gone reports whether a faded-out element can be dropped.
func (e *emitter[T]) gone(exists animate.Transition[float64]) bool {
	return exists.New == 0 && exists.Settled(e.now)
}

func (e *emitter[T]) fadeOut(exists animate.Transition[float64]) animate.Transition[float64] {
	return e.float(exists, 0)
}

// fadeRemoved carries groups, edges and layers that disappeared into the new
// layout with their existence animating to zero.
func (e *emitter[T]) fadeRemoved() {
	if e.prev == nil {
		return
	}
	for _, id := range e.prev.GroupIDs() {
		pg := e.prev.Groups[id]
		ng, live := e.out.Groups[id]
		if !live {
			if e.gone(pg.Exists) {
				continue
			}
			ng = animate.NodeGroupLayout[T]{
				Position: e.point(pg.Position, pg.Position.New),
				Size:     e.point(pg.Size, pg.Size.New),
				Label:    pg.Label,
				Exists:   e.fadeOut(pg.Exists),
				Edges:    make(map[group.NodeGroupID]map[structure.EdgeType[T]]animate.EdgeLayout),
			}
			e.out.Groups[id] = ng
		}
		for target, edges := range pg.Edges {
			for et, pe := range edges {
				if _, ok := ng.Edges[target][et]; ok || e.gone(pe.Exists) {
					continue
				}
				if ng.Edges[target] == nil {
					ng.Edges[target] = make(map[structure.EdgeType[T]]animate.EdgeLayout)
				}
				ng.Edges[target][et] = animate.EdgeLayout{
					Points: e.points(pe.Points, currentPath(pe.Points)),
					Exists: e.fadeOut(pe.Exists),
				}
			}
		}
	}

	for level, pl := range e.prev.Layers {
		if _, live := e.out.Layers[level]; live || e.gone(pl.Exists) {
			continue
		}
		e.out.Layers[level] = animate.LayerLayout{
			Start:  e.float(pl.Start, pl.Start.New),
			End:    e.float(pl.End, pl.End.New),
			Label:  pl.Label,
			Index:  pl.Index,
			Exists: e.fadeOut(pl.Exists),
		}
	}
}

func currentPath(points []animate.Transition[animate.Point]) []animate.Point {
	out := make([]animate.Point, len(points))
	for i, p := range points {
		out[i] = p.New
	}
	return out
}

// prune drops edges whose target is not part of the layout.
func (e *emitter[T]) prune() {
	for _, g := range e.out.Groups {
		for target := range g.Edges {
			if _, ok := e.out.Groups[target]; !ok {
				delete(g.Edges, target)
			}
		}
	}
}
