package animate

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// ErrDanglingEdge is returned by [DiagramLayout.Validate] when an edge points
// to a group that is not part of the layout.
var ErrDanglingEdge = errors.New("edge targets a group missing from the layout")

// ErrShortEdge is returned by [DiagramLayout.Validate] when an edge has fewer
// than two points.
var ErrShortEdge = errors.New("edge needs at least two points")

// NodeGroupLayout is the animated state of one group box.
type NodeGroupLayout[T cmp.Ordered] struct {
	Position Transition[Point]
	Size     Transition[Point]
	Label    string
	Exists   Transition[float64]

	// Edges holds the outgoing edges keyed by target group and edge type.
	Edges map[group.NodeGroupID]map[structure.EdgeType[T]]EdgeLayout
}

// EdgeLayout is the animated route of one edge. Points run from the source
// group to the target group and include every retained bend.
type EdgeLayout struct {
	Points []Transition[Point]
	Exists Transition[float64]
}

// LayerLayout is the vertical band of one layer.
type LayerLayout struct {
	Start  Transition[float64]
	End    Transition[float64]
	Label  string
	Index  int
	Exists Transition[float64]
}

// DiagramLayout is a complete animated layout. Layers are keyed by the level
// the layer starts at, which stays stable while layer indices shift.
type DiagramLayout[T cmp.Ordered] struct {
	Groups map[group.NodeGroupID]NodeGroupLayout[T]
	Layers map[int]LayerLayout
}

// NewDiagramLayout returns an empty layout.
func NewDiagramLayout[T cmp.Ordered]() *DiagramLayout[T] {
	return &DiagramLayout[T]{
		Groups: make(map[group.NodeGroupID]NodeGroupLayout[T]),
		Layers: make(map[int]LayerLayout),
	}
}

// GroupIDs returns the ids of all groups in the layout in ascending order.
func (l *DiagramLayout[T]) GroupIDs() []group.NodeGroupID {
	if l == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(l.Groups))
}

// LayerKeys returns the layer keys in ascending order.
func (l *DiagramLayout[T]) LayerKeys() []int {
	if l == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(l.Layers))
}

// Validate checks that every edge targets a group present in the layout and
// has at least two points.
func (l *DiagramLayout[T]) Validate() error {
	for _, id := range l.GroupIDs() {
		for target, edges := range l.Groups[id].Edges {
			if _, ok := l.Groups[target]; !ok {
				return fmt.Errorf("edge %d->%d: %w", id, target, ErrDanglingEdge)
			}
			for et, e := range edges {
				if len(e.Points) < 2 {
					return fmt.Errorf("edge %d->%d (%v): %w", id, target, et, ErrShortEdge)
				}
			}
		}
	}
	return nil
}

// Settled reports whether every transition in the layout has finished at now.
func (l *DiagramLayout[T]) Settled(now int64) bool {
	if l == nil {
		return true
	}
	for _, g := range l.Groups {
		if !g.Position.Settled(now) || !g.Size.Settled(now) || !g.Exists.Settled(now) {
			return false
		}
		for _, edges := range g.Edges {
			for _, e := range edges {
				if !e.Exists.Settled(now) {
					return false
				}
				for _, p := range e.Points {
					if !p.Settled(now) {
						return false
					}
				}
			}
		}
	}
	for _, layer := range l.Layers {
		if !layer.Start.Settled(now) || !layer.End.Settled(now) || !layer.Exists.Settled(now) {
			return false
		}
	}
	return true
}

// Visible reports whether a group or edge with the given existence
// transition is drawn at now.
func Visible(exists Transition[float64], now int64) bool {
	return exists.At(now, LerpFloat) > 0
}

// Result is the outcome of one layout pass. Unchanged is set when the pass
// started no new animation, so renderers can skip redrawing.
type Result[T cmp.Ordered] struct {
	Layout    *DiagramLayout[T]
	Unchanged bool

	Groups    int // real groups laid out
	Dummies   int // routing groups inserted
	Layers    int
	Crossings int
}
