package layered

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/group"
)

// Order maps the groups of one layer to their left-to-right position. A valid
// order is a bijection onto 0..len-1.
type Order map[group.NodeGroupID]int

// IDs returns the groups of the layer sorted by position.
func (o Order) IDs() []group.NodeGroupID {
	ids := slices.Collect(maps.Keys(o))
	slices.SortFunc(ids, func(a, b group.NodeGroupID) int {
		if c := cmp.Compare(o[a], o[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}

// Clone returns a copy of o.
func (o Order) Clone() Order { return maps.Clone(o) }

// OrderOf builds an order from groups listed left to right.
func OrderOf(ids ...group.NodeGroupID) Order {
	o := make(Order, len(ids))
	for i, id := range ids {
		o[id] = i
	}
	return o
}

// CloneLayers deep-copies a slice of orders.
func CloneLayers(layers []Order) []Order {
	out := make([]Order, len(layers))
	for i, o := range layers {
		out[i] = o.Clone()
	}
	return out
}

// EdgeMap holds the edges between adjacent layers: EdgeMap[i] maps each group
// of layer i to its targets on layer i+1. Parallel edges appear once per
// edge, so a target may be listed several times.
type EdgeMap []map[group.NodeGroupID][]group.NodeGroupID

// Owners maps every dummy group to the real group whose edge it routes.
type Owners map[group.NodeGroupID]group.NodeGroupID

// View is the read access strategies have to the grouped graph.
type View interface {
	LevelRange(id group.NodeGroupID) (start, end int)
	Label(id group.NodeGroupID) string
}

// Layering is the layer assignment of the visible groups.
type Layering struct {
	Layer  map[group.NodeGroupID]int // group -> layer index
	Levels []int                     // layer index -> first level of the layer
}

// Count returns the number of layers.
func (l Layering) Count() int { return len(l.Levels) }

// AssignLayers places each group on the layer of its first level. Groups
// starting on the same level share a layer and layer indices are compacted to
// 0..n-1 in level order.
func AssignLayers(g View, groups []group.NodeGroupID) Layering {
	starts := make(map[group.NodeGroupID]int, len(groups))
	seen := make(map[int]struct{})
	for _, id := range groups {
		start, _ := g.LevelRange(id)
		starts[id] = start
		seen[start] = struct{}{}
	}

	levels := slices.Sorted(maps.Keys(seen))
	index := make(map[int]int, len(levels))
	for i, level := range levels {
		index[level] = i
	}

	layer := make(map[group.NodeGroupID]int, len(groups))
	for id, start := range starts {
		layer[id] = index[start]
	}
	return Layering{Layer: layer, Levels: levels}
}
