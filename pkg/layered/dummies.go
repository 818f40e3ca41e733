package layered

import (
	"cmp"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// Edge is an edge between two visible groups.
type Edge[T cmp.Ordered] struct {
	From group.NodeGroupID
	Type structure.EdgeType[T]
	To   group.NodeGroupID
}

func compareEdges[T cmp.Ordered](a, b Edge[T]) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	if c := cmp.Compare(a.To, b.To); c != 0 {
		return c
	}
	return a.Type.Compare(b.Type)
}

// Routing is a layered graph with every long edge split into unit segments.
type Routing[T cmp.Ordered] struct {
	DummyStart group.NodeGroupID
	Layers     []Order // provisional order: real groups by id, then dummies
	Edges      EdgeMap
	Owners     Owners

	// Chains lists the dummies of every downward edge from top to bottom.
	// Edges between adjacent layers have an empty chain.
	Chains map[Edge[T]][]group.NodeGroupID

	// Upward holds edges whose target does not lie on a deeper layer than
	// their source. They are drawn as straight segments and ignored by
	// ordering.
	Upward []Edge[T]
}

// Dummies returns the number of dummy groups.
func (r Routing[T]) Dummies() int { return len(r.Owners) }

// IsDummy reports whether id is a dummy group.
func (r Routing[T]) IsDummy(id group.NodeGroupID) bool { return id >= r.DummyStart }

// InsertDummies builds the unit-segment layered graph. Dummy ids are issued
// from dummyStart upwards in edge order, one per intermediate layer of every
// edge spanning more than one layer. dummyStart must be greater than every
// real group id.
func InsertDummies[T cmp.Ordered](layering Layering, edges []Edge[T], dummyStart group.NodeGroupID) Routing[T] {
	r := Routing[T]{
		DummyStart: dummyStart,
		Layers:     make([]Order, layering.Count()),
		Edges:      make(EdgeMap, max(layering.Count()-1, 0)),
		Owners:     make(Owners),
		Chains:     make(map[Edge[T]][]group.NodeGroupID),
	}
	members := make([][]group.NodeGroupID, layering.Count())
	for id, layer := range layering.Layer {
		members[layer] = append(members[layer], id)
	}
	for i := range members {
		slices.Sort(members[i])
	}
	for i := range r.Edges {
		r.Edges[i] = make(map[group.NodeGroupID][]group.NodeGroupID)
	}

	sorted := slices.Clone(edges)
	slices.SortFunc(sorted, compareEdges[T])

	next := dummyStart
	for _, e := range sorted {
		from, okFrom := layering.Layer[e.From]
		to, okTo := layering.Layer[e.To]
		if !okFrom || !okTo {
			continue
		}
		if to <= from {
			r.Upward = append(r.Upward, e)
			continue
		}

		chain := make([]group.NodeGroupID, 0, to-from-1)
		prev := e.From
		for layer := from + 1; layer < to; layer++ {
			d := next
			next++
			r.Owners[d] = e.From
			members[layer] = append(members[layer], d)
			r.Edges[layer-1][prev] = append(r.Edges[layer-1][prev], d)
			chain = append(chain, d)
			prev = d
		}
		r.Edges[to-1][prev] = append(r.Edges[to-1][prev], e.To)
		r.Chains[e] = chain
	}

	for i, ids := range members {
		r.Layers[i] = OrderOf(ids...)
	}
	return r
}

// Parents inverts one layer step of the edge map: for layer i > 0 it maps
// each group of layer i to its sources on layer i-1.
func (m EdgeMap) Parents(layer int) map[group.NodeGroupID][]group.NodeGroupID {
	out := make(map[group.NodeGroupID][]group.NodeGroupID)
	if layer <= 0 || layer > len(m) {
		return out
	}
	for src, targets := range m[layer-1] {
		for _, t := range targets {
			out[t] = append(out[t], src)
		}
	}
	return out
}

// Children returns the targets on layer i+1 of every group on layer i.
func (m EdgeMap) Children(layer int) map[group.NodeGroupID][]group.NodeGroupID {
	if layer < 0 || layer >= len(m) {
		return map[group.NodeGroupID][]group.NodeGroupID{}
	}
	return m[layer]
}
