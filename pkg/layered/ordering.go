package layered

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/group"
)

// LayerOrdering permutes the groups within each layer.
//
// OrderNodes receives the current order of every layer, the edges between
// adjacent layers, the dummy boundary and the dummy owners, and returns the
// new order of every layer. The result must contain exactly the groups of the
// input layer for every layer, numbered 0..len-1. Implementations must not
// modify their input.
type LayerOrdering interface {
	OrderNodes(g View, layers []Order, edges EdgeMap, dummyStart group.NodeGroupID, owners Owners) []Order
}

// Identity returns its input unchanged.
type Identity struct{}

// OrderNodes implements LayerOrdering.
func (Identity) OrderNodes(_ View, layers []Order, _ EdgeMap, _ group.NodeGroupID, _ Owners) []Order {
	return layers
}

// Sequence runs First and feeds its output to Second.
type Sequence struct {
	First  LayerOrdering
	Second LayerOrdering
}

// OrderNodes implements LayerOrdering.
func (s Sequence) OrderNodes(g View, layers []Order, edges EdgeMap, dummyStart group.NodeGroupID, owners Owners) []Order {
	return s.Second.OrderNodes(g, s.First.OrderNodes(g, layers, edges, dummyStart, owners), edges, dummyStart, owners)
}

// Chain composes orderings left to right. An empty chain is Identity.
func Chain(orderings ...LayerOrdering) LayerOrdering {
	if len(orderings) == 0 {
		return Identity{}
	}
	out := orderings[0]
	for _, o := range orderings[1:] {
		out = Sequence{First: out, Second: o}
	}
	return out
}

// Random performs SwapsPerNode × len(layer) random pairwise swaps in every
// layer. It seeds local search; it does not try to reduce crossings. A nil
// Rand uses the global source.
type Random struct {
	SwapsPerNode int
	Rand         *rand.Rand
}

// OrderNodes implements LayerOrdering.
func (r Random) OrderNodes(_ View, layers []Order, _ EdgeMap, _ group.NodeGroupID, _ Owners) []Order {
	intN := rand.IntN
	if r.Rand != nil {
		intN = r.Rand.IntN
	}

	out := make([]Order, len(layers))
	for i, layer := range layers {
		ids := layer.IDs()
		n := len(ids)
		if n > 1 {
			for range r.SwapsPerNode * n {
				a, b := intN(n), intN(n)
				ids[a], ids[b] = ids[b], ids[a]
			}
		}
		out[i] = OrderOf(ids...)
	}
	return out
}

// Barycenter sorts every layer by the average position of its neighbours on
// the previous layer (downward sweeps) or the next layer (upward sweeps),
// alternating for Passes sweeps and keeping the ordering with the fewest
// crossings. Groups without neighbours keep their position. Zero Passes
// means 4.
type Barycenter struct {
	Passes int
}

// OrderNodes implements LayerOrdering.
func (b Barycenter) OrderNodes(_ View, layers []Order, edges EdgeMap, _ group.NodeGroupID, _ Owners) []Order {
	passes := b.Passes
	if passes <= 0 {
		passes = 4
	}

	current := CloneLayers(layers)
	best, bestCrossings := current, CountCrossings(current, edges)
	for pass := range passes {
		next := CloneLayers(current)
		if pass%2 == 0 {
			for i := 1; i < len(next); i++ {
				next[i] = sortByBarycenter(next[i], next[i-1], edges.Parents(i))
			}
		} else {
			for i := len(next) - 2; i >= 0; i-- {
				next[i] = sortByBarycenter(next[i], next[i+1], edges.Children(i))
			}
		}
		current = next
		if c := CountCrossings(current, edges); c < bestCrossings {
			best, bestCrossings = current, c
		}
	}
	return best
}

func sortByBarycenter(layer, adj Order, nbrs map[group.NodeGroupID][]group.NodeGroupID) Order {
	type keyed struct {
		id  group.NodeGroupID
		key float64
		pos int
	}
	items := make([]keyed, 0, len(layer))
	for id, pos := range layer {
		key, n := 0.0, 0
		for _, nb := range nbrs[id] {
			if p, ok := adj[nb]; ok {
				key += float64(p)
				n++
			}
		}
		if n == 0 {
			key = float64(pos)
		} else {
			// Mapped onto this layer's width.
			key = key / float64(n) * scale(len(layer), len(adj))
		}
		items = append(items, keyed{id: id, key: key, pos: pos})
	}
	slices.SortFunc(items, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})

	out := make(Order, len(items))
	for i, it := range items {
		out[it.id] = i
	}
	return out
}

func scale(width, adjWidth int) float64 {
	if adjWidth <= 1 || width <= 1 {
		return 1
	}
	return float64(width-1) / float64(adjWidth-1)
}

// AdjacentSwap repeatedly swaps neighbouring groups while doing so reduces
// the crossings with both adjacent layers. It stops after Passes sweeps or
// when a sweep made no swap. Zero Passes means 8.
type AdjacentSwap struct {
	Passes int
}

// OrderNodes implements LayerOrdering.
func (s AdjacentSwap) OrderNodes(_ View, layers []Order, edges EdgeMap, _ group.NodeGroupID, _ Owners) []Order {
	passes := s.Passes
	if passes <= 0 {
		passes = 8
	}

	out := CloneLayers(layers)
	for range passes {
		swapped := false
		for i := range out {
			ids := out[i].IDs()
			parents := edges.Parents(i)
			children := edges.Children(i)
			for j := 0; j+1 < len(ids); j++ {
				left, right := ids[j], ids[j+1]
				before, after := 0, 0
				if i > 0 {
					before += CountPairCrossings(left, right, parents, out[i-1])
					after += CountPairCrossings(right, left, parents, out[i-1])
				}
				if i+1 < len(out) {
					before += CountPairCrossings(left, right, children, out[i+1])
					after += CountPairCrossings(right, left, children, out[i+1])
				}
				if after < before {
					ids[j], ids[j+1] = right, left
					out[i][left], out[i][right] = j+1, j
					swapped = true
				}
			}
		}
		if !swapped {
			break
		}
	}
	return out
}

// ValidateOrder checks that out holds a permutation of every layer of in.
func ValidateOrder(in, out []Order) error {
	if len(in) != len(out) {
		return fmt.Errorf("got %d layers, want %d", len(out), len(in))
	}
	for i := range in {
		if len(in[i]) != len(out[i]) {
			return fmt.Errorf("layer %d has %d groups, want %d", i, len(out[i]), len(in[i]))
		}
		used := make([]bool, len(out[i]))
		for id, pos := range out[i] {
			if _, ok := in[i][id]; !ok {
				return fmt.Errorf("layer %d: unexpected group %d", i, id)
			}
			if pos < 0 || pos >= len(used) || used[pos] {
				return fmt.Errorf("layer %d: group %d has invalid position %d", i, id, pos)
			}
			used[pos] = true
		}
	}
	return nil
}
