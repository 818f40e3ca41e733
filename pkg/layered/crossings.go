package layered

import (
	"slices"

	"github.com/matzehuels/ddlayout/pkg/group"
)

// CountCrossings returns the total number of edge crossings between every pair
// of adjacent layers.
//
// It runs in O(L × E log V) time where L is the number of layers, E the edges
// per layer step and V the width of the lower layer.
func CountCrossings(layers []Order, edges EdgeMap) int {
	crossings := 0
	for i := 0; i+1 < len(layers) && i < len(edges); i++ {
		crossings += CountLayerCrossings(layers[i], layers[i+1], edges[i])
	}
	return crossings
}

// CountLayerCrossings counts edge crossings between two adjacent layers using a
// Fenwick tree (binary indexed tree).
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// This is equivalent to counting inversions in the sequence of target positions
// when edges are sorted by source position.
//
// Returns 0 if either layer is empty, as no crossings can exist without edges.
func CountLayerCrossings(upper, lower Order, edges map[group.NodeGroupID][]group.NodeGroupID) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	type edge struct{ upper, lower int }
	segments := make([]edge, 0, len(upper)*2)
	for src, targets := range edges {
		u, ok := upper[src]
		if !ok {
			continue
		}
		for _, t := range targets {
			if l, ok := lower[t]; ok {
				segments = append(segments, edge{u, l})
			}
		}
	}
	if len(segments) < 2 {
		return 0
	}

	// Sort edges by source position, then by target position
	slices.SortFunc(segments, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	// Count inversions using Fenwick tree
	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range segments {
		// Query: count edges seen so far with target <= e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		// Crossings = edges seen so far with target > e.lower
		crossings += total - lessOrEqual

		// Update: increment count at target position
		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// CountPairCrossings counts the crossings between the edges of left and right
// towards an adjacent layer, assuming left is placed before right. The nbrs
// map lists each group's neighbours on the adjacent layer and adjPos their
// positions. Neighbours missing from adjPos are ignored.
//
// Local search heuristics compare CountPairCrossings(a, b) with
// CountPairCrossings(b, a) to decide whether swapping two adjacent groups
// reduces crossings.
func CountPairCrossings(left, right group.NodeGroupID, nbrs map[group.NodeGroupID][]group.NodeGroupID, adjPos Order) int {
	crossings := 0
	for _, ln := range nbrs[left] {
		lp, ok := adjPos[ln]
		if !ok {
			continue
		}
		for _, rn := range nbrs[right] {
			// If left's neighbor is to the right of right's neighbor, they cross
			if rp, ok := adjPos[rn]; ok && lp > rp {
				crossings++
			}
		}
	}
	return crossings
}
