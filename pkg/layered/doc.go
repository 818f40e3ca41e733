// Package layered computes Sugiyama-style layered layouts of grouped graphs.
//
// # Pipeline
//
// A layout pass built by [Layout.Compute] runs these stages in order:
//
//  1. Layer assignment ([AssignLayers]): each visible group is placed on the
//     layer of the first level it spans; layer indices are compacted.
//  2. Dummy synthesis ([InsertDummies]): edges spanning several layers are
//     split into chains of dummy groups, one per intermediate layer, with ids
//     at or above a dummy boundary so strategies can treat them as ordinary
//     nodes.
//  3. Ordering: a pluggable [LayerOrdering] permutes every layer.
//  4. Positioning: a pluggable [LayerPositioning] maps groups and dummies to
//     points.
//  5. Routing: each edge becomes the polyline through its dummies, with
//     collinear bends removed by [SimplifyBends].
//  6. Emission: the result is diffed against the previous layout and every
//     changed attribute is wrapped in an [animate.Transition].
//
// # Strategies
//
// Ordering strategies compose with [Sequence]:
//
//	ordering := layered.Sequence{
//	    First:  layered.Random{SwapsPerNode: 2},
//	    Second: layered.AdjacentSwap{Passes: 8},
//	}
//
// [Identity] leaves every layer untouched, [Random] performs random pairwise
// swaps, [Barycenter] sorts by the average position of neighbours and
// [AdjacentSwap] greedily swaps neighbours while that removes crossings.
//
// Every strategy must return a permutation of each layer. A strategy that
// does not is a defect: [Layout.Compute] panics with an
// [errors.InvariantError] rather than emitting a corrupt layout.
//
// [errors.InvariantError]: github.com/matzehuels/ddlayout/pkg/errors.InvariantError
package layered
