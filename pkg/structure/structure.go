// Package structure defines the contract a graph must satisfy to be laid out.
//
// Decision-diagram graphs can be far too large to traverse eagerly, so the
// contract is built around lazy discovery: [Graph.Children] discovers and
// returns the outgoing edges of one node, while [Graph.KnownParents] only
// reports parent edges that earlier Children calls have already revealed.
//
// Graphs announce mutations through a change hub. Changes to nodes that were
// never discovered can be ignored by consumers; changes to discovered nodes
// invalidate whatever was cached about them.
package structure

import (
	"cmp"
	"fmt"

	"github.com/matzehuels/ddlayout/pkg/changes"
)

// NodeID identifies a raw node within one graph instance. Identifiers are only
// meaningful for nodes previously returned by the graph's discovery operations.
type NodeID int

// EdgeType identifies one of possibly several parallel edges carrying the same
// tag between two nodes. It is comparable, so it can be used as a map key, and
// totally ordered by tag and then index.
type EdgeType[T cmp.Ordered] struct {
	Tag   T
	Index int
}

// Compare orders edge types by tag, then by index.
func (e EdgeType[T]) Compare(o EdgeType[T]) int {
	if c := cmp.Compare(e.Tag, o.Tag); c != 0 {
		return c
	}
	return cmp.Compare(e.Index, o.Index)
}

func (e EdgeType[T]) String() string {
	if e.Index == 0 {
		return fmt.Sprint(e.Tag)
	}
	return fmt.Sprintf("%v#%d", e.Tag, e.Index)
}

// Edge is an outgoing (or incoming, for parent queries) edge of a node.
type Edge[T cmp.Ordered] struct {
	Type EdgeType[T]
	Node NodeID
}

// CompareEdges orders edges by type and then by node.
func CompareEdges[T cmp.Ordered](a, b Edge[T]) int {
	if c := a.Type.Compare(b.Type); c != 0 {
		return c
	}
	return cmp.Compare(a.Node, b.Node)
}

// Graph is the capability set the layout engine needs from a graph.
type Graph[T cmp.Ordered] interface {
	// Root returns the entry node of the graph.
	Root() NodeID

	// Children discovers and returns the outgoing edges of node. Repeated calls
	// return the same edges until a change event invalidates the node. Errors
	// raised by the underlying graph are returned unmodified.
	Children(node NodeID) ([]Edge[T], error)

	// KnownParents returns the incoming edges of node that were revealed by
	// earlier Children calls. It never triggers discovery.
	KnownParents(node NodeID) []Edge[T]

	// Level returns the level (rank) of node.
	Level(node NodeID) int

	// NodeLabel returns the display label of node.
	NodeLabel(node NodeID) string

	// LevelLabel returns the display label of a level.
	LevelLabel(level int) string

	// OnChange registers a listener for batched change events.
	OnChange(l changes.Listener) changes.Handle

	// OffChange removes a listener. Unknown handles are ignored.
	OffChange(h changes.Handle)
}
