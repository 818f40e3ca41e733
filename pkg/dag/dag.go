package dag

import (
	"errors"
	"maps"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/changes"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is negative.
	ErrInvalidNodeID = errors.New("node ID must not be negative")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the same ID
	// or name already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned by discovery and mutation methods when the node
	// does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrLevelOrder is returned by [DAG.Validate] when an edge does not point to
	// a strictly deeper level.
	ErrLevelOrder = errors.New("edges must point to a deeper level")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrDiscoveryLimit is returned by [DAG.Children] when discovering the node
	// would exceed the limit configured with [WithDiscoveryLimit].
	ErrDiscoveryLimit = errors.New("discovery limit exceeded")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
type Metadata map[string]any

// Node is a decision-diagram node living on a level.
type Node struct {
	ID    structure.NodeID
	Name  string // stable external name, used by imports to diff documents
	Label string // display label; defaults to Name
	Level int
	Meta  Metadata
}

// DisplayLabel returns Label if set, otherwise Name.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// Edge is a tagged directed edge between two nodes. Index distinguishes
// parallel edges with the same tag and is assigned by [DAG.AddEdge].
type Edge struct {
	From  structure.NodeID
	To    structure.NodeID
	Tag   string
	Index int
}

// Type returns the structure edge type of e.
func (e Edge) Type() structure.EdgeType[string] {
	return structure.EdgeType[string]{Tag: e.Tag, Index: e.Index}
}

// Option configures a DAG.
type Option func(*DAG)

// WithDiscoveryLimit makes Children fail with ErrDiscoveryLimit once more than
// n distinct nodes have been discovered. Zero disables the limit.
func WithDiscoveryLimit(n int) Option {
	return func(d *DAG) { d.limit = n }
}

// DAG is an in-memory decision diagram that implements [structure.Graph].
//
// Discovery is tracked: a node counts as seen once it was returned as the root
// or as a child, and as expanded once Children was called for it. Parent edges
// are only known for expanded parents. Mutations that touch seen nodes are
// recorded on the change hub and delivered by [DAG.Commit]; mutations of
// unseen nodes are silent.
//
// The zero value is not usable - use New.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes       map[structure.NodeID]*Node
	byName      map[string]structure.NodeID
	outgoing    map[structure.NodeID][]Edge
	levelLabels map[int]string
	root        structure.NodeID
	meta        Metadata

	hub      *changes.Hub
	seen     map[structure.NodeID]struct{}
	expanded map[structure.NodeID]struct{}
	parents  map[structure.NodeID][]structure.Edge[string]
	limit    int
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata, opts ...Option) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	d := &DAG{
		nodes:       make(map[structure.NodeID]*Node),
		byName:      make(map[string]structure.NodeID),
		outgoing:    make(map[structure.NodeID][]Edge),
		levelLabels: make(map[int]string),
		meta:        meta,
		hub:         changes.NewHub(),
		seen:        make(map[structure.NodeID]struct{}),
		expanded:    make(map[structure.NodeID]struct{}),
		parents:     make(map[structure.NodeID][]structure.Edge[string]),
		root:        -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node. The first node added becomes the root unless SetRoot is
// called. Returns ErrInvalidNodeID for negative IDs and ErrDuplicateNodeID if
// the ID or non-empty name is taken.
func (d *DAG) AddNode(n Node) error {
	if n.ID < 0 {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Name != "" {
		if _, exists := d.byName[n.Name]; exists {
			return ErrDuplicateNodeID
		}
		d.byName[n.Name] = n.ID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := n
	d.nodes[n.ID] = &node
	if d.root < 0 {
		d.root = n.ID
	}
	return nil
}

// NextID returns an ID not used by any node.
func (d *DAG) NextID() structure.NodeID {
	next := structure.NodeID(0)
	for id := range d.nodes {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// SetRoot makes id the entry node.
func (d *DAG) SetRoot(id structure.NodeID) error {
	if _, ok := d.nodes[id]; !ok {
		return ErrUnknownNode
	}
	d.root = id
	return nil
}

// AddEdge adds a tagged edge and returns it with its parallel-edge index set.
// If the source has been expanded the edge is reported as a connection change
// and the target as inserted when it was not seen before.
func (d *DAG) AddEdge(from, to structure.NodeID, tag string) (Edge, error) {
	if _, ok := d.nodes[from]; !ok {
		return Edge{}, ErrUnknownSourceNode
	}
	if _, ok := d.nodes[to]; !ok {
		return Edge{}, ErrUnknownTargetNode
	}
	e := Edge{From: from, To: to, Tag: tag}
	for _, o := range d.outgoing[from] {
		if o.To == to && o.Tag == tag && o.Index >= e.Index {
			e.Index = o.Index + 1
		}
	}
	d.outgoing[from] = append(d.outgoing[from], e)

	if d.isExpanded(from) {
		if !d.isSeen(to) {
			d.hub.AddChange(changes.Change{Kind: changes.NodeInserted, Node: int(to)})
		}
		d.markSeen(to)
		d.parents[to] = append(d.parents[to], structure.Edge[string]{Type: e.Type(), Node: from})
		d.hub.AddChange(changes.Change{Kind: changes.ConnectionsChanged, Node: int(from)})
	}
	return e, nil
}

// RemoveEdge removes the edge from→to with the given tag and index.
// No error is returned if the edge does not exist.
func (d *DAG) RemoveEdge(from, to structure.NodeID, tag string, index int) {
	match := func(e Edge) bool { return e.To == to && e.Tag == tag && e.Index == index }
	if !slices.ContainsFunc(d.outgoing[from], match) {
		return
	}
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], match)
	d.parents[to] = slices.DeleteFunc(d.parents[to], func(p structure.Edge[string]) bool {
		return p.Node == from && p.Type.Tag == tag && p.Type.Index == index
	})
	if d.isExpanded(from) {
		d.hub.AddChange(changes.Change{Kind: changes.ConnectionsChanged, Node: int(from)})
	}
}

// RemoveNode deletes a node together with its incoming and outgoing edges.
func (d *DAG) RemoveNode(id structure.NodeID) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	for _, parent := range slices.Sorted(maps.Keys(d.outgoing)) {
		edges := d.outgoing[parent]
		if !slices.ContainsFunc(edges, func(e Edge) bool { return e.To == id }) {
			continue
		}
		d.outgoing[parent] = slices.DeleteFunc(edges, func(e Edge) bool { return e.To == id })
		if d.isExpanded(parent) {
			d.hub.AddChange(changes.Change{Kind: changes.ConnectionsChanged, Node: int(parent)})
		}
	}
	for _, e := range d.outgoing[id] {
		d.parents[e.To] = slices.DeleteFunc(d.parents[e.To], func(p structure.Edge[string]) bool { return p.Node == id })
	}
	if d.isSeen(id) {
		d.hub.AddChange(changes.Change{Kind: changes.NodeRemoved, Node: int(id)})
	}

	delete(d.nodes, id)
	delete(d.byName, n.Name)
	delete(d.outgoing, id)
	delete(d.parents, id)
	delete(d.seen, id)
	delete(d.expanded, id)
	return nil
}

// SetLabel changes the display label of a node.
func (d *DAG) SetLabel(id structure.NodeID, label string) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if n.Label == label {
		return nil
	}
	n.Label = label
	if d.isSeen(id) {
		d.hub.AddChange(changes.Change{Kind: changes.NodeLabelChanged, Node: int(id)})
	}
	return nil
}

// SetLevel moves a node to another level.
func (d *DAG) SetLevel(id structure.NodeID, level int) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if n.Level == level {
		return nil
	}
	n.Level = level
	if d.isSeen(id) {
		d.hub.AddChange(changes.Change{Kind: changes.LevelChanged, Node: int(id)})
	}
	return nil
}

// SetLevelLabel changes the label of a level. Every seen node on the level is
// reported as affected.
func (d *DAG) SetLevelLabel(level int, label string) {
	if d.levelLabels[level] == label {
		return
	}
	d.levelLabels[level] = label
	for _, id := range slices.Sorted(maps.Keys(d.seen)) {
		if d.nodes[id].Level == level {
			d.hub.AddChange(changes.Change{Kind: changes.LevelLabelChanged, Node: int(id)})
		}
	}
}

// Commit dispatches every change recorded since the previous commit.
func (d *DAG) Commit() { d.hub.Dispatch() }

// Root implements structure.Graph.
func (d *DAG) Root() structure.NodeID {
	d.markSeen(d.root)
	return d.root
}

// Children implements structure.Graph. The node is marked as expanded and its
// children as seen; parent edges of the children become known.
func (d *DAG) Children(id structure.NodeID) ([]structure.Edge[string], error) {
	if _, ok := d.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}
	if !d.isExpanded(id) {
		if d.limit > 0 && len(d.expanded) >= d.limit {
			return nil, ErrDiscoveryLimit
		}
		d.expanded[id] = struct{}{}
		d.markSeen(id)
		for _, e := range d.outgoing[id] {
			d.markSeen(e.To)
			d.parents[e.To] = append(d.parents[e.To], structure.Edge[string]{Type: e.Type(), Node: id})
		}
	}

	edges := make([]structure.Edge[string], len(d.outgoing[id]))
	for i, e := range d.outgoing[id] {
		edges[i] = structure.Edge[string]{Type: e.Type(), Node: e.To}
	}
	slices.SortFunc(edges, structure.CompareEdges[string])
	return edges, nil
}

// KnownParents implements structure.Graph.
func (d *DAG) KnownParents(id structure.NodeID) []structure.Edge[string] {
	parents := slices.Clone(d.parents[id])
	slices.SortFunc(parents, structure.CompareEdges[string])
	return parents
}

// Level implements structure.Graph. Unknown nodes are on level 0.
func (d *DAG) Level(id structure.NodeID) int {
	if n, ok := d.nodes[id]; ok {
		return n.Level
	}
	return 0
}

// NodeLabel implements structure.Graph.
func (d *DAG) NodeLabel(id structure.NodeID) string {
	if n, ok := d.nodes[id]; ok {
		return n.DisplayLabel()
	}
	return ""
}

// LevelLabel implements structure.Graph.
func (d *DAG) LevelLabel(level int) string { return d.levelLabels[level] }

// OnChange implements structure.Graph.
func (d *DAG) OnChange(l changes.Listener) changes.Handle { return d.hub.Add(l) }

// OffChange implements structure.Graph.
func (d *DAG) OffChange(h changes.Handle) { d.hub.Remove(h) }

// Node returns the node with the given ID.
func (d *DAG) Node(id structure.NodeID) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodeByName returns the node with the given external name.
func (d *DAG) NodeByName(name string) (*Node, bool) {
	id, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.nodes[id], true
}

// Nodes returns all nodes sorted by ID.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges, grouped by source node ID.
func (d *DAG) Edges() []Edge {
	var edges []Edge
	for _, id := range slices.Sorted(maps.Keys(d.outgoing)) {
		edges = append(edges, d.outgoing[id]...)
	}
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int {
	n := 0
	for _, edges := range d.outgoing {
		n += len(edges)
	}
	return n
}

// Discovered returns the number of nodes expanded through Children.
func (d *DAG) Discovered() int { return len(d.expanded) }

// Validate checks graph integrity and returns nil if valid.
// Every edge must point to a strictly deeper level and the graph must be
// acyclic. Returns ErrLevelOrder or ErrGraphHasCycle.
func (d *DAG) Validate() error {
	for _, e := range d.Edges() {
		if d.nodes[e.To].Level <= d.nodes[e.From].Level {
			return ErrLevelOrder
		}
	}
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[structure.NodeID]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id structure.NodeID)
	dfs = func(id structure.NodeID) {
		color[id] = gray
		for _, e := range d.outgoing[id] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range slices.Sorted(maps.Keys(d.nodes)) {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

func (d *DAG) isSeen(id structure.NodeID) bool {
	_, ok := d.seen[id]
	return ok
}

func (d *DAG) isExpanded(id structure.NodeID) bool {
	_, ok := d.expanded[id]
	return ok
}

func (d *DAG) markSeen(id structure.NodeID) {
	if _, ok := d.nodes[id]; ok {
		d.seen[id] = struct{}{}
	}
}

var _ structure.Graph[string] = (*DAG)(nil)
