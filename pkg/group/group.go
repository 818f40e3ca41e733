// Package group maps raw graph nodes onto visual node groups.
//
// A [Manager] sits between a lazily discovered [structure.Graph] and the
// layout pipeline. Every discovered node belongs to exactly one group. Group
// [Hidden] collects nodes that were discovered as children of visible nodes
// but have not been expanded yet; every other group is drawn as one box.
//
// Group identifiers are allocated from a [freeid.Allocator] so that ids of
// removed groups are reused, but two live groups never share an id.
//
// Groups that can no longer be reached from the root group are freed as soon
// as a collapse or a graph change cuts them off, so their ids are reused.
//
// The manager listens to the graph's change hub. Every batch that touches a
// tracked node marks the manager as stale through [Manager.Stale] and bumps
// [Manager.Version], which is what the drawing orchestrator observes to decide
// when a layout pass is needed and whether a finished pass is still current.
//
// Managers are not safe for concurrent use.
package group

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddlayout/pkg/changes"
	"github.com/matzehuels/ddlayout/pkg/freeid"
	"github.com/matzehuels/ddlayout/pkg/structure"
	"github.com/matzehuels/ddlayout/pkg/watch"
)

// NodeGroupID identifies a visual group of raw nodes.
type NodeGroupID int

// Hidden is the group holding discovered but collapsed nodes. It is never
// laid out.
const Hidden NodeGroupID = 0

var (
	// ErrUnknownGroup is returned when a group id is not live.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrUnknownNode is returned when a node has not been discovered.
	ErrUnknownNode = errors.New("node not discovered")

	// ErrEmptyGroup is returned by CreateGroup when no nodes are given.
	ErrEmptyGroup = errors.New("group must contain at least one node")
)

// GroupEdge is an edge between two groups.
type GroupEdge[T cmp.Ordered] struct {
	Type  structure.EdgeType[T]
	Group NodeGroupID
}

func compareGroupEdges[T cmp.Ordered](a, b GroupEdge[T]) int {
	if c := cmp.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	return a.Type.Compare(b.Type)
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Manager groups the nodes of a graph.
type Manager[T cmp.Ordered] struct {
	graph  structure.Graph[T]
	ids    *freeid.Allocator
	logger *log.Logger

	members   map[NodeGroupID]map[structure.NodeID]struct{}
	nodeGroup map[structure.NodeID]NodeGroupID

	// children caches discovered outgoing edges; an absent entry means the
	// node must be rediscovered before use.
	children map[structure.NodeID][]structure.Edge[T]

	handle  changes.Handle
	stale   *watch.Watchable[watch.DataState]
	version uint64
}

// New creates a manager over g. The root is discovered and placed in its own
// group, and its children are discovered into the hidden group. Discovery
// errors are returned unmodified. A new manager starts out stale.
func New[T cmp.Ordered](g structure.Graph[T], opts ...Option) (*Manager[T], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	m := &Manager[T]{
		graph:     g,
		ids:       freeid.New(1),
		logger:    o.logger,
		members:   map[NodeGroupID]map[structure.NodeID]struct{}{Hidden: {}},
		nodeGroup: make(map[structure.NodeID]NodeGroupID),
		children:  make(map[structure.NodeID][]structure.Edge[T]),
		stale:     watch.NewTracker(),
	}

	root := g.Root()
	m.nodeGroup[root] = Hidden
	m.members[Hidden][root] = struct{}{}
	if _, err := m.CreateGroup([]structure.NodeID{root}); err != nil {
		return nil, err
	}
	m.handle = g.OnChange(m.handleChanges)
	return m, nil
}

// Close detaches the manager from the graph's change hub.
func (m *Manager[T]) Close() {
	m.graph.OffChange(m.handle)
}

// Graph returns the underlying graph.
func (m *Manager[T]) Graph() structure.Graph[T] { return m.graph }

// Stale returns the tracker that flips to Stale whenever the grouping or the
// underlying graph changed since the last call to MarkUpToDate.
func (m *Manager[T]) Stale() *watch.Watchable[watch.DataState] { return m.stale }

// Version increases on every change that can affect a layout.
func (m *Manager[T]) Version() uint64 { return m.version }

// MarkUpToDate resets the stale tracker.
func (m *Manager[T]) MarkUpToDate() { m.stale.Set(watch.UpToDate) }

// Groups returns the live visible groups in ascending order.
func (m *Manager[T]) Groups() []NodeGroupID {
	ids := make([]NodeGroupID, 0, len(m.members))
	for id := range m.members {
		if id != Hidden {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Exists reports whether id is a live group. Hidden always exists.
func (m *Manager[T]) Exists(id NodeGroupID) bool {
	_, ok := m.members[id]
	return ok
}

// Nodes returns the nodes of a group in ascending order.
func (m *Manager[T]) Nodes(id NodeGroupID) []structure.NodeID {
	return slices.Sorted(maps.Keys(m.members[id]))
}

// GroupOf returns the group of a discovered node.
func (m *Manager[T]) GroupOf(n structure.NodeID) (NodeGroupID, bool) {
	g, ok := m.nodeGroup[n]
	return g, ok
}

// Root returns the group containing the graph root.
func (m *Manager[T]) Root() NodeGroupID {
	return m.nodeGroup[m.graph.Root()]
}

// CreateGroup moves the given discovered nodes into a new group and returns
// its id. Groups left empty are freed. The children of the moved nodes are
// discovered; children that are not in any group yet land in the hidden group.
func (m *Manager[T]) CreateGroup(nodes []structure.NodeID) (NodeGroupID, error) {
	if len(nodes) == 0 {
		return 0, ErrEmptyGroup
	}
	for _, n := range nodes {
		if _, ok := m.nodeGroup[n]; !ok {
			return 0, fmt.Errorf("node %d: %w", n, ErrUnknownNode)
		}
	}

	id := NodeGroupID(m.ids.Next())
	m.members[id] = make(map[structure.NodeID]struct{}, len(nodes))
	for _, n := range nodes {
		m.move(n, id)
	}
	for _, n := range nodes {
		if err := m.discover(n); err != nil {
			return id, err
		}
	}

	m.logger.Debug("group created", "group", id, "nodes", len(nodes))
	m.touch()
	return id, nil
}

// Expand gives every hidden child of the nodes in id its own group and
// returns the new groups in ascending order.
func (m *Manager[T]) Expand(id NodeGroupID) ([]NodeGroupID, error) {
	if id == Hidden || !m.Exists(id) {
		return nil, fmt.Errorf("group %d: %w", id, ErrUnknownGroup)
	}

	var hidden []structure.NodeID
	for _, n := range m.Nodes(id) {
		edges, err := m.edges(n)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if g, ok := m.nodeGroup[e.Node]; ok && g == Hidden && !slices.Contains(hidden, e.Node) {
				hidden = append(hidden, e.Node)
			}
		}
	}

	created := make([]NodeGroupID, 0, len(hidden))
	for _, n := range hidden {
		g, err := m.CreateGroup([]structure.NodeID{n})
		if err != nil {
			return created, err
		}
		created = append(created, g)
	}
	slices.Sort(created)
	return created, nil
}

// Collapse moves the nodes of id back into the hidden group, except for the
// root which always stays visible. Groups that were only reachable through id
// are freed.
func (m *Manager[T]) Collapse(id NodeGroupID) error {
	if id == Hidden || !m.Exists(id) {
		return fmt.Errorf("group %d: %w", id, ErrUnknownGroup)
	}
	if id == m.Root() {
		return nil
	}
	for _, n := range m.Nodes(id) {
		m.move(n, Hidden)
	}
	if removed := m.prune(); len(removed) > 0 {
		m.logger.Debug("unreachable groups removed", "groups", removed)
	}
	m.touch()
	return nil
}

// Children returns the outgoing edges of a group, deduplicated by edge type
// and target group and sorted by target then type. Edges into the hidden
// group and edges between nodes of the same group are omitted.
func (m *Manager[T]) Children(id NodeGroupID) ([]GroupEdge[T], error) {
	if !m.Exists(id) {
		return nil, fmt.Errorf("group %d: %w", id, ErrUnknownGroup)
	}
	seen := make(map[GroupEdge[T]]struct{})
	var out []GroupEdge[T]
	for _, n := range m.Nodes(id) {
		edges, err := m.edges(n)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			target, ok := m.nodeGroup[e.Node]
			if !ok || target == Hidden || target == id {
				continue
			}
			ge := GroupEdge[T]{Type: e.Type, Group: target}
			if _, dup := seen[ge]; !dup {
				seen[ge] = struct{}{}
				out = append(out, ge)
			}
		}
	}
	slices.SortFunc(out, compareGroupEdges[T])
	return out, nil
}

// Parents returns the known incoming edges of a group from other visible
// groups, deduplicated and sorted like Children. It never discovers.
func (m *Manager[T]) Parents(id NodeGroupID) []GroupEdge[T] {
	seen := make(map[GroupEdge[T]]struct{})
	var out []GroupEdge[T]
	for n := range m.members[id] {
		for _, p := range m.graph.KnownParents(n) {
			source, ok := m.nodeGroup[p.Node]
			if !ok || source == Hidden || source == id {
				continue
			}
			ge := GroupEdge[T]{Type: p.Type, Group: source}
			if _, dup := seen[ge]; !dup {
				seen[ge] = struct{}{}
				out = append(out, ge)
			}
		}
	}
	slices.SortFunc(out, compareGroupEdges[T])
	return out
}

// Source returns the entry nodes of a group: members without a known parent
// inside the same group.
func (m *Manager[T]) Source(id NodeGroupID) []structure.NodeID {
	var out []structure.NodeID
	for _, n := range m.Nodes(id) {
		internal := slices.ContainsFunc(m.graph.KnownParents(n), func(p structure.Edge[T]) bool {
			g, ok := m.nodeGroup[p.Node]
			return ok && g == id
		})
		if !internal {
			out = append(out, n)
		}
	}
	return out
}

// LevelRange returns the smallest and largest level of the nodes in a group.
// Empty or unknown groups report (0, 0).
func (m *Manager[T]) LevelRange(id NodeGroupID) (start, end int) {
	first := true
	for n := range m.members[id] {
		level := m.graph.Level(n)
		if first {
			start, end, first = level, level, false
			continue
		}
		start = min(start, level)
		end = max(end, level)
	}
	return start, end
}

// Label returns the display label of a group: the node label for single-node
// groups and a node count otherwise.
func (m *Manager[T]) Label(id NodeGroupID) string {
	nodes := m.Nodes(id)
	switch len(nodes) {
	case 0:
		return ""
	case 1:
		return m.graph.NodeLabel(nodes[0])
	default:
		return fmt.Sprintf("%d nodes", len(nodes))
	}
}

// RemoveUnreachable frees every visible group that cannot be reached from the
// root group and forgets hidden nodes that are no longer children of a
// visible node. It returns the removed groups in ascending order.
//
// Collapse and graph changes already prune, so this only finds something
// after an earlier rediscovery failed. Visible nodes without cached children
// are rediscovered; if that fails nothing is removed.
func (m *Manager[T]) RemoveUnreachable() []NodeGroupID {
	removed := m.prune()
	if len(removed) > 0 {
		m.logger.Debug("unreachable groups removed", "groups", removed)
		m.touch()
	}
	return removed
}

func (m *Manager[T]) prune() []NodeGroupID {
	if _, ok := m.nodeGroup[m.graph.Root()]; !ok {
		return nil
	}
	root := m.Root()
	reached := map[NodeGroupID]struct{}{root: {}}
	queue := []NodeGroupID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for n := range m.members[id] {
			edges, err := m.edges(n)
			if err != nil {
				m.logger.Warn("skipping prune, rediscovery failed", "node", n, "err", err)
				return nil
			}
			for _, e := range edges {
				g, ok := m.nodeGroup[e.Node]
				if !ok || g == Hidden {
					continue
				}
				if _, done := reached[g]; !done {
					reached[g] = struct{}{}
					queue = append(queue, g)
				}
			}
		}
	}

	var removed []NodeGroupID
	for _, id := range m.Groups() {
		if _, ok := reached[id]; ok {
			continue
		}
		for n := range m.members[id] {
			m.forget(n)
		}
		delete(m.members, id)
		m.ids.MakeAvailable(int(id))
		removed = append(removed, id)
	}
	m.pruneHidden()
	return removed
}

// pruneHidden forgets hidden nodes that no visible node points to.
func (m *Manager[T]) pruneHidden() {
	wanted := make(map[structure.NodeID]struct{})
	for id, nodes := range m.members {
		if id == Hidden {
			continue
		}
		for n := range nodes {
			for _, e := range m.children[n] {
				wanted[e.Node] = struct{}{}
			}
		}
	}
	for n := range m.members[Hidden] {
		if _, ok := wanted[n]; !ok {
			m.forget(n)
		}
	}
}

func (m *Manager[T]) edges(n structure.NodeID) ([]structure.Edge[T], error) {
	if edges, ok := m.children[n]; ok {
		return edges, nil
	}
	if err := m.discover(n); err != nil {
		return nil, err
	}
	return m.children[n], nil
}

// discover fetches the children of n and places unknown ones in the hidden
// group.
func (m *Manager[T]) discover(n structure.NodeID) error {
	edges, err := m.graph.Children(n)
	if err != nil {
		return err
	}
	m.children[n] = edges
	for _, e := range edges {
		if _, ok := m.nodeGroup[e.Node]; !ok {
			m.nodeGroup[e.Node] = Hidden
			m.members[Hidden][e.Node] = struct{}{}
		}
	}
	return nil
}

// move reassigns n to group to, freeing its previous group if it became empty.
func (m *Manager[T]) move(n structure.NodeID, to NodeGroupID) {
	from := m.nodeGroup[n]
	delete(m.members[from], n)
	m.nodeGroup[n] = to
	m.members[to][n] = struct{}{}
	m.freeIfEmpty(from)
}

func (m *Manager[T]) forget(n structure.NodeID) {
	if g, ok := m.nodeGroup[n]; ok {
		delete(m.members[g], n)
	}
	delete(m.nodeGroup, n)
	delete(m.children, n)
}

func (m *Manager[T]) freeIfEmpty(id NodeGroupID) {
	if id == Hidden || len(m.members[id]) > 0 {
		return
	}
	if _, ok := m.members[id]; !ok {
		return
	}
	delete(m.members, id)
	m.ids.MakeAvailable(int(id))
}

// invalidateParents drops the cached children of tracked parents of n so the
// inserted node is picked up on the next discovery.
func (m *Manager[T]) invalidateParents(n structure.NodeID) bool {
	found := false
	for _, p := range m.graph.KnownParents(n) {
		if _, ok := m.nodeGroup[p.Node]; ok {
			delete(m.children, p.Node)
			found = true
		}
	}
	return found
}

func (m *Manager[T]) touch() {
	m.version++
	m.stale.Set(watch.Stale)
}

func (m *Manager[T]) handleChanges(batch []changes.Change) {
	relevant, structural := false, false
	for _, c := range batch {
		n := structure.NodeID(c.Node)
		g, tracked := m.nodeGroup[n]
		if !tracked {
			if c.Kind == changes.NodeInserted && m.invalidateParents(n) {
				relevant = true
			}
			continue
		}
		relevant = true

		switch c.Kind {
		case changes.NodeRemoved:
			structural = true
			m.forget(n)
			m.freeIfEmpty(g)
		case changes.ConnectionsChanged:
			structural = true
			delete(m.children, n)
			if g != Hidden {
				if err := m.discover(n); err != nil {
					// Retried on the next Children call for the group.
					m.logger.Warn("rediscovery failed", "node", n, "err", err)
				}
			}
		}
	}
	if !relevant {
		return
	}
	if structural {
		if removed := m.prune(); len(removed) > 0 {
			m.logger.Debug("unreachable groups removed", "groups", removed)
		}
	}
	m.logger.Debug("graph changed", "changes", len(batch))
	m.touch()
}
