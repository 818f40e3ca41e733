package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/ddlayout/pkg/dag"
	"github.com/matzehuels/ddlayout/pkg/structure"
	"github.com/matzehuels/ddlayout/pkg/watch"
)

const (
	nodeF structure.NodeID = iota
	nodeA
	nodeB
	nodeOne
)

// diamond builds f -low-> a, f -high-> b, a -high-> one, b -low-> one.
func diamond(t *testing.T, opts ...dag.Option) *dag.DAG {
	t.Helper()
	g := dag.New(nil, opts...)
	require.NoError(t, g.AddNode(dag.Node{ID: nodeF, Name: "f", Level: 0}))
	require.NoError(t, g.AddNode(dag.Node{ID: nodeA, Name: "a", Level: 1}))
	require.NoError(t, g.AddNode(dag.Node{ID: nodeB, Name: "b", Level: 1}))
	require.NoError(t, g.AddNode(dag.Node{ID: nodeOne, Name: "one", Label: "1", Level: 2}))
	for _, e := range []struct {
		from, to structure.NodeID
		tag      string
	}{{nodeF, nodeA, "low"}, {nodeF, nodeB, "high"}, {nodeA, nodeOne, "high"}, {nodeB, nodeOne, "low"}} {
		_, err := g.AddEdge(e.from, e.to, e.tag)
		require.NoError(t, err)
	}
	return g
}

func edge(tag string, g NodeGroupID) GroupEdge[string] {
	return GroupEdge[string]{Type: structure.EdgeType[string]{Tag: tag}, Group: g}
}

func TestNew_RootGroup(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)

	assert.Equal(t, []NodeGroupID{1}, m.Groups())
	assert.Equal(t, NodeGroupID(1), m.Root())
	assert.Equal(t, []structure.NodeID{nodeF}, m.Nodes(1))
	assert.Equal(t, []structure.NodeID{nodeA, nodeB}, m.Nodes(Hidden))
	assert.Equal(t, "f", m.Label(1))
	assert.Equal(t, watch.Stale, m.Stale().Get())
	assert.Equal(t, uint64(1), m.Version())

	children, err := m.Children(1)
	require.NoError(t, err)
	assert.Empty(t, children, "edges into the hidden group are omitted")
}

func TestExpand(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)

	created, err := m.Expand(1)
	require.NoError(t, err)
	assert.Equal(t, []NodeGroupID{2, 3}, created)

	ga, _ := m.GroupOf(nodeA)
	gb, _ := m.GroupOf(nodeB)
	assert.Equal(t, NodeGroupID(3), ga)
	assert.Equal(t, NodeGroupID(2), gb)
	assert.Equal(t, []structure.NodeID{nodeOne}, m.Nodes(Hidden))

	children, err := m.Children(1)
	require.NoError(t, err)
	assert.Equal(t, []GroupEdge[string]{edge("high", 2), edge("low", 3)}, children)
	assert.Equal(t, []GroupEdge[string]{edge("high", 1)}, m.Parents(2))

	start, end := m.LevelRange(3)
	assert.Equal(t, 1, start)
	assert.Equal(t, 1, end)
}

func TestCreateGroup_MergesAndReusesIDs(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)

	merged, err := m.CreateGroup([]structure.NodeID{nodeA, nodeB})
	require.NoError(t, err)
	assert.Equal(t, NodeGroupID(4), merged)
	assert.Equal(t, []NodeGroupID{1, 4}, m.Groups(), "emptied groups are freed")
	assert.Equal(t, "2 nodes", m.Label(merged))

	created, err := m.Expand(merged)
	require.NoError(t, err)
	assert.Equal(t, []NodeGroupID{2}, created, "most recently freed id is reused")

	children, err := m.Children(merged)
	require.NoError(t, err)
	assert.Equal(t, []GroupEdge[string]{edge("high", 2), edge("low", 2)}, children)

	parents := m.Parents(2)
	assert.Equal(t, []GroupEdge[string]{edge("high", merged), edge("low", merged)}, parents)
}

func TestCreateGroup_Errors(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)

	_, err = m.CreateGroup(nil)
	assert.ErrorIs(t, err, ErrEmptyGroup)

	_, err = m.CreateGroup([]structure.NodeID{nodeOne})
	assert.ErrorIs(t, err, ErrUnknownNode, "undiscovered node")

	_, err = m.Expand(Hidden)
	assert.ErrorIs(t, err, ErrUnknownGroup)

	_, err = m.Children(42)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestSource(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)

	id, err := m.CreateGroup([]structure.NodeID{nodeA, nodeOne})
	require.NoError(t, err)
	assert.Equal(t, []structure.NodeID{nodeA}, m.Source(id))

	start, end := m.LevelRange(id)
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)
}

func TestDiscoveryErrorsPropagate(t *testing.T) {
	m, err := New[string](diamond(t, dag.WithDiscoveryLimit(1)))
	require.NoError(t, err)

	_, err = m.Expand(1)
	assert.ErrorIs(t, err, dag.ErrDiscoveryLimit)
}

func TestGraphChanges_MarkStale(t *testing.T) {
	g := diamond(t)
	m, err := New[string](g)
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)

	m.MarkUpToDate()
	var states []watch.DataState
	m.Stale().Observe(func(s watch.DataState) { states = append(states, s) })
	before := m.Version()

	require.NoError(t, g.SetLabel(nodeA, "A"))
	g.Commit()

	assert.Equal(t, []watch.DataState{watch.Stale}, states)
	assert.Equal(t, before+1, m.Version())
	assert.Equal(t, "A", m.Label(3))
}

func TestGraphChanges_NodeRemoved(t *testing.T) {
	g := diamond(t)
	m, err := New[string](g)
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)
	_, err = m.Expand(2)
	require.NoError(t, err)
	gOne, ok := m.GroupOf(nodeOne)
	require.True(t, ok)

	require.NoError(t, g.RemoveNode(nodeOne))
	g.Commit()

	_, ok = m.GroupOf(nodeOne)
	assert.False(t, ok)
	assert.False(t, m.Exists(gOne), "empty group is freed")
	children, err := m.Children(2)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestGraphChanges_InsertedChildIsDiscovered(t *testing.T) {
	g := diamond(t)
	m, err := New[string](g)
	require.NoError(t, err)

	require.NoError(t, g.AddNode(dag.Node{ID: 9, Name: "zero", Level: 2}))
	_, err = g.AddEdge(nodeF, 9, "mid")
	require.NoError(t, err)
	g.Commit()

	gz, ok := m.GroupOf(9)
	require.True(t, ok)
	assert.Equal(t, Hidden, gz)

	created, err := m.Expand(1)
	require.NoError(t, err)
	assert.Len(t, created, 3)
}

func TestRemoveUnreachable(t *testing.T) {
	g := dag.New(nil)
	require.NoError(t, g.AddNode(dag.Node{ID: 0, Name: "f", Level: 0}))
	require.NoError(t, g.AddNode(dag.Node{ID: 1, Name: "a", Level: 1}))
	require.NoError(t, g.AddNode(dag.Node{ID: 2, Name: "c", Level: 2}))
	_, _ = g.AddEdge(0, 1, "low")
	_, _ = g.AddEdge(1, 2, "low")

	m, err := New[string](g)
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)
	_, err = m.Expand(2)
	require.NoError(t, err)
	require.Equal(t, []NodeGroupID{1, 2, 3}, m.Groups())

	assert.Empty(t, m.RemoveUnreachable(), "everything reachable")

	g.RemoveEdge(0, 1, "low", 0)
	g.Commit()

	assert.Equal(t, []NodeGroupID{1}, m.Groups(), "cut off groups are freed on commit")
	assert.Empty(t, m.Nodes(Hidden))
	_, ok := m.GroupOf(1)
	assert.False(t, ok)
	assert.Empty(t, m.RemoveUnreachable())

	// Freed ids are handed out again.
	require.NoError(t, g.AddNode(dag.Node{ID: 3, Name: "b", Level: 1}))
	_, err = g.AddEdge(0, 3, "high")
	require.NoError(t, err)
	g.Commit()
	created, err := m.Expand(1)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Contains(t, []NodeGroupID{2, 3}, created[0])
}

func TestGraphChanges_EdgeRemovalFreesGroup(t *testing.T) {
	g := diamond(t)
	m, err := New[string](g)
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)
	ga, ok := m.GroupOf(nodeA)
	require.True(t, ok)
	m.MarkUpToDate()

	g.RemoveEdge(nodeF, nodeA, "low", 0)
	g.Commit()

	assert.False(t, m.Exists(ga))
	_, ok = m.GroupOf(nodeA)
	assert.False(t, ok, "a is no longer tracked")
	assert.Len(t, m.Groups(), 2)
	assert.Equal(t, watch.Stale, m.Stale().Get())
}

func TestCollapse_FreesGroupsBelow(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)
	ga, _ := m.GroupOf(nodeA)
	gb, _ := m.GroupOf(nodeB)
	_, err = m.Expand(ga)
	require.NoError(t, err)
	gOne, _ := m.GroupOf(nodeOne)

	// one is still reachable through b.
	require.NoError(t, m.Collapse(ga))
	assert.True(t, m.Exists(gOne))

	require.NoError(t, m.Collapse(gb))
	assert.False(t, m.Exists(gOne), "one is only reachable through collapsed groups")
	assert.Equal(t, []NodeGroupID{1}, m.Groups())
	assert.ElementsMatch(t, []structure.NodeID{nodeA, nodeB}, m.Nodes(Hidden))
}

func TestCollapse(t *testing.T) {
	m, err := New[string](diamond(t))
	require.NoError(t, err)
	_, err = m.Expand(1)
	require.NoError(t, err)

	require.NoError(t, m.Collapse(2))
	assert.Equal(t, []NodeGroupID{1, 3}, m.Groups())
	assert.Contains(t, m.Nodes(Hidden), nodeB)

	require.NoError(t, m.Collapse(1), "root group stays")
	assert.Equal(t, []NodeGroupID{1, 3}, m.Groups())
}

func TestClose(t *testing.T) {
	g := diamond(t)
	m, err := New[string](g)
	require.NoError(t, err)
	m.Close()

	before := m.Version()
	g.SetLevelLabel(0, "x1")
	g.Commit()
	assert.Equal(t, before, m.Version())
}
