package dag

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/ddlayout/pkg/changes"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// diamond builds f -> {a, b} -> one.
func diamond(t *testing.T) *DAG {
	t.Helper()
	g := New(nil)
	for _, n := range []Node{
		{ID: 0, Name: "f", Level: 0},
		{ID: 1, Name: "a", Level: 1},
		{ID: 2, Name: "b", Level: 1},
		{ID: 3, Name: "one", Level: 2},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s) error = %v", n.Name, err)
		}
	}
	for _, e := range [][3]any{{0, 1, "low"}, {0, 2, "high"}, {1, 3, "high"}, {2, 3, "low"}} {
		if _, err := g.AddEdge(structure.NodeID(e[0].(int)), structure.NodeID(e[1].(int)), e[2].(string)); err != nil {
			t.Fatalf("AddEdge error = %v", err)
		}
	}
	return g
}

func collect(g *DAG) *[][]changes.Change {
	var batches [][]changes.Change
	g.OnChange(func(b []changes.Change) { batches = append(batches, append([]changes.Change(nil), b...)) })
	return &batches
}

func TestAddNode_Errors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{ID: -1}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(-1) error = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: 0, Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: 0}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate ID error = %v, want ErrDuplicateNodeID", err)
	}
	if err := g.AddNode(Node{ID: 1, Name: "x"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate name error = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdge_UnknownEndpoints(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: 0})
	if _, err := g.AddEdge(5, 0, "low"); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("error = %v, want ErrUnknownSourceNode", err)
	}
	if _, err := g.AddEdge(0, 5, "low"); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("error = %v, want ErrUnknownTargetNode", err)
	}
}

func TestAddEdge_ParallelIndices(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: 0})
	_ = g.AddNode(Node{ID: 1, Level: 1})

	e1, _ := g.AddEdge(0, 1, "high")
	e2, _ := g.AddEdge(0, 1, "high")
	e3, _ := g.AddEdge(0, 1, "low")

	if e1.Index != 0 || e2.Index != 1 || e3.Index != 0 {
		t.Errorf("indices = %d,%d,%d, want 0,1,0", e1.Index, e2.Index, e3.Index)
	}
}

func TestChildren_SortedAndDiscoversParents(t *testing.T) {
	g := diamond(t)

	if got := g.KnownParents(3); len(got) != 0 {
		t.Fatalf("KnownParents before discovery = %v, want none", got)
	}

	children, err := g.Children(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []structure.Edge[string]{
		{Type: structure.EdgeType[string]{Tag: "high"}, Node: 2},
		{Type: structure.EdgeType[string]{Tag: "low"}, Node: 1},
	}
	if !reflect.DeepEqual(children, want) {
		t.Errorf("Children(0) = %v, want %v", children, want)
	}

	if _, err := g.Children(1); err != nil {
		t.Fatal(err)
	}
	parents := g.KnownParents(3)
	if len(parents) != 1 || parents[0].Node != 1 {
		t.Errorf("KnownParents(3) = %v, want only node 1", parents)
	}
}

func TestChildren_UnknownNode(t *testing.T) {
	g := New(nil)
	if _, err := g.Children(4); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Children(unknown) error = %v, want ErrUnknownNode", err)
	}
}

func TestChildren_DiscoveryLimit(t *testing.T) {
	g := New(nil, WithDiscoveryLimit(1))
	_ = g.AddNode(Node{ID: 0})
	_ = g.AddNode(Node{ID: 1, Level: 1})
	_, _ = g.AddEdge(0, 1, "low")

	if _, err := g.Children(0); err != nil {
		t.Fatalf("first discovery error = %v", err)
	}
	if _, err := g.Children(0); err != nil {
		t.Errorf("repeated discovery of same node error = %v", err)
	}
	if _, err := g.Children(1); !errors.Is(err, ErrDiscoveryLimit) {
		t.Errorf("error = %v, want ErrDiscoveryLimit", err)
	}
}

func TestChanges_UnseenNodesAreSilent(t *testing.T) {
	g := diamond(t)
	batches := collect(g)

	_ = g.SetLabel(3, "1")
	g.Commit()

	if len(*batches) != 1 || len((*batches)[0]) != 0 {
		t.Errorf("batches = %v, want one empty batch", *batches)
	}
}

func TestChanges_ExpandedNodes(t *testing.T) {
	g := diamond(t)
	batches := collect(g)
	g.Root()
	_, _ = g.Children(0)

	_ = g.AddNode(Node{ID: 4, Name: "zero", Level: 2})
	_, _ = g.AddEdge(0, 4, "mid")
	_ = g.SetLabel(1, "x2")
	_ = g.SetLevel(2, 2)
	g.Commit()

	want := []changes.Change{
		{Kind: changes.NodeInserted, Node: 4},
		{Kind: changes.ConnectionsChanged, Node: 0},
		{Kind: changes.NodeLabelChanged, Node: 1},
		{Kind: changes.LevelChanged, Node: 2},
	}
	if len(*batches) != 1 || !reflect.DeepEqual((*batches)[0], want) {
		t.Errorf("batches = %v, want [%v]", *batches, want)
	}
}

func TestRemoveNode(t *testing.T) {
	g := diamond(t)
	batches := collect(g)
	_, _ = g.Children(0)
	_, _ = g.Children(1)

	if err := g.RemoveNode(3); err != nil {
		t.Fatal(err)
	}
	g.Commit()

	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("NodeCount, EdgeCount = %d, %d, want 3, 2", g.NodeCount(), g.EdgeCount())
	}
	want := []changes.Change{
		{Kind: changes.ConnectionsChanged, Node: 1},
		{Kind: changes.NodeRemoved, Node: 3},
	}
	if !reflect.DeepEqual((*batches)[0], want) {
		t.Errorf("batch = %v, want %v", (*batches)[0], want)
	}
	if err := g.RemoveNode(3); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("second RemoveNode error = %v, want ErrUnknownNode", err)
	}
}

func TestSetLevelLabel(t *testing.T) {
	g := diamond(t)
	batches := collect(g)
	_, _ = g.Children(0)

	g.SetLevelLabel(1, "x2")
	g.Commit()

	if g.LevelLabel(1) != "x2" {
		t.Errorf("LevelLabel(1) = %q, want x2", g.LevelLabel(1))
	}
	want := []changes.Change{
		{Kind: changes.LevelLabelChanged, Node: 1},
		{Kind: changes.LevelLabelChanged, Node: 2},
	}
	if !reflect.DeepEqual((*batches)[0], want) {
		t.Errorf("batch = %v, want %v", (*batches)[0], want)
	}
}

func TestValidate(t *testing.T) {
	g := diamond(t)
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	_, _ = g.AddEdge(3, 1, "low")
	if err := g.Validate(); !errors.Is(err, ErrLevelOrder) {
		t.Errorf("Validate() = %v, want ErrLevelOrder", err)
	}
}

func TestDetectCycles(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: 0})
	_ = g.AddNode(Node{ID: 1})
	_, _ = g.AddEdge(0, 1, "")
	_, _ = g.AddEdge(1, 0, "")

	if err := g.detectCycles(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("detectCycles() = %v, want ErrGraphHasCycle", err)
	}
}

func TestRootDefaultsToFirstNode(t *testing.T) {
	g := diamond(t)
	if g.Root() != 0 {
		t.Errorf("Root() = %d, want 0", g.Root())
	}
	if err := g.SetRoot(9); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetRoot(9) error = %v, want ErrUnknownNode", err)
	}
}
