package dag_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/ddlayout/pkg/changes"
	"github.com/matzehuels/ddlayout/pkg/dag"
)

func ExampleDAG_Children() {
	// f -> {zero, one}, with the high edge listed first because tags sort.
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: 0, Name: "f", Level: 0})
	_ = g.AddNode(dag.Node{ID: 1, Name: "zero", Label: "0", Level: 1})
	_ = g.AddNode(dag.Node{ID: 2, Name: "one", Label: "1", Level: 1})
	_, _ = g.AddEdge(0, 1, "low")
	_, _ = g.AddEdge(0, 2, "high")

	children, _ := g.Children(g.Root())
	for _, c := range children {
		fmt.Println(c.Type, "->", g.NodeLabel(c.Node))
	}
	fmt.Println("Parents of one:", len(g.KnownParents(2)))
	// Output:
	// high -> 1
	// low -> 0
	// Parents of one: 1
}

func ExampleDAG_Commit() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: 0, Name: "f", Level: 0})
	_ = g.AddNode(dag.Node{ID: 1, Name: "one", Level: 1})
	g.OnChange(func(batch []changes.Change) { fmt.Println(batch) })

	_, _ = g.Children(g.Root())
	_, _ = g.AddEdge(0, 1, "high")
	_ = g.SetLabel(1, "1")
	g.Commit()
	// Output:
	// [node-inserted(1) connections-changed(0) node-label-changed(1)]
}

func ExampleDecode() {
	doc, _ := dag.Decode(strings.NewReader(`
nodes:
  - {name: f, level: 0}
  - {name: one, level: 1}
edges:
  - {from: f, to: one, tag: high}
`), dag.FormatYAML)

	g, err := dag.Build(doc)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	// Output:
	// Nodes: 2
	// Edges: 1
}
