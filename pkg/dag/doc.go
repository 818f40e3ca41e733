// Package dag provides an in-memory decision diagram that satisfies the
// [structure.Graph] contract used by the layout engine.
//
// # Overview
//
// Nodes live on integer levels and are connected by tagged edges (for a binary
// decision diagram the tags are typically "low" and "high"). Several parallel
// edges with the same tag may connect the same pair of nodes; [DAG.AddEdge]
// numbers them so each one has a distinct [structure.EdgeType].
//
// # Discovery
//
// The layout engine never walks the whole diagram. It starts at [DAG.Root] and
// calls [DAG.Children] for the nodes it wants to show. The DAG tracks which
// nodes have been seen and expanded this way:
//
//   - [DAG.KnownParents] only reports edges from expanded parents
//   - mutations of nodes that were never seen do not produce change events
//   - [WithDiscoveryLimit] caps the number of expanded nodes
//
// # Changes
//
// Mutation methods ([DAG.AddEdge], [DAG.RemoveNode], [DAG.SetLabel], ...)
// record [changes.Change] events on an internal hub. [DAG.Commit] dispatches
// them as one batch to every listener registered with [DAG.OnChange]:
//
//	g := dag.New(nil)
//	_ = g.AddNode(dag.Node{ID: 0, Name: "f", Level: 0})
//	_ = g.AddNode(dag.Node{ID: 1, Name: "one", Level: 1})
//	g.OnChange(func(batch []changes.Change) { /* invalidate */ })
//	g.Children(g.Root())
//	_, _ = g.AddEdge(0, 1, "high")
//	g.Commit() // listener receives [connections-changed(0) node-inserted(1)]
//
// # Documents
//
// [ReadFile] and [Decode] build a DAG from TOML, YAML or JSON documents, and
// [Apply] replays a changed document onto an existing DAG as a minimal set of
// mutations, which is how file watchers feed incremental updates.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
package dag
