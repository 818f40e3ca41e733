// Package pkg provides the libraries behind ddlayout, an incremental layered
// layout and animation engine for decision diagrams.
//
// # Overview
//
// A decision diagram is a rooted DAG whose nodes sit on variable levels and
// whose edges carry tags such as "low" and "high". ddlayout draws such a
// diagram one group at a time: nodes are gathered into groups, groups are
// expanded and collapsed interactively, and every change produces a new
// layout that animates from the previous one.
//
// The data flow:
//
//	document (TOML, YAML, JSON)
//	         ↓
//	    [dag] (graph, levels, change notifications)
//	         ↓
//	    [group] (node groups, expand, collapse, merge)
//	         ↓
//	    [layered] (layering, dummies, ordering, positioning, routing)
//	         ↓
//	    [animate] (transitions between the old and new layout)
//	         ↓
//	    [render] (text, JSON frames, DOT, SVG, PNG)
//
// [drawing] ties a group manager, a layout strategy and a renderer together
// and keeps the current layout in step with the graph.
//
// # Quick Start
//
//	g, err := dag.ReadFile("diagram.toml")
//	if err != nil {
//	    return err
//	}
//	m, err := group.New[string](g)
//	if err != nil {
//	    return err
//	}
//	d := drawing.New[string](m, layered.Layout[string]{Duration: 300},
//	    &text.Renderer[string]{W: os.Stdout})
//	defer d.Close()
//
//	if _, err := m.Expand(m.Root()); err != nil {
//	    return err
//	}
//	if _, err := d.Layout(0); err != nil {
//	    return err
//	}
//	err = d.Render(300, nil, nil)
//
// # Supporting Packages
//
// [structure] holds the identifiers shared by every layer. [watch] and
// [changes] provide observable values and batched change dispatch. [freeid]
// hands out reusable group identifiers.
//
// [config] loads layout, render and cache settings from files and DDLAYOUT_*
// environment variables. [cache] stores settled layouts and rendered artifacts
// in memory, on disk or in Redis. [observability] exposes hooks that
// [metrics] implements with Prometheus. [errors] carries user-facing error
// codes.
//
// [structure]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/structure
// [watch]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/watch
// [changes]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/changes
// [freeid]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/freeid
// [dag]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/dag
// [group]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/group
// [layered]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/layered
// [animate]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/animate
// [drawing]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/drawing
// [render]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/render
// [config]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/observability
// [metrics]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/metrics
// [errors]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/errors
package pkg
