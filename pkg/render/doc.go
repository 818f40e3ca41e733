// Package render groups the renderers that draw an animated diagram layout.
//
// Every renderer takes the layout, a point in time and the selected and
// hovered groups, and interpolates the transitions itself:
//
//   - [text]: a character grid for terminals
//   - [jsonsink]: one JSON frame per call, for other tools and for caching
//   - [dot]: Graphviz DOT with pinned positions, plus SVG and PNG via
//     go-graphviz
//
//	r := &text.Renderer[string]{W: os.Stdout}
//	err := r.Render(layout, now, selected, hovered)
//
// [text]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/render/text
// [jsonsink]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/render/jsonsink
// [dot]: https://pkg.go.dev/github.com/matzehuels/ddlayout/pkg/render/dot
package render
