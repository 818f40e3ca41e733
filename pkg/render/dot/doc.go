// Package dot renders animated layouts through Graphviz.
//
// # Overview
//
// [ToDOT] evaluates a layout at one point in time and emits Graphviz DOT
// source in which every group is pinned to its computed position. Edge bends
// become invisible point nodes so the routing computed by the layout engine
// is kept instead of being re-routed by Graphviz. Selected groups get a
// thick outline and hovered groups a highlighted fill; fading elements are
// drawn with partial opacity.
//
// # Usage
//
//	src := dot.ToDOT(layout, now, selected, hovered, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//	png, err := dot.RenderPNG(src)
//
// [Renderer] wraps these steps behind the drawing orchestrator's renderer
// interface and writes DOT, SVG or PNG to an io.Writer.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering
// with the neato engine, which honours pinned positions.
package dot
