package dot

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// Output formats supported by [Renderer].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options configures DOT generation.
type Options struct {
	// Scale is the number of inches per layout unit. Zero means 1.
	Scale float64

	// EdgeLabels prints the edge tag next to every edge.
	EdgeLabels bool
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// ToDOT converts the layout, evaluated at now, to Graphviz DOT source.
// Elements that are invisible at now are omitted.
func ToDOT[T cmp.Ordered](l *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}, opts Options) string {
	s := opts.scale()
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")
	if l == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	minX := 0.0
	for _, id := range l.GroupIDs() {
		g := l.Groups[id]
		if !animate.Visible(g.Exists, now) {
			continue
		}
		pos := g.Position.At(now, animate.LerpPoint)
		size := g.Size.At(now, animate.LerpPoint)
		minX = min(minX, pos.X)

		attrs := fmt.Sprintf("label=%q, pos=%q, width=%s, height=%s, fillcolor=%q, color=%q",
			g.Label, pin(pos, s), num(size.X*s*0.8), num(size.Y*s*0.4),
			fill(hovered, id, g.Exists.At(now, animate.LerpFloat)),
			alpha("#000000", g.Exists.At(now, animate.LerpFloat)))
		if _, ok := selected[id]; ok {
			attrs += ", penwidth=3"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeName(id), attrs)
	}

	for _, level := range l.LayerKeys() {
		layer := l.Layers[level]
		if layer.Label == "" || !animate.Visible(layer.Exists, now) {
			continue
		}
		y := (layer.Start.At(now, animate.LerpFloat) + layer.End.At(now, animate.LerpFloat)) / 2
		fmt.Fprintf(&buf, "  %q [shape=plaintext, style=\"\", label=%q, pos=%q, fontcolor=%q];\n",
			fmt.Sprintf("layer%d", level), layer.Label, pin(animate.Point{X: minX - 2, Y: y}, s),
			alpha("#666666", layer.Exists.At(now, animate.LerpFloat)))
	}

	buf.WriteString("\n")
	for _, id := range l.GroupIDs() {
		g := l.Groups[id]
		if !animate.Visible(g.Exists, now) {
			continue
		}
		for _, target := range slices.Sorted(maps.Keys(g.Edges)) {
			if t, ok := l.Groups[target]; !ok || !animate.Visible(t.Exists, now) {
				continue
			}
			byType := g.Edges[target]
			for _, et := range slices.SortedFunc(maps.Keys(byType), structure.EdgeType[T].Compare) {
				writeEdge(&buf, id, target, et, byType[et], now, s, opts.EdgeLabels)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeEdge[T cmp.Ordered](buf *bytes.Buffer, from, to group.NodeGroupID, et structure.EdgeType[T], e animate.EdgeLayout, now int64, s float64, labels bool) {
	if !animate.Visible(e.Exists, now) {
		return
	}
	color := alpha("#333333", e.Exists.At(now, animate.LerpFloat))

	// Interior points become invisible bend nodes.
	names := []string{nodeName(from)}
	for i := 1; i+1 < len(e.Points); i++ {
		name := fmt.Sprintf("b%d_%d_%v_%d_%d", from, to, et.Tag, et.Index, i)
		p := e.Points[i].At(now, animate.LerpPoint)
		fmt.Fprintf(buf, "  %q [shape=point, width=0.01, pos=%q, style=invis];\n", name, pin(p, s))
		names = append(names, name)
	}
	names = append(names, nodeName(to))

	for i := 0; i+1 < len(names); i++ {
		attrs := fmt.Sprintf("color=%q", color)
		if i+2 < len(names) {
			attrs += ", arrowhead=none"
		}
		if labels && i == 0 {
			attrs += fmt.Sprintf(", label=%q", et.String())
		}
		fmt.Fprintf(buf, "  %q -> %q [%s];\n", names[i], names[i+1], attrs)
	}
}

func nodeName(id group.NodeGroupID) string { return "g" + strconv.Itoa(int(id)) }

// pin formats a pinned neato position in inches.
func pin(p animate.Point, scale float64) string {
	return num(p.X*scale) + "," + num(p.Y*scale) + "!"
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func fill(hovered map[group.NodeGroupID]struct{}, id group.NodeGroupID, opacity float64) string {
	if _, ok := hovered[id]; ok {
		return alpha("#fff3b0", opacity)
	}
	return alpha("#ffffff", opacity)
}

// alpha appends an opacity channel to an #rrggbb colour.
func alpha(color string, opacity float64) string {
	a := int(max(0, min(1, opacity))*255 + 0.5)
	return fmt.Sprintf("%s%02x", color, a)
}

// RenderSVG renders DOT source to SVG using Graphviz's neato engine.
func RenderSVG(src string) ([]byte, error) {
	out, err := render(src, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz's neato engine.
func RenderPNG(src string) ([]byte, error) {
	return render(src, graphviz.PNG)
}

func render(src string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Renderer writes every rendered frame to W in Format (dot, svg or png).
type Renderer[T cmp.Ordered] struct {
	W       io.Writer
	Format  string
	Options Options
}

// Render implements drawing.Renderer.
func (r Renderer[T]) Render(l *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) error {
	src := ToDOT(l, now, selected, hovered, r.Options)
	var (
		out []byte
		err error
	)
	switch r.Format {
	case FormatDOT, "":
		out = []byte(src)
	case FormatSVG:
		out, err = RenderSVG(src)
	case FormatPNG:
		out, err = RenderPNG(src)
	default:
		return fmt.Errorf("unsupported format %q", r.Format)
	}
	if err != nil {
		return err
	}
	_, err = r.W.Write(out)
	return err
}
