// Package text renders layouts as plain text for terminals and logs.
//
// Groups are printed as bracketed labels on a character grid, edges as lines
// of '|', '-', '/' and '\' between them, and layer labels in a left margin.
// Selected groups are marked [*label*], hovered groups [>label<] and groups
// that are fading in or out (label).
package text

import (
	"bytes"
	"cmp"
	"io"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// Options controls the grid resolution.
type Options struct {
	CellWidth  float64 // columns per layout unit; zero means 4
	CellHeight float64 // rows per layout unit; zero means 1
}

func (o Options) cells() (float64, float64) {
	cw, ch := o.CellWidth, o.CellHeight
	if cw <= 0 {
		cw = 4
	}
	if ch <= 0 {
		ch = 1
	}
	return cw, ch
}

type box struct {
	pos  animate.Point
	text []rune
}

type segment struct{ from, to animate.Point }

type band struct {
	y     float64
	label []rune
}

// Render draws l at now and returns the text, one line per grid row with
// trailing spaces removed.
func Render[T cmp.Ordered](l *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}, opts Options) string {
	var (
		boxes []box
		segs  []segment
		bands []band
	)
	for _, id := range l.GroupIDs() {
		g := l.Groups[id]
		opacity := g.Exists.At(now, animate.LerpFloat)
		if opacity <= 0 {
			continue
		}
		boxes = append(boxes, box{pos: g.Position.At(now, animate.LerpPoint), text: decorate(id, g.Label, opacity, selected, hovered)})
		for _, target := range slices.Sorted(maps.Keys(g.Edges)) {
			edges := g.Edges[target]
			for _, et := range slices.SortedFunc(maps.Keys(edges), structure.EdgeType[T].Compare) {
				e := edges[et]
				if !animate.Visible(e.Exists, now) {
					continue
				}
				for i := 0; i+1 < len(e.Points); i++ {
					segs = append(segs, segment{e.Points[i].At(now, animate.LerpPoint), e.Points[i+1].At(now, animate.LerpPoint)})
				}
			}
		}
	}
	if len(boxes) == 0 {
		return ""
	}
	for _, level := range l.LayerKeys() {
		layer := l.Layers[level]
		if layer.Label == "" || !animate.Visible(layer.Exists, now) {
			continue
		}
		y := (layer.Start.At(now, animate.LerpFloat) + layer.End.At(now, animate.LerpFloat)) / 2
		bands = append(bands, band{y: y, label: []rune(layer.Label)})
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	widest := 0
	extend := func(p animate.Point) {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	for _, b := range boxes {
		extend(b.pos)
		widest = max(widest, len(b.text))
	}
	for _, s := range segs {
		extend(s.from)
		extend(s.to)
	}
	margin := 0
	for _, b := range bands {
		margin = max(margin, len(b.label)+1)
	}

	cw, ch := opts.cells()
	pad := margin + widest/2
	col := func(x float64) int { return pad + int(math.Round((x-minX)*cw)) }
	row := func(y float64) int { return int(math.Round((maxY - y) * ch)) }

	c := newCanvas(col(maxX)+widest/2+1, row(minY)+1)
	for _, s := range segs {
		c.line(row(s.from.Y), col(s.from.X), row(s.to.Y), col(s.to.X))
	}
	for _, b := range boxes {
		c.write(row(b.pos.Y), col(b.pos.X)-len(b.text)/2, b.text)
	}
	for _, b := range bands {
		c.write(row(b.y), 0, b.label)
	}
	return c.String()
}

func decorate(id group.NodeGroupID, label string, opacity float64, selected, hovered map[group.NodeGroupID]struct{}) []rune {
	if _, ok := selected[id]; ok {
		label = "*" + label + "*"
	}
	if _, ok := hovered[id]; ok {
		label = ">" + label + "<"
	}
	if opacity < 1 {
		return []rune("(" + label + ")")
	}
	return []rune("[" + label + "]")
}

type canvas struct {
	cells [][]rune
}

func newCanvas(width, height int) *canvas {
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", width))
	}
	return &canvas{cells: cells}
}

func (c *canvas) set(r, col int, ch rune) {
	if r < 0 || r >= len(c.cells) || col < 0 || col >= len(c.cells[r]) {
		return
	}
	c.cells[r][col] = ch
}

func (c *canvas) write(r, col int, text []rune) {
	for i, ch := range text {
		c.set(r, col+i, ch)
	}
}

// line draws a segment without overwriting anything already drawn.
func (c *canvas) line(r0, c0, r1, c1 int) {
	dr, dc := r1-r0, c1-c0
	steps := max(abs(dr), abs(dc))
	if steps == 0 {
		return
	}
	ch := '|'
	switch {
	case dr == 0:
		ch = '-'
	case dc == 0:
	case (dr > 0) == (dc > 0):
		ch = '\\'
	default:
		ch = '/'
	}
	for k := 0; k <= steps; k++ {
		r := r0 + int(math.Round(float64(dr*k)/float64(steps)))
		col := c0 + int(math.Round(float64(dc*k)/float64(steps)))
		if r >= 0 && r < len(c.cells) && col >= 0 && col < len(c.cells[r]) && c.cells[r][col] == ' ' {
			c.cells[r][col] = ch
		}
	}
}

func (c *canvas) String() string {
	var buf bytes.Buffer
	for _, r := range c.cells {
		buf.WriteString(strings.TrimRight(string(r), " "))
		buf.WriteByte('\n')
	}
	return buf.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Renderer writes every frame to W, followed by a blank line.
type Renderer[T cmp.Ordered] struct {
	W       io.Writer
	Options Options
}

// Render implements drawing.Renderer.
func (r Renderer[T]) Render(l *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) error {
	_, err := io.WriteString(r.W, Render(l, now, selected, hovered, r.Options)+"\n")
	return err
}
