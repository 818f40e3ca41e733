// Package jsonsink renders a layout as a JSON frame.
//
// A frame is the layout evaluated at one point in time: every transition is
// interpolated, invisible elements are dropped, and maps are flattened into
// sorted slices so the output is deterministic. Frames are what the CLI
// caches and what external viewers consume.
package jsonsink

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/group"
	"github.com/matzehuels/ddlayout/pkg/structure"
)

// Frame is a layout evaluated at Time.
type Frame struct {
	Time   int64   `json:"time"`
	Groups []Group `json:"groups"`
	Layers []Layer `json:"layers,omitempty"`
}

// Group is one visible group box.
type Group struct {
	ID       int     `json:"id"`
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Opacity  float64 `json:"opacity"`
	Selected bool    `json:"selected,omitempty"`
	Hovered  bool    `json:"hovered,omitempty"`
	Edges    []Edge  `json:"edges,omitempty"`
}

// Edge is one visible outgoing edge.
type Edge struct {
	To      int          `json:"to"`
	Tag     string       `json:"tag"`
	Index   int          `json:"index,omitempty"`
	Opacity float64      `json:"opacity"`
	Points  [][2]float64 `json:"points"`
}

// Layer is one visible layer band.
type Layer struct {
	Level   int     `json:"level"`
	Index   int     `json:"index"`
	Label   string  `json:"label,omitempty"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Opacity float64 `json:"opacity"`
}

// Snapshot evaluates l at now.
func Snapshot[T cmp.Ordered](l *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) Frame {
	f := Frame{Time: now, Groups: []Group{}}
	if l == nil {
		return f
	}

	for _, id := range l.GroupIDs() {
		g := l.Groups[id]
		opacity := g.Exists.At(now, animate.LerpFloat)
		if opacity <= 0 {
			continue
		}
		pos := g.Position.At(now, animate.LerpPoint)
		size := g.Size.At(now, animate.LerpPoint)
		_, sel := selected[id]
		_, hov := hovered[id]
		f.Groups = append(f.Groups, Group{
			ID:       int(id),
			Label:    g.Label,
			X:        pos.X,
			Y:        pos.Y,
			Width:    size.X,
			Height:   size.Y,
			Opacity:  opacity,
			Selected: sel,
			Hovered:  hov,
			Edges:    edges(g.Edges, now),
		})
	}

	for _, level := range l.LayerKeys() {
		layer := l.Layers[level]
		opacity := layer.Exists.At(now, animate.LerpFloat)
		if opacity <= 0 {
			continue
		}
		f.Layers = append(f.Layers, Layer{
			Level:   level,
			Index:   layer.Index,
			Label:   layer.Label,
			Start:   layer.Start.At(now, animate.LerpFloat),
			End:     layer.End.At(now, animate.LerpFloat),
			Opacity: opacity,
		})
	}
	return f
}

func edges[T cmp.Ordered](all map[group.NodeGroupID]map[structure.EdgeType[T]]animate.EdgeLayout, now int64) []Edge {
	var out []Edge
	for _, target := range slices.Sorted(maps.Keys(all)) {
		byType := all[target]
		types := slices.SortedFunc(maps.Keys(byType), structure.EdgeType[T].Compare)
		for _, et := range types {
			e := byType[et]
			opacity := e.Exists.At(now, animate.LerpFloat)
			if opacity <= 0 {
				continue
			}
			points := make([][2]float64, len(e.Points))
			for i, p := range e.Points {
				at := p.At(now, animate.LerpPoint)
				points[i] = [2]float64{at.X, at.Y}
			}
			out = append(out, Edge{
				To:      int(target),
				Tag:     fmt.Sprint(et.Tag),
				Index:   et.Index,
				Opacity: opacity,
				Points:  points,
			})
		}
	}
	return out
}

// RenderJSON encodes a frame as pretty-printed JSON.
func RenderJSON(f Frame) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Sink is a renderer that writes one JSON frame per Render call to W.
type Sink[T cmp.Ordered] struct {
	W io.Writer
}

// Render implements drawing.Renderer.
func (s Sink[T]) Render(l *animate.DiagramLayout[T], now int64, selected, hovered map[group.NodeGroupID]struct{}) error {
	data, err := RenderJSON(Snapshot(l, now, selected, hovered))
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data = append(data, '\n')
	_, err = s.W.Write(data)
	return err
}
