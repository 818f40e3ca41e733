package layered

import (
	"github.com/matzehuels/ddlayout/pkg/animate"
	"github.com/matzehuels/ddlayout/pkg/group"
)

// LayerPositioning maps every group and dummy of an ordered layering to a
// point. The result must contain a point for every group of every layer.
type LayerPositioning interface {
	PositionNodes(g View, layers []Order, edges EdgeMap, dummyStart group.NodeGroupID) map[group.NodeGroupID]animate.Point
}

// Basic places the group at position i of layer L at (i*2, -L*2).
type Basic struct{}

// PositionNodes implements LayerPositioning.
func (Basic) PositionNodes(_ View, layers []Order, _ EdgeMap, _ group.NodeGroupID) map[group.NodeGroupID]animate.Point {
	points := make(map[group.NodeGroupID]animate.Point)
	for layer, order := range layers {
		for id, i := range order {
			points[id] = animate.Point{X: float64(i) * 2, Y: float64(-layer) * 2}
		}
	}
	return points
}

// Centered spaces groups Spacing apart and centres every layer on x = 0.
// Layers are Spacing apart as well. Zero Spacing means 2.
type Centered struct {
	Spacing float64
}

// PositionNodes implements LayerPositioning.
func (c Centered) PositionNodes(_ View, layers []Order, _ EdgeMap, _ group.NodeGroupID) map[group.NodeGroupID]animate.Point {
	spacing := c.Spacing
	if spacing <= 0 {
		spacing = 2
	}
	points := make(map[group.NodeGroupID]animate.Point)
	for layer, order := range layers {
		mid := float64(len(order)-1) / 2
		for id, i := range order {
			points[id] = animate.Point{X: (float64(i) - mid) * spacing, Y: float64(-layer) * spacing}
		}
	}
	return points
}
