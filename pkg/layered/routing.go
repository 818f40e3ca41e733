package layered

import (
	"math"

	"github.com/matzehuels/ddlayout/pkg/animate"
)

// collinearTolerance bounds twice the signed triangle area under which three
// points count as collinear.
const collinearTolerance = 1e-5

// SimplifyBends removes interior points that are collinear with their
// neighbours. The first and last points are always kept and inputs of up to
// two points are returned unchanged.
func SimplifyBends(points []animate.Point) []animate.Point {
	if len(points) <= 2 {
		return points
	}
	out := make([]animate.Point, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points)-1; i++ {
		// Collinearity is measured against the last kept point, not the
		// original neighbour.
		prev, cur, next := out[len(out)-1], points[i], points[i+1]
		area2 := (cur.X-prev.X)*(next.Y-prev.Y) - (next.X-prev.X)*(cur.Y-prev.Y)
		if math.Abs(area2) > collinearTolerance {
			out = append(out, cur)
		}
	}
	return append(out, points[len(points)-1])
}
