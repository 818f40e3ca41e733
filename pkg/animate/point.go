package animate

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointKey is the reduced-precision form of a Point, usable as a map key.
type PointKey struct {
	X, Y int64
}

const precision = 100

func round(v float64) int64 { return int64(math.Round(v * precision)) }

// Key rounds p to the nearest 1/100 unit.
func (p Point) Key() PointKey { return PointKey{X: round(p.X), Y: round(p.Y)} }

// Equal compares points at 1/100 precision.
func (p Point) Equal(o Point) bool { return p.Key() == o.Key() }

// Add returns p+o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Sub returns p-o.
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Scale returns p*f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// LerpPoint linearly interpolates between two points.
func LerpPoint(a, b Point, p float64) Point {
	return Point{X: LerpFloat(a.X, b.X, p), Y: LerpFloat(a.Y, b.Y, p)}
}
