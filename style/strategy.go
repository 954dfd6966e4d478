package style

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/labelmesh/label"
)

// Placement is where a strategy puts a label.
type Placement struct {
	Type label.Type
	Pos  mgl32.Vec2   // point labels
	Path []mgl32.Vec2 // line labels
}

// Strategy derives a label placement from a feature's geometry.
// It returns false when the geometry cannot carry a label.
type Strategy func(points []mgl32.Vec2) (Placement, bool)

// DefaultStrategies returns the strategy of each geometry type.
func DefaultStrategies() map[GeometryType]Strategy {
	return map[GeometryType]Strategy{
		GeometryPoint:   PointPlacement,
		GeometryLine:    LinePlacement,
		GeometryPolygon: PolygonPlacement,
	}
}

// PointPlacement labels the first point.
func PointPlacement(points []mgl32.Vec2) (Placement, bool) {
	if len(points) == 0 {
		return Placement{}, false
	}
	return Placement{Type: label.TypePoint, Pos: points[0]}, true
}

// maxRunTurn is the sharpest turn, in radians, kept inside one run.
const maxRunTurn = math.Pi / 4

// LinePlacement labels the longest run of the path without a turn sharper
// than 45 degrees.
func LinePlacement(points []mgl32.Vec2) (Placement, bool) {
	best, bestLen := [2]int{}, float32(0)
	start, runLen := 0, float32(0)
	prevAngle, havePrev := 0.0, false

	for i := 1; i < len(points); i++ {
		d := points[i].Sub(points[i-1])
		l := d.Len()
		if l == 0 {
			continue
		}
		angle := math.Atan2(float64(d[1]), float64(d[0]))
		if havePrev && turn(prevAngle, angle) > maxRunTurn {
			start, runLen = i-1, 0
		}
		prevAngle, havePrev = angle, true
		runLen += l
		if runLen > bestLen {
			best, bestLen = [2]int{start, i}, runLen
		}
	}
	if bestLen == 0 {
		return Placement{}, false
	}
	path := append([]mgl32.Vec2(nil), points[best[0]:best[1]+1]...)
	return Placement{Type: label.TypeLine, Path: path}, true
}

// turn returns the absolute difference of two angles in [0, π].
func turn(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// PolygonPlacement labels the area centroid of the ring. Degenerate rings
// fall back to the average of their points.
func PolygonPlacement(ring []mgl32.Vec2) (Placement, bool) {
	if len(ring) == 0 {
		return Placement{}, false
	}
	var area, cx, cy float64
	n := len(ring)
	for i := range n {
		a, b := ring[i], ring[(i+1)%n]
		cross := float64(a[0])*float64(b[1]) - float64(b[0])*float64(a[1])
		area += cross
		cx += (float64(a[0]) + float64(b[0])) * cross
		cy += (float64(a[1]) + float64(b[1])) * cross
	}
	if math.Abs(area) < 1e-9 {
		var sum mgl32.Vec2
		for _, p := range ring {
			sum = sum.Add(p)
		}
		return Placement{Type: label.TypePoint, Pos: sum.Mul(1 / float32(n))}, true
	}
	area *= 0.5
	return Placement{
		Type: label.TypePoint,
		Pos:  mgl32.Vec2{float32(cx / (6 * area)), float32(cy / (6 * area))},
	}, true
}
