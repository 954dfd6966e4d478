package label

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OBB is an oriented bounding box in screen pixels.
type OBB struct {
	Center mgl32.Vec2
	Half   mgl32.Vec2 // half extents along the box axes
	Angle  float32    // radians, clockwise in screen space
}

// Axes returns the unit x and y axes of the box.
func (b OBB) Axes() (x, y mgl32.Vec2) {
	sin, cos := math.Sincos(float64(b.Angle))
	x = mgl32.Vec2{float32(cos), float32(sin)}
	y = mgl32.Vec2{-float32(sin), float32(cos)}
	return x, y
}

// Corners returns the corners in the order top-left, top-right,
// bottom-right, bottom-left of the unrotated box.
func (b OBB) Corners() [4]mgl32.Vec2 {
	ax, ay := b.Axes()
	ex, ey := ax.Mul(b.Half[0]), ay.Mul(b.Half[1])
	return [4]mgl32.Vec2{
		b.Center.Sub(ex).Sub(ey),
		b.Center.Add(ex).Sub(ey),
		b.Center.Add(ex).Add(ey),
		b.Center.Sub(ex).Add(ey),
	}
}

// Intersects reports whether b and o overlap, by the separating axis test.
func (b OBB) Intersects(o OBB) bool {
	bx, by := b.Axes()
	ox, oy := o.Axes()
	bc, oc := b.Corners(), o.Corners()
	for _, axis := range [4]mgl32.Vec2{bx, by, ox, oy} {
		bmin, bmax := project(bc, axis)
		omin, omax := project(oc, axis)
		if bmax < omin || omax < bmin {
			return false
		}
	}
	return true
}

func project(corners [4]mgl32.Vec2, axis mgl32.Vec2) (lo, hi float32) {
	lo, hi = corners[0].Dot(axis), corners[0].Dot(axis)
	for _, c := range corners[1:] {
		d := c.Dot(axis)
		lo, hi = min(lo, d), max(hi, d)
	}
	return lo, hi
}
