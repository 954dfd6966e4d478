package text

import "math"

// PositionScale is the fixed-point factor of quad positions: a stored value
// of 4 is one pixel.
const PositionScale = 4

// QuadVertex is one corner of a glyph quad. Pos is in PositionScale units
// relative to the label's top-left corner; UV is in atlas texels.
type QuadVertex struct {
	Pos [2]int16
	UV  [2]uint16
}

// GlyphQuad is a textured rectangle for one glyph.
// Corners are ordered top-left, bottom-left, top-right, bottom-right so that
// QuadIndices draws it as two triangles.
type GlyphQuad struct {
	Atlas int
	Quad  [4]QuadVertex
}

// QuadIndices are the triangle indices of one GlyphQuad.
var QuadIndices = [6]uint16{0, 1, 2, 2, 1, 3}

func newGlyphQuad(page int, x0, y0, x1, y1 float64, u0, v0, u1, v1 int) GlyphQuad {
	px0, py0 := scalePos(x0), scalePos(y0)
	px1, py1 := scalePos(x1), scalePos(y1)
	tu0, tv0, tu1, tv1 := uint16(u0), uint16(v0), uint16(u1), uint16(v1)
	return GlyphQuad{
		Atlas: page,
		Quad: [4]QuadVertex{
			{Pos: [2]int16{px0, py0}, UV: [2]uint16{tu0, tv0}},
			{Pos: [2]int16{px0, py1}, UV: [2]uint16{tu0, tv1}},
			{Pos: [2]int16{px1, py0}, UV: [2]uint16{tu1, tv0}},
			{Pos: [2]int16{px1, py1}, UV: [2]uint16{tu1, tv1}},
		},
	}
}

func scalePos(v float64) int16 {
	s := math.Round(v * PositionScale)
	return int16(max(math.MinInt16, min(math.MaxInt16, s)))
}

// Bounds returns the quad rectangle in pixels.
func (q GlyphQuad) Bounds() (x0, y0, x1, y1 float64) {
	a, d := q.Quad[0].Pos, q.Quad[3].Pos
	return float64(a[0]) / PositionScale, float64(a[1]) / PositionScale,
		float64(d[0]) / PositionScale, float64(d[1]) / PositionScale
}
