package label

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/labelmesh/mesh"
	"github.com/gogpu/labelmesh/text"
)

// Type distinguishes labels drawn at a point from labels following a line.
type Type uint8

const (
	TypePoint Type = iota
	TypeLine
)

// GlyphTransform places one glyph of a line label.
type GlyphTransform struct {
	Position mgl32.Vec2 // glyph center in screen pixels
	Angle    float32    // radians
}

// ScreenTransform is the per-frame screen placement of a label.
// Screen coordinates are in pixels with the origin at the top-left corner.
type ScreenTransform struct {
	// Origin is the top-left corner of a point label's text box.
	Origin mgl32.Vec2
	// Glyphs has one entry per quad of a line label.
	Glyphs []GlyphTransform
}

// Reset clears t for reuse, keeping its allocation.
func (t *ScreenTransform) Reset() {
	t.Origin = mgl32.Vec2{}
	t.Glyphs = t.Glyphs[:0]
}

// Label is a laid-out string placed on one feature. It draws a range of
// the quads owned by its TextLabels.
type Label struct {
	typ    Type
	labels *TextLabels
	quads  mesh.Range

	dim    mgl32.Vec2 // text box size in pixels
	anchor Anchor
	offset mgl32.Vec2 // fraction(anchor) * dim
	origin mgl32.Vec2 // extra pixel offset

	pos  mgl32.Vec2   // point labels, model space
	line []mgl32.Vec2 // line labels, model space

	state    State
	vertices mesh.Range // produced by the last PushTransform

	sampler LineSampler
	screen  []mgl32.Vec2
}

// Type returns whether the label is drawn at a point or along a line.
func (l *Label) Type() Type { return l.typ }

// Dimension returns the text box size in pixels.
func (l *Label) Dimension() mgl32.Vec2 { return l.dim }

// Anchor returns the anchor the label was placed with.
func (l *Label) Anchor() Anchor { return l.anchor }

// AnchorOffset returns the offset applied by ApplyAnchor.
func (l *Label) AnchorOffset() mgl32.Vec2 { return l.offset }

// QuadRange returns the label's quads in its collection.
func (l *Label) QuadRange() mesh.Range { return l.quads }

// VertexRange returns the vertices written by the last PushTransform,
// relative to the start of that MeshData.
func (l *Label) VertexRange() mesh.Range { return l.vertices }

// State returns the vertex state the label is drawn with.
func (l *Label) State() State { return l.state }

// SetState changes the state used by later PushTransform calls.
func (l *Label) SetState(s State) { l.state = s }

// ApplyAnchor positions the text box so the point at the anchor's fraction
// of dim lies on the feature, shifted by origin pixels. It returns the
// anchor offset, fraction × dim.
func (l *Label) ApplyAnchor(dim, origin mgl32.Vec2, anchor Anchor) mgl32.Vec2 {
	f := anchor.Fraction()
	l.dim = dim
	l.anchor = anchor
	l.origin = origin
	l.offset = mgl32.Vec2{f[0] * dim[0], f[1] * dim[1]}
	return l.offset
}

// toScreen projects a model-space point. w is the clip-space w; points with
// w <= 0 are behind the camera.
func toScreen(mvp mgl32.Mat4, p, screen mgl32.Vec2) (s mgl32.Vec2, w float32) {
	clip := mvp.Mul4x1(p.Vec4(0, 1))
	w = clip[3]
	if w == 0 {
		return mgl32.Vec2{}, 0
	}
	ndc := clip.Vec2().Mul(1 / w)
	return mgl32.Vec2{
		(ndc[0] + 1) * 0.5 * screen[0],
		(1 - ndc[1]) * 0.5 * screen[1],
	}, w
}

// UpdateScreenTransform projects the label for this frame and stores the
// result in t. With testVisibility it returns false for labels behind the
// camera, entirely off screen, or with no projected extent; the label
// should then not be drawn this frame.
func (l *Label) UpdateScreenTransform(mvp mgl32.Mat4, screen mgl32.Vec2, testVisibility bool, t *ScreenTransform) bool {
	t.Reset()
	if l.typ == TypeLine {
		return l.updateLine(mvp, screen, testVisibility, t)
	}

	p, w := toScreen(mvp, l.pos, screen)
	if testVisibility && w <= 0 {
		return false
	}
	t.Origin = p.Add(l.origin).Sub(l.offset)
	if !testVisibility {
		return true
	}
	if l.dim[0] <= 0 || l.dim[1] <= 0 {
		return false
	}
	x0, y0 := t.Origin[0], t.Origin[1]
	x1, y1 := x0+l.dim[0], y0+l.dim[1]
	return x1 > 0 && y1 > 0 && x0 < screen[0] && y0 < screen[1]
}

func (l *Label) updateLine(mvp mgl32.Mat4, screen mgl32.Vec2, testVisibility bool, t *ScreenTransform) bool {
	l.screen = l.screen[:0]
	onScreen := false
	for _, p := range l.line {
		s, w := toScreen(mvp, p, screen)
		if w <= 0 {
			if testVisibility {
				return false
			}
			continue
		}
		l.screen = append(l.screen, s)
		onScreen = onScreen || (s[0] >= 0 && s[1] >= 0 && s[0] <= screen[0] && s[1] <= screen[1])
	}
	l.sampler.Reset(l.screen)
	length := l.sampler.Length()
	if length == 0 || (testVisibility && !onScreen) {
		return false
	}
	if testVisibility && length < l.dim[0] {
		return false
	}
	// Keep text upright.
	if first, last := l.sampler.points[0], l.sampler.points[l.sampler.Len()-1]; last[0] < first[0] {
		l.sampler.Reverse()
	}

	start := (length-l.dim[0])*0.5 + l.origin[0]
	quads := l.labels.quads[l.quads.Start:l.quads.End()]
	for _, q := range quads {
		x0, _, x1, _ := q.Bounds()
		pos, angle, ok := l.sampler.Sample(start + float32(x0+x1)*0.5)
		if !ok {
			if testVisibility {
				t.Glyphs = t.Glyphs[:0]
				return false
			}
			pos, angle = l.sampler.points[l.sampler.Len()-1], 0
		}
		t.Glyphs = append(t.Glyphs, GlyphTransform{Position: pos, Angle: angle})
	}
	return true
}

// OBBs appends the screen boxes of the label to boxes and returns the
// extended slice with the range of boxes added.
func (l *Label) OBBs(t *ScreenTransform, boxes []OBB) ([]OBB, mesh.Range) {
	r := mesh.Range{Start: len(boxes)}
	if l.typ == TypePoint {
		half := l.dim.Mul(0.5)
		boxes = append(boxes, OBB{Center: t.Origin.Add(half), Half: half})
		r.Length = 1
		return boxes, r
	}

	quads := l.labels.quads[l.quads.Start:l.quads.End()]
	for i, g := range t.Glyphs {
		if i >= len(quads) {
			break
		}
		x0, y0, x1, y1 := quads[i].Bounds()
		boxes = append(boxes, OBB{
			Center: g.Position,
			Half:   mgl32.Vec2{float32(x1-x0) * 0.5, float32(y1-y0) * 0.5},
			Angle:  g.Angle,
		})
	}
	r.Length = len(boxes) - r.Start
	return boxes, r
}

// PushTransform appends the label's vertices for this frame to md as one
// sub-batch and records their range. t must come from a successful
// UpdateScreenTransform.
func (l *Label) PushTransform(t *ScreenTransform, md *mesh.MeshData[Vertex]) {
	quads := l.labels.quads[l.quads.Start:l.quads.End()]
	if len(quads) == 0 {
		l.vertices = mesh.Range{Start: len(md.Vertices)}
		return
	}

	vertices := make([]Vertex, 0, 4*len(quads))
	indices := make([]uint16, 0, 6*len(quads))
	for i, q := range quads {
		base := uint16(len(vertices))
		for _, idx := range text.QuadIndices {
			indices = append(indices, base+idx)
		}
		if l.typ == TypePoint {
			for _, c := range q.Quad {
				vertices = append(vertices, Vertex{
					Pos:   [2]int16{offsetPos(c.Pos[0], t.Origin[0]), offsetPos(c.Pos[1], t.Origin[1])},
					UV:    c.UV,
					State: l.state,
				})
			}
			continue
		}

		var g GlyphTransform
		if i < len(t.Glyphs) {
			g = t.Glyphs[i]
		}
		vertices = l.appendRotated(vertices, q, g)
	}

	l.vertices = mesh.Range{Start: len(md.Vertices), Length: len(vertices)}
	md.Extend(vertices, indices)
}

// appendRotated emits q rotated about its center by g.Angle and centered on
// g.Position. The label's vertical center sits on the line.
func (l *Label) appendRotated(dst []Vertex, q text.GlyphQuad, g GlyphTransform) []Vertex {
	x0, _, x1, _ := q.Bounds()
	cx := float32(x0+x1) * 0.5
	cy := l.dim[1] * 0.5
	rot := mgl32.Rotate2D(g.Angle)
	for _, c := range q.Quad {
		local := mgl32.Vec2{
			float32(c.Pos[0])/text.PositionScale - cx,
			float32(c.Pos[1])/text.PositionScale - cy + l.origin[1],
		}
		p := rot.Mul2x1(local).Add(g.Position)
		dst = append(dst, Vertex{
			Pos:   [2]int16{scaled(p[0]), scaled(p[1])},
			UV:    c.UV,
			State: l.state,
		})
	}
	return dst
}

func offsetPos(v int16, px float32) int16 {
	return clampInt16(float64(v) + float64(px)*text.PositionScale)
}

func scaled(px float32) int16 {
	return clampInt16(float64(px) * text.PositionScale)
}

func clampInt16(v float64) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v))))
}
