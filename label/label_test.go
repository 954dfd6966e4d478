package label

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/mesh"
	"github.com/gogpu/labelmesh/text"
)

var screen = mgl32.Vec2{200, 100}

// pixelMVP maps model coordinates one to one onto screen pixels.
func pixelMVP() mgl32.Mat4 {
	return mgl32.Ortho2D(0, screen[0], screen[1], 0)
}

// glyphQuad builds a quad covering the pixel rectangle on page 0.
func glyphQuad(x0, y0, x1, y1 int16) text.GlyphQuad {
	s := int16(text.PositionScale)
	u0, v0, u1, v1 := uint16(x0), uint16(y0), uint16(x1), uint16(y1)
	return text.GlyphQuad{Quad: [4]text.QuadVertex{
		{Pos: [2]int16{x0 * s, y0 * s}, UV: [2]uint16{u0, v0}},
		{Pos: [2]int16{x0 * s, y1 * s}, UV: [2]uint16{u0, v1}},
		{Pos: [2]int16{x1 * s, y0 * s}, UV: [2]uint16{u1, v0}},
		{Pos: [2]int16{x1 * s, y1 * s}, UV: [2]uint16{u1, v1}},
	}}
}

// twoGlyphs returns a collection holding two 10×10 glyphs side by side.
func twoGlyphs() (*TextLabels, mesh.Range) {
	tl := NewTextLabels()
	tl.quads = []text.GlyphQuad{glyphQuad(0, 0, 10, 10), glyphQuad(10, 0, 20, 10)}
	return tl, mesh.Range{Start: 0, Length: 2}
}

func TestPointLabelScreenTransform(t *testing.T) {
	tl, quads := twoGlyphs()
	l := tl.AddPointLabel(quads, mgl32.Vec2{20, 10}, mgl32.Vec2{100, 50}, DefaultOptions())

	var tr ScreenTransform
	if !l.UpdateScreenTransform(pixelMVP(), screen, true, &tr) {
		t.Fatal("visible label culled")
	}
	if !tr.Origin.ApproxEqualThreshold(mgl32.Vec2{90, 45}, 1e-3) {
		t.Errorf("origin = %v, want (90,45)", tr.Origin)
	}

	var md mesh.MeshData[Vertex]
	l.PushTransform(&tr, &md)
	if got := l.VertexRange(); got != (mesh.Range{Start: 0, Length: 8}) {
		t.Fatalf("vertex range = %+v", got)
	}
	if len(md.Offsets) != 1 || md.Offsets[0] != (mesh.Offset{Indices: 12, Vertices: 8}) {
		t.Errorf("offsets = %+v, want one sub-batch", md.Offsets)
	}
	if p := md.Vertices[0].Pos; p != [2]int16{360, 180} {
		t.Errorf("first vertex = %v, want (360,180)", p)
	}
	if p := md.Vertices[7].Pos; p != [2]int16{440, 220} {
		t.Errorf("last vertex = %v, want (440,220)", p)
	}
	if md.Indices[6] != 4 || md.Indices[11] != 7 {
		t.Errorf("second quad indices = %v", md.Indices[6:])
	}
	if md.Vertices[0].State.Alpha != AlphaScale {
		t.Errorf("alpha = %d", md.Vertices[0].State.Alpha)
	}
}

func TestPointLabelOffset(t *testing.T) {
	tl, quads := twoGlyphs()
	opts := DefaultOptions()
	opts.Anchor = AnchorTopLeft
	opts.Offset = mgl32.Vec2{3, -2}
	l := tl.AddPointLabel(quads, mgl32.Vec2{20, 10}, mgl32.Vec2{100, 50}, opts)

	var tr ScreenTransform
	l.UpdateScreenTransform(pixelMVP(), screen, false, &tr)
	if !tr.Origin.ApproxEqualThreshold(mgl32.Vec2{103, 48}, 1e-3) {
		t.Errorf("origin = %v, want (103,48)", tr.Origin)
	}
}

func TestPointLabelCulling(t *testing.T) {
	behind := mgl32.Ident4()
	behind[15] = -1

	tests := []struct {
		name string
		pos  mgl32.Vec2
		dim  mgl32.Vec2
		mvp  mgl32.Mat4
		want bool
	}{
		{"inside", mgl32.Vec2{100, 50}, mgl32.Vec2{20, 10}, pixelMVP(), true},
		{"partly outside", mgl32.Vec2{205, 50}, mgl32.Vec2{20, 10}, pixelMVP(), true},
		{"right of screen", mgl32.Vec2{300, 50}, mgl32.Vec2{20, 10}, pixelMVP(), false},
		{"above screen", mgl32.Vec2{100, -20}, mgl32.Vec2{20, 10}, pixelMVP(), false},
		{"zero extent", mgl32.Vec2{100, 50}, mgl32.Vec2{0, 10}, pixelMVP(), false},
		{"behind camera", mgl32.Vec2{0, 0}, mgl32.Vec2{20, 10}, behind, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, quads := twoGlyphs()
			l := tl.AddPointLabel(quads, tt.dim, tt.pos, DefaultOptions())
			var tr ScreenTransform
			if got := l.UpdateScreenTransform(tt.mvp, screen, true, &tr); got != tt.want {
				t.Errorf("visible = %v, want %v", got, tt.want)
			}
			if tt.name != "behind camera" && !l.UpdateScreenTransform(tt.mvp, screen, false, &tr) {
				t.Error("label culled without visibility test")
			}
		})
	}
}

func TestLineLabelScreenTransform(t *testing.T) {
	tests := []struct {
		name  string
		path  []mgl32.Vec2
		first mgl32.Vec2
		angle float32
	}{
		{"left to right", []mgl32.Vec2{{50, 50}, {150, 50}}, mgl32.Vec2{95, 50}, 0},
		{"right to left is flipped", []mgl32.Vec2{{150, 50}, {50, 50}}, mgl32.Vec2{95, 50}, 0},
		{"downwards", []mgl32.Vec2{{50, 0}, {50, 100}}, mgl32.Vec2{50, 45}, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, quads := twoGlyphs()
			l := tl.AddLineLabel(quads, mgl32.Vec2{20, 10}, tt.path, DefaultOptions())

			var tr ScreenTransform
			if !l.UpdateScreenTransform(pixelMVP(), screen, true, &tr) {
				t.Fatal("line label culled")
			}
			if len(tr.Glyphs) != 2 {
				t.Fatalf("glyph transforms = %d", len(tr.Glyphs))
			}
			g := tr.Glyphs[0]
			if !g.Position.ApproxEqualThreshold(tt.first, 1e-3) || !mgl32.FloatEqualThreshold(g.Angle, tt.angle, 1e-5) {
				t.Errorf("first glyph = %+v, want %v at %v", g, tt.first, tt.angle)
			}

			boxes, r := l.OBBs(&tr, nil)
			if r != (mesh.Range{Start: 0, Length: 2}) || boxes[0].Center != g.Position || boxes[0].Half != (mgl32.Vec2{5, 5}) {
				t.Errorf("obbs = %+v, %+v", boxes, r)
			}
		})
	}
}

func TestLineLabelVertices(t *testing.T) {
	tl, quads := twoGlyphs()
	l := tl.AddLineLabel(quads, mgl32.Vec2{20, 10}, []mgl32.Vec2{{50, 50}, {150, 50}}, DefaultOptions())

	var tr ScreenTransform
	if !l.UpdateScreenTransform(pixelMVP(), screen, true, &tr) {
		t.Fatal("culled")
	}
	var md mesh.MeshData[Vertex]
	l.PushTransform(&tr, &md)
	// Glyph 0 is centered at (95,50) and spans 10×10.
	if p := md.Vertices[0].Pos; p != [2]int16{90 * 4, 45 * 4} {
		t.Errorf("first corner = %v", p)
	}
	if p := md.Vertices[3].Pos; p != [2]int16{100 * 4, 55 * 4} {
		t.Errorf("opposite corner = %v", p)
	}
}

func TestLineLabelCulling(t *testing.T) {
	tests := []struct {
		name string
		path []mgl32.Vec2
	}{
		{"shorter than text", []mgl32.Vec2{{50, 50}, {60, 50}}},
		{"off screen", []mgl32.Vec2{{500, 50}, {700, 50}}},
		{"single point", []mgl32.Vec2{{50, 50}, {50, 50}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, quads := twoGlyphs()
			l := tl.AddLineLabel(quads, mgl32.Vec2{20, 10}, tt.path, DefaultOptions())
			var tr ScreenTransform
			if l.UpdateScreenTransform(pixelMVP(), screen, true, &tr) {
				t.Error("label not culled")
			}
		})
	}
}

func TestPointLabelOBB(t *testing.T) {
	tl, quads := twoGlyphs()
	l := tl.AddPointLabel(quads, mgl32.Vec2{20, 10}, mgl32.Vec2{100, 50}, DefaultOptions())
	var tr ScreenTransform
	l.UpdateScreenTransform(pixelMVP(), screen, true, &tr)

	boxes, r := l.OBBs(&tr, make([]OBB, 3))
	if r != (mesh.Range{Start: 3, Length: 1}) || len(boxes) != 4 {
		t.Fatalf("range = %+v, len = %d", r, len(boxes))
	}
	if !boxes[3].Center.ApproxEqualThreshold(mgl32.Vec2{100, 50}, 1e-3) || boxes[3].Half != (mgl32.Vec2{10, 5}) {
		t.Errorf("box = %+v", boxes[3])
	}
}

type fakeLayouter struct {
	page int
	err  error
}

func (f fakeLayouter) LayoutText(_ text.Parameters, s string, quads []text.GlyphQuad, refs *atlas.PageSet) ([]text.GlyphQuad, mgl32.Vec2, error) {
	if f.err != nil {
		return quads, mgl32.Vec2{}, f.err
	}
	for i := range s {
		q := glyphQuad(int16(10*i), 0, int16(10*i+10), 10)
		q.Atlas = f.page
		quads = append(quads, q)
	}
	refs.Set(f.page)
	return quads, mgl32.Vec2{float32(10 * len(s)), 10}, nil
}

type releaseRecorder struct{ sets []atlas.PageSet }

func (r *releaseRecorder) ReleaseAtlas(set atlas.PageSet) { r.sets = append(r.sets, set) }

func TestTextLabels(t *testing.T) {
	tl := NewTextLabels()
	r1, dim, err := tl.AddText(fakeLayouter{page: 0}, text.DefaultParameters(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if r1 != (mesh.Range{Start: 0, Length: 3}) || dim != (mgl32.Vec2{30, 10}) {
		t.Errorf("first text = %+v, %v", r1, dim)
	}
	r2, _, err := tl.AddText(fakeLayouter{page: 2}, text.DefaultParameters(), "de")
	if err != nil {
		t.Fatal(err)
	}
	if r2 != (mesh.Range{Start: 3, Length: 2}) {
		t.Errorf("second text = %+v", r2)
	}

	boom := errors.New("boom")
	if _, _, err := tl.AddText(fakeLayouter{page: 5, err: boom}, text.DefaultParameters(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if len(tl.Quads()) != 5 || tl.Pages() != 0b101 {
		t.Errorf("quads = %d, pages = %b", len(tl.Quads()), tl.Pages())
	}

	tl.AddPointLabel(r1, dim, mgl32.Vec2{}, DefaultOptions())
	tl.AddLineLabel(r2, dim, []mgl32.Vec2{{0, 0}, {100, 0}}, DefaultOptions())
	if tl.Len() != 2 || tl.Labels()[1].Type() != TypeLine {
		t.Errorf("labels = %d", tl.Len())
	}

	rec := &releaseRecorder{}
	tl.Release(rec)
	if len(rec.sets) != 1 || rec.sets[0] != 0b101 {
		t.Errorf("released %v", rec.sets)
	}
	if tl.Len() != 0 || tl.Pages() != 0 || len(tl.Quads()) != 0 {
		t.Error("collection not emptied")
	}
	tl.Release(rec)
	if len(rec.sets) != 1 {
		t.Error("empty collection released pages again")
	}
}

func TestLabelInvalidQuadRange(t *testing.T) {
	tl, _ := twoGlyphs()
	l := tl.AddPointLabel(mesh.Range{Start: 1, Length: 5}, mgl32.Vec2{20, 10}, mgl32.Vec2{100, 50}, DefaultOptions())
	if l.QuadRange().Length != 0 {
		t.Fatalf("out of range quads accepted: %+v", l.QuadRange())
	}
	var tr ScreenTransform
	l.UpdateScreenTransform(pixelMVP(), screen, true, &tr)
	var md mesh.MeshData[Vertex]
	l.PushTransform(&tr, &md)
	if !md.Empty() {
		t.Error("label without quads emitted vertices")
	}
}
