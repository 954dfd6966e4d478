package label

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/mesh"
	"github.com/gogpu/labelmesh/text"
)

// Layouter lays out text into glyph quads, retaining the atlas pages used.
// *text.FontContext implements it.
type Layouter interface {
	LayoutText(p text.Parameters, s string, quads []text.GlyphQuad, refs *atlas.PageSet) ([]text.GlyphQuad, mgl32.Vec2, error)
}

// AtlasReleaser returns atlas page references. *text.FontContext
// implements it.
type AtlasReleaser interface {
	ReleaseAtlas(set atlas.PageSet)
}

// Options style a new label.
type Options struct {
	Anchor Anchor
	Offset mgl32.Vec2 // pixels, applied after anchoring
	Fill   uint32
	Stroke uint32
	Alpha  float32
	Scale  float32
}

// DefaultOptions returns an opaque, centered label.
func DefaultOptions() Options {
	return Options{
		Anchor: AnchorCenter,
		Fill:   0xFF000000,
		Stroke: 0xFFFFFFFF,
		Alpha:  1,
		Scale:  1,
	}
}

func (o Options) state() State {
	return NewState(o.Fill, o.Stroke, o.Alpha, o.Scale)
}

// TextLabels is the label collection of one tile. It owns the glyph quads
// of all its labels and one reference to every atlas page they use.
//
// A TextLabels is built by one worker goroutine and afterwards used only by
// the render goroutine.
type TextLabels struct {
	quads  []text.GlyphQuad
	refs   atlas.PageSet
	labels []*Label
}

// NewTextLabels creates an empty collection.
func NewTextLabels() *TextLabels {
	return &TextLabels{}
}

// AddText lays out s and keeps its quads. It returns the quad range and
// the text box size for a following AddPointLabel or AddLineLabel.
func (tl *TextLabels) AddText(l Layouter, p text.Parameters, s string) (mesh.Range, mgl32.Vec2, error) {
	start := len(tl.quads)
	quads, dim, err := l.LayoutText(p, s, tl.quads, &tl.refs)
	if err != nil {
		return mesh.Range{}, mgl32.Vec2{}, err
	}
	tl.quads = quads
	return mesh.Range{Start: start, Length: len(quads) - start}, dim, nil
}

// AddPointLabel creates a label drawing quads at pos, a model-space point.
func (tl *TextLabels) AddPointLabel(quads mesh.Range, dim, pos mgl32.Vec2, opts Options) *Label {
	l := tl.newLabel(TypePoint, quads, opts)
	l.pos = pos
	l.ApplyAnchor(dim, opts.Offset, opts.Anchor)
	return l
}

// AddLineLabel creates a label whose glyphs follow path, in model space.
// Anchors do not apply to line labels; the text is centered on the path.
func (tl *TextLabels) AddLineLabel(quads mesh.Range, dim mgl32.Vec2, path []mgl32.Vec2, opts Options) *Label {
	l := tl.newLabel(TypeLine, quads, opts)
	l.line = append([]mgl32.Vec2(nil), path...)
	l.ApplyAnchor(dim, opts.Offset, AnchorCenter)
	return l
}

func (tl *TextLabels) newLabel(typ Type, quads mesh.Range, opts Options) *Label {
	if !quads.Valid(len(tl.quads)) {
		quads = mesh.Range{Start: len(tl.quads)}
	}
	l := &Label{
		typ:    typ,
		labels: tl,
		quads:  quads,
		state:  opts.state(),
	}
	tl.labels = append(tl.labels, l)
	return l
}

// Labels returns the labels in creation order.
func (tl *TextLabels) Labels() []*Label { return tl.labels }

// Quads returns every glyph quad of the collection.
func (tl *TextLabels) Quads() []text.GlyphQuad { return tl.quads }

// Pages returns the atlas pages referenced by the collection.
func (tl *TextLabels) Pages() atlas.PageSet { return tl.refs }

// Len returns the number of labels.
func (tl *TextLabels) Len() int { return len(tl.labels) }

// Release returns the collection's page references and empties it.
func (tl *TextLabels) Release(r AtlasReleaser) {
	if tl.refs != 0 {
		r.ReleaseAtlas(tl.refs)
	}
	tl.refs = 0
	tl.quads = nil
	tl.labels = nil
}
