package text

// ShapedGlyph is one positioned glyph of a shaped line, in pixels.
// Offsets are y down and relative to the pen position.
type ShapedGlyph struct {
	Glyph   uint32
	Cluster int // rune index of the first rune of the glyph's cluster
	XOffset float64
	YOffset float64
	Advance float64
}

// Shaper converts a single line of text into positioned glyphs in visual
// order. Implementations must be safe for concurrent use.
type Shaper interface {
	Shape(line string, f *Font) []ShapedGlyph
}
