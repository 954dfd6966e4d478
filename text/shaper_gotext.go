package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// GoTextShaper shapes text with the go-text/typesetting HarfBuzz port.
//
// HarfbuzzShaper keeps mutable buffers and font.Face caches glyph data, so
// both are created per call (the shaper through a pool). The parsed
// font.Font is shared and read-only.
type GoTextShaper struct {
	pool sync.Pool
}

// NewGoTextShaper creates a GoTextShaper.
func NewGoTextShaper() *GoTextShaper {
	return &GoTextShaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Shape implements Shaper. It returns nil for an empty line or a font that
// is not ready.
func (s *GoTextShaper) Shape(line string, f *Font) []ShapedGlyph {
	if line == "" || f == nil || !f.Ready() {
		return nil
	}
	runes := []rune(line)
	dir := lineDirection(line)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      font.NewFace(f.res.face),
		Size:      fixed.Int26_6(f.size * 64),
		Script:    detectScript(runes),
		Language:  language.DefaultLanguage(),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.pool.Put(hb)

	glyphs := make([]ShapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = ShapedGlyph{
			Glyph:   uint32(g.GlyphID),
			Cluster: g.TextIndex(),
			XOffset: fixedToFloat(g.XOffset),
			YOffset: -fixedToFloat(g.YOffset),
			Advance: fixedToFloat(g.Advance),
		}
	}
	return glyphs
}

// lineDirection returns the dominant direction of line's bidi runs,
// defaulting to left-to-right.
func lineDirection(line string) di.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(line); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil {
		return di.DirectionLTR
	}
	rtl, ltr := 0, 0
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		switch run.Direction() {
		case bidi.RightToLeft:
			rtl += end - start + 1
		case bidi.LeftToRight:
			ltr += end - start + 1
		}
	}
	if rtl > ltr {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
