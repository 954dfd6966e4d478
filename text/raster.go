package text

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/labelmesh/atlas"
)

// glyphRasterizer renders one glyph to an 8-bit coverage bitmap.
// Implementations are safe for concurrent use.
type glyphRasterizer interface {
	rasterize(gid uint32, size float64) (atlas.Bitmap, error)
}

type segOp uint8

const (
	segMoveTo segOp = iota
	segLineTo
	segQuadTo
	segCubeTo
)

// pathSeg is an outline segment in pixels, y down from the baseline origin.
type pathSeg struct {
	op  segOp
	pts [3][2]float32
}

func (s pathSeg) nPoints() int {
	switch s.op {
	case segQuadTo:
		return 2
	case segCubeTo:
		return 3
	default:
		return 1
	}
}

// sfntRasterizer rasterizes TrueType outlines through x/image/font/sfnt.
type sfntRasterizer struct {
	f    *sfnt.Font
	bufs sync.Pool
}

func newSFNTRasterizer(data []byte) (*sfntRasterizer, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}
	return &sfntRasterizer{
		f:    f,
		bufs: sync.Pool{New: func() any { return new(sfnt.Buffer) }},
	}, nil
}

func (r *sfntRasterizer) rasterize(gid uint32, size float64) (atlas.Bitmap, error) {
	buf := r.bufs.Get().(*sfnt.Buffer)
	defer r.bufs.Put(buf)

	segs, err := r.f.LoadGlyph(buf, sfnt.GlyphIndex(gid), fixed.Int26_6(math.Round(size*64)), nil)
	if err != nil {
		return atlas.Bitmap{}, err
	}
	path := make([]pathSeg, len(segs))
	for i, s := range segs {
		var p pathSeg
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			p.op = segMoveTo
		case sfnt.SegmentOpLineTo:
			p.op = segLineTo
		case sfnt.SegmentOpQuadTo:
			p.op = segQuadTo
		case sfnt.SegmentOpCubeTo:
			p.op = segCubeTo
		}
		for j := 0; j < p.nPoints(); j++ {
			p.pts[j] = [2]float32{fixedToFloat32(s.Args[j].X), fixedToFloat32(s.Args[j].Y)}
		}
		path[i] = p
	}
	return rasterizePath(path), nil
}

// outlineRasterizer rasterizes outlines decoded by go-text, which also
// covers WOFF resources that sfnt cannot parse.
type outlineRasterizer struct {
	f *font.Font
}

func (r *outlineRasterizer) rasterize(gid uint32, size float64) (atlas.Bitmap, error) {
	face := font.NewFace(r.f)
	outline, ok := face.GlyphData(font.GID(gid)).(font.GlyphOutline)
	if !ok {
		// Bitmap or SVG glyphs are not supported; treat as blank.
		return atlas.Bitmap{}, nil
	}
	scale := float32(size / float64(r.f.Upem()))

	path := make([]pathSeg, len(outline.Segments))
	for i, s := range outline.Segments {
		var p pathSeg
		switch s.Op {
		case ot.SegmentOpMoveTo:
			p.op = segMoveTo
		case ot.SegmentOpLineTo:
			p.op = segLineTo
		case ot.SegmentOpQuadTo:
			p.op = segQuadTo
		case ot.SegmentOpCubeTo:
			p.op = segCubeTo
		}
		for j := 0; j < p.nPoints(); j++ {
			p.pts[j] = [2]float32{s.Args[j].X * scale, -s.Args[j].Y * scale}
		}
		path[i] = p
	}
	return rasterizePath(path), nil
}

// rasterizePath fills path with the non-zero rule into a tight bitmap.
func rasterizePath(path []pathSeg) atlas.Bitmap {
	if len(path) == 0 {
		return atlas.Bitmap{}
	}
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, s := range path {
		for j := 0; j < s.nPoints(); j++ {
			minX = min(minX, s.pts[j][0])
			minY = min(minY, s.pts[j][1])
			maxX = max(maxX, s.pts[j][0])
			maxY = max(maxY, s.pts[j][1])
		}
	}
	x0 := int(math.Floor(float64(minX)))
	y0 := int(math.Floor(float64(minY)))
	x1 := int(math.Ceil(float64(maxX)))
	y1 := int(math.Ceil(float64(maxY)))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return atlas.Bitmap{}
	}

	ox, oy := float32(x0), float32(y0)
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	for i, s := range path {
		p := s.pts
		switch s.op {
		case segMoveTo:
			if i > 0 {
				z.ClosePath()
			}
			z.MoveTo(p[0][0]-ox, p[0][1]-oy)
		case segLineTo:
			z.LineTo(p[0][0]-ox, p[0][1]-oy)
		case segQuadTo:
			z.QuadTo(p[0][0]-ox, p[0][1]-oy, p[1][0]-ox, p[1][1]-oy)
		case segCubeTo:
			z.CubeTo(p[0][0]-ox, p[0][1]-oy, p[1][0]-ox, p[1][1]-oy, p[2][0]-ox, p[2][1]-oy)
		}
	}
	z.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return atlas.Bitmap{
		Pix:    dst.Pix,
		Width:  w,
		Height: h,
		Left:   x0,
		Top:    y0,
	}
}

func fixedToFloat32(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
