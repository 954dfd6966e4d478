package atlas

import "image"

const (
	// PageSize is the width and height of every atlas page in texels.
	PageSize = 256

	// MaxPages is the number of page slots a Store can hold.
	MaxPages = 64
)

// Page is one single-channel atlas texture.
//
// Pages are owned by the render goroutine. Workers never touch pixels;
// they reach a Page only through messages applied by Store.Drain.
type Page struct {
	id    int
	pix   []byte
	dirty image.Rectangle
}

func newPage(id int) *Page {
	return &Page{
		id:  id,
		pix: make([]byte, PageSize*PageSize),
	}
}

// ID returns the page's atlas id.
func (p *Page) ID() int { return p.id }

// Size returns the page dimensions.
func (p *Page) Size() (width, height int) { return PageSize, PageSize }

// Pix returns the page pixels, row-major with a stride of PageSize.
func (p *Page) Pix() []byte { return p.pix }

// At returns the texel at (x, y), or 0 outside the page.
func (p *Page) At(x, y int) byte {
	if x < 0 || y < 0 || x >= PageSize || y >= PageSize {
		return 0
	}
	return p.pix[y*PageSize+x]
}

// Dirty reports whether the page changed since its last upload.
func (p *Page) Dirty() bool { return !p.dirty.Empty() }

// DirtyRect returns the union of rectangles written since the last upload.
func (p *Page) DirtyRect() image.Rectangle { return p.dirty }

// DirtyRows returns the row span [y0, y1) that needs uploading.
// Uploads cover full rows so that the source stride matches the texture width.
func (p *Page) DirtyRows() (y0, y1 int) {
	return p.dirty.Min.Y, p.dirty.Max.Y
}

// Alpha returns the page as an image sharing the page pixels.
func (p *Page) Alpha() *image.Alpha {
	return &image.Alpha{
		Pix:    p.pix,
		Stride: PageSize,
		Rect:   image.Rect(0, 0, PageSize, PageSize),
	}
}

func (p *Page) markDirty(r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, PageSize, PageSize))
	if r.Empty() {
		return
	}
	p.dirty = p.dirty.Union(r)
}

func (p *Page) markClean() {
	p.dirty = image.Rectangle{}
}

// blit copies a w×h bitmap into the page at (x, y).
func (p *Page) blit(x, y, w, h int, src []byte) {
	for row := 0; row < h; row++ {
		dst := p.pix[(y+row)*PageSize+x:]
		copy(dst[:w], src[row*w:row*w+w])
	}
}
