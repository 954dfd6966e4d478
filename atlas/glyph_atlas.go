package atlas

import "fmt"

// GlyphKey identifies one rasterized glyph.
type GlyphKey struct {
	Font  uint32 // font handle id
	Glyph uint32 // glyph index within the font
	Size  uint32 // pixel size
}

// Bitmap is an 8-bit coverage image of one glyph.
type Bitmap struct {
	Pix           []byte
	Width, Height int

	// Left and Top position the bitmap's top-left texel relative to the pen
	// on the baseline, y down.
	Left, Top int
}

// GlyphRegion locates a placed glyph. X, Y, Width and Height describe the
// padded rectangle on the page; Left and Top are relative to the pen.
type GlyphRegion struct {
	Page          int
	X, Y          int
	Width, Height int
	Left, Top     int
}

// Empty reports whether the glyph has no pixels, like a space.
func (r GlyphRegion) Empty() bool { return r.Page < 0 }

// GlyphAtlas assigns glyph bitmaps to page rectangles.
//
// GlyphAtlas is not safe for concurrent use. Callers serialize Insert with
// the Retain of the pages it returns, and Clear with the ReleaseAtlas that
// reclaimed them, so that a page is never repacked while referenced.
type GlyphAtlas struct {
	pad      int
	maxPages int
	pages    [MaxPages]*shelfAllocator
	keys     [MaxPages][]GlyphKey
	glyphs   map[GlyphKey]GlyphRegion
}

// NewGlyphAtlas creates a packer surrounding every glyph with pad texels.
func NewGlyphAtlas(pad, maxPages int) *GlyphAtlas {
	if maxPages < 1 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	return &GlyphAtlas{
		pad:      max(0, pad),
		maxPages: maxPages,
		glyphs:   make(map[GlyphKey]GlyphRegion),
	}
}

// Padding returns the border added around each glyph.
func (a *GlyphAtlas) Padding() int { return a.pad }

// Lookup returns the region of an already placed glyph.
func (a *GlyphAtlas) Lookup(key GlyphKey) (GlyphRegion, bool) {
	r, ok := a.glyphs[key]
	return r, ok
}

// Insert places bm and reports the page and pixels to sink.
// Existing pages are filled in ascending id order; a new page takes the
// lowest free id. Empty bitmaps are recorded without touching any page.
func (a *GlyphAtlas) Insert(key GlyphKey, bm Bitmap, sink TextureSink) (GlyphRegion, error) {
	if r, ok := a.glyphs[key]; ok {
		return r, nil
	}
	if bm.Width <= 0 || bm.Height <= 0 {
		r := GlyphRegion{Page: -1, Left: bm.Left, Top: bm.Top}
		a.glyphs[key] = r
		return r, nil
	}

	pw, ph := bm.Width+2*a.pad, bm.Height+2*a.pad
	if pw > PageSize || ph > PageSize {
		return GlyphRegion{}, fmt.Errorf("%w: %dx%d", ErrGlyphTooLarge, pw, ph)
	}

	id, x, y, ok := a.place(pw, ph)
	if !ok {
		free := -1
		for i := 0; i < a.maxPages; i++ {
			if a.pages[i] == nil {
				free = i
				break
			}
		}
		if free < 0 {
			return GlyphRegion{}, ErrPageLimit
		}
		a.pages[free] = newShelfAllocator(PageSize, PageSize, 0)
		sink.OnPageNeeded(free, PageSize, PageSize)
		id = free
		x, y, _ = a.pages[free].allocate(pw, ph)
	}

	sink.OnGlyphReady(id, x, y, bm.Width, bm.Height, bm.Pix, a.pad)

	r := GlyphRegion{
		Page:   id,
		X:      x,
		Y:      y,
		Width:  pw,
		Height: ph,
		Left:   bm.Left - a.pad,
		Top:    bm.Top - a.pad,
	}
	a.glyphs[key] = r
	a.keys[id] = append(a.keys[id], key)
	return r, nil
}

func (a *GlyphAtlas) place(w, h int) (id, x, y int, ok bool) {
	for i := 0; i < a.maxPages; i++ {
		if a.pages[i] == nil {
			continue
		}
		if x, y, ok := a.pages[i].allocate(w, h); ok {
			return i, x, y, true
		}
	}
	return -1, -1, -1, false
}

// Clear forgets every glyph on the pages in set and frees their ids.
func (a *GlyphAtlas) Clear(set PageSet) {
	set.Each(func(id int) {
		for _, k := range a.keys[id] {
			delete(a.glyphs, k)
		}
		a.keys[id] = nil
		a.pages[id] = nil
	})
}

// Pages returns the ids currently holding packed glyphs.
func (a *GlyphAtlas) Pages() PageSet {
	var s PageSet
	for i, p := range a.pages {
		if p != nil {
			s.Set(i)
		}
	}
	return s
}

// Utilization returns how much of page id is covered, 0 for unused pages.
func (a *GlyphAtlas) Utilization(id int) float64 {
	if id < 0 || id >= MaxPages || a.pages[id] == nil {
		return 0
	}
	return a.pages[id].utilization()
}

// Len returns the number of cached glyphs, empty ones included.
func (a *GlyphAtlas) Len() int { return len(a.glyphs) }
