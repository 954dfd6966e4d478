package atlas

// TextureSink receives page and glyph notifications from a glyph placer.
//
// Implementations must be safe for concurrent use; Store is the standard one.
type TextureSink interface {
	// OnPageNeeded is called before the first glyph is placed on page id.
	OnPageNeeded(id, width, height int)

	// OnGlyphReady is called with a w×h coverage bitmap destined for
	// (x+pad, y+pad) on page id.
	OnGlyphReady(id, x, y, w, h int, src []byte, pad int)
}

// Uploader moves dirty page pixels to the GPU.
type Uploader interface {
	// Upload sends the dirty rows of p. The page stays dirty when an error
	// is returned and will be retried on the next UpdateTextures.
	Upload(p *Page) error

	// Release frees whatever texture backs page id.
	Release(id int)
}

var _ TextureSink = (*Store)(nil)
