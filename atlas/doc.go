// Package atlas stores rasterized glyphs in fixed-size, reference-counted
// texture pages.
//
// Glyph production happens on tile worker goroutines while uploads happen on
// the render goroutine. The two sides never share pixel memory: workers post
// page-create, glyph-insert and release messages to the Store, and the render
// goroutine drains them in order before uploading dirty pages:
//
//	// worker goroutine (usually through text.FontContext)
//	store.AddTexture(id, atlas.PageSize, atlas.PageSize)
//	store.AddGlyph(id, x, y, w, h, bitmap, pad)
//
//	// render goroutine, after all workers of the batch are done
//	store.UpdateTextures(uploader)
//
// GlyphAtlas decides where glyphs go. It packs rectangles into page ids with
// a shelf allocator and reports new pages and glyph bitmaps to a TextureSink,
// normally the Store itself.
//
// Pages are shared between tiles. Each label collection retains the pages its
// quads sample from (a PageSet) and releases them when the tile goes away;
// a page whose count drops to zero is reclaimed and its id may be reused.
package atlas
