// Package text resolves fonts, shapes strings and places glyphs in the atlas.
//
// FontContext is the entry point. Scene fonts are registered with
// AddFontDescription and loaded lazily by GetFont; loads run in the
// background and IsLoadingResources reports whether any is still in flight.
// LayoutText turns a string into GlyphQuads whose UVs sample atlas pages,
// retaining every page it uses in the caller's PageSet:
//
//	fc := text.NewFontContext()
//	fc.AddFontDescription(text.NewFontDescription("Go", "normal", "400", "builtin:goregular", text.FontTypeTTF))
//	f, _ := fc.GetFont("Go", "normal", "400", 16)
//	// ... wait for f.Ready() or poll fc.IsLoadingResources()
//	var pages atlas.PageSet
//	quads, bbox, err := fc.LayoutText(params, "Main Street", nil, &pages)
//
// Shaping goes through the Shaper interface; GoTextShaper uses the
// go-text/typesetting HarfBuzz port. Glyph outlines are rasterized with
// golang.org/x/image/vector.
package text
