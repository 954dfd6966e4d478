// Package label places laid-out text on the map.
//
// A TextLabels collection belongs to one tile. It owns the glyph quads
// produced by text.FontContext.LayoutText, the atlas pages those quads
// reference, and the Labels that draw ranges of them. Every frame the render
// goroutine calls UpdateScreenTransform on each label, then PushTransform to
// emit the label's vertices into a mesh.MeshData[Vertex].
package label
