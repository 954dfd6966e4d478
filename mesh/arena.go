package mesh

import "slices"

// VertexArena is a growable buffer of fixed-stride vertices.
//
// Elements are addressed by vertex index; the underlying bytes are laid out
// exactly as they will be uploaded.
type VertexArena[T any] struct {
	codec  Codec[T]
	stride int
	buf    []byte
}

// NewVertexArena creates an arena with room for capacity vertices.
func NewVertexArena[T any](codec Codec[T], capacity int) *VertexArena[T] {
	stride := codec.Stride()
	return &VertexArena[T]{
		codec:  codec,
		stride: stride,
		buf:    make([]byte, 0, max(0, capacity)*stride),
	}
}

// Stride returns the size of one vertex in bytes.
func (a *VertexArena[T]) Stride() int { return a.stride }

// Len returns the number of vertices.
func (a *VertexArena[T]) Len() int { return len(a.buf) / a.stride }

// Append encodes vs at the end of the arena.
func (a *VertexArena[T]) Append(vs ...T) {
	n := len(a.buf)
	a.buf = append(a.buf, make([]byte, len(vs)*a.stride)...)
	for i, v := range vs {
		off := n + i*a.stride
		a.codec.Encode(a.buf[off:off+a.stride], v)
	}
}

// Get decodes vertex i.
func (a *VertexArena[T]) Get(i int) T {
	return a.codec.Decode(a.View(i))
}

// Set overwrites vertex i.
func (a *VertexArena[T]) Set(i int, v T) {
	a.codec.Encode(a.View(i), v)
}

// View returns the bytes of vertex i. Panics if i is out of range.
func (a *VertexArena[T]) View(i int) []byte {
	off := i * a.stride
	return a.buf[off : off+a.stride : off+a.stride]
}

// Bytes returns the encoded vertices. The slice aliases the arena.
func (a *VertexArena[T]) Bytes() []byte { return a.buf }

// Grow ensures room for n more vertices without reallocation.
func (a *VertexArena[T]) Grow(n int) {
	if n > 0 {
		a.buf = slices.Grow(a.buf, n*a.stride)
	}
}

// Reset removes all vertices, keeping the allocation.
func (a *VertexArena[T]) Reset() { a.buf = a.buf[:0] }
