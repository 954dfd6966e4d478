package mesh

// Codec converts vertices of type T to and from their byte layout.
type Codec[T any] interface {
	// Stride returns the encoded size of one vertex in bytes.
	Stride() int

	// Encode writes v into dst, which is exactly Stride bytes long.
	Encode(dst []byte, v T)

	// Decode reads a vertex from src, which is exactly Stride bytes long.
	Decode(src []byte) T
}

// Attribute describes a fixed-size field inside a vertex.
type Attribute[A any] struct {
	Name   string
	Offset int // byte offset within the vertex
	Size   int // encoded size in bytes
	Encode func(dst []byte, v A)
}
