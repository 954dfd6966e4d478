package mesh

// Offset is the index and vertex count of one sub-batch.
type Offset struct {
	Indices  int
	Vertices int
}

// MeshData stages the geometry of one tile before compilation.
//
// Indices of each sub-batch are relative to that sub-batch's first vertex.
// The compiler may start a new batch between sub-batches but never inside one.
type MeshData[T any] struct {
	Offsets  []Offset
	Vertices []T
	Indices  []uint16
}

// Push appends a sub-batch. indices refer to vertices starting at 0.
func (m *MeshData[T]) Push(vertices []T, indices []uint16) {
	m.Vertices = append(m.Vertices, vertices...)
	m.Indices = append(m.Indices, indices...)
	m.Offsets = append(m.Offsets, Offset{Indices: len(indices), Vertices: len(vertices)})
}

// Extend grows the last sub-batch, or starts one when there is none or the
// result would no longer be addressable with 16-bit indices. indices refer
// to vertices starting at 0.
func (m *MeshData[T]) Extend(vertices []T, indices []uint16) {
	n := len(m.Offsets)
	if n == 0 || m.Offsets[n-1].Vertices+len(vertices) > MaxIndexValue {
		m.Push(vertices, indices)
		return
	}
	last := &m.Offsets[n-1]
	base := uint16(last.Vertices)
	for _, idx := range indices {
		m.Indices = append(m.Indices, idx+base)
	}
	m.Vertices = append(m.Vertices, vertices...)
	last.Indices += len(indices)
	last.Vertices += len(vertices)
}

// Clear empties m, keeping allocations.
func (m *MeshData[T]) Clear() {
	m.Offsets = m.Offsets[:0]
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// Empty reports whether m holds no vertices.
func (m *MeshData[T]) Empty() bool { return len(m.Vertices) == 0 }
