package mesh

import (
	"fmt"
	"slices"

	"github.com/gogpu/labelmesh/internal/logger"
)

// Batch is a run of indices that can be drawn with one call.
// Index values are relative to VertexOffset.
type Batch struct {
	IndexOffset  int
	IndexCount   int
	VertexOffset int
	VertexCount  int
}

// TypedMesh holds compiled vertex bytes, 16-bit indices and their batches.
//
// A TypedMesh is owned by the render goroutine and is not safe for
// concurrent use.
type TypedMesh[T any] struct {
	layout *VertexLayout
	mode   DrawMode

	arena   *VertexArena[T]
	indices []uint16
	batches []Batch

	compiled    bool
	generation  uint64
	dirty       bool
	dirtyOffset int
	dirtySize   int
}

// NewTypedMesh creates an empty mesh. The codec stride must match the layout.
func NewTypedMesh[T any](codec Codec[T], layout *VertexLayout, mode DrawMode) *TypedMesh[T] {
	if layout != nil && layout.Stride() != codec.Stride() {
		panic(fmt.Sprintf("mesh: codec stride %d does not match layout stride %d",
			codec.Stride(), layout.Stride()))
	}
	return &TypedMesh[T]{
		layout: layout,
		mode:   mode,
		arena:  NewVertexArena(codec, 0),
	}
}

// Compile replaces the mesh contents with meshes, in order.
//
// Vertices are concatenated. Indices are rewritten relative to the batch
// holding their sub-batch; a new batch starts whenever the next sub-batch
// would push the batch past MaxIndexValue vertices. A MeshData whose offsets
// do not account for its vertices and indices, or that holds a sub-batch of
// more than MaxIndexValue vertices, is skipped.
func (m *TypedMesh[T]) Compile(meshes []MeshData[T]) {
	nv, ni := 0, 0
	valid := make([]bool, len(meshes))
	for i := range meshes {
		md := &meshes[i]
		if err := checkOffsets(md); err != nil {
			logger.L().Warn("mesh: tile data skipped", "tile", i, "err", err)
			continue
		}
		valid[i] = true
		nv += len(md.Vertices)
		ni += len(md.Indices)
	}

	m.reset(nv, ni)
	for i := range meshes {
		if valid[i] {
			m.arena.Append(meshes[i].Vertices...)
		}
	}

	var cur Batch
	for i := range meshes {
		if !valid[i] {
			continue
		}
		md := &meshes[i]
		src := 0
		for _, off := range md.Offsets {
			if cur.VertexCount > 0 && cur.VertexCount+off.Vertices > MaxIndexValue {
				m.batches = append(m.batches, cur)
				cur = Batch{
					IndexOffset:  len(m.indices),
					VertexOffset: cur.VertexOffset + cur.VertexCount,
				}
			}
			base := uint16(cur.VertexCount)
			for _, idx := range md.Indices[src : src+off.Indices] {
				m.indices = append(m.indices, idx+base)
			}
			src += off.Indices
			cur.IndexCount += off.Indices
			cur.VertexCount += off.Vertices
		}
	}
	if cur.VertexCount > 0 || cur.IndexCount > 0 {
		m.batches = append(m.batches, cur)
	}

	m.compiled = true
	logger.L().Debug("mesh: compiled", "vertices", nv, "indices", ni, "batches", len(m.batches))
}

// CompileVectors replaces the mesh contents with parallel vertex and index
// vectors. Each pair is one drawable unit and is never split across batches;
// an indexed pair with more than MaxIndexValue vertices is skipped.
// When no pair has indices the mesh is drawn without an index buffer as a
// single batch.
func (m *TypedMesh[T]) CompileVectors(vertices [][]T, indices [][]uint16) {
	nv, ni := 0, 0
	for i := range vertices {
		nv += len(vertices[i])
		if i < len(indices) {
			ni += len(indices[i])
		}
	}
	useIndices := ni > 0

	m.reset(nv, ni)

	var cur Batch
	for i, vs := range vertices {
		if useIndices && len(vs) > MaxIndexValue {
			logger.L().Warn("mesh: vector skipped", "vector", i, "err", ErrBatchTooLarge, "vertices", len(vs))
			continue
		}
		m.arena.Append(vs...)
		n := len(vs)
		if useIndices {
			if cur.VertexCount > 0 && cur.VertexCount+n > MaxIndexValue {
				m.batches = append(m.batches, cur)
				cur = Batch{
					IndexOffset:  len(m.indices),
					VertexOffset: cur.VertexOffset + cur.VertexCount,
				}
			}
			if i < len(indices) {
				base := uint16(cur.VertexCount)
				for _, idx := range indices[i] {
					m.indices = append(m.indices, idx+base)
				}
				cur.IndexCount += len(indices[i])
			}
		}
		cur.VertexCount += n
	}
	if cur.VertexCount > 0 || cur.IndexCount > 0 {
		m.batches = append(m.batches, cur)
	}

	m.compiled = true
	logger.L().Debug("mesh: compiled vectors", "vertices", nv, "indices", ni, "batches", len(m.batches))
}

func checkOffsets[T any](md *MeshData[T]) error {
	sv, si := 0, 0
	for _, off := range md.Offsets {
		if off.Vertices < 0 || off.Indices < 0 {
			return fmt.Errorf("%w: negative offset", ErrInvalidOffsets)
		}
		if off.Vertices > MaxIndexValue {
			return fmt.Errorf("%w: %d vertices", ErrBatchTooLarge, off.Vertices)
		}
		sv += off.Vertices
		si += off.Indices
	}
	if sv != len(md.Vertices) || si != len(md.Indices) {
		return fmt.Errorf("%w: offsets cover %d/%d vertices and %d/%d indices",
			ErrInvalidOffsets, sv, len(md.Vertices), si, len(md.Indices))
	}
	return nil
}

func (m *TypedMesh[T]) reset(nv, ni int) {
	m.generation++
	m.arena.Reset()
	m.indices = slices.Grow(m.indices[:0], ni)
	m.batches = m.batches[:0]
	m.dirty = false
	m.dirtyOffset, m.dirtySize = 0, 0
	m.arena.Grow(nv)
}

// UpdateVertices overwrites every vertex in r with v.
// Invalid ranges leave the mesh untouched.
func (m *TypedMesh[T]) UpdateVertices(r Range, v T) {
	if !m.compiled {
		logger.L().Debug("mesh: update before compile ignored")
		return
	}
	if !r.Valid(m.arena.Len()) {
		logger.L().Debug("mesh: invalid vertex range", "start", r.Start, "length", r.Length, "vertices", m.arena.Len())
		return
	}
	for i := r.Start; i < r.End(); i++ {
		m.arena.Set(i, v)
	}
	stride := m.arena.Stride()
	m.setDirty(r.Start*stride, r.Length*stride)
}

// UpdateAttribute overwrites attr in every vertex of r with v.
// Invalid ranges and attributes that do not fit inside the vertex stride
// leave the mesh untouched.
func UpdateAttribute[T, A any](m *TypedMesh[T], r Range, v A, attr Attribute[A]) {
	if !m.compiled {
		logger.L().Debug("mesh: update before compile ignored")
		return
	}
	stride := m.arena.Stride()
	if attr.Size <= 0 || attr.Offset < 0 || attr.Offset >= stride || attr.Offset+attr.Size > stride {
		logger.L().Warn("mesh: attribute outside vertex", "attribute", attr.Name,
			"offset", attr.Offset, "size", attr.Size, "stride", stride)
		return
	}
	if !r.Valid(m.arena.Len()) {
		logger.L().Debug("mesh: invalid vertex range", "start", r.Start, "length", r.Length, "vertices", m.arena.Len())
		return
	}

	val := make([]byte, attr.Size)
	attr.Encode(val, v)
	for i := r.Start; i < r.End(); i++ {
		copy(m.arena.View(i)[attr.Offset:], val)
	}
	m.setDirty(r.Start*stride+attr.Offset, (r.Length-1)*stride+attr.Size)
}

// setDirty widens the dirty interval to cover [offset, offset+size).
func (m *TypedMesh[T]) setDirty(offset, size int) {
	if !m.dirty {
		m.dirty = true
		m.dirtyOffset, m.dirtySize = offset, size
		return
	}
	end := max(m.dirtyOffset+m.dirtySize, offset+size)
	m.dirtyOffset = min(m.dirtyOffset, offset)
	m.dirtySize = end - m.dirtyOffset
}

// Dirty returns the byte interval modified since the last ClearDirty.
func (m *TypedMesh[T]) Dirty() (offset, size int, ok bool) {
	return m.dirtyOffset, m.dirtySize, m.dirty
}

// DirtyBytes returns the vertex bytes of the dirty interval, or nil.
func (m *TypedMesh[T]) DirtyBytes() []byte {
	if !m.dirty {
		return nil
	}
	return m.arena.Bytes()[m.dirtyOffset : m.dirtyOffset+m.dirtySize]
}

// ClearDirty forgets the dirty interval, usually after an upload.
func (m *TypedMesh[T]) ClearDirty() {
	m.dirty = false
	m.dirtyOffset, m.dirtySize = 0, 0
}

// Compiled reports whether Compile or CompileVectors has run.
func (m *TypedMesh[T]) Compiled() bool { return m.compiled }

// Generation counts compiles. It changes whenever the vertex and index
// data are replaced as a whole.
func (m *TypedMesh[T]) Generation() uint64 { return m.generation }

// VertexBytes returns the encoded vertex buffer. The slice aliases the mesh.
func (m *TypedMesh[T]) VertexBytes() []byte { return m.arena.Bytes() }

// Vertex decodes vertex i.
func (m *TypedMesh[T]) Vertex(i int) T { return m.arena.Get(i) }

// VertexCount returns the number of vertices.
func (m *TypedMesh[T]) VertexCount() int { return m.arena.Len() }

// Indices returns the batch-relative index buffer.
func (m *TypedMesh[T]) Indices() []uint16 { return m.indices }

// Batches returns the draw batches in buffer order.
func (m *TypedMesh[T]) Batches() []Batch { return m.batches }

// Layout returns the vertex layout, which may be nil.
func (m *TypedMesh[T]) Layout() *VertexLayout { return m.layout }

// DrawMode returns the primitive topology.
func (m *TypedMesh[T]) DrawMode() DrawMode { return m.mode }
