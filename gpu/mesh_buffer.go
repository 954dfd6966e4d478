package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/labelmesh/internal/logger"
	"github.com/gogpu/labelmesh/mesh"
)

// copyAlign is the offset and size alignment of queue buffer writes.
const copyAlign = 4

// MeshBuffer mirrors a TypedMesh in a vertex and an index buffer.
//
// Sync writes everything after the mesh was compiled again and only the
// dirty byte interval otherwise. Buffers grow as needed and are never
// shrunk.
type MeshBuffer[T any] struct {
	device hal.Device
	queue  hal.Queue
	mesh   *mesh.TypedMesh[T]

	vertex, index         hal.Buffer
	vertexSize, indexSize uint64

	generation uint64
	synced     bool
	scratch    []byte
}

// NewMeshBuffer creates an empty buffer pair for m. No GPU memory is
// allocated until the first Sync.
func NewMeshBuffer[T any](device hal.Device, queue hal.Queue, m *mesh.TypedMesh[T]) (*MeshBuffer[T], error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &MeshBuffer[T]{device: device, queue: queue, mesh: m}, nil
}

// Sync brings the GPU buffers up to date with the mesh and clears the
// mesh dirty interval. It returns the number of bytes written.
func (b *MeshBuffer[T]) Sync() (int, error) {
	if !b.mesh.Compiled() {
		return 0, ErrNotCompiled
	}
	if !b.synced || b.generation != b.mesh.Generation() {
		return b.writeAll()
	}

	off, size, ok := b.mesh.Dirty()
	if !ok {
		return 0, nil
	}
	data := b.mesh.VertexBytes()
	start := alignDown(off)
	end := min(alignUp(off+size), len(data))
	chunk := b.padded(data[start:end])
	if err := b.queue.WriteBuffer(b.vertex, uint64(start), chunk); err != nil {
		return 0, fmt.Errorf("gpu: write vertex range: %w", err)
	}
	b.mesh.ClearDirty()
	logger.L().Debug("gpu: vertex range synced", "offset", start, "bytes", len(chunk))
	return len(chunk), nil
}

func (b *MeshBuffer[T]) writeAll() (int, error) {
	vertices := b.padded(b.mesh.VertexBytes())
	vn := len(vertices)
	if err := b.ensure(&b.vertex, &b.vertexSize, uint64(vn),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, "labelmesh-vertices"); err != nil {
		return 0, err
	}
	if vn > 0 {
		if err := b.queue.WriteBuffer(b.vertex, 0, vertices); err != nil {
			return 0, fmt.Errorf("gpu: write vertices: %w", err)
		}
	}

	indices := b.indexBytes(b.mesh.Indices())
	in := len(indices)
	if err := b.ensure(&b.index, &b.indexSize, uint64(in),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, "labelmesh-indices"); err != nil {
		return 0, err
	}
	if in > 0 {
		if err := b.queue.WriteBuffer(b.index, 0, indices); err != nil {
			return 0, fmt.Errorf("gpu: write indices: %w", err)
		}
	}

	b.mesh.ClearDirty()
	b.generation = b.mesh.Generation()
	b.synced = true
	logger.L().Debug("gpu: mesh synced", "vertexBytes", vn, "indexBytes", in)
	return vn + in, nil
}

// ensure grows *buf to hold need bytes.
func (b *MeshBuffer[T]) ensure(buf *hal.Buffer, size *uint64, need uint64, usage gputypes.BufferUsage, label string) error {
	if need == 0 || (*buf != nil && *size >= need) {
		return nil
	}
	newSize := max(need, *size*2)
	nb, err := b.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: newSize, Usage: usage})
	if err != nil {
		return fmt.Errorf("gpu: create %s: %w", label, err)
	}
	if *buf != nil {
		b.device.DestroyBuffer(*buf)
	}
	*buf, *size = nb, newSize
	return nil
}

// padded returns data extended with zeros to a multiple of copyAlign.
func (b *MeshBuffer[T]) padded(data []byte) []byte {
	if len(data)%copyAlign == 0 {
		return data
	}
	b.scratch = append(b.scratch[:0], data...)
	for len(b.scratch)%copyAlign != 0 {
		b.scratch = append(b.scratch, 0)
	}
	return b.scratch
}

func (b *MeshBuffer[T]) indexBytes(indices []uint16) []byte {
	b.scratch = b.scratch[:0]
	for _, idx := range indices {
		b.scratch = binary.LittleEndian.AppendUint16(b.scratch, idx)
	}
	if len(b.scratch)%copyAlign != 0 {
		b.scratch = append(b.scratch, 0, 0)
	}
	return b.scratch
}

// VertexBuffer returns the vertex buffer, nil before the first Sync.
func (b *MeshBuffer[T]) VertexBuffer() hal.Buffer { return b.vertex }

// IndexBuffer returns the index buffer, nil before the first Sync.
func (b *MeshBuffer[T]) IndexBuffer() hal.Buffer { return b.index }

// Sizes returns the allocated buffer sizes in bytes.
func (b *MeshBuffer[T]) Sizes() (vertex, index uint64) { return b.vertexSize, b.indexSize }

// Destroy frees both buffers. The next Sync allocates them again.
func (b *MeshBuffer[T]) Destroy() {
	if b.vertex != nil {
		b.device.DestroyBuffer(b.vertex)
	}
	if b.index != nil {
		b.device.DestroyBuffer(b.index)
	}
	b.vertex, b.index = nil, nil
	b.vertexSize, b.indexSize = 0, 0
	b.synced = false
}

func alignDown(n int) int { return n &^ (copyAlign - 1) }
func alignUp(n int) int   { return (n + copyAlign - 1) &^ (copyAlign - 1) }
