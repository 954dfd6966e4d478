package mesh

import "github.com/gogpu/gputypes"

// MaxIndexValue is the largest vertex count a batch may address.
const MaxIndexValue = 65535

// DrawMode selects the primitive topology of a mesh.
type DrawMode = gputypes.PrimitiveTopology

// Draw modes used by label meshes.
const (
	Triangles     DrawMode = gputypes.PrimitiveTopologyTriangleList
	TriangleStrip DrawMode = gputypes.PrimitiveTopologyTriangleStrip
	Lines         DrawMode = gputypes.PrimitiveTopologyLineList
	Points        DrawMode = gputypes.PrimitiveTopologyPointList
)

// AttributeDesc names one vertex attribute.
type AttributeDesc struct {
	Name     string
	Format   gputypes.VertexFormat
	Location uint32
}

// VertexLayout lists the attributes of a vertex in buffer order.
// Attributes are packed without gaps.
type VertexLayout struct {
	attrs   []AttributeDesc
	offsets []int
	stride  int
}

// NewVertexLayout packs attrs in order.
func NewVertexLayout(attrs ...AttributeDesc) *VertexLayout {
	l := &VertexLayout{
		attrs:   attrs,
		offsets: make([]int, len(attrs)),
	}
	for i, a := range attrs {
		l.offsets[i] = l.stride
		l.stride += int(a.Format.Size())
	}
	return l
}

// Stride returns the size of one vertex in bytes.
func (l *VertexLayout) Stride() int { return l.stride }

// Offset returns the byte offset of the named attribute.
func (l *VertexLayout) Offset(name string) (int, bool) {
	for i, a := range l.attrs {
		if a.Name == name {
			return l.offsets[i], true
		}
	}
	return 0, false
}

// BufferLayout returns the layout for a render pipeline descriptor.
func (l *VertexLayout) BufferLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.attrs))
	for i, a := range l.attrs {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         uint64(l.offsets[i]),
			ShaderLocation: a.Location,
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.stride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}
