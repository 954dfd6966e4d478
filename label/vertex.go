package label

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/labelmesh/mesh"
)

// Vertex layout constants.
const (
	VertexStride = 20
	StateOffset  = 8
	StateSize    = 12

	// AlphaScale is the encoded value of a fully opaque label.
	AlphaScale = math.MaxUint16
	// ScaleUnit is the encoded value of scale 1.
	ScaleUnit = 256
)

// The state block must fit inside the vertex.
var _ [VertexStride - StateOffset - StateSize]struct{}

// State is the part of a vertex rewritten after compilation.
type State struct {
	Fill   uint32 // 0xAABBGGRR
	Stroke uint32
	Alpha  uint16
	Scale  uint16
}

// NewState encodes alpha in [0,1] and a scale factor.
func NewState(fill, stroke uint32, alpha, scale float32) State {
	return State{
		Fill:   fill,
		Stroke: stroke,
		Alpha:  uint16(math.Round(float64(mgl32.Clamp(alpha, 0, 1)) * AlphaScale)),
		Scale:  uint16(math.Round(float64(mgl32.Clamp(scale, 0, math.MaxUint16/ScaleUnit)) * ScaleUnit)),
	}
}

// Vertex is one corner of a glyph quad as uploaded to the GPU.
// Pos is in text.PositionScale units of screen pixels.
type Vertex struct {
	Pos   [2]int16
	UV    [2]uint16
	State State
}

// VertexCodec encodes Vertex little-endian.
type VertexCodec struct{}

// Stride implements mesh.Codec.
func (VertexCodec) Stride() int { return VertexStride }

// Encode implements mesh.Codec.
func (VertexCodec) Encode(dst []byte, v Vertex) {
	binary.LittleEndian.PutUint16(dst[0:], uint16(v.Pos[0]))
	binary.LittleEndian.PutUint16(dst[2:], uint16(v.Pos[1]))
	binary.LittleEndian.PutUint16(dst[4:], v.UV[0])
	binary.LittleEndian.PutUint16(dst[6:], v.UV[1])
	encodeState(dst[StateOffset:], v.State)
}

// Decode implements mesh.Codec.
func (VertexCodec) Decode(src []byte) Vertex {
	return Vertex{
		Pos: [2]int16{
			int16(binary.LittleEndian.Uint16(src[0:])),
			int16(binary.LittleEndian.Uint16(src[2:])),
		},
		UV: [2]uint16{
			binary.LittleEndian.Uint16(src[4:]),
			binary.LittleEndian.Uint16(src[6:]),
		},
		State: State{
			Fill:   binary.LittleEndian.Uint32(src[8:]),
			Stroke: binary.LittleEndian.Uint32(src[12:]),
			Alpha:  binary.LittleEndian.Uint16(src[16:]),
			Scale:  binary.LittleEndian.Uint16(src[18:]),
		},
	}
}

func encodeState(dst []byte, s State) {
	binary.LittleEndian.PutUint32(dst[0:], s.Fill)
	binary.LittleEndian.PutUint32(dst[4:], s.Stroke)
	binary.LittleEndian.PutUint16(dst[8:], s.Alpha)
	binary.LittleEndian.PutUint16(dst[10:], s.Scale)
}

// StateAttribute rewrites the whole state block of a compiled vertex.
var StateAttribute = mesh.Attribute[State]{
	Name:   "a_state",
	Offset: StateOffset,
	Size:   StateSize,
	Encode: encodeState,
}

// AlphaAttribute rewrites only the alpha of a compiled vertex.
var AlphaAttribute = mesh.Attribute[uint16]{
	Name:   "a_alpha",
	Offset: StateOffset + 8,
	Size:   2,
	Encode: func(dst []byte, v uint16) { binary.LittleEndian.PutUint16(dst, v) },
}

// VertexLayout returns the GPU layout matching VertexCodec.
func VertexLayout() *mesh.VertexLayout {
	return mesh.NewVertexLayout(
		mesh.AttributeDesc{Name: "a_position", Format: gputypes.VertexFormatSint16x2, Location: 0},
		mesh.AttributeDesc{Name: "a_uv", Format: gputypes.VertexFormatUint16x2, Location: 1},
		mesh.AttributeDesc{Name: "a_fill", Format: gputypes.VertexFormatUnorm8x4, Location: 2},
		mesh.AttributeDesc{Name: "a_stroke", Format: gputypes.VertexFormatUnorm8x4, Location: 3},
		mesh.AttributeDesc{Name: "a_alpha_scale", Format: gputypes.VertexFormatUint16x2, Location: 4},
	)
}

// NewMesh returns an empty triangle mesh of label vertices.
func NewMesh() *mesh.TypedMesh[Vertex] {
	return mesh.NewTypedMesh[Vertex](VertexCodec{}, VertexLayout(), mesh.Triangles)
}
