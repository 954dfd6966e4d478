// Package mesh compiles per-tile vertex data into GPU-ready buffers whose
// indices fit in 16 bits.
//
// Vertices are stored in a VertexArena, a fixed-stride byte buffer with
// typed read and write access through a Codec. A TypedMesh concatenates
// the vertices of many MeshData values and rewrites their indices into
// batches of at most MaxIndexValue vertices each. Batches only break at the
// sub-batch boundaries recorded in MeshData, so a feature's triangles always
// stay in the batch that holds its vertices.
//
// After compilation the vertex bytes can be patched in place with
// UpdateVertices or UpdateAttribute. Both track a single dirty byte
// interval, widened to cover every update since the last ClearDirty.
package mesh
