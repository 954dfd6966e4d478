// Package gpu binds the atlas store and compiled label meshes to a GPU.
//
// HALUploader and MeshBuffer talk to a wgpu/hal device and queue directly.
// ContextUploader targets hosts that only expose the gpucontext texture
// interfaces. All types in this package belong to the render goroutine.
//
// A typical frame:
//
//	up, _ := gpu.NewHALUploader(device, queue)
//	buf, _ := gpu.NewMeshBuffer(device, queue, m)
//	...
//	fonts.UpdateTextures(up)
//	buf.Sync()
package gpu
