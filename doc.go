// Package labelmesh turns map features into GPU-ready text label meshes.
//
// # Overview
//
// A Scene owns a text.FontContext, a pool of tile workers and the compiled
// label mesh. Tiles are handed to ProcessTile; workers shape their labels
// and place glyphs in the shared atlas. Once per frame the render
// goroutine calls Frame, which waits for the workers, uploads dirty atlas
// pages, projects every label and compiles the visible ones into a
// mesh.TypedMesh.
//
// # Quick Start
//
//	scene := labelmesh.NewScene()
//	defer scene.Close()
//
//	if err := scene.LoadSceneYAML(f); err != nil {
//	    return err
//	}
//	scene.ProcessTile(labelmesh.TileID{Z: 14, X: 8185, Y: 5448}, features)
//
//	res, err := scene.Frame(mvp, mgl32.Vec2{1280, 720})
//	if errors.Is(err, labelmesh.ErrResourcesLoading) {
//	    // fonts are still downloading; draw the previous frame
//	}
//
// # Packages
//
//   - atlas: glyph pages, reference counts and dirty tracking
//   - text: font resources, shaping and layout
//   - label: anchors, screen transforms and label vertices
//   - mesh: typed vertex arenas and 16-bit batch compilation
//   - style: rules and placement strategies per geometry type
//   - gpu: wgpu/hal and gpucontext adapters
//
// # Logging
//
// labelmesh is silent by default. See SetLogger.
package labelmesh
