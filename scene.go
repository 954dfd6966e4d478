package labelmesh

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/internal/logger"
	"github.com/gogpu/labelmesh/internal/parallel"
	"github.com/gogpu/labelmesh/label"
	"github.com/gogpu/labelmesh/mesh"
	"github.com/gogpu/labelmesh/style"
	"github.com/gogpu/labelmesh/text"
)

// TileID addresses a map tile.
type TileID struct {
	X, Y, Z int
}

func (id TileID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// tile is the scene's record of one processed tile.
type tile struct {
	id       TileID
	seq      uint64
	features []style.Feature
	builder  *style.Builder

	ctx    context.Context
	cancel context.CancelFunc

	// Guarded by Scene.mu until the worker phase ends.
	built   bool
	evicted bool
	labels  *style.TileLabels
	err     error

	// Render goroutine only.
	mesh   mesh.MeshData[label.Vertex]
	ranges []mesh.Range // per label, global vertex range of the last frame
}

// FrameResult describes the mesh produced by one Frame.
type FrameResult struct {
	Mesh *mesh.TypedMesh[label.Vertex]

	Tiles    int // tiles contributing labels
	Labels   int // labels drawn
	Culled   int // labels outside the view
	Occluded int // labels dropped by collision

	PagesUploaded int
	GlyphPages    int
}

// Scene coordinates the tile workers and the render goroutine.
//
// ProcessTile, EvictTile, Frame, SetLabelAlpha and Close belong to the
// render goroutine and must not be called concurrently.
type Scene struct {
	opts  sceneOptions
	fonts *text.FontContext
	pool  *parallel.Pool
	mesh  *mesh.TypedMesh[label.Vertex]

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	builder *style.Builder
	tiles   map[TileID]*tile
	seq     uint64
	closed  bool

	transform label.ScreenTransform
	boxes     []label.OBB
	meshes    []mesh.MeshData[label.Vertex]
}

// NewScene creates a scene with its own font context and worker pool.
func NewScene(opts ...Option) *Scene {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	fonts := text.NewFontContext(o.fontOpts...)
	s := &Scene{
		opts:    o,
		fonts:   fonts,
		pool:    parallel.NewPool(o.workers),
		mesh:    label.NewMesh(),
		builder: style.NewBuilder(fonts, o.rules...),
		tiles:   make(map[TileID]*tile),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Fonts returns the scene's font context.
func (s *Scene) Fonts() *text.FontContext { return s.fonts }

// Mesh returns the mesh compiled by the last Frame.
func (s *Scene) Mesh() *mesh.TypedMesh[label.Vertex] { return s.mesh }

// AddFont registers one scene font.
func (s *Scene) AddFont(desc text.FontDescription) {
	s.fonts.AddFontDescription(desc)
}

// LoadFontsYAML registers the fonts block of a scene file.
func (s *Scene) LoadFontsYAML(r io.Reader) error {
	cfg, err := ParseSceneConfig(r)
	if err != nil {
		return err
	}
	s.applyFonts(cfg)
	return nil
}

// LoadSceneYAML registers the fonts of a scene file and replaces the label
// rules with its labels block. Tiles already processed keep their labels.
func (s *Scene) LoadSceneYAML(r io.Reader) error {
	cfg, err := ParseSceneConfig(r)
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	s.applyFonts(cfg)
	s.SetRules(rules...)
	return nil
}

func (s *Scene) applyFonts(cfg *SceneConfig) {
	descs := cfg.FontDescriptions()
	for _, d := range descs {
		s.fonts.AddFontDescription(d)
	}
	logger.L().Info("labelmesh: fonts registered", "count", len(descs))
}

// SetRules replaces the label rules used for tiles processed afterwards.
func (s *Scene) SetRules(rules ...style.Rule) {
	b := style.NewBuilder(s.fonts, rules...)
	s.mu.Lock()
	s.builder = b
	s.mu.Unlock()
}

// SetResourceRoot sets the base relative font URLs resolve against.
func (s *Scene) SetResourceRoot(root string) {
	s.fonts.SetSceneResourceRoot(root)
}

// Preload loads every registered font and waits for them.
func (s *Scene) Preload(ctx context.Context) error {
	return s.fonts.Preload(ctx)
}

// ProcessTile builds the labels of a tile on the worker pool. A tile that
// is already known is evicted first.
func (s *Scene) ProcessTile(id TileID, features []style.Feature) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.tiles[id]
	s.seq++
	t := &tile{id: id, seq: s.seq, features: features, builder: s.builder}
	t.ctx, t.cancel = context.WithCancel(s.ctx)
	s.tiles[id] = t
	s.mu.Unlock()

	if old != nil {
		s.discard(old)
	}
	if !s.submit(t) {
		s.mu.Lock()
		delete(s.tiles, id)
		s.mu.Unlock()
		t.cancel()
		return ErrClosed
	}
	return nil
}

func (s *Scene) submit(t *tile) bool {
	return s.pool.Submit(func() { s.build(t) })
}

// build runs on a worker.
func (s *Scene) build(t *tile) {
	labels, err := t.builder.Build(t.ctx, t.features, s.fonts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.evicted {
		if labels != nil {
			labels.Labels.Release(s.fonts)
		}
		return
	}
	t.built, t.labels, t.err = true, labels, err
	if err != nil {
		logger.L().Debug("labelmesh: tile build stopped", "tile", t.id, "err", err)
	}
}

// EvictTile cancels the tile's pending work and drops its labels. Glyphs
// it placed stay in the atlas while other tiles use their pages.
func (s *Scene) EvictTile(id TileID) bool {
	s.mu.Lock()
	t, ok := s.tiles[id]
	if ok {
		delete(s.tiles, id)
	}
	s.mu.Unlock()
	if ok {
		s.discard(t)
	}
	return ok
}

// discard marks t evicted and releases its labels if they were built.
// A worker still building t releases them itself.
func (s *Scene) discard(t *tile) {
	t.cancel()
	s.mu.Lock()
	t.evicted = true
	labels := t.labels
	t.labels = nil
	s.mu.Unlock()
	if labels != nil {
		labels.Labels.Release(s.fonts)
	}
	logger.L().Debug("labelmesh: tile evicted", "tile", t.id)
}

// TileCount returns the number of tiles the scene holds.
func (s *Scene) TileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tiles)
}

// TileLabels returns the labels of a built tile.
func (s *Scene) TileLabels(id TileID) (*style.TileLabels, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tiles[id]
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %v", ErrUnknownTile, id)
	case !t.built:
		return nil, fmt.Errorf("%w: %v", ErrTileNotReady, id)
	case t.labels == nil:
		return nil, t.err
	}
	return t.labels, nil
}

// Frame finishes the worker phase and compiles the visible labels.
//
// It waits for every queued tile, then refuses to go on while a font is
// still loading. Tiles that skipped labels for a font that has since
// loaded are rebuilt. Dirty atlas pages are uploaded before any label is
// projected so every glyph a vertex samples is resident.
func (s *Scene) Frame(mvp mgl32.Mat4, screen mgl32.Vec2) (*FrameResult, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	s.pool.Wait()
	if s.fonts.IsLoadingResources() {
		return nil, ErrResourcesLoading
	}
	if s.rebuildIncomplete() {
		s.pool.Wait()
	}

	res := &FrameResult{Mesh: s.mesh}
	res.PagesUploaded = s.fonts.UpdateTextures(s.opts.uploader)
	res.GlyphPages = s.fonts.GlyphTextureCount()

	tiles := s.readyTiles()
	s.boxes = s.boxes[:0]
	s.meshes = s.meshes[:0]
	base := 0
	for _, t := range tiles {
		t.mesh.Clear()
		labels := t.labels.Labels.Labels()
		t.ranges = slices.Grow(t.ranges[:0], len(labels))[:len(labels)]
		for i, l := range labels {
			t.ranges[i] = mesh.Range{}
			if !l.UpdateScreenTransform(mvp, screen, true, &s.transform) {
				res.Culled++
				continue
			}
			if s.opts.collisions && s.collides(l) {
				res.Occluded++
				continue
			}
			l.PushTransform(&s.transform, &t.mesh)
			r := l.VertexRange()
			t.ranges[i] = mesh.Range{Start: base + r.Start, Length: r.Length}
			res.Labels++
		}
		if t.mesh.Empty() {
			continue
		}
		base += len(t.mesh.Vertices)
		s.meshes = append(s.meshes, t.mesh)
		res.Tiles++
	}

	s.mesh.Compile(s.meshes)
	logger.L().Debug("labelmesh: frame compiled",
		"tiles", res.Tiles, "labels", res.Labels, "culled", res.Culled, "occluded", res.Occluded)
	return res, nil
}

// rebuildIncomplete resubmits tiles built while one of their fonts was
// loading. It reports whether any tile was resubmitted.
func (s *Scene) rebuildIncomplete() bool {
	s.mu.Lock()
	var stale []*tile
	for _, t := range s.tiles {
		if t.built && t.labels != nil && t.labels.Incomplete {
			stale = append(stale, t)
		}
	}
	for _, t := range stale {
		t.built = false
	}
	s.mu.Unlock()

	for _, t := range stale {
		s.mu.Lock()
		labels := t.labels
		t.labels = nil
		s.mu.Unlock()
		labels.Labels.Release(s.fonts)
		logger.L().Debug("labelmesh: rebuilding tile", "tile", t.id)
		s.submit(t)
	}
	return len(stale) > 0
}

// readyTiles returns the built tiles in processing order.
func (s *Scene) readyTiles() []*tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	tiles := make([]*tile, 0, len(s.tiles))
	for _, t := range s.tiles {
		t.ranges = t.ranges[:0]
		if t.built && t.labels != nil {
			tiles = append(tiles, t)
		}
	}
	slices.SortFunc(tiles, func(a, b *tile) int { return cmp.Compare(a.seq, b.seq) })
	return tiles
}

// collides reports whether l overlaps a label accepted earlier this frame.
// Accepted labels keep their boxes.
func (s *Scene) collides(l *label.Label) bool {
	n := len(s.boxes)
	var r mesh.Range
	s.boxes, r = l.OBBs(&s.transform, s.boxes)
	for _, b := range s.boxes[r.Start:r.End()] {
		for _, o := range s.boxes[:n] {
			if b.Intersects(o) {
				s.boxes = s.boxes[:n]
				return true
			}
		}
	}
	return false
}

// SetLabelAlpha changes the alpha of a label drawn in the last frame
// without recompiling the mesh. The new alpha is kept for later frames.
func (s *Scene) SetLabelAlpha(id TileID, index int, alpha float32) error {
	s.mu.Lock()
	t, ok := s.tiles[id]
	built := ok && t.built && t.labels != nil
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownTile, id)
	}
	if !built {
		return fmt.Errorf("%w: %v", ErrTileNotReady, id)
	}

	labels := t.labels.Labels.Labels()
	if index < 0 || index >= len(labels) {
		return fmt.Errorf("%w: %d of %d", ErrLabelIndex, index, len(labels))
	}
	l := labels[index]
	st := l.State()
	st.Alpha = uint16(math.Round(float64(mgl32.Clamp(alpha, 0, 1)) * label.AlphaScale))
	l.SetState(st)

	if index >= len(t.ranges) || t.ranges[index].Length == 0 {
		return fmt.Errorf("%w: %v label %d", ErrLabelHidden, id, index)
	}
	mesh.UpdateAttribute(s.mesh, t.ranges[index], st.Alpha, label.AlphaAttribute)
	return nil
}

// Close cancels pending tiles, stops the workers, releases every tile and
// stops font loading. It is safe to call more than once.
func (s *Scene) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tiles := make([]*tile, 0, len(s.tiles))
	for _, t := range s.tiles {
		tiles = append(tiles, t)
	}
	clear(s.tiles)
	s.mu.Unlock()

	s.cancel()
	s.pool.Close()
	for _, t := range tiles {
		s.discard(t)
	}
	s.fonts.Close()
	logger.L().Info("labelmesh: scene closed")
}

// Pages returns the atlas pages referenced by built tiles.
func (s *Scene) Pages() atlas.PageSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	var set atlas.PageSet
	for _, t := range s.tiles {
		if t.labels != nil {
			set = set.Union(t.labels.Labels.Pages())
		}
	}
	return set
}
