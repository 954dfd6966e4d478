package text

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/internal/cache"
	"github.com/gogpu/labelmesh/internal/logger"
)

type fontKey struct {
	alias string
	size  uint32
}

// FontContext owns the scene fonts, the glyph packer and the atlas store.
//
// GetFont and LayoutText are safe to call from worker goroutines.
// UpdateTextures must be called from the render goroutine.
type FontContext struct {
	cfg    config
	shaper Shaper
	loader ResourceLoader

	// mu serializes glyph placement with the retain of the pages it used,
	// and page reclaim with the packer reset.
	mu     sync.Mutex
	glyphs *atlas.GlyphAtlas
	store  *atlas.Store

	descMu    sync.Mutex
	descs     map[string]FontDescription
	resources map[string]*fontResource
	root      string
	nextID    uint32

	handles *cache.Cache[fontKey, *Font]

	resourceLoad atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFontContext creates a FontContext with an empty atlas.
func NewFontContext(opts ...Option) *FontContext {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	pad := int(math.Ceil(cfg.sdfRadius))
	if pad == 0 {
		pad = 1
	}
	storeOpts := []atlas.Option{atlas.WithSDFRadius(cfg.sdfRadius)}
	maxPages := atlas.MaxPages
	if cfg.maxPages > 0 && cfg.maxPages <= atlas.MaxPages {
		maxPages = cfg.maxPages
		storeOpts = append(storeOpts, atlas.WithMaxPages(maxPages))
	}

	fc := &FontContext{
		cfg:       cfg,
		shaper:    cfg.shaper,
		loader:    cfg.loader,
		glyphs:    atlas.NewGlyphAtlas(pad, maxPages),
		store:     atlas.NewStore(storeOpts...),
		descs:     make(map[string]FontDescription),
		resources: make(map[string]*fontResource),
		root:      cfg.root,
		handles:   cache.New[fontKey, *Font](cfg.cacheLimit),
	}
	if fc.shaper == nil {
		fc.shaper = NewGoTextShaper()
	}
	if fc.loader == nil {
		fc.loader = DefaultLoader()
	}
	fc.ctx, fc.cancel = context.WithCancel(context.Background())
	return fc
}

// Store returns the atlas store backing the context.
func (fc *FontContext) Store() *atlas.Store { return fc.store }

// AddFontDescription registers a scene font. Registering an alias again
// replaces its description unless loading has already started.
func (fc *FontContext) AddFontDescription(desc FontDescription) {
	fc.descMu.Lock()
	defer fc.descMu.Unlock()

	if _, started := fc.resources[desc.Alias]; started {
		logger.L().Debug("text: font already loading, description ignored", "alias", desc.Alias)
		return
	}
	fc.descs[desc.Alias] = desc
}

// SetSceneResourceRoot sets the base relative font URIs resolve against.
// It affects loads started afterwards.
func (fc *FontContext) SetSceneResourceRoot(root string) {
	fc.descMu.Lock()
	fc.root = root
	fc.descMu.Unlock()
}

// GetFont returns the handle for a registered font at size pixels.
// The first request for a font starts loading it in the background; the
// handle reports Ready once the load succeeded.
func (fc *FontContext) GetFont(family, style, weight string, size float64) (*Font, error) {
	alias := Alias(family, style, weight)
	key := fontKey{alias: alias, size: uint32(math.Round(size * 64))}
	if f, ok := fc.handles.Get(key); ok {
		return f, nil
	}

	res, err := fc.resource(alias)
	if err != nil {
		return nil, err
	}
	return fc.handles.GetOrCreate(key, func() *Font {
		return &Font{res: res, size: size}
	}), nil
}

// resource returns the resource for alias, starting its load if needed.
func (fc *FontContext) resource(alias string) (*fontResource, error) {
	fc.descMu.Lock()
	defer fc.descMu.Unlock()

	if res, ok := fc.resources[alias]; ok {
		return res, nil
	}
	desc, ok := fc.descs[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFont, alias)
	}
	fc.nextID++
	res := newFontResource(fc.nextID, desc)
	fc.resources[alias] = res
	fc.startLoad(res, resolveURI(fc.root, desc.URI))
	return res, nil
}

func (fc *FontContext) startLoad(res *fontResource, uri string) {
	fc.resourceLoad.Add(1)
	fc.wg.Add(1)
	go func() {
		defer fc.wg.Done()
		defer fc.resourceLoad.Add(-1)

		err := fc.load(res, uri)
		if err != nil {
			logger.L().Warn("text: font load failed", "alias", res.desc.Alias, "err", err)
		} else {
			logger.L().Debug("text: font loaded", "alias", res.desc.Alias, "uri", uri)
		}
		res.finish(err)
	}()
}

func (fc *FontContext) load(res *fontResource, uri string) error {
	data, err := fc.loader.Load(fc.ctx, uri)
	if err != nil {
		return &LoadError{URI: uri, Err: err}
	}
	if err := res.parse(data); err != nil {
		return &LoadError{URI: uri, Err: err}
	}
	return nil
}

// IsLoadingResources reports whether any font load is in flight.
func (fc *FontContext) IsLoadingResources() bool {
	return fc.resourceLoad.Load() > 0
}

// Preload starts loading every registered font and waits for all of them.
// It returns the first load error.
func (fc *FontContext) Preload(ctx context.Context) error {
	fc.descMu.Lock()
	aliases := make([]string, 0, len(fc.descs))
	for alias := range fc.descs {
		aliases = append(aliases, alias)
	}
	fc.descMu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, alias := range aliases {
		res, err := fc.resource(alias)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return res.wait(ctx)
		})
	}
	return g.Wait()
}

// Close cancels pending loads and waits for their goroutines.
func (fc *FontContext) Close() {
	fc.cancel()
	fc.wg.Wait()
}

// MaxStrokeWidth returns the widest outline the atlas distance field can
// represent, in pixels.
func (fc *FontContext) MaxStrokeWidth() float64 { return fc.cfg.sdfRadius }

// GlyphTextureCount returns the number of live atlas pages.
func (fc *FontContext) GlyphTextureCount() int { return fc.store.GlyphTextureCount() }

// UpdateTextures uploads dirty atlas pages. Render goroutine only.
func (fc *FontContext) UpdateTextures(up atlas.Uploader) int {
	return fc.store.UpdateTextures(up)
}

// ReleaseAtlas drops one reference to each page in set. Reclaimed pages are
// emptied in the packer so their glyphs are rasterized again on next use.
func (fc *FontContext) ReleaseAtlas(set atlas.PageSet) {
	if set == 0 {
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()

	reclaimed := fc.store.ReleaseAtlas(set)
	fc.glyphs.Clear(reclaimed)
}

type placedGlyph struct {
	key  atlas.GlyphKey
	x, y float64 // pen position of the glyph origin, y down
}

// LayoutText lays out s with p, appending one quad per visible glyph to
// quads. Every atlas page the quads sample is retained once and added to
// refs; pages already in refs are not retained again. The returned size is
// the bounding box of the text block in pixels.
//
// On error quads and refs are returned unchanged.
func (fc *FontContext) LayoutText(p Parameters, s string, quads []GlyphQuad, refs *atlas.PageSet) ([]GlyphQuad, mgl32.Vec2, error) {
	if err := p.Validate(); err != nil {
		return quads, mgl32.Vec2{}, err
	}
	if s == "" {
		return quads, mgl32.Vec2{}, ErrEmptyText
	}
	f, err := fc.GetFont(p.Family, p.Style, p.Weight, p.Size)
	if err != nil {
		return quads, mgl32.Vec2{}, err
	}
	switch {
	case f.Failed():
		return quads, mgl32.Vec2{}, fmt.Errorf("%w: %w", ErrFontFailed, f.Err())
	case !f.Ready():
		return quads, mgl32.Vec2{}, ErrFontNotReady
	}

	s = p.Transform.Apply(s, p.Language)
	lines := wrapLines(s, p.wrapWidth(), p.MaxLines)

	m := f.Metrics()
	shaped := make([][]ShapedGlyph, len(lines))
	widths := make([]float64, len(lines))
	maxW := 0.0
	for i, line := range lines {
		shaped[i] = fc.shaper.Shape(line, f)
		for _, g := range shaped[i] {
			widths[i] += g.Advance
		}
		maxW = max(maxW, widths[i])
	}

	sizeKey := f.sizeKey()
	var placed []placedGlyph
	for i, glyphs := range shaped {
		pen := (maxW - widths[i]) * p.Align.fraction()
		baseline := m.Ascent + float64(i)*(m.LineHeight+p.LineSpacing)
		for _, g := range glyphs {
			placed = append(placed, placedGlyph{
				key: atlas.GlyphKey{Font: f.res.id, Glyph: g.Glyph, Size: sizeKey},
				x:   pen + g.XOffset,
				y:   baseline + g.YOffset,
			})
			pen += g.Advance
		}
	}
	if len(placed) == 0 {
		return quads, mgl32.Vec2{}, ErrNoGlyphs
	}

	// A page released while the lock is dropped forgets its glyphs, so
	// look again after every rasterization pass.
	bitmaps := make(map[atlas.GlyphKey]*atlas.Bitmap)
	fc.mu.Lock()
	for {
		missing := fc.missingGlyphs(placed, bitmaps)
		if len(missing) == 0 {
			break
		}
		fc.mu.Unlock()
		rasterizeGlyphs(f, missing, bitmaps)
		fc.mu.Lock()
	}
	defer fc.mu.Unlock()

	out := quads
	var used atlas.PageSet
	for _, pg := range placed {
		r, ok := fc.glyphs.Lookup(pg.key)
		if !ok {
			bm := bitmaps[pg.key]
			if bm == nil {
				continue
			}
			r, err = fc.glyphs.Insert(pg.key, *bm, fc.store)
			if err != nil {
				if errors.Is(err, atlas.ErrPageLimit) {
					logger.L().Warn("text: atlas full, glyph omitted", "glyph", pg.key.Glyph)
				} else {
					logger.L().Warn("text: glyph omitted", "glyph", pg.key.Glyph, "err", err)
				}
				continue
			}
		}
		if r.Empty() {
			continue
		}
		x0 := pg.x + float64(r.Left)
		y0 := pg.y + float64(r.Top)
		out = append(out, newGlyphQuad(r.Page,
			x0, y0, x0+float64(r.Width), y0+float64(r.Height),
			r.X, r.Y, r.X+r.Width, r.Y+r.Height))
		used.Set(r.Page)
	}
	if len(out) == len(quads) {
		return quads, mgl32.Vec2{}, ErrNoGlyphs
	}

	fc.store.Retain(used.Without(*refs))
	*refs = refs.Union(used)

	n := float64(len(lines))
	height := n*m.LineHeight + (n-1)*p.LineSpacing
	return out, mgl32.Vec2{float32(maxW), float32(height)}, nil
}

// missingGlyphs returns the keys of placed that are neither in the atlas
// nor in bitmaps. fc.mu must be held.
func (fc *FontContext) missingGlyphs(placed []placedGlyph, bitmaps map[atlas.GlyphKey]*atlas.Bitmap) []atlas.GlyphKey {
	var missing []atlas.GlyphKey
	seen := make(map[atlas.GlyphKey]bool)
	for _, pg := range placed {
		if seen[pg.key] {
			continue
		}
		seen[pg.key] = true
		if _, done := bitmaps[pg.key]; done {
			continue
		}
		if _, ok := fc.glyphs.Lookup(pg.key); !ok {
			missing = append(missing, pg.key)
		}
	}
	return missing
}

// rasterizeGlyphs renders keys into bitmaps. A failed glyph is stored as
// nil so it is not tried again.
func rasterizeGlyphs(f *Font, keys []atlas.GlyphKey, bitmaps map[atlas.GlyphKey]*atlas.Bitmap) {
	for _, key := range keys {
		bm, err := f.res.raster.rasterize(key.Glyph, f.size)
		if err != nil {
			logger.L().Debug("text: glyph rasterization failed", "glyph", key.Glyph, "err", err)
			bitmaps[key] = nil
			continue
		}
		bitmaps[key] = &bm
	}
}
