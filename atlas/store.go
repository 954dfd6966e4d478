package atlas

import (
	"image"
	"sync"

	"github.com/gogpu/labelmesh/internal/logger"
)

type opKind uint8

const (
	opCreate opKind = iota
	opGlyph
	opRelease
)

// op is one pending page mutation. Glyph ops own a private copy of the bitmap.
type op struct {
	kind       opKind
	id         int
	x, y, w, h int
	pad        int
	src        []byte
}

// Store holds the atlas pages and their reference counts.
//
// Any goroutine may call AddTexture, AddGlyph, Retain and ReleaseAtlas;
// they only touch the slot table and append to the message queue under a
// short mutex. Drain, UpdateTextures and Page belong to the render goroutine,
// which is the only one touching pixel memory. Messages are applied in the
// order they were posted, so every insert posted before UpdateTextures is
// visible in the uploaded pixels.
type Store struct {
	cfg config

	mu        sync.Mutex
	live      [MaxPages]bool
	refs      [MaxPages]int
	liveCount int
	queue     []op

	// Render goroutine only.
	pages    [MaxPages]*Page
	released []int
	sdf      *sdfScratch
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Store{cfg: cfg}
	if cfg.sdfRadius > 0 {
		s.sdf = newSDFScratch(PageSize)
	}
	return s
}

// MaxPages returns the configured live page limit.
func (s *Store) MaxPages() int { return s.cfg.maxPages }

// SDFRadius returns the configured distance field radius, 0 when disabled.
func (s *Store) SDFRadius() float64 { return s.cfg.sdfRadius }

// AddTexture reserves page id. It is a no-op when the page already exists.
// Pages are always PageSize×PageSize; larger requests are clamped.
func (s *Store) AddTexture(id, width, height int) {
	if id < 0 || id >= s.cfg.maxPages {
		logger.L().Warn("atlas: page rejected", "id", id, "err", ErrInvalidPage)
		return
	}
	if width > PageSize || height > PageSize {
		logger.L().Debug("atlas: page size clamped", "id", id, "width", width, "height", height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live[id] {
		return
	}
	if s.liveCount >= s.cfg.maxPages {
		logger.L().Warn("atlas: page rejected", "id", id, "err", ErrPageLimit)
		return
	}
	s.live[id] = true
	s.liveCount++
	s.queue = append(s.queue, op{kind: opCreate, id: id})
}

// AddGlyph queues a w×h bitmap for page id at (x+pad, y+pad).
// Reference counts are not changed. Rectangles that do not fit the page,
// or target a page that does not exist, are logged and dropped.
func (s *Store) AddGlyph(id, x, y, w, h int, src []byte, pad int) {
	if id < 0 || id >= s.cfg.maxPages {
		logger.L().Warn("atlas: glyph dropped", "id", id, "err", ErrInvalidPage)
		return
	}
	if w <= 0 || h <= 0 || pad < 0 || len(src) < w*h ||
		x < 0 || y < 0 || x+w+2*pad > PageSize || y+h+2*pad > PageSize {
		err := &PageBoundsError{Page: id, X: x, Y: y, W: w, H: h, Pad: pad}
		logger.L().Warn("atlas: glyph dropped", "err", err)
		return
	}

	bitmap := make([]byte, w*h)
	copy(bitmap, src)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live[id] {
		logger.L().Warn("atlas: glyph dropped, page not live", "id", id)
		return
	}
	s.queue = append(s.queue, op{kind: opGlyph, id: id, x: x, y: y, w: w, h: h, pad: pad, src: bitmap})
}

// OnPageNeeded implements TextureSink.
func (s *Store) OnPageNeeded(id, width, height int) {
	s.AddTexture(id, width, height)
}

// OnGlyphReady implements TextureSink.
func (s *Store) OnGlyphReady(id, x, y, w, h int, src []byte, pad int) {
	s.AddGlyph(id, x, y, w, h, src, pad)
}

// Retain increments the reference count of every live page in set.
func (s *Store) Retain(set PageSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set.Each(func(id int) {
		if !s.live[id] {
			logger.L().Debug("atlas: retain of dead page ignored", "id", id)
			return
		}
		s.refs[id]++
	})
}

// ReleaseAtlas decrements the reference count of every page in set.
// Counts never go below zero. Pages whose count reaches zero are reclaimed:
// their slot becomes free for a later AddTexture and their pixels are
// dropped on the next Drain. The reclaimed ids are returned.
func (s *Store) ReleaseAtlas(set PageSet) PageSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reclaimed PageSet
	set.Each(func(id int) {
		if !s.live[id] || s.refs[id] == 0 {
			return
		}
		s.refs[id]--
		if s.refs[id] > 0 {
			return
		}
		s.live[id] = false
		s.liveCount--
		s.queue = append(s.queue, op{kind: opRelease, id: id})
		reclaimed.Set(id)
	})
	if reclaimed != 0 {
		logger.L().Debug("atlas: pages reclaimed", "count", reclaimed.Len())
	}
	return reclaimed
}

// RefCount returns the reference count of page id.
func (s *Store) RefCount(id int) int {
	if id < 0 || id >= MaxPages {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[id]
}

// IsPageLive reports whether page id holds a reserved slot.
func (s *Store) IsPageLive(id int) bool {
	if id < 0 || id >= MaxPages {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[id]
}

// GlyphTextureCount returns the number of live pages.
func (s *Store) GlyphTextureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveCount
}

// Pending returns the number of queued messages not yet drained.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Drain applies every queued message to the page pixels.
// Must be called from the render goroutine.
func (s *Store) Drain() {
	s.mu.Lock()
	ops := s.queue
	s.queue = nil
	s.mu.Unlock()

	for i := range ops {
		s.apply(&ops[i])
	}
}

func (s *Store) apply(o *op) {
	switch o.kind {
	case opCreate:
		if s.pages[o.id] == nil {
			s.pages[o.id] = newPage(o.id)
		}
	case opRelease:
		if s.pages[o.id] != nil {
			s.pages[o.id] = nil
			s.released = append(s.released, o.id)
		}
	case opGlyph:
		p := s.pages[o.id]
		if p == nil {
			logger.L().Warn("atlas: glyph for missing page", "id", o.id)
			return
		}
		p.blit(o.x+o.pad, o.y+o.pad, o.w, o.h, o.src)
		padded := image.Rect(o.x, o.y, o.x+o.w+2*o.pad, o.y+o.h+2*o.pad)
		if s.sdf != nil {
			s.sdf.apply(p.pix, PageSize, padded, s.cfg.sdfRadius)
		}
		p.markDirty(padded)
	}
}

// UpdateTextures drains pending messages and uploads every dirty page.
// Pages uploaded successfully are marked clean; failures are logged and
// retried next time. A nil uploader marks pages clean without uploading.
// Returns the number of pages uploaded.
func (s *Store) UpdateTextures(up Uploader) int {
	s.Drain()

	if up != nil {
		for _, id := range s.released {
			up.Release(id)
		}
	}
	s.released = s.released[:0]

	uploaded := 0
	for _, p := range s.pages {
		if p == nil || !p.Dirty() {
			continue
		}
		if up != nil {
			if err := up.Upload(p); err != nil {
				logger.L().Warn("atlas: page upload failed", "id", p.id, "err", err)
				continue
			}
		}
		y0, y1 := p.DirtyRows()
		logger.L().Debug("atlas: page uploaded", "id", p.id, "rows", y1-y0)
		p.markClean()
		uploaded++
	}
	return uploaded
}

// Page returns page id as seen by the render goroutine, or nil.
// Messages not yet drained are not reflected.
func (s *Store) Page(id int) *Page {
	if id < 0 || id >= MaxPages {
		return nil
	}
	return s.pages[id]
}
