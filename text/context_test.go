package text

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/labelmesh/atlas"
)

func goParams() Parameters {
	p := DefaultParameters()
	p.Family = "Go"
	return p
}

// newTestContext returns a context whose "Go" family is loaded.
func newTestContext(t *testing.T, opts ...Option) *FontContext {
	t.Helper()
	fc := NewFontContext(opts...)
	t.Cleanup(fc.Close)
	fc.AddFontDescription(NewFontDescription("Go", "normal", "400", "builtin:goregular", FontTypeTTF))
	fc.AddFontDescription(NewFontDescription("Go", "normal", "700", "builtin:gobold", FontTypeTTF))
	if err := fc.Preload(context.Background()); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	return fc
}

type gateLoader struct {
	gate chan struct{}
	err  error
}

func (l *gateLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	select {
	case <-l.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if l.err != nil {
		return nil, l.err
	}
	return NewBuiltinLoader().Load(ctx, uri)
}

type recordingUploader struct {
	uploaded map[int]int // page id -> non-zero texels
	released []int
}

func (u *recordingUploader) Upload(p *atlas.Page) error {
	n := 0
	for _, v := range p.Pix() {
		if v != 0 {
			n++
		}
	}
	u.uploaded[p.ID()] = n
	return nil
}

func (u *recordingUploader) Release(id int) { u.released = append(u.released, id) }

func TestLayoutTextUnknownFontLeavesOutputs(t *testing.T) {
	fc := newTestContext(t)
	p := goParams()
	p.Family = "Nope"

	quads := []GlyphQuad{{Atlas: 3}}
	refs := atlas.PageSet(1 << 3)
	got, bbox, err := fc.LayoutText(p, "label", quads, &refs)
	if !errors.Is(err, ErrUnknownFont) {
		t.Fatalf("err = %v, want ErrUnknownFont", err)
	}
	if len(got) != 1 || got[0] != quads[0] {
		t.Errorf("quads changed: %+v", got)
	}
	if refs != 1<<3 {
		t.Errorf("refs changed: %b", refs)
	}
	if bbox.X() != 0 || bbox.Y() != 0 {
		t.Errorf("bbox = %v", bbox)
	}
	if fc.GlyphTextureCount() != 0 {
		t.Error("failed layout created a page")
	}
}

func TestLayoutTextHello(t *testing.T) {
	fc := newTestContext(t)
	var refs atlas.PageSet
	quads, bbox, err := fc.LayoutText(goParams(), "Hello", nil, &refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(quads) != 5 {
		t.Fatalf("got %d quads, want 5", len(quads))
	}
	if refs != 1 {
		t.Errorf("refs = %b, want page 0", refs)
	}
	if got := fc.Store().RefCount(0); got != 1 {
		t.Errorf("RefCount(0) = %d, want 1", got)
	}
	if fc.GlyphTextureCount() != 1 {
		t.Errorf("GlyphTextureCount = %d", fc.GlyphTextureCount())
	}

	m := readyFont(t, 16).Metrics()
	if bbox.X() <= 0 || float64(bbox.Y()) != float64(float32(m.LineHeight)) {
		t.Errorf("bbox = %v, line height %v", bbox, m.LineHeight)
	}

	prevX := int16(-1 << 15)
	for i, q := range quads {
		if q.Atlas != 0 {
			t.Errorf("quad %d on page %d", i, q.Atlas)
		}
		if x := q.Quad[0].Pos[0]; x <= prevX {
			t.Errorf("quad %d x = %d not after %d", i, x, prevX)
		} else {
			prevX = x
		}
		uw := int(q.Quad[3].UV[0]) - int(q.Quad[0].UV[0])
		uh := int(q.Quad[3].UV[1]) - int(q.Quad[0].UV[1])
		pw := int(q.Quad[3].Pos[0]) - int(q.Quad[0].Pos[0])
		ph := int(q.Quad[3].Pos[1]) - int(q.Quad[0].Pos[1])
		if uw <= 0 || uh <= 0 || abs(pw-uw*PositionScale) > 1 || abs(ph-uh*PositionScale) > 1 {
			t.Errorf("quad %d: uv %dx%d, pos %dx%d", i, uw, uh, pw, ph)
		}
		if q.Quad[1].Pos[0] != q.Quad[0].Pos[0] || q.Quad[2].Pos[1] != q.Quad[0].Pos[1] {
			t.Errorf("quad %d corners out of order: %+v", i, q.Quad)
		}
		if int(q.Quad[3].UV[0]) > atlas.PageSize || int(q.Quad[3].UV[1]) > atlas.PageSize {
			t.Errorf("quad %d uv outside page: %+v", i, q.Quad[3].UV)
		}
	}
	// Repeated glyphs share the atlas region.
	if quads[2].Quad[0].UV != quads[3].Quad[0].UV {
		t.Error("'l' placed twice")
	}
}

func TestLayoutTextAppends(t *testing.T) {
	fc := newTestContext(t)
	var refs atlas.PageSet
	first, _, err := fc.LayoutText(goParams(), "ab", nil, &refs)
	if err != nil {
		t.Fatal(err)
	}
	both, _, err := fc.LayoutText(goParams(), "cd", first, &refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 4 || both[0] != first[0] || both[1] != first[1] {
		t.Errorf("existing quads not preserved: %d quads", len(both))
	}
}

func TestLayoutTextRetainsOncePerRefs(t *testing.T) {
	fc := newTestContext(t)
	var a, b atlas.PageSet
	for range 3 {
		if _, _, err := fc.LayoutText(goParams(), "abc", nil, &a); err != nil {
			t.Fatal(err)
		}
	}
	if got := fc.Store().RefCount(0); got != 1 {
		t.Fatalf("RefCount after three layouts into one set = %d, want 1", got)
	}
	if _, _, err := fc.LayoutText(goParams(), "abc", nil, &b); err != nil {
		t.Fatal(err)
	}
	if got := fc.Store().RefCount(0); got != 2 {
		t.Fatalf("RefCount with second set = %d, want 2", got)
	}

	fc.ReleaseAtlas(a)
	if !fc.Store().IsPageLive(0) {
		t.Fatal("page reclaimed while still referenced")
	}
	fc.ReleaseAtlas(b)
	if fc.Store().IsPageLive(0) {
		t.Fatal("page not reclaimed after last release")
	}
	if fc.glyphs.Len() != 0 {
		t.Errorf("packer still caches %d glyphs of a reclaimed page", fc.glyphs.Len())
	}

	var c atlas.PageSet
	if _, _, err := fc.LayoutText(goParams(), "abc", nil, &c); err != nil {
		t.Fatal(err)
	}
	if !fc.Store().IsPageLive(0) || fc.Store().RefCount(0) != 1 {
		t.Error("page not recreated after reclaim")
	}
}

func TestLayoutTextMultiline(t *testing.T) {
	fc := newTestContext(t)
	p := goParams()
	p.LineSpacing = 2
	p.Align = AlignLeft

	var refs atlas.PageSet
	quads, bbox, err := fc.LayoutText(p, "ab\ncd", nil, &refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(quads) != 4 {
		t.Fatalf("got %d quads", len(quads))
	}
	m := readyFont(t, 16).Metrics()
	want := float32(2*m.LineHeight + 2)
	if d := bbox.Y() - want; d > 1e-3 || d < -1e-3 {
		t.Errorf("bbox height = %v, want %v", bbox.Y(), want)
	}
	if quads[2].Quad[0].Pos[1] <= quads[0].Quad[0].Pos[1] {
		t.Error("second line not below the first")
	}
}

func TestLayoutTextAlign(t *testing.T) {
	fc := newTestContext(t)
	firstX := func(a Align) int16 {
		p := goParams()
		p.Align = a
		var refs atlas.PageSet
		quads, _, err := fc.LayoutText(p, "i\nWWWW", nil, &refs)
		if err != nil {
			t.Fatal(err)
		}
		return quads[0].Quad[0].Pos[0]
	}
	left, center, right := firstX(AlignLeft), firstX(AlignCenter), firstX(AlignRight)
	if !(left < center && center < right) {
		t.Errorf("short line x: left %d, center %d, right %d", left, center, right)
	}
}

func TestLayoutTextMaxLines(t *testing.T) {
	fc := newTestContext(t)
	p := goParams()
	p.MaxLines = 1
	var refs atlas.PageSet
	_, bbox, err := fc.LayoutText(p, "a\nb\nc", nil, &refs)
	if err != nil {
		t.Fatal(err)
	}
	m := readyFont(t, 16).Metrics()
	if d := float64(bbox.Y()) - m.LineHeight; d > 1e-3 || d < -1e-3 {
		t.Errorf("bbox height = %v, want one line", bbox.Y())
	}
}

func TestLayoutTextErrors(t *testing.T) {
	fc := newTestContext(t)
	tests := []struct {
		name string
		p    Parameters
		s    string
		want error
	}{
		{"empty", goParams(), "", ErrEmptyText},
		{"blank", goParams(), "   ", ErrNoGlyphs},
		{"invalid", Parameters{Family: "Go"}, "x", ErrInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var refs atlas.PageSet
			quads, _, err := fc.LayoutText(tt.p, tt.s, nil, &refs)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if quads != nil || refs != 0 {
				t.Error("outputs changed on failure")
			}
		})
	}
}

func TestLayoutTextWhileLoading(t *testing.T) {
	l := &gateLoader{gate: make(chan struct{})}
	fc := NewFontContext(WithLoader(l))
	defer fc.Close()
	fc.AddFontDescription(NewFontDescription("Go", "normal", "400", "builtin:goregular", FontTypeTTF))

	var refs atlas.PageSet
	if _, _, err := fc.LayoutText(goParams(), "x", nil, &refs); !errors.Is(err, ErrFontNotReady) {
		t.Fatalf("err = %v, want ErrFontNotReady", err)
	}
	if !fc.IsLoadingResources() {
		t.Fatal("load not reported in flight")
	}

	close(l.gate)
	f, err := fc.GetFont("Go", "normal", "400", 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := fc.LayoutText(goParams(), "x", nil, &refs); err != nil {
		t.Fatalf("layout after load: %v", err)
	}
	fc.Close()
	if fc.IsLoadingResources() {
		t.Error("load still reported after completion")
	}
}

func TestLayoutTextFailedLoad(t *testing.T) {
	boom := errors.New("boom")
	l := &gateLoader{gate: make(chan struct{}), err: boom}
	close(l.gate)
	fc := NewFontContext(WithLoader(l))
	fc.AddFontDescription(NewFontDescription("Go", "normal", "400", "fonts/go.ttf", FontTypeTTF))
	fc.SetSceneResourceRoot("/scene")

	err := fc.Preload(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || !errors.Is(err, boom) {
		t.Fatalf("Preload err = %v, want LoadError wrapping boom", err)
	}
	if le.URI != "/scene/fonts/go.ttf" {
		t.Errorf("URI = %q, want resolved against the scene root", le.URI)
	}
	fc.Close()
	if fc.IsLoadingResources() {
		t.Error("failed load still counted in flight")
	}

	var refs atlas.PageSet
	if _, _, err := fc.LayoutText(goParams(), "x", nil, &refs); !errors.Is(err, ErrFontFailed) {
		t.Errorf("err = %v, want ErrFontFailed", err)
	}
}

func TestGetFont(t *testing.T) {
	fc := newTestContext(t)
	a, err := fc.GetFont("Go", "normal", "400", 16)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := fc.GetFont("Go", "normal", "400", 16)
	if a != b {
		t.Error("handle not cached")
	}
	c, _ := fc.GetFont("Go", "normal", "400", 24)
	if c == a || c.Size() != 24 || c.res != a.res {
		t.Error("size variant should share the resource in a new handle")
	}
	bold, _ := fc.GetFont("Go", "normal", "700", 16)
	if bold.res == a.res || !bold.Ready() {
		t.Error("bold resolved to the regular resource")
	}
	if _, err := fc.GetFont("Go", "italic", "400", 16); !errors.Is(err, ErrUnknownFont) {
		t.Errorf("err = %v, want ErrUnknownFont", err)
	}
}

func TestUpdateTextures(t *testing.T) {
	fc := newTestContext(t)
	var refs atlas.PageSet
	if _, _, err := fc.LayoutText(goParams(), "Hello", nil, &refs); err != nil {
		t.Fatal(err)
	}
	up := &recordingUploader{uploaded: make(map[int]int)}
	if n := fc.UpdateTextures(up); n != 1 {
		t.Fatalf("uploaded %d pages, want 1", n)
	}
	if up.uploaded[0] == 0 {
		t.Error("uploaded page is blank")
	}
	if n := fc.UpdateTextures(up); n != 0 {
		t.Errorf("clean pages uploaded again: %d", n)
	}

	fc.ReleaseAtlas(refs)
	fc.UpdateTextures(up)
	if len(up.released) != 1 || up.released[0] != 0 {
		t.Errorf("released = %v", up.released)
	}
}

func TestMaxStrokeWidth(t *testing.T) {
	if got := NewFontContext().MaxStrokeWidth(); got != 3 {
		t.Errorf("default MaxStrokeWidth = %v", got)
	}
	if got := NewFontContext(WithSDFRadius(5)).MaxStrokeWidth(); got != 5 {
		t.Errorf("MaxStrokeWidth = %v", got)
	}
}

func TestLayoutTextConcurrent(t *testing.T) {
	fc := newTestContext(t)
	const workers = 8
	refs := make([]atlas.PageSet, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 10 {
				s := fmt.Sprintf("label %d-%d", i, j)
				if _, _, err := fc.LayoutText(goParams(), s, nil, &refs[i]); err != nil {
					t.Errorf("LayoutText(%q): %v", s, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := fc.Store().RefCount(0); got != workers {
		t.Errorf("RefCount(0) = %d, want %d", got, workers)
	}
	for _, r := range refs {
		fc.ReleaseAtlas(r)
	}
	if fc.GlyphTextureCount() != 0 {
		t.Errorf("%d pages live after releasing every set", fc.GlyphTextureCount())
	}
}

// releasingRasterizer runs release before its first glyph.
type releasingRasterizer struct {
	glyphRasterizer
	release func()
}

func (r *releasingRasterizer) rasterize(gid uint32, size float64) (atlas.Bitmap, error) {
	if r.release != nil {
		r.release()
		r.release = nil
	}
	return r.glyphRasterizer.rasterize(gid, size)
}

func TestLayoutTextPageReclaimedDuringRasterize(t *testing.T) {
	const s = "Hamburgefonstiv"
	var alone atlas.PageSet
	want, _, err := newTestContext(t).LayoutText(goParams(), s, nil, &alone)
	if err != nil {
		t.Fatal(err)
	}

	fc := newTestContext(t)
	var other atlas.PageSet
	if _, _, err := fc.LayoutText(goParams(), "Ham", nil, &other); err != nil {
		t.Fatal(err)
	}

	p := goParams()
	f, err := fc.GetFont(p.Family, p.Style, p.Weight, p.Size)
	if err != nil {
		t.Fatal(err)
	}
	inner := f.res.raster
	f.res.raster = &releasingRasterizer{
		glyphRasterizer: inner,
		release:         func() { fc.ReleaseAtlas(other) },
	}
	defer func() { f.res.raster = inner }()

	var refs atlas.PageSet
	got, _, err := fc.LayoutText(p, s, nil, &refs)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("quads = %d, want %d", len(got), len(want))
	}
	refs.Each(func(id int) {
		if rc := fc.Store().RefCount(id); rc != 1 {
			t.Errorf("page %d refcount = %d, want 1", id, rc)
		}
	})
}
