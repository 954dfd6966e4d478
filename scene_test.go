package labelmesh

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/labelmesh/label"
	"github.com/gogpu/labelmesh/style"
	"github.com/gogpu/labelmesh/text"
)

var screen = mgl32.Vec2{800, 600}

// pixelMVP maps model coordinates straight to screen pixels.
func pixelMVP() mgl32.Mat4 {
	return mgl32.Ortho2D(0, screen[0], screen[1], 0)
}

func goRule() style.Rule {
	p := text.DefaultParameters()
	p.Family = "Go"
	return style.Rule{Name: "names", Text: p, Label: label.DefaultOptions()}
}

func newTestScene(t *testing.T, opts ...Option) *Scene {
	t.Helper()
	opts = append([]Option{WithWorkers(2), WithRules(goRule())}, opts...)
	s := NewScene(opts...)
	t.Cleanup(s.Close)
	s.AddFont(text.NewFontDescription("Go", "normal", "400", "builtin:goregular", text.FontTypeTTF))
	if err := s.Preload(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func point(x, y float32, name string) style.Feature {
	return style.Feature{
		Type:       style.GeometryPoint,
		Points:     []mgl32.Vec2{{x, y}},
		Properties: map[string]string{"name": name},
	}
}

func TestSceneFrame(t *testing.T) {
	s := newTestScene(t)
	id := TileID{X: 1, Y: 2, Z: 3}
	if err := s.ProcessTile(id, []style.Feature{
		point(100, 100, "Hello"),
		point(500, 400, "World"),
		point(-900, -900, "Away"),
	}); err != nil {
		t.Fatal(err)
	}

	res, err := s.Frame(pixelMVP(), screen)
	if err != nil {
		t.Fatal(err)
	}
	if res.Labels != 2 || res.Culled != 1 || res.Tiles != 1 {
		t.Errorf("labels=%d culled=%d tiles=%d, want 2, 1, 1", res.Labels, res.Culled, res.Tiles)
	}
	if res.PagesUploaded == 0 || res.GlyphPages == 0 {
		t.Errorf("pages uploaded=%d live=%d, want > 0", res.PagesUploaded, res.GlyphPages)
	}
	// Ten glyphs with four vertices each.
	if got := res.Mesh.VertexCount(); got != 40 {
		t.Errorf("VertexCount = %d, want 40", got)
	}
	if got := len(res.Mesh.Indices()); got != 60 {
		t.Errorf("indices = %d, want 60", got)
	}

	// Every pixel position lies on screen.
	for i := range res.Mesh.VertexCount() {
		v := res.Mesh.Vertex(i)
		x, y := float32(v.Pos[0])/text.PositionScale, float32(v.Pos[1])/text.PositionScale
		if x < 0 || y < 0 || x > screen[0] || y > screen[1] {
			t.Fatalf("vertex %d at (%v, %v) is off screen", i, x, y)
		}
	}

	// Nothing new to upload on the next frame.
	res, err = s.Frame(pixelMVP(), screen)
	if err != nil {
		t.Fatal(err)
	}
	if res.PagesUploaded != 0 {
		t.Errorf("second frame uploaded %d pages, want 0", res.PagesUploaded)
	}
}

func TestSceneCollisions(t *testing.T) {
	features := []style.Feature{point(200, 200, "Same"), point(202, 201, "Same")}

	tests := []struct {
		name         string
		collisions   bool
		wantLabels   int
		wantOccluded int
	}{
		{"enabled", true, 1, 1},
		{"disabled", false, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t, WithCollisions(tt.collisions))
			if err := s.ProcessTile(TileID{}, features); err != nil {
				t.Fatal(err)
			}
			res, err := s.Frame(pixelMVP(), screen)
			if err != nil {
				t.Fatal(err)
			}
			if res.Labels != tt.wantLabels || res.Occluded != tt.wantOccluded {
				t.Errorf("labels=%d occluded=%d, want %d, %d",
					res.Labels, res.Occluded, tt.wantLabels, tt.wantOccluded)
			}
		})
	}
}

func TestSceneEvictReleasesPages(t *testing.T) {
	s := newTestScene(t)
	a, b := TileID{X: 0}, TileID{X: 1}
	s.ProcessTile(a, []style.Feature{point(100, 100, "Shared")})
	s.ProcessTile(b, []style.Feature{point(400, 300, "Shared")})
	if _, err := s.Frame(pixelMVP(), screen); err != nil {
		t.Fatal(err)
	}

	pages := s.Pages()
	if pages == 0 {
		t.Fatal("no pages referenced")
	}
	store := s.Fonts().Store()
	pages.Each(func(id int) {
		if got := store.RefCount(id); got != 2 {
			t.Errorf("page %d refcount = %d, want 2", id, got)
		}
	})

	if !s.EvictTile(a) {
		t.Fatal("EvictTile(a) = false")
	}
	if s.EvictTile(a) {
		t.Error("second EvictTile(a) = true")
	}
	pages.Each(func(id int) {
		if got := store.RefCount(id); got != 1 {
			t.Errorf("page %d refcount after evict = %d, want 1", id, got)
		}
	})

	s.EvictTile(b)
	if got := s.Fonts().GlyphTextureCount(); got != 0 {
		t.Errorf("GlyphTextureCount = %d after evicting every tile, want 0", got)
	}
	if s.TileCount() != 0 {
		t.Errorf("TileCount = %d, want 0", s.TileCount())
	}
}

func TestSceneReprocessTile(t *testing.T) {
	s := newTestScene(t)
	id := TileID{Z: 1}
	s.ProcessTile(id, []style.Feature{point(100, 100, "First")})
	s.ProcessTile(id, []style.Feature{point(100, 100, "Second")})

	res, err := s.Frame(pixelMVP(), screen)
	if err != nil {
		t.Fatal(err)
	}
	if s.TileCount() != 1 || res.Labels != 1 {
		t.Errorf("tiles=%d labels=%d, want 1, 1", s.TileCount(), res.Labels)
	}
	store := s.Fonts().Store()
	s.Pages().Each(func(id int) {
		if got := store.RefCount(id); got != 1 {
			t.Errorf("page %d refcount = %d, want 1", id, got)
		}
	})
}

func TestSceneSetLabelAlpha(t *testing.T) {
	s := newTestScene(t)
	id := TileID{X: 5}
	s.ProcessTile(id, []style.Feature{point(100, 100, "Fade"), point(-900, 0, "Gone")})
	if _, err := s.Frame(pixelMVP(), screen); err != nil {
		t.Fatal(err)
	}

	if err := s.SetLabelAlpha(id, 0, 0.5); err != nil {
		t.Fatal(err)
	}
	m := s.Mesh()
	off, size, ok := m.Dirty()
	if !ok {
		t.Fatal("mesh not dirty after SetLabelAlpha")
	}
	r := s.tiles[id].ranges[0]
	if off != r.Start*label.VertexStride+label.StateOffset+8 {
		t.Errorf("dirty offset = %d", off)
	}
	if size != (r.Length-1)*label.VertexStride+2 {
		t.Errorf("dirty size = %d", size)
	}
	for i := r.Start; i < r.End(); i++ {
		if got := m.Vertex(i).State.Alpha; got != 32768 {
			t.Fatalf("vertex %d alpha = %d, want 32768", i, got)
		}
	}

	// The alpha survives recompilation.
	s.Frame(pixelMVP(), screen)
	r = s.tiles[id].ranges[0]
	if got := s.Mesh().Vertex(r.Start).State.Alpha; got != 32768 {
		t.Errorf("alpha after next frame = %d, want 32768", got)
	}

	tests := []struct {
		name  string
		tile  TileID
		index int
		want  error
	}{
		{"unknown tile", TileID{X: 99}, 0, ErrUnknownTile},
		{"negative index", id, -1, ErrLabelIndex},
		{"index past end", id, 2, ErrLabelIndex},
		{"culled label", id, 1, ErrLabelHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetLabelAlpha(tt.tile, tt.index, 1); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// gatedLoader serves the Go font once open is closed.
type gatedLoader struct {
	open chan struct{}
}

func (l *gatedLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	select {
	case <-l.open:
		return goregular.TTF, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSceneResourcesLoading(t *testing.T) {
	loader := &gatedLoader{open: make(chan struct{})}
	s := NewScene(
		WithWorkers(1),
		WithRules(goRule()),
		WithFontOptions(text.WithLoader(loader)),
	)
	defer s.Close()
	s.AddFont(text.NewFontDescription("Go", "normal", "400", "gated:go", text.FontTypeTTF))

	id := TileID{Z: 2}
	s.ProcessTile(id, []style.Feature{point(100, 100, "Later")})
	if _, err := s.Frame(pixelMVP(), screen); !errors.Is(err, ErrResourcesLoading) {
		t.Fatalf("Frame while loading: err = %v, want ErrResourcesLoading", err)
	}
	tl, err := s.TileLabels(id)
	if err != nil {
		t.Fatal(err)
	}
	if !tl.Incomplete || tl.Labels.Len() != 0 {
		t.Errorf("incomplete=%v labels=%d, want true, 0", tl.Incomplete, tl.Labels.Len())
	}

	close(loader.open)
	deadline := time.Now().Add(5 * time.Second)
	for s.Fonts().IsLoadingResources() {
		if time.Now().After(deadline) {
			t.Fatal("font load did not finish")
		}
		time.Sleep(time.Millisecond)
	}

	res, err := s.Frame(pixelMVP(), screen)
	if err != nil {
		t.Fatal(err)
	}
	if res.Labels != 1 {
		t.Errorf("labels after load = %d, want 1", res.Labels)
	}
}

func TestSceneClosed(t *testing.T) {
	s := NewScene(WithWorkers(1))
	s.Close()
	s.Close()

	if err := s.ProcessTile(TileID{}, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("ProcessTile after Close: err = %v, want ErrClosed", err)
	}
	if _, err := s.Frame(pixelMVP(), screen); !errors.Is(err, ErrClosed) {
		t.Errorf("Frame after Close: err = %v, want ErrClosed", err)
	}
}

func TestSceneLoadSceneYAML(t *testing.T) {
	const doc = `
fonts:
  Go:
    url: builtin:goregular
  Go Bold:
    - url: builtin:gobold
      weight: bold
labels:
  - name: cities
    geometry: [point]
    filter: {kind: city}
    font: {family: Go Bold, weight: bold, size: 20, fill: "#ff0000"}
    anchor: bottom
`
	s := NewScene(WithWorkers(1))
	defer s.Close()
	if err := s.LoadSceneYAML(strings.NewReader(doc)); err != nil {
		t.Fatal(err)
	}
	if err := s.Preload(context.Background()); err != nil {
		t.Fatal(err)
	}

	city := point(300, 300, "Paris")
	city.Properties["kind"] = "city"
	s.ProcessTile(TileID{}, []style.Feature{city, point(500, 100, "Village")})

	res, err := s.Frame(pixelMVP(), screen)
	if err != nil {
		t.Fatal(err)
	}
	if res.Labels != 1 {
		t.Fatalf("labels = %d, want 1", res.Labels)
	}
	v := res.Mesh.Vertex(0)
	if v.State.Fill != 0xFF0000FF {
		t.Errorf("fill = %#x, want 0xff0000ff", v.State.Fill)
	}
	// Bottom anchor puts the text above the point.
	if y := float32(v.Pos[1]) / text.PositionScale; y > 300 {
		t.Errorf("glyph top at y=%v, want above 300", y)
	}
}
