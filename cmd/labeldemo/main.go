// Command labeldemo builds labels for a grid of synthetic tiles and writes
// the resulting glyph atlas pages as PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/labelmesh"
	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/gpu"
	"github.com/gogpu/labelmesh/label"
	"github.com/gogpu/labelmesh/style"
	"github.com/gogpu/labelmesh/text"
)

var names = []string{
	"Amsterdam", "Berlin", "Copenhagen", "Dublin", "Edinburgh", "Florence",
	"Geneva", "Helsinki", "Istanbul", "Krakow", "Lisbon", "Madrid",
	"Naples", "Oslo", "Prague", "Reykjavik", "Seville", "Tallinn",
	"Utrecht", "Vienna", "Warsaw", "Zurich",
}

func main() {
	var (
		width   = flag.Int("width", 1024, "viewport width")
		height  = flag.Int("height", 768, "viewport height")
		grid    = flag.Int("grid", 4, "tiles per side")
		perTile = flag.Int("labels", 16, "point labels per tile")
		scene   = flag.String("scene", "", "scene YAML with fonts and label rules")
		output  = flag.String("output", "atlas", "directory for atlas page PNGs")
		workers = flag.Int("workers", 0, "tile workers (0 = GOMAXPROCS)")
		useHAL  = flag.Bool("hal", false, "upload pages and mesh through a noop HAL device")
		seed    = flag.Uint64("seed", 1, "random seed for feature placement")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	labelmesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(config{
		width: *width, height: *height, grid: *grid, perTile: *perTile,
		scene: *scene, output: *output, workers: *workers, hal: *useHAL, seed: *seed,
	}); err != nil {
		log.Fatal(err)
	}
}

type config struct {
	width, height int
	grid, perTile int
	scene, output string
	workers       int
	hal           bool
	seed          uint64
}

func run(cfg config) error {
	opts := []labelmesh.Option{labelmesh.WithWorkers(cfg.workers)}

	var dev *halDevice
	if cfg.hal {
		d, err := openNoop()
		if err != nil {
			return err
		}
		defer d.close()
		dev = d
		opts = append(opts, labelmesh.WithUploader(d.uploader))
	}

	s := labelmesh.NewScene(opts...)
	defer s.Close()

	if cfg.scene != "" {
		f, err := os.Open(cfg.scene)
		if err != nil {
			return err
		}
		err = s.LoadSceneYAML(f)
		f.Close()
		if err != nil {
			return err
		}
		s.SetResourceRoot(filepath.Dir(cfg.scene))
	} else {
		s.AddFont(text.NewFontDescription("Go", "normal", "400", "builtin:goregular", text.FontTypeTTF))
		s.AddFont(text.NewFontDescription("Go", "normal", "700", "builtin:gobold", text.FontTypeTTF))
		s.SetRules(defaultRules()...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Preload(ctx); err != nil {
		return fmt.Errorf("preload fonts: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	tileW := float32(cfg.width) / float32(cfg.grid)
	tileH := float32(cfg.height) / float32(cfg.grid)

	start := time.Now()
	pb := progressbar.Default(int64(cfg.grid*cfg.grid), "tiles")
	for ty := range cfg.grid {
		for tx := range cfg.grid {
			origin := mgl32.Vec2{float32(tx) * tileW, float32(ty) * tileH}
			features := tileFeatures(rng, origin, tileW, tileH, cfg.perTile)
			if err := s.ProcessTile(labelmesh.TileID{X: tx, Y: ty, Z: 0}, features); err != nil {
				return err
			}
			pb.Add(1)
		}
	}
	pb.Close()

	mvp := mgl32.Ortho2D(0, float32(cfg.width), float32(cfg.height), 0)
	res, err := s.Frame(mvp, mgl32.Vec2{float32(cfg.width), float32(cfg.height)})
	if err != nil {
		return err
	}
	slog.Info("frame",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"tiles", res.Tiles, "labels", res.Labels,
		"culled", res.Culled, "occluded", res.Occluded,
		"vertices", res.Mesh.VertexCount(), "pages", res.GlyphPages)

	if dev != nil {
		buf, err := gpu.NewMeshBuffer(dev.device, dev.queue, res.Mesh)
		if err != nil {
			return err
		}
		defer buf.Destroy()
		n, err := buf.Sync()
		if err != nil {
			return err
		}
		vb, ib := buf.Sizes()
		slog.Info("mesh uploaded", "bytes", n, "vertex_buffer", vb, "index_buffer", ib)
	}

	return writePages(s, cfg.output)
}

func defaultRules() []style.Rule {
	city := text.DefaultParameters()
	city.Family = "Go"
	city.Size = 14
	city.Stroke = 0xFFFFFFFF
	city.StrokeWidth = 2

	capital := city
	capital.Weight = "700"
	capital.Size = 18
	capital.Transform = text.TransformUppercase

	road := city
	road.Size = 11
	road.Fill = 0xFF555555

	lopts := label.DefaultOptions()
	lopts.Fill, lopts.Stroke = city.Fill, city.Stroke

	return []style.Rule{
		{Name: "capitals", Geometry: []style.GeometryType{style.GeometryPoint}, Filter: map[string]string{"kind": "capital"}, Text: capital, Label: lopts},
		{Name: "cities", Geometry: []style.GeometryType{style.GeometryPoint}, Text: city, Label: lopts},
		{Name: "roads", Geometry: []style.GeometryType{style.GeometryLine}, Text: road, Label: lopts},
	}
}

func tileFeatures(rng *rand.Rand, origin mgl32.Vec2, w, h float32, n int) []style.Feature {
	features := make([]style.Feature, 0, n+1)
	for i := range n {
		kind := "city"
		if i == 0 {
			kind = "capital"
		}
		p := origin.Add(mgl32.Vec2{rng.Float32() * w, rng.Float32() * h})
		features = append(features, style.Feature{
			Type:       style.GeometryPoint,
			Points:     []mgl32.Vec2{p},
			Properties: map[string]string{"name": names[rng.IntN(len(names))], "kind": kind},
		})
	}
	y := origin[1] + h/2
	features = append(features, style.Feature{
		Type:       style.GeometryLine,
		Points:     []mgl32.Vec2{{origin[0], y}, {origin[0] + w, y + h/8}},
		Properties: map[string]string{"name": "Ring Road"},
	})
	return features
}

func writePages(s *labelmesh.Scene, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	store := s.Fonts().Store()
	var werr error
	s.Pages().Each(func(id int) {
		if werr != nil {
			return
		}
		p := store.Page(id)
		if p == nil {
			return
		}
		name := filepath.Join(dir, fmt.Sprintf("page-%02d.png", id))
		werr = savePNG(name, p)
		if werr == nil {
			slog.Info("atlas page saved", "path", name)
		}
	})
	return werr
}

func savePNG(name string, p *atlas.Page) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, p.Alpha()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type halDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	uploader *gpu.HALUploader
}

func openNoop() (*halDevice, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open adapter: %w", err)
	}
	up, err := gpu.NewHALUploader(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	return &halDevice{instance: instance, device: openDev.Device, queue: openDev.Queue, uploader: up}, nil
}

func (d *halDevice) close() {
	d.uploader.Destroy()
	d.device.Destroy()
	d.instance.Destroy()
}
