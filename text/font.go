package text

import (
	"bytes"
	"context"
	"math"
	"sync/atomic"

	"github.com/go-text/typesetting/font"
)

const (
	stateLoading int32 = iota
	stateReady
	stateFailed
)

// fontResource is the parsed data of one FontDescription, shared by the
// handles of every size.
type fontResource struct {
	id   uint32
	desc FontDescription
	done chan struct{}

	// Written once before state leaves stateLoading.
	state  atomic.Int32
	err    error
	face   *font.Font
	raster glyphRasterizer

	ascender, descender, lineGap float64 // per em
}

func newFontResource(id uint32, desc FontDescription) *fontResource {
	return &fontResource{
		id:   id,
		desc: desc,
		done: make(chan struct{}),
	}
}

// parse decodes data and marks the resource ready.
func (r *fontResource) parse(data []byte) error {
	ld, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return err
	}
	r.face = ld.Font

	upem := float64(ld.Upem())
	if upem <= 0 {
		upem = 1000
	}
	if ext, ok := ld.FontHExtents(); ok {
		r.ascender = float64(ext.Ascender) / upem
		r.descender = float64(ext.Descender) / upem
		r.lineGap = float64(ext.LineGap) / upem
	} else {
		r.ascender, r.descender = 0.8, -0.2
	}

	r.raster = &outlineRasterizer{f: ld.Font}
	if r.desc.Type == FontTypeTTF {
		if sr, err := newSFNTRasterizer(data); err == nil {
			r.raster = sr
		}
	}
	return nil
}

func (r *fontResource) finish(err error) {
	if err != nil {
		r.err = err
		r.state.Store(stateFailed)
	} else {
		r.state.Store(stateReady)
	}
	close(r.done)
}

func (r *fontResource) wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics are vertical font metrics in pixels at a given size.
type Metrics struct {
	Ascent     float64 // above the baseline, positive
	Descent    float64 // below the baseline, positive
	LineHeight float64
}

// Font is a handle to a font resource at one pixel size.
// Handles are returned before the resource finishes loading.
type Font struct {
	res  *fontResource
	size float64
}

// Size returns the pixel size.
func (f *Font) Size() float64 { return f.size }

// Description returns the font description the handle was resolved from.
func (f *Font) Description() FontDescription { return f.res.desc }

// Ready reports whether the resource is loaded and usable.
func (f *Font) Ready() bool { return f.res.state.Load() == stateReady }

// Failed reports whether loading the resource failed.
func (f *Font) Failed() bool { return f.res.state.Load() == stateFailed }

// Err returns the load error of a failed font.
func (f *Font) Err() error {
	if f.Failed() {
		return f.res.err
	}
	return nil
}

// Wait blocks until the resource is loaded or ctx is done.
func (f *Font) Wait(ctx context.Context) error { return f.res.wait(ctx) }

// Metrics returns the vertical metrics at the handle's size.
// The result is zero until the font is ready.
func (f *Font) Metrics() Metrics {
	if !f.Ready() {
		return Metrics{}
	}
	r := f.res
	return Metrics{
		Ascent:     r.ascender * f.size,
		Descent:    -r.descender * f.size,
		LineHeight: (r.ascender - r.descender + r.lineGap) * f.size,
	}
}

// sizeKey quantizes the size to 1/64 pixel for glyph cache keys.
func (f *Font) sizeKey() uint32 {
	return uint32(math.Round(f.size * 64))
}
