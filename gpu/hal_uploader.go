package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/internal/logger"
)

// pageTexture is the GPU copy of one atlas page.
type pageTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

// HALUploader implements atlas.Uploader on a wgpu/hal device.
//
// Every page gets its own R8Unorm texture, created on first upload. Uploads
// cover the page's dirty rows only. A row of a 256-texel page is 256 bytes,
// which satisfies the copy pitch alignment of every backend.
type HALUploader struct {
	device hal.Device
	queue  hal.Queue

	pages     [atlas.MaxPages]*pageTexture
	destroyed bool
}

// NewHALUploader creates an uploader writing through device and queue.
func NewHALUploader(device hal.Device, queue hal.Queue) (*HALUploader, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &HALUploader{device: device, queue: queue}, nil
}

// Upload writes the dirty rows of p to its texture, creating the texture
// if needed.
func (u *HALUploader) Upload(p *atlas.Page) error {
	if u.destroyed {
		return ErrDestroyed
	}
	id := p.ID()
	if id < 0 || id >= atlas.MaxPages {
		return fmt.Errorf("%w: %d", ErrInvalidPage, id)
	}

	pt, err := u.page(id)
	if err != nil {
		return err
	}

	y0, y1 := p.DirtyRows()
	if y1 <= y0 {
		return nil
	}
	w, _ := p.Size()
	rows := uint32(y1 - y0)
	err = u.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture: pt.tex,
			Origin:  hal.Origin3D{Y: uint32(y0)},
			Aspect:  gputypes.TextureAspectAll,
		},
		p.Pix()[y0*w:y1*w],
		&hal.ImageDataLayout{BytesPerRow: uint32(w), RowsPerImage: rows},
		&hal.Extent3D{Width: uint32(w), Height: rows, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("gpu: write page %d: %w", id, err)
	}
	return nil
}

func (u *HALUploader) page(id int) (*pageTexture, error) {
	if pt := u.pages[id]; pt != nil {
		return pt, nil
	}

	tex, err := u.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("labelmesh-atlas-%d", id),
		Size:          hal.Extent3D{Width: atlas.PageSize, Height: atlas.PageSize, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create page %d: %w", id, err)
	}
	view, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("labelmesh-atlas-%d-view", id),
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		u.device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create page %d view: %w", id, err)
	}

	pt := &pageTexture{tex: tex, view: view}
	u.pages[id] = pt
	logger.L().Debug("gpu: atlas texture created", "id", id)
	return pt, nil
}

// Release destroys the texture backing page id.
func (u *HALUploader) Release(id int) {
	if id < 0 || id >= atlas.MaxPages {
		return
	}
	pt := u.pages[id]
	if pt == nil {
		return
	}
	u.pages[id] = nil
	u.device.DestroyTextureView(pt.view)
	u.device.DestroyTexture(pt.tex)
	logger.L().Debug("gpu: atlas texture released", "id", id)
}

// View returns the texture view of page id for binding, or nil when the
// page has never been uploaded.
func (u *HALUploader) View(id int) hal.TextureView {
	if id < 0 || id >= atlas.MaxPages || u.pages[id] == nil {
		return nil
	}
	return u.pages[id].view
}

// Len returns the number of page textures currently allocated.
func (u *HALUploader) Len() int {
	n := 0
	for _, pt := range u.pages {
		if pt != nil {
			n++
		}
	}
	return n
}

// Destroy releases every page texture. Later uploads fail with ErrDestroyed.
func (u *HALUploader) Destroy() {
	for id := range u.pages {
		u.Release(id)
	}
	u.destroyed = true
}

var _ atlas.Uploader = (*HALUploader)(nil)
