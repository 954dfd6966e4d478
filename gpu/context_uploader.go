package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/internal/logger"
)

// ErrNoTextureUpdate is returned when a host texture supports neither
// region nor full updates.
var ErrNoTextureUpdate = errors.New("gpu: texture cannot be updated")

// ContextUploader implements atlas.Uploader on top of the gpucontext
// texture interfaces, for hosts that hand out a TextureCreator instead of a
// raw device. Such hosts only take RGBA data, so every atlas texel v is
// expanded to (v, v, v, v).
//
// The first upload of a page creates its texture from the whole page.
// Later uploads send the dirty rectangle through TextureRegionUpdater when
// the texture supports it and fall back to a full TextureUpdater write.
type ContextUploader struct {
	creator gpucontext.TextureCreator
	pages   [atlas.MaxPages]gpucontext.Texture
	rgba    []byte
}

// NewContextUploader creates an uploader that allocates through creator.
func NewContextUploader(creator gpucontext.TextureCreator) (*ContextUploader, error) {
	if creator == nil {
		return nil, ErrNilDevice
	}
	return &ContextUploader{creator: creator}, nil
}

// Upload implements atlas.Uploader.
func (u *ContextUploader) Upload(p *atlas.Page) error {
	id := p.ID()
	if id < 0 || id >= atlas.MaxPages {
		return fmt.Errorf("%w: %d", ErrInvalidPage, id)
	}
	w, h := p.Size()

	tex := u.pages[id]
	if tex == nil {
		created, err := u.creator.NewTextureFromRGBA(w, h, u.expand(p, image.Rect(0, 0, w, h)))
		if err != nil {
			return fmt.Errorf("gpu: create page %d: %w", id, err)
		}
		u.pages[id] = created
		return nil
	}

	r := p.DirtyRect()
	if r.Empty() {
		return nil
	}
	switch t := tex.(type) {
	case gpucontext.TextureRegionUpdater:
		if err := t.UpdateRegion(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), u.expand(p, r)); err != nil {
			return fmt.Errorf("gpu: update page %d: %w", id, err)
		}
	case gpucontext.TextureUpdater:
		if err := t.UpdateData(u.expand(p, image.Rect(0, 0, w, h))); err != nil {
			return fmt.Errorf("gpu: update page %d: %w", id, err)
		}
	default:
		return fmt.Errorf("%w: page %d (%T)", ErrNoTextureUpdate, id, tex)
	}
	return nil
}

// expand converts the texels of r to densely packed RGBA rows. The result
// aliases an internal buffer valid until the next call.
func (u *ContextUploader) expand(p *atlas.Page, r image.Rectangle) []byte {
	n := r.Dx() * r.Dy() * 4
	if cap(u.rgba) < n {
		u.rgba = make([]byte, n)
	}
	out := u.rgba[:n]
	pix := p.Pix()
	w, _ := p.Size()
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for _, v := range pix[y*w+r.Min.X : y*w+r.Max.X] {
			out[i], out[i+1], out[i+2], out[i+3] = v, v, v, v
			i += 4
		}
	}
	return out
}

// Release forgets the texture of page id, destroying it when the host
// texture supports that.
func (u *ContextUploader) Release(id int) {
	if id < 0 || id >= atlas.MaxPages || u.pages[id] == nil {
		return
	}
	if d, ok := u.pages[id].(interface{ Destroy() }); ok {
		d.Destroy()
	}
	u.pages[id] = nil
	logger.L().Debug("gpu: host texture released", "id", id)
}

// Texture returns the host texture of page id, or nil.
func (u *ContextUploader) Texture(id int) gpucontext.Texture {
	if id < 0 || id >= atlas.MaxPages {
		return nil
	}
	return u.pages[id]
}

var _ atlas.Uploader = (*ContextUploader)(nil)
