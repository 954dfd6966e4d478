package atlas

import (
	"image"
	"math"
)

const (
	sdfInf    = 1e20
	sdfCutoff = 0.25 // distance 0 maps to 255*(1-sdfCutoff) = 191
)

// sdfScratch holds reusable buffers for the Felzenszwalb distance transform.
// Render goroutine only.
type sdfScratch struct {
	outer, inner []float64
	f, z         []float64
	v            []int
}

func newSDFScratch(size int) *sdfScratch {
	return &sdfScratch{
		outer: make([]float64, size*size),
		inner: make([]float64, size*size),
		f:     make([]float64, size),
		z:     make([]float64, size+1),
		v:     make([]int, size),
	}
}

// apply replaces the coverage inside r with a signed distance field.
// Texels on the glyph edge become 191; values fall off by 255/radius per texel
// outside the glyph and rise toward 255 inside it.
func (s *sdfScratch) apply(pix []byte, stride int, r image.Rectangle, radius float64) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 || radius <= 0 {
		return
	}
	n := w * h
	outer, inner := s.outer[:n], s.inner[:n]

	for y := 0; y < h; y++ {
		row := pix[(r.Min.Y+y)*stride+r.Min.X:]
		for x := 0; x < w; x++ {
			i := y*w + x
			a := float64(row[x]) / 255
			switch {
			case a >= 1:
				outer[i], inner[i] = 0, sdfInf
			case a <= 0:
				outer[i], inner[i] = sdfInf, 0
			default:
				d := 0.5 - a
				outer[i], inner[i] = 0, 0
				if d > 0 {
					outer[i] = d * d
				} else {
					inner[i] = d * d
				}
			}
		}
	}

	s.edt(outer, w, h)
	s.edt(inner, w, h)

	for y := 0; y < h; y++ {
		row := pix[(r.Min.Y+y)*stride+r.Min.X:]
		for x := 0; x < w; x++ {
			i := y*w + x
			d := math.Sqrt(outer[i]) - math.Sqrt(inner[i])
			v := math.Round(255 - 255*(d/radius+sdfCutoff))
			row[x] = byte(max(0, min(255, v)))
		}
	}
}

// edt runs the 1D transform over every column then every row.
func (s *sdfScratch) edt(grid []float64, w, h int) {
	for x := 0; x < w; x++ {
		s.edt1d(grid, x, w, h)
	}
	for y := 0; y < h; y++ {
		s.edt1d(grid, y*w, 1, w)
	}
}

func (s *sdfScratch) edt1d(grid []float64, offset, stride, n int) {
	f, v, z := s.f, s.v, s.z

	v[0] = 0
	z[0] = -sdfInf
	z[1] = sdfInf
	f[0] = grid[offset]

	k := 0
	for q := 1; q < n; q++ {
		f[q] = grid[offset+q*stride]
		q2 := float64(q * q)
		var sv float64
		for {
			r := v[k]
			sv = (f[q] - f[r] + q2 - float64(r*r)) / float64(q-r) / 2
			if sv <= z[k] {
				k--
				if k > -1 {
					continue
				}
			}
			break
		}
		k++
		v[k] = q
		z[k] = sv
		z[k+1] = sdfInf
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		r := v[k]
		qr := float64(q - r)
		grid[offset+q*stride] = f[r] + qr*qr
	}
}
