package l3raster

import (
	"fmt"
	"image"
)

// Raster is a dense row-major 8-bit intensity image with stride = Width.
type Raster struct {
	Width, Height int
	Pix           []uint8
}

// NewRaster returns a zero-filled raster.
func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// In reports whether (x, y) lies inside the raster.
func (r *Raster) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// At returns the value at (x, y). It panics when out of range.
func (r *Raster) At(x, y int) uint8 { return r.Pix[y*r.Width+x] }

// Set stores v at (x, y).
func (r *Raster) Set(x, y int, v uint8) { r.Pix[y*r.Width+x] = v }

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// Equal reports whether two rasters have the same shape and bytes.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Width != o.Width || r.Height != o.Height || len(r.Pix) != len(o.Pix) {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// CountNonZero returns the number of non-zero pixels.
func (r *Raster) CountNonZero() int {
	n := 0
	for _, v := range r.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Gray views the raster as an image.Gray sharing the same pixel buffer.
func (r *Raster) Gray() *image.Gray {
	return &image.Gray{Pix: r.Pix, Stride: r.Width, Rect: image.Rect(0, 0, r.Width, r.Height)}
}

// FromGray copies an image.Gray into a new Raster.
func FromGray(img *image.Gray) *Raster {
	b := img.Bounds()
	out := NewRaster(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*out.Width:(y+1)*out.Width], img.Pix[off:off+out.Width])
	}
	return out
}

func (r *Raster) String() string {
	return fmt.Sprintf("raster %dx%d", r.Width, r.Height)
}
