package l4regions

import (
	"image"

	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// RGBRaster is a dense 3-channel raster used to visualise probed regions
// over a heightmap. Pix is row-major with stride 3*Width.
type RGBRaster struct {
	Width, Height int
	Pix           []uint8
}

// NewRGBRaster returns a black raster.
func NewRGBRaster(width, height int) *RGBRaster {
	return &RGBRaster{Width: width, Height: height, Pix: make([]uint8, 3*width*height)}
}

// FromGray expands a single-channel raster into grey RGB.
func FromGray(r *l3raster.Raster) *RGBRaster {
	out := NewRGBRaster(r.Width, r.Height)
	for i, v := range r.Pix {
		out.Pix[3*i] = v
		out.Pix[3*i+1] = v
		out.Pix[3*i+2] = v
	}
	return out
}

// At returns the colour at (x, y).
func (r *RGBRaster) At(x, y int) [3]uint8 {
	i := 3 * (y*r.Width + x)
	return [3]uint8{r.Pix[i], r.Pix[i+1], r.Pix[i+2]}
}

// Set stores a colour at (x, y).
func (r *RGBRaster) Set(x, y int, c [3]uint8) {
	i := 3 * (y*r.Width + x)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = c[0], c[1], c[2]
}

// Clone returns a deep copy.
func (r *RGBRaster) Clone() *RGBRaster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &RGBRaster{Width: r.Width, Height: r.Height, Pix: pix}
}

// RGBA converts the raster for image encoders.
func (r *RGBRaster) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i := 0; i < r.Width*r.Height; i++ {
		img.Pix[4*i] = r.Pix[3*i]
		img.Pix[4*i+1] = r.Pix[3*i+1]
		img.Pix[4*i+2] = r.Pix[3*i+2]
		img.Pix[4*i+3] = 0xff
	}
	return img
}
