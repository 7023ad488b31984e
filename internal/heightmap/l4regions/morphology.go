package l4regions

import (
	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// Foreground is the value written for set pixels by the binary operators.
const Foreground uint8 = 255

// The structuring element is the full 3x3 square. Pixels on the outermost
// rows and columns are never used as centres, so a border foreground pixel
// is lost. Dilate still writes the border around an interior pixel next to
// it; Erode, and therefore closing, always leaves the border clear.

// Dilate sets the full 3x3 neighbourhood of every interior foreground
// (non-zero) pixel. The input is not modified.
func Dilate(img *l3raster.Raster) *l3raster.Raster {
	out := l3raster.NewRaster(img.Width, img.Height)
	w := img.Width
	for y := 1; y < img.Height-1; y++ {
		for x := 1; x < w-1; x++ {
			if img.Pix[y*w+x] == 0 {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * w
				out.Pix[row+x-1] = Foreground
				out.Pix[row+x] = Foreground
				out.Pix[row+x+1] = Foreground
			}
		}
	}
	return out
}

// Erode keeps an interior pixel iff all nine pixels of its 3x3
// neighbourhood are foreground in the input. The input is not modified.
func Erode(img *l3raster.Raster) *l3raster.Raster {
	out := l3raster.NewRaster(img.Width, img.Height)
	w := img.Width
	for y := 1; y < img.Height-1; y++ {
	next:
		for x := 1; x < w-1; x++ {
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * w
				if img.Pix[row+x-1] == 0 || img.Pix[row+x] == 0 || img.Pix[row+x+1] == 0 {
					continue next
				}
			}
			out.Pix[y*w+x] = Foreground
		}
	}
	return out
}

// DilateAndErode is a morphological closing: erode(dilate(img)). It joins
// edge fragments separated by one-pixel gaps.
func DilateAndErode(img *l3raster.Raster) *l3raster.Raster {
	return Erode(Dilate(img))
}

// ErodeAndDilate is a morphological opening: dilate(erode(img)). Unlike
// closing it removes isolated foreground specks.
func ErodeAndDilate(img *l3raster.Raster) *l3raster.Raster {
	return Dilate(Erode(img))
}

// Close applies DilateAndErode passes times. Zero passes returns a clone.
func Close(img *l3raster.Raster, passes int) *l3raster.Raster {
	out := img.Clone()
	for i := 0; i < passes; i++ {
		out = DilateAndErode(out)
	}
	return out
}
