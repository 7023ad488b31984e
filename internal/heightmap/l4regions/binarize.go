package l4regions

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// Binarize maps every pixel above threshold to Foreground and the rest to
// 0, so later stages only see the two values of the binary domain.
func Binarize(img *l3raster.Raster, threshold uint8) *l3raster.Raster {
	out := l3raster.NewRaster(img.Width, img.Height)
	for i, v := range img.Pix {
		if v > threshold {
			out.Pix[i] = Foreground
		}
	}
	return out
}

// QuantileThreshold returns the empirical q-quantile of the raster's
// intensities, for choosing a Binarize threshold from the data instead of a
// fixed constant.
func QuantileThreshold(img *l3raster.Raster, q float64) (uint8, error) {
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile must be within [0, 1], got %g", q)
	}
	if len(img.Pix) == 0 {
		return 0, fmt.Errorf("empty raster")
	}
	vals := make([]float64, len(img.Pix))
	for i, v := range img.Pix {
		vals[i] = float64(v)
	}
	sort.Float64s(vals)
	return uint8(stat.Quantile(q, stat.Empirical, vals, nil)), nil
}
