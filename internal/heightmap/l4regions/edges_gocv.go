//go:build gocv

package l4regions

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// DefaultDetector returns the OpenCV-backed detector.
func DefaultDetector() EdgeDetector { return CannyDetector{} }

// CannyDetector runs cv::Canny on the raster.
type CannyDetector struct{}

func (CannyDetector) Name() string { return "canny" }

// Detect implements EdgeDetector.
func (CannyDetector) Detect(img *l3raster.Raster, low, high float64) (*l3raster.Raster, error) {
	if img == nil {
		return nil, fmt.Errorf("nil raster")
	}
	src, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC1, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("wrap raster: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Canny(src, &dst, float32(low), float32(high))

	out := l3raster.NewRaster(img.Width, img.Height)
	copy(out.Pix, dst.ToBytes())
	return out, nil
}
