package l4regions

import (
	"fmt"
	"image"
	"math"

	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// EdgeDetector turns a single-channel raster into a same-size edge raster
// (edges = Foreground, everything else 0) using two hysteresis thresholds.
type EdgeDetector interface {
	Detect(img *l3raster.Raster, low, high float64) (*l3raster.Raster, error)
	Name() string
}

// GradientDetector is a pure-Go Canny-style detector: 3x3 Sobel gradients
// with L1 magnitude, non-maximum suppression along the quantised gradient
// direction, then double-threshold hysteresis with 8-connectivity.
type GradientDetector struct{}

func (GradientDetector) Name() string { return "gradient" }

// Detect implements EdgeDetector.
func (GradientDetector) Detect(img *l3raster.Raster, low, high float64) (*l3raster.Raster, error) {
	if img == nil {
		return nil, fmt.Errorf("nil raster")
	}
	if low > high {
		low, high = high, low
	}
	w, h := img.Width, img.Height
	out := l3raster.NewRaster(w, h)
	if w < 3 || h < 3 {
		return out, nil
	}

	mag := make([]float64, w*h)
	dir := make([]uint8, w*h) // 0: horizontal, 1: 45deg, 2: vertical, 3: 135deg
	px := func(x, y int) float64 { return float64(img.Pix[y*w+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1) +
				px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			i := y*w + x
			mag[i] = math.Abs(gx) + math.Abs(gy)
			dir[i] = quantiseDirection(gx, gy)
		}
	}

	// Non-maximum suppression.
	thin := make([]float64, w*h)
	offsets := [4][2]image.Point{
		{{X: -1}, {X: 1}},
		{{X: 1, Y: -1}, {X: -1, Y: 1}},
		{{Y: -1}, {Y: 1}},
		{{X: -1, Y: -1}, {X: 1, Y: 1}},
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}
			o := offsets[dir[i]]
			a := mag[(y+o[0].Y)*w+x+o[0].X]
			b := mag[(y+o[1].Y)*w+x+o[1].X]
			if m >= a && m > b {
				thin[i] = m
			}
		}
	}

	// Hysteresis: strong pixels seed an explicit-stack walk through weak ones.
	var stack []int
	for i, m := range thin {
		if m > high && out.Pix[i] == 0 {
			out.Pix[i] = Foreground
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%w, j/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := jx+dx, jy+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					k := ny*w + nx
					if out.Pix[k] == 0 && thin[k] > low {
						out.Pix[k] = Foreground
						stack = append(stack, k)
					}
				}
			}
		}
	}
	return out, nil
}

func quantiseDirection(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}
