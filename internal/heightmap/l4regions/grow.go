package l4regions

import (
	"fmt"
	"image"

	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// CellState is the per-pixel visit state of one grow operation. It lives in
// a buffer parallel to the label raster, so marking a pixel never touches
// its intensity value.
type CellState uint8

const (
	Unvisited CellState = iota
	Sealed
)

// DefaultHighlight is the paint colour for grown regions (full red).
var DefaultHighlight = [3]uint8{255, 0, 0}

// GrowResult is the outcome of one region grow. Paint is a clone the caller
// decides whether to commit. Label is the input raster itself: a grow never
// writes label values, so it is shared read-only rather than copied.
type GrowResult struct {
	Seed   image.Point
	Value  uint8 // label value shared by the region
	Label  *l3raster.Raster
	Paint  *RGBRaster
	State  []CellState // len = Width * Height
	Sealed int
	Bounds image.Rectangle // smallest rectangle containing the region
}

// Region summarises one grow without its rasters.
type Region struct {
	Seed   image.Point
	Value  uint8
	Sealed int
	Bounds image.Rectangle
}

// Summary returns the raster-free summary of g.
func (g *GrowResult) Summary() Region {
	return Region{Seed: g.Seed, Value: g.Value, Sealed: g.Sealed, Bounds: g.Bounds}
}

// Mask renders the sealed pixels as a 0/255 raster.
func (g *GrowResult) Mask() *l3raster.Raster {
	out := l3raster.NewRaster(g.Label.Width, g.Label.Height)
	for i, s := range g.State {
		if s == Sealed {
			out.Pix[i] = 255
		}
	}
	return out
}

// Contains reports whether (x, y) belongs to the grown region.
func (g *GrowResult) Contains(x, y int) bool {
	if !g.Label.In(x, y) {
		return false
	}
	return g.State[y*g.Label.Width+x] == Sealed
}

// Grow marks the 4-connected component of pixels sharing the seed's label
// value. Each member is sealed exactly once and painted with highlight in a
// clone of paint. Neither input is modified.
//
// The frontier is an explicit stack, so region size never affects call
// depth.
func Grow(label *l3raster.Raster, paint *RGBRaster, seedX, seedY int, highlight [3]uint8) (*GrowResult, error) {
	if label == nil {
		return nil, fmt.Errorf("nil label raster")
	}
	if !label.In(seedX, seedY) {
		return nil, fmt.Errorf("seed (%d, %d) outside %dx%d raster", seedX, seedY, label.Width, label.Height)
	}
	if paint != nil && (paint.Width != label.Width || paint.Height != label.Height) {
		return nil, fmt.Errorf("paint raster %dx%d does not match label raster %dx%d",
			paint.Width, paint.Height, label.Width, label.Height)
	}

	w, h := label.Width, label.Height
	res := &GrowResult{
		Seed:  image.Pt(seedX, seedY),
		Value: label.At(seedX, seedY),
		Label: label,
		State: make([]CellState, w*h),
	}
	if paint != nil {
		res.Paint = paint.Clone()
	} else {
		res.Paint = FromGray(label)
	}

	target := res.Value
	minX, minY, maxX, maxY := seedX, seedY, seedX, seedY

	stack := []image.Point{{X: seedX, Y: seedY}}
	res.State[seedY*w+seedX] = Sealed
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		res.Paint.Set(p.X, p.Y, highlight)
		res.Sealed++
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)

		for _, d := range [4]image.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			i := ny*w + nx
			if res.State[i] != Unvisited || label.Pix[i] != target {
				continue
			}
			res.State[i] = Sealed
			stack = append(stack, image.Point{X: nx, Y: ny})
		}
	}
	res.Bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	return res, nil
}
