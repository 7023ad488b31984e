package l3raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
)

// Cell is the running height sum and point count of one output pixel.
type Cell struct {
	Sum   float64
	Count uint64
}

// Mean returns the average height of the cell. Callers must check Count.
func (c Cell) Mean() float64 { return c.Sum / float64(c.Count) }

// AccumulatorGrid is the working buffer of one binning pass. It is owned
// by a single pass and is only mutated through Insert and Merge.
type AccumulatorGrid struct {
	Cols, Rows int
	Cells      []Cell // len = Cols * Rows, row-major
}

// NewAccumulatorGrid allocates an empty grid.
func NewAccumulatorGrid(cols, rows int) *AccumulatorGrid {
	return &AccumulatorGrid{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
}

// Idx returns the flat index of (px, py).
func (g *AccumulatorGrid) Idx(px, py int) int { return py*g.Cols + px }

// Insert adds one height sample to cell (px, py).
func (g *AccumulatorGrid) Insert(px, py int, z float32) {
	c := &g.Cells[g.Idx(px, py)]
	c.Sum += float64(z)
	c.Count++
}

// Merge adds other into g cell by cell. Summation of {sum, count} pairs is
// associative and commutative, so grids binned from disjoint chunks of the
// same stream merge into the grid a single pass would have produced.
func (g *AccumulatorGrid) Merge(other *AccumulatorGrid) error {
	if other.Cols != g.Cols || other.Rows != g.Rows {
		return fmt.Errorf("grid shape mismatch: %dx%d vs %dx%d", g.Cols, g.Rows, other.Cols, other.Rows)
	}
	for i := range g.Cells {
		g.Cells[i].Sum += other.Cells[i].Sum
		g.Cells[i].Count += other.Cells[i].Count
	}
	return nil
}

// Populated returns the number of cells that received at least one point.
func (g *AccumulatorGrid) Populated() int {
	n := 0
	for _, c := range g.Cells {
		if c.Count > 0 {
			n++
		}
	}
	return n
}

// HeightSummary describes the populated cells of a grid in world units.
type HeightSummary struct {
	Cells  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summary computes statistics over the mean height of every populated cell.
func (g *AccumulatorGrid) Summary() HeightSummary {
	means := make([]float64, 0, len(g.Cells))
	for _, c := range g.Cells {
		if c.Count > 0 {
			means = append(means, c.Mean())
		}
	}
	if len(means) == 0 {
		return HeightSummary{}
	}
	mean, std := stat.MeanStdDev(means, nil)
	if math.IsNaN(std) {
		std = 0 // single populated cell
	}
	return HeightSummary{
		Cells:  len(means),
		Min:    floats.Min(means),
		Max:    floats.Max(means),
		Mean:   mean,
		StdDev: std,
	}
}

// GridShape derives (cols, rows) from the bounding box as
// round(delta + 0.5) per axis, rounding halves to even. An integer delta
// therefore gives delta cells, not delta+1. Callers must check the shape
// with CheckShape before converting to int for very wide boxes.
func GridShape(box l2bounds.BoundingBox3D) (cols, rows int) {
	fc, fr := gridShape(box)
	return int(fc), int(fr)
}

func gridShape(box l2bounds.BoundingBox3D) (cols, rows float64) {
	cols = math.RoundToEven(float64(box.DeltaX() + 0.5))
	rows = math.RoundToEven(float64(box.DeltaY() + 0.5))
	return cols, rows
}

// MaxGridCells bounds cols*rows. At 16 bytes per accumulator cell this is
// a 1 GiB working grid.
const MaxGridCells = 1 << 26

// ErrGridTooLarge is reported when the bounding box needs more than
// MaxGridCells cells, usually because of a far outlier.
var ErrGridTooLarge = errors.New("grid too large")

// CheckShape reports ErrGridTooLarge when the grid for box would exceed
// MaxGridCells. The product is computed in floating point so it cannot
// overflow; a NaN or infinite extent also fails.
func CheckShape(box l2bounds.BoundingBox3D) error {
	fc, fr := gridShape(box)
	if !(fc*fr <= MaxGridCells) {
		return fmt.Errorf("%w: %.0fx%.0f cells for extent %g x %g exceeds %d",
			ErrGridTooLarge, fc, fr, box.DeltaX(), box.DeltaY(), MaxGridCells)
	}
	return nil
}

// PixelFor maps a world coordinate to a grid cell using
// floor((v - min) / delta * n) per axis. Indices produced by floating point
// rounding at the extreme edges (v == max gives exactly n) are clamped into
// range; clamped reports when that happened.
func PixelFor(box l2bounds.BoundingBox3D, cols, rows int, x, y float32) (px, py int, clamped bool) {
	fx := float64(x-box.MinX) / float64(box.DeltaX()) * float64(cols)
	fy := float64(y-box.MinY) / float64(box.DeltaY()) * float64(rows)
	px, cx := clampIndex(int(math.Floor(fx)), cols)
	py, cy := clampIndex(int(math.Floor(fy)), rows)
	return px, py, cx || cy
}

func clampIndex(i, n int) (int, bool) {
	if i < 0 {
		return 0, true
	}
	if i >= n {
		return n - 1, true
	}
	return i, false
}
