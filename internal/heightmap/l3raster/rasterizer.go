package l3raster

import (
	"fmt"

	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

// Stats counts what happened to the points of one rasterisation pass.
type Stats struct {
	Points     int64 // complete records read
	Binned     int64 // points added to the grid
	Skipped    int64 // points rejected by the class filter
	NonFinite  int64 // points with a NaN or infinite coordinate
	Clamped    int64 // points whose pixel index was clamped into range
	EmptyCells int   // cells with no points, left at intensity 0
	Truncated  int   // bytes of a discarded partial trailing record
}

// Rasterizer bins a point stream into a dense grid sized from Box.
type Rasterizer struct {
	Box        l2bounds.BoundingBox3D
	Cols, Rows int
	// Class, when non-nil, keeps only points whose classifier equals it.
	Class *int32
	// Strict fails the pass on a partial trailing record instead of
	// discarding it.
	Strict bool
}

// NewRasterizer validates box and derives the grid shape. Degenerate boxes
// and grids over MaxGridCells are rejected here, before any binning pass
// starts.
func NewRasterizer(box l2bounds.BoundingBox3D) (*Rasterizer, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if err := CheckShape(box); err != nil {
		return nil, err
	}
	cols, rows := GridShape(box)
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: grid shape %dx%d", l2bounds.ErrDegenerateBounds, cols, rows)
	}
	return &Rasterizer{Box: box, Cols: cols, Rows: rows}, nil
}

// ForClass returns a copy of the rasterizer that only keeps points with the
// given classifier.
func (r *Rasterizer) ForClass(class int32) *Rasterizer {
	c := *r
	c.Class = &class
	return &c
}

// Bin performs one pass over src and returns the filled accumulator grid.
func (r *Rasterizer) Bin(src l1points.Source) (*AccumulatorGrid, Stats, error) {
	grid := NewAccumulatorGrid(r.Cols, r.Rows)
	var st Stats

	pass := l1points.ForEach
	if r.Strict {
		pass = l1points.ForEachStrict
	}
	ps, err := pass(src, func(p l1points.Point3D) error {
		if r.Class != nil && p.Class != *r.Class {
			st.Skipped++
			return nil
		}
		if !p.Finite() {
			st.NonFinite++
			return nil
		}
		px, py, clamped := PixelFor(r.Box, r.Cols, r.Rows, p.X, p.Y)
		if clamped {
			st.Clamped++
		}
		grid.Insert(px, py, p.Z)
		st.Binned++
		return nil
	})
	st.Points = ps.Points
	st.Truncated = ps.TruncatedBytes
	if err != nil {
		return nil, st, err
	}
	st.EmptyCells = len(grid.Cells) - grid.Populated()
	return grid, st, nil
}

// Rasterize bins src and reduces the grid to a Raster.
func (r *Rasterizer) Rasterize(src l1points.Source) (*Raster, Stats, error) {
	grid, st, err := r.Bin(src)
	if err != nil {
		return nil, st, err
	}
	return Normalize(grid, r.Box), st, nil
}

// Normalize reduces every populated cell to
// uint8((mean - minZ) / deltaZ * 255), truncating toward zero. Cells with
// no points stay 0. Box must already be validated.
func Normalize(grid *AccumulatorGrid, box l2bounds.BoundingBox3D) *Raster {
	out := NewRaster(grid.Cols, grid.Rows)
	minZ := float64(box.MinZ)
	deltaZ := float64(box.DeltaZ())
	for i, c := range grid.Cells {
		if c.Count == 0 {
			continue
		}
		v := (c.Mean() - minZ) / deltaZ * 255
		// Means can drift a hair outside [minZ, maxZ] in float64; keep the
		// cast defined.
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out.Pix[i] = uint8(v)
	}
	return out
}

// RasterizeLayers produces one independent raster per requested class, each
// from its own pass over src.
func RasterizeLayers(src l1points.Source, base *Rasterizer, classes []int32) (map[int32]*Raster, map[int32]Stats, error) {
	layers := make(map[int32]*Raster, len(classes))
	stats := make(map[int32]Stats, len(classes))
	for _, class := range classes {
		if _, done := layers[class]; done {
			continue
		}
		layer, st, err := base.ForClass(class).Rasterize(src)
		if err != nil {
			return nil, nil, fmt.Errorf("class %d layer: %w", class, err)
		}
		if st.Binned == 0 {
			monitoring.Logf("[raster] class %d: no points matched, layer is empty", class)
		}
		layers[class] = layer
		stats[class] = st
	}
	return layers, stats, nil
}
