package l3raster

import (
	"bytes"
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
)

func sourceOf(t *testing.T, points []l1points.Point3D) l1points.Source {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, l1points.WritePoints(&buf, points))
	m := fsutil.NewMemoryFileSystem()
	m.WriteFile("cloud.bin", buf.Bytes())
	return &l1points.FileSource{FS: m, Path: "cloud.bin"}
}

func scan(t *testing.T, src l1points.Source) l2bounds.BoundingBox3D {
	t.Helper()
	box, _, err := l2bounds.Scan(src, false)
	require.NoError(t, err)
	return box
}

// unitSquare puts z=0 and z=10 on opposite diagonals of a unit square.
func unitSquare() []l1points.Point3D {
	return []l1points.Point3D{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 10},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 10},
	}
}

func TestGridShape(t *testing.T) {
	tests := []struct {
		dx, dy     float32
		cols, rows int
	}{
		{1, 1, 2, 2},           // round(1.5) = 2
		{0.4, 0.2, 1, 1},       // round(0.9), round(0.7)
		{534.9, 560, 535, 560}, // round(535.4), round(560.5) to even
		{99.6, 10, 100, 10},
		{2, 3, 2, 4}, // 2.5 -> 2, 3.5 -> 4
	}
	for _, tt := range tests {
		box := l2bounds.BoundingBox3D{MaxX: tt.dx, MaxY: tt.dy, MaxZ: 1}
		cols, rows := GridShape(box)
		assert.Equal(t, tt.cols, cols, "cols for dx=%g", tt.dx)
		assert.Equal(t, tt.rows, rows, "rows for dy=%g", tt.dy)
	}
}

func TestPixelFor_ClampsExtremeEdges(t *testing.T) {
	box := l2bounds.BoundingBox3D{MinX: -10, MaxX: 10, MinY: -5, MaxY: 5, MinZ: 0, MaxZ: 1}
	cols, rows := GridShape(box)

	px, py, clamped := PixelFor(box, cols, rows, box.MaxX, box.MaxY)
	assert.Equal(t, cols-1, px)
	assert.Equal(t, rows-1, py)
	assert.True(t, clamped)

	px, py, clamped = PixelFor(box, cols, rows, box.MinX, box.MinY)
	assert.Equal(t, 0, px)
	assert.Equal(t, 0, py)
	assert.False(t, clamped)
}

func TestPixelFor_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	box := l2bounds.BoundingBox3D{MinX: -453462.19, MaxX: -452927.25, MinY: -1101354.75, MaxY: -1100794.75, MinZ: 200, MaxZ: 300}
	cols, rows := GridShape(box)
	for i := 0; i < 10000; i++ {
		x := box.MinX + rng.Float32()*box.DeltaX()
		y := box.MinY + rng.Float32()*box.DeltaY()
		px, py, _ := PixelFor(box, cols, rows, x, y)
		require.True(t, px >= 0 && px < cols, "px %d out of [0,%d)", px, cols)
		require.True(t, py >= 0 && py < rows, "py %d out of [0,%d)", py, rows)
	}
}

func TestRasterize_UnitSquareCorners(t *testing.T) {
	src := sourceOf(t, unitSquare())
	box := scan(t, src)

	r, err := NewRasterizer(box)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Cols)
	assert.Equal(t, 2, r.Rows)

	raster, st, err := r.Rasterize(src)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Points)
	assert.Equal(t, int64(4), st.Binned)
	assert.Equal(t, 0, st.EmptyCells)
	assert.Equal(t, int64(3), st.Clamped, "every point on a max edge is clamped")

	// No y flip: world y=0 lands in raster row 0.
	assert.Equal(t, uint8(0), raster.At(0, 0))
	assert.Equal(t, uint8(0), raster.At(1, 0))
	assert.Equal(t, uint8(255), raster.At(0, 1))
	assert.Equal(t, uint8(255), raster.At(1, 1))
}

func TestRasterize_FlatZIsDegenerate(t *testing.T) {
	src := sourceOf(t, []l1points.Point3D{
		{X: 0, Y: 0, Z: 10}, {X: 1, Y: 0, Z: 10}, {X: 0, Y: 1, Z: 10}, {X: 1, Y: 1, Z: 10},
	})
	_, err := NewRasterizer(scan(t, src))
	assert.ErrorIs(t, err, l2bounds.ErrDegenerateBounds)
	assert.Contains(t, err.Error(), "delta_z")
}

func TestNewRasterizer_RejectsHugeGrid(t *testing.T) {
	tests := []struct {
		name string
		box  l2bounds.BoundingBox3D
	}{
		{"int overflow", l2bounds.BoundingBox3D{MaxX: 4294967296, MaxY: 4294967296, MaxZ: 1}},
		{"over limit", l2bounds.BoundingBox3D{MaxX: 10000, MaxY: 10000, MaxZ: 1}},
		{"one wide axis", l2bounds.BoundingBox3D{MaxX: 3e38, MaxY: 1, MaxZ: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRasterizer(tt.box)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrGridTooLarge)
		})
	}

	r, err := NewRasterizer(l2bounds.BoundingBox3D{MaxX: 8191, MaxY: 8191, MaxZ: 1})
	require.NoError(t, err)
	assert.LessOrEqual(t, r.Cols*r.Rows, MaxGridCells)
}

func TestRasterize_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := make([]l1points.Point3D, 500)
	for i := range points {
		points[i] = l1points.Point3D{
			X: rng.Float32() * 40, Y: rng.Float32() * 25, Z: rng.Float32() * 12, Class: int32(rng.Intn(3)),
		}
	}
	src := sourceOf(t, points)
	r, err := NewRasterizer(scan(t, src))
	require.NoError(t, err)

	a, _, err := r.Rasterize(src)
	require.NoError(t, err)
	b, _, err := r.Rasterize(src)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Pix, b.Pix)
}

func TestRasterize_AveragesCell(t *testing.T) {
	src := sourceOf(t, []l1points.Point3D{
		{X: 0, Y: 0, Z: 0},
		{X: 0.1, Y: 0.1, Z: 4}, // same cell as next
		{X: 0.2, Y: 0.2, Z: 6},
		{X: 3, Y: 3, Z: 10},
	})
	box := scan(t, src)
	r, err := NewRasterizer(box)
	require.NoError(t, err)

	grid, _, err := r.Bin(src)
	require.NoError(t, err)
	c := grid.Cells[grid.Idx(0, 0)]
	assert.Equal(t, uint64(3), c.Count)
	assert.InDelta(t, 10.0/3.0, c.Mean(), 1e-9)

	raster := Normalize(grid, box)
	mean := c.Mean()
	assert.Equal(t, uint8(mean/10*255), raster.At(0, 0), "intensity is truncated, not rounded")
}

func TestNormalize_TruncatesAndLeavesEmptyCellsZero(t *testing.T) {
	box := l2bounds.BoundingBox3D{MaxX: 1, MaxY: 1, MinZ: 0, MaxZ: 2}
	grid := NewAccumulatorGrid(2, 1)
	grid.Insert(0, 0, 1.999) // 254.87 -> 254
	out := Normalize(grid, box)
	assert.Equal(t, uint8(254), out.At(0, 0))
	assert.Equal(t, uint8(0), out.At(1, 0))
}

func TestRasterizeLayers(t *testing.T) {
	points := []l1points.Point3D{
		{X: 0, Y: 0, Z: 0, Class: 1},
		{X: 4, Y: 4, Z: 10, Class: 2},
		{X: 4, Y: 0, Z: 5, Class: 1},
	}
	src := sourceOf(t, points)
	base, err := NewRasterizer(scan(t, src))
	require.NoError(t, err)

	layers, stats, err := RasterizeLayers(src, base, []int32{1, 2, 9, 1})
	require.NoError(t, err)
	require.Len(t, layers, 3)

	assert.Equal(t, int64(2), stats[1].Binned)
	assert.Equal(t, int64(1), stats[1].Skipped)
	assert.Equal(t, uint8(127), layers[1].At(base.Cols-1, 0)) // z=5 of 10 -> 127.5 truncated
	assert.Equal(t, 1, layers[1].CountNonZero())
	assert.Equal(t, int64(1), stats[2].Binned)
	assert.Equal(t, uint8(255), layers[2].At(base.Cols-1, base.Rows-1))
	assert.Equal(t, 0, layers[9].CountNonZero())

	// The base rasterizer is not modified by ForClass.
	assert.Nil(t, base.Class)
}

func TestAccumulatorGrid_MergeMatchesSinglePass(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	single := NewAccumulatorGrid(4, 3)
	a := NewAccumulatorGrid(4, 3)
	b := NewAccumulatorGrid(4, 3)
	for i := 0; i < 200; i++ {
		px, py, z := rng.Intn(4), rng.Intn(3), float32(rng.Intn(100))
		single.Insert(px, py, z)
		if i%2 == 0 {
			a.Insert(px, py, z)
		} else {
			b.Insert(px, py, z)
		}
	}
	require.NoError(t, a.Merge(b))
	assert.Equal(t, single.Cells, a.Cells)

	assert.Error(t, a.Merge(NewAccumulatorGrid(3, 4)))
}

func TestAccumulatorGrid_Summary(t *testing.T) {
	g := NewAccumulatorGrid(3, 1)
	assert.Equal(t, HeightSummary{}, g.Summary())

	g.Insert(0, 0, 2)
	g.Insert(0, 0, 4) // mean 3
	g.Insert(2, 0, 7)
	s := g.Summary()
	assert.Equal(t, 2, s.Cells)
	assert.Equal(t, 3.0, s.Min)
	assert.Equal(t, 7.0, s.Max)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.Greater(t, s.StdDev, 0.0)

	one := NewAccumulatorGrid(1, 1)
	one.Insert(0, 0, 1)
	assert.Equal(t, 0.0, one.Summary().StdDev)
}

func TestRaster_GrayRoundTrip(t *testing.T) {
	r := NewRaster(3, 2)
	r.Set(2, 1, 200)
	g := r.Gray()
	assert.Equal(t, image.Rect(0, 0, 3, 2), g.Bounds())
	assert.Equal(t, uint8(200), g.GrayAt(2, 1).Y)

	sub := g.SubImage(image.Rect(1, 1, 3, 2)).(*image.Gray)
	back := FromGray(sub)
	assert.Equal(t, 2, back.Width)
	assert.Equal(t, 1, back.Height)
	assert.Equal(t, []uint8{0, 200}, back.Pix)

	c := r.Clone()
	c.Set(0, 0, 1)
	assert.False(t, r.Equal(c))
	assert.Equal(t, uint8(0), r.At(0, 0))
}
