package export

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

func init() { monitoring.SetLogger(nil) }

func ramp(w, h int) *l3raster.Raster {
	r := l3raster.NewRaster(w, h)
	for i := range r.Pix {
		r.Pix[i] = uint8(i * 7)
	}
	return r
}

var box = l2bounds.BoundingBox3D{MinX: 10, MaxX: 14, MinY: -2, MaxY: 1, MinZ: 100, MaxZ: 125.5}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"map.png", FormatPNG, false},
		{"dir/MAP.PNG", FormatPNG, false},
		{"map.bmp", FormatBMP, false},
		{"map.tif", FormatTIFF, false},
		{"map.tiff", FormatTIFF, false},
		{"map.jpg", "", true},
		{"map", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteImageRoundTrip(t *testing.T) {
	r := ramp(5, 3)
	decoders := map[string]func([]byte) (image.Image, error){
		"out/map.png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		"out/map.bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
		"out/map.tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
	}
	for path, decode := range decoders {
		t.Run(path, func(t *testing.T) {
			fsys := fsutil.NewMemoryFileSystem()
			require.NoError(t, WriteImage(fsys, path, r.Gray()))
			assert.Equal(t, []string{path}, fsys.Files(), "temp file left behind")

			data, err := fsys.ReadFile(path)
			require.NoError(t, err)
			img, err := decode(data)
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())
			for y := 0; y < 3; y++ {
				for x := 0; x < 5; x++ {
					gray, _, _, _ := img.At(x, y).RGBA()
					assert.Equal(t, uint32(r.At(x, y)), gray>>8, "(%d, %d)", x, y)
				}
			}
		})
	}
}

func TestWriteImageRejectsUnknownExtension(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.Error(t, WriteImage(fsys, "map.gif", ramp(2, 2).Gray()))
	assert.Empty(t, fsys.Files())
}

func TestLayerPath(t *testing.T) {
	assert.Equal(t, "out/map_class2.png", LayerPath("out/map.png", "class2"))
	assert.Equal(t, "map_edges.tiff", LayerPath("map.tiff", "edges"))
	assert.Equal(t, "map_etc_passwd.png", LayerPath("map.png", "../etc/passwd"))
	assert.Equal(t, "out/map.html", WithExt("out/map.png", ".html"))
}

func TestPlots(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	r := ramp(8, 4)

	hp, err := HeatmapPlot(r, box, "heightmap")
	require.NoError(t, err)
	w, h := PlotSize(r, 16)
	assert.InDelta(t, float64(w)/2, float64(h), 1e-9)
	require.NoError(t, SavePlot(fsys, hp, w, h, "plots/heat.png"))

	hist, err := HistogramPlot(r, "intensity", false)
	require.NoError(t, err)
	require.NoError(t, SavePlot(fsys, hist, w, h, "plots/hist.png"))

	for _, name := range []string{"plots/heat.png", "plots/hist.png"} {
		data, err := fsys.ReadFile(name)
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(data))
		assert.NoError(t, err, name)
	}

	_, err = HeatmapPlot(l3raster.NewRaster(0, 0), box, "")
	assert.Error(t, err)
	_, err = HistogramPlot(l3raster.NewRaster(3, 3), "", false)
	assert.Error(t, err)
	_, err = HistogramPlot(l3raster.NewRaster(3, 3), "", true)
	assert.NoError(t, err)
}

func TestPlotSizeBounds(t *testing.T) {
	w, h := PlotSize(ramp(100, 1), 10)
	assert.InDelta(t, float64(w)*0.25, float64(h), 1e-9)
	w, h = PlotSize(ramp(1, 100), 10)
	assert.InDelta(t, float64(w)*4, float64(h), 1e-9)
}

func TestWriteHTML(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteHTML(fsys, "report.html", ramp(6, 6), box, "Heightmap report"))
	data, err := fsys.ReadFile("report.html")
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, "Heightmap report")
	assert.Contains(t, page, "heatmap")
}

func TestHeatmapChartStride(t *testing.T) {
	hm, err := HeatmapChart(ramp(300, 200), box, "big", 1000)
	require.NoError(t, err)
	require.Len(t, hm.MultiSeries, 1)
	data, ok := hm.MultiSeries[0].Data.([]opts.HeatMapData)
	require.True(t, ok)
	assert.NotEmpty(t, data)
	assert.LessOrEqual(t, len(data), 1000)

	_, err = HeatmapChart(nil, box, "", 0)
	assert.Error(t, err)
}

func TestWriteCellsASCRoundTrip(t *testing.T) {
	r := l3raster.NewRaster(4, 3)
	r.Set(0, 0, 255)
	r.Set(3, 2, 51)

	var buf bytes.Buffer
	n, err := WriteCellsASC(&buf, r, box)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(buf.String(), "# Exported heightmap cells (4x3)"))

	var bin bytes.Buffer
	stats, err := l1points.ConvertASC(&buf, &bin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Points)
	assert.Zero(t, stats.Skipped)

	rd := l1points.NewReader(&bin)
	p, err := rd.Next()
	require.NoError(t, err)
	assert.InDelta(t, 10.5, p.X, 1e-5)
	assert.InDelta(t, -1.5, p.Y, 1e-5)
	assert.InDelta(t, 125.5, p.Z, 1e-4)
	assert.Equal(t, int32(255), p.Class)

	p, err = rd.Next()
	require.NoError(t, err)
	assert.InDelta(t, 13.5, p.X, 1e-5)
	assert.InDelta(t, 0.5, p.Y, 1e-5)
	assert.InDelta(t, 105.1, p.Z, 1e-4)
	assert.Equal(t, int32(51), p.Class)

	fsys := fsutil.NewMemoryFileSystem()
	n, err = WriteCellsASCFile(fsys, "cells.asc", r, box)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
