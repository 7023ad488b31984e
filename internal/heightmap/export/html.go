package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

// DefaultMaxCells bounds the HTML payload; larger rasters are downsampled by
// a uniform stride.
const DefaultMaxCells = 40000

// HeatmapChart builds an interactive heat map of r. Cells are sampled on a
// stride that keeps the series under maxCells; empty cells are omitted.
func HeatmapChart(r *l3raster.Raster, box l2bounds.BoundingBox3D, title string, maxCells int) (*charts.HeatMap, error) {
	if r == nil || r.Width == 0 || r.Height == 0 {
		return nil, fmt.Errorf("empty raster")
	}
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	stride := 1
	if n := r.Width * r.Height; n > maxCells {
		stride = int(math.Ceil(math.Sqrt(float64(n) / float64(maxCells))))
	}

	cellW := float64(box.DeltaX()) / float64(r.Width)
	cellH := float64(box.DeltaY()) / float64(r.Height)
	xs := make([]string, 0, r.Width/stride+1)
	for x := 0; x < r.Width; x += stride {
		xs = append(xs, fmt.Sprintf("%.2f", float64(box.MinX)+(float64(x)+0.5)*cellW))
	}
	ys := make([]string, 0, r.Height/stride+1)
	for y := 0; y < r.Height; y += stride {
		ys = append(ys, fmt.Sprintf("%.2f", float64(box.MinY)+(float64(y)+0.5)*cellH))
	}

	data := make([]opts.HeatMapData, 0, len(xs)*len(ys))
	for j, y := 0, 0; y < r.Height; j, y = j+1, y+stride {
		for i, x := 0, 0; x < r.Width; i, x = i+1, x+stride {
			v := r.At(x, y)
			if v == 0 {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, int(v)}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%dx%d cells, stride %d, %s", r.Width, r.Height, stride, box),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "Y (m)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        255,
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#fde725"}},
		}),
	)
	hm.AddSeries("intensity", data)
	return hm, nil
}

// WriteHTML renders a heat map page to path.
func WriteHTML(fsys fsutil.FileSystem, path string, r *l3raster.Raster, box l2bounds.BoundingBox3D, title string) error {
	hm, err := HeatmapChart(r, box, title, DefaultMaxCells)
	if err != nil {
		return err
	}
	if err := fsutil.WriteAtomic(fsys, path, func(w io.Writer) error {
		return hm.Render(w)
	}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Logf("[export] wrote %s", path)
	return nil
}
