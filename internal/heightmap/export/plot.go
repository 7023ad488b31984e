package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

// rasterGrid adapts a Raster to plotter.GridXYZ with cell centres in world
// coordinates.
type rasterGrid struct {
	r   *l3raster.Raster
	box l2bounds.BoundingBox3D
}

func (g rasterGrid) Dims() (c, r int) { return g.r.Width, g.r.Height }

func (g rasterGrid) Z(c, r int) float64 { return float64(g.r.At(c, r)) }

func (g rasterGrid) X(c int) float64 {
	return float64(g.box.MinX) + (float64(c)+0.5)*float64(g.box.DeltaX())/float64(g.r.Width)
}

func (g rasterGrid) Y(r int) float64 {
	return float64(g.box.MinY) + (float64(r)+0.5)*float64(g.box.DeltaY())/float64(g.r.Height)
}

// HeatmapPlot renders a raster as a heat map over its world extent.
func HeatmapPlot(r *l3raster.Raster, box l2bounds.BoundingBox3D, title string) (*plot.Plot, error) {
	if r == nil || r.Width == 0 || r.Height == 0 {
		return nil, fmt.Errorf("empty raster")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	hm := plotter.NewHeatMap(rasterGrid{r: r, box: box}, palette.Heat(256, 1))
	hm.Min, hm.Max = 0, 255
	p.Add(hm)
	return p, nil
}

// HistogramPlot renders the intensity distribution of a raster. Empty
// (zero) cells are left out unless includeZero is set.
func HistogramPlot(r *l3raster.Raster, title string, includeZero bool) (*plot.Plot, error) {
	vals := make(plotter.Values, 0, len(r.Pix))
	for _, v := range r.Pix {
		if v == 0 && !includeZero {
			continue
		}
		vals = append(vals, float64(v))
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("no non-empty cells to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Cells"

	h, err := plotter.NewHist(vals, 32)
	if err != nil {
		return nil, err
	}
	p.Add(h)
	return p, nil
}

// PlotSize returns the canvas for a plot widthCm wide whose height keeps
// the raster aspect ratio, bounded to [0.25, 4] times the width.
func PlotSize(r *l3raster.Raster, widthCm float64) (vg.Length, vg.Length) {
	w := vg.Length(widthCm) * vg.Centimeter
	ratio := 1.0
	if r != nil && r.Width > 0 {
		ratio = float64(r.Height) / float64(r.Width)
	}
	ratio = min(max(ratio, 0.25), 4)
	return w, w * vg.Length(ratio)
}

// SavePlot writes p to path; the format comes from the extension (png,
// svg, pdf, ...), as with plot.Save.
func SavePlot(fsys fsutil.FileSystem, p *plot.Plot, w, h vg.Length, path string) error {
	format := extFormat(path)
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}
	if err := fsutil.WriteAtomic(fsys, path, func(out io.Writer) error {
		_, err := wt.WriteTo(out)
		return err
	}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Logf("[export] wrote plot %s", path)
	return nil
}

func extFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "png"
	}
	return ext
}
