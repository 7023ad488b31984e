package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/heightmap/internal/config"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
	"github.com/banshee-data/heightmap/internal/heightmap/l4regions"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

// Options configures one run.
type Options struct {
	Source l1points.Source
	Config *config.TuningConfig // nil uses defaults

	// Classes overrides Config's per-class layer list when non-nil.
	Classes []int32

	// Edges enables the edge, binarise and closing stages.
	Edges bool
	// Detector is used by the edge stage; nil selects
	// l4regions.DefaultDetector.
	Detector l4regions.EdgeDetector
}

// Result holds everything a run produced. Rasters are owned by the caller
// once Run returns.
type Result struct {
	Source     string
	Box        l2bounds.BoundingBox3D
	Cols, Rows int

	Heightmap *l3raster.Raster
	Stats     l3raster.Stats
	Summary   l3raster.HeightSummary

	Layers     map[int32]*l3raster.Raster
	LayerStats map[int32]l3raster.Stats

	Detector  string
	Edges     *l3raster.Raster // raw detector output
	Threshold uint8            // binarisation threshold actually used
	Binary    *l3raster.Raster
	Closed    *l3raster.Raster // label raster for region probing

	Durations map[Stage]time.Duration
}

// Classes returns the layer classes in ascending order.
func (r *Result) Classes() []int32 {
	out := make([]int32, 0, len(r.Layers))
	for c := range r.Layers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ProbeLabel returns the raster region probing should grow on: the closed
// edge map when edges ran, the heightmap otherwise.
func (r *Result) ProbeLabel() *l3raster.Raster {
	if r.Closed != nil {
		return r.Closed
	}
	return r.Heightmap
}

// NewProbe builds a probe context over this result.
func (r *Result) NewProbe(highlight [3]uint8) (*l4regions.Probe, error) {
	p, err := l4regions.NewProbe(r.Heightmap, r.ProbeLabel())
	if err != nil {
		return nil, err
	}
	p.Highlight = highlight
	return p, nil
}

// Run executes the stages in order. Each stage consumes the previous
// stage's output fully before the next begins.
func Run(opts Options) (*Result, error) {
	if opts.Source == nil {
		return nil, &StageError{Stage: StageBounds, Err: fmt.Errorf("no point source")}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	strict := cfg.GetTruncatedTailFatal()
	path := opts.Source.Name()
	res := &Result{Source: path, Durations: make(map[Stage]time.Duration)}

	timed := func(stage Stage, fn func() error) error {
		done := monitoring.StageTimer(string(stage))
		start := time.Now()
		err := fn()
		res.Durations[stage] = time.Since(start)
		done()
		if err != nil {
			return &StageError{Stage: stage, Path: path, Err: err}
		}
		return nil
	}

	var rz *l3raster.Rasterizer
	err := timed(StageBounds, func() error {
		box, _, err := l2bounds.Scan(opts.Source, strict)
		if err != nil {
			return err
		}
		// Degenerate bounds must be caught before any binning pass.
		rz, err = l3raster.NewRasterizer(box)
		if err != nil {
			return err
		}
		rz.Strict = strict
		res.Box, res.Cols, res.Rows = box, rz.Cols, rz.Rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = timed(StageRaster, func() error {
		grid, st, err := rz.Bin(opts.Source)
		if err != nil {
			return err
		}
		res.Heightmap = l3raster.Normalize(grid, res.Box)
		res.Stats = st
		res.Summary = grid.Summary()
		if st.NonFinite > 0 {
			monitoring.Logf("[raster] %s: skipped %d points with non-finite coordinates", path, st.NonFinite)
		}
		if st.Clamped > 0 {
			monitoring.Logf("[raster] %s: %d points clamped into the %dx%d grid", path, st.Clamped, res.Cols, res.Rows)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	classes := opts.Classes
	if classes == nil {
		classes = cfg.GetClasses()
	}
	if len(classes) > 0 {
		err = timed(StageLayers, func() error {
			var err error
			res.Layers, res.LayerStats, err = l3raster.RasterizeLayers(opts.Source, rz, classes)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if !opts.Edges {
		return res, nil
	}

	det := opts.Detector
	if det == nil {
		det = l4regions.DefaultDetector()
	}
	res.Detector = det.Name()
	err = timed(StageEdges, func() error {
		var err error
		res.Edges, err = det.Detect(res.Heightmap, cfg.GetCannyLow(), cfg.GetCannyHigh())
		return err
	})
	if err != nil {
		return nil, err
	}

	err = timed(StageBinarize, func() error {
		res.Threshold = cfg.GetBinarizeThreshold()
		if q, ok := cfg.GetBinarizeQuantile(); ok {
			t, err := l4regions.QuantileThreshold(res.Edges, q)
			if err != nil {
				return err
			}
			res.Threshold = t
		}
		res.Binary = l4regions.Binarize(res.Edges, res.Threshold)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = timed(StageClosing, func() error {
		res.Closed = l4regions.Close(res.Binary, cfg.GetClosingPasses())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
