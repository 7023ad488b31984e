package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/banshee-data/heightmap/internal/config"
	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/export"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/l4regions"
	"github.com/banshee-data/heightmap/internal/heightmap/monitor"
	"github.com/banshee-data/heightmap/internal/heightmap/pipeline"
	"github.com/banshee-data/heightmap/internal/heightmap/storage/sqlite"
	"github.com/banshee-data/heightmap/internal/security"
	"github.com/banshee-data/heightmap/internal/version"
)

// Job is one CLI invocation.
type Job struct {
	DescriptorPath string
	PointsPath     string
	OutPath        string
	ConfigPath     string
	Classes        string
	Edges          bool
	Convert        bool
	Plots          bool
	HTML           bool
	ASC            bool
	DBPath         string
	Probes         string
	ServeAddr      string
}

// Report lists what a job produced.
type Report struct {
	Result  *pipeline.Result
	RunID   string
	Written []string
	Probed  []l4regions.Region
}

// RunJob runs the pipeline and writes the requested outputs. All inputs
// and output paths are checked before anything is written.
func RunJob(ctx context.Context, job Job) (*Report, error) {
	cfg := config.EmptyTuningConfig()
	if job.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(job.ConfigPath); err != nil {
			return nil, err
		}
	}
	classes, err := parseClasses(job.Classes)
	if err != nil {
		return nil, err
	}
	seeds, err := parseSeeds(job.Probes)
	if err != nil {
		return nil, err
	}
	if _, err := export.FormatFromPath(job.OutPath); err != nil {
		return nil, err
	}
	if err := security.ValidateOutputPath(job.OutPath, job.DescriptorPath, job.PointsPath); err != nil {
		return nil, err
	}

	fsys := fsutil.OSFileSystem{}
	if job.Convert {
		if err := convertDescriptor(fsys, job.DescriptorPath, job.PointsPath); err != nil {
			return nil, err
		}
	}

	res, err := pipeline.Run(pipeline.Options{
		Source:  &l1points.FileSource{FS: fsys, Path: job.PointsPath},
		Config:  cfg,
		Classes: classes,
		Edges:   job.Edges,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("%s: %dx%d grid, %d points binned, %d clamped, %d empty cells",
		job.PointsPath, res.Cols, res.Rows, res.Stats.Binned, res.Stats.Clamped, res.Stats.EmptyCells)

	report := &Report{Result: res}
	write := func(path string, img image.Image) error {
		if err := export.WriteImage(fsys, path, img); err != nil {
			return err
		}
		report.Written = append(report.Written, path)
		return nil
	}

	// Seeds are grown before anything is written so a bad seed fails the
	// job cleanly.
	var probe *l4regions.Probe
	if len(seeds) > 0 {
		if probe, err = res.NewProbe(cfg.GetHighlight()); err != nil {
			return nil, err
		}
		for _, s := range seeds {
			g, err := probe.Click(s.X, s.Y)
			if err != nil {
				return nil, fmt.Errorf("probe %d,%d: %w", s.X, s.Y, err)
			}
			report.Probed = append(report.Probed, g.Summary())
		}
	}

	if err := write(job.OutPath, res.Heightmap.Gray()); err != nil {
		return nil, err
	}
	for _, c := range res.Classes() {
		if err := write(export.LayerPath(job.OutPath, fmt.Sprintf("class%d", c)), res.Layers[c].Gray()); err != nil {
			return nil, err
		}
	}
	if res.Closed != nil {
		if err := write(export.LayerPath(job.OutPath, "edges"), res.Closed.Gray()); err != nil {
			return nil, err
		}
	}

	if probe != nil {
		if err := write(export.LayerPath(job.OutPath, "probe"), probe.Paint.RGBA()); err != nil {
			return nil, err
		}
	}

	if job.Plots {
		if err := writePlots(fsys, job.OutPath, res, cfg.GetPlotWidthCm(), report); err != nil {
			return nil, err
		}
	}
	if job.HTML {
		path := export.WithExt(job.OutPath, ".html")
		if err := export.WriteHTML(fsys, path, res.Heightmap, res.Box, "Heightmap "+job.PointsPath); err != nil {
			return nil, err
		}
		report.Written = append(report.Written, path)
	}
	if job.ASC {
		path := export.WithExt(job.OutPath, ".asc")
		if _, err := export.WriteCellsASCFile(fsys, path, res.Heightmap, res.Box); err != nil {
			return nil, err
		}
		report.Written = append(report.Written, path)
	}

	var probeStore *sqlite.ProbeStore
	if job.DBPath != "" {
		db, err := sqlite.Open(job.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		run := runRecord(job, res)
		if err := sqlite.NewRunStore(db.DB).Insert(run); err != nil {
			return nil, err
		}
		report.RunID = run.RunID
		probeStore = sqlite.NewProbeStore(db.DB)
		for _, g := range report.Probed {
			rec := &sqlite.ProbeRecord{RunID: run.RunID, Seed: g.Seed, Value: g.Value, Sealed: g.Sealed, Bounds: g.Bounds}
			if err := probeStore.Insert(rec); err != nil {
				return nil, err
			}
		}
		log.Printf("recorded run %s in %s", run.RunID, job.DBPath)
	}

	if job.ServeAddr != "" {
		ps, err := monitor.NewProbeServer(monitor.ServerConfig{
			Address:   job.ServeAddr,
			Result:    res,
			Highlight: cfg.GetHighlight(),
			Probes:    probeStore,
			RunID:     report.RunID,
		})
		if err != nil {
			return nil, err
		}
		if err := ps.Start(ctx); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func writePlots(fsys fsutil.FileSystem, out string, res *pipeline.Result, widthCm float64, report *Report) error {
	heat, err := export.HeatmapPlot(res.Heightmap, res.Box, "Heightmap")
	if err != nil {
		return err
	}
	w, h := export.PlotSize(res.Heightmap, widthCm)
	heatPath := export.WithExt(export.LayerPath(out, "plot"), ".png")
	if err := export.SavePlot(fsys, heat, w, h, heatPath); err != nil {
		return err
	}
	report.Written = append(report.Written, heatPath)

	hist, err := export.HistogramPlot(res.Heightmap, "Intensity distribution", false)
	if err != nil {
		log.Printf("skipping histogram: %v", err)
		return nil
	}
	histPath := export.WithExt(export.LayerPath(out, "hist"), ".png")
	if err := export.SavePlot(fsys, hist, w, w/2, histPath); err != nil {
		return err
	}
	report.Written = append(report.Written, histPath)
	return nil
}

func convertDescriptor(fsys fsutil.FileSystem, descriptor, points string) error {
	in, err := fsys.Open(descriptor)
	if err != nil {
		return fmt.Errorf("open descriptor %s: %w", descriptor, err)
	}
	defer in.Close()

	var stats l1points.ConvertStats
	err = fsutil.WriteAtomic(fsys, points, func(w io.Writer) error {
		var err error
		stats, err = l1points.ConvertASC(in, w)
		if err != nil {
			return err
		}
		// An empty conversion must not replace an existing point file.
		if stats.Points == 0 {
			return fmt.Errorf("%w: no point lines in %d lines read", l2bounds.ErrEmptyInput, stats.Lines)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("convert %s: %w", descriptor, err)
	}
	log.Printf("converted %s: %d points, %d lines skipped", descriptor, stats.Points, stats.Skipped)
	return nil
}

func runRecord(job Job, res *pipeline.Result) *sqlite.Run {
	return &sqlite.Run{
		AppVersion:     version.String(),
		DescriptorPath: job.DescriptorPath,
		PointsPath:     job.PointsPath,
		OutputPath:     job.OutPath,
		Box:            res.Box,
		Cols:           res.Cols,
		Rows:           res.Rows,
		Points:         res.Stats.Points,
		Binned:         res.Stats.Binned,
		Clamped:        res.Stats.Clamped,
		EmptyCells:     res.Stats.EmptyCells,
		TruncatedBytes: res.Stats.Truncated,
		MeanHeight:     res.Summary.Mean,
		StdDevHeight:   res.Summary.StdDev,
		Classes:        res.Classes(),
		Detector:       res.Detector,
	}
}

func parseClasses(s string) ([]int32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int32
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid class %q: %w", f, err)
		}
		out = append(out, int32(v))
	}
	return out, nil
}

func parseSeeds(s string) ([]image.Point, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []image.Point
	for _, pair := range strings.Split(s, ";") {
		xy := strings.Split(strings.TrimSpace(pair), ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("invalid probe %q: want x,y", pair)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xy[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(xy[1]))
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid probe %q: coordinates must be integers", pair)
		}
		out = append(out, image.Pt(x, y))
	}
	return out, nil
}
