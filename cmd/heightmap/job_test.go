package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/storage/sqlite"
	"github.com/banshee-data/heightmap/internal/monitoring"
	"github.com/banshee-data/heightmap/internal/testutil"
)

func init() { monitoring.SetLogger(nil) }

// terraceASC writes a 20x20 m lattice with a 10 m step at x = 10 as ASC
// text. Points east of the step carry class 1.
func terraceASC(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# x y z class\n")
	for y := 0; y <= 20; y++ {
		for x := 0; x <= 20; x++ {
			z, class := 0, 0
			if x >= 10 {
				z, class = 10, 1
			}
			fmt.Fprintf(&b, "%d %d %d %d\n", x, y, z, class)
		}
	}
	path := filepath.Join(dir, "scene.asc")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRunJobWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	job := Job{
		DescriptorPath: terraceASC(t, dir),
		PointsPath:     filepath.Join(dir, "scene.bin"),
		OutPath:        filepath.Join(dir, "out", "map.png"),
		Classes:        "1, 0",
		Edges:          true,
		Convert:        true,
		Plots:          true,
		HTML:           true,
		ASC:            true,
		DBPath:         filepath.Join(dir, "catalogue.db"),
		Probes:         "1,1; 15,3",
	}

	report, err := RunJob(context.Background(), job)
	require.NoError(t, err)

	want := []string{
		"map.png", "map_class0.png", "map_class1.png", "map_edges.png", "map_probe.png",
		"map_plot.png", "map_hist.png", "map.html", "map.asc",
	}
	for _, name := range want {
		path := filepath.Join(dir, "out", name)
		assert.Contains(t, report.Written, path)
		assert.FileExists(t, path)
	}

	res := report.Result
	assert.Equal(t, 20, res.Cols)
	assert.Equal(t, int64(441), res.Stats.Binned)
	require.Len(t, report.Probed, 2)
	assert.Equal(t, image.Pt(15, 3), report.Probed[1].Seed)

	db, err := sqlite.Open(job.DBPath)
	require.NoError(t, err)
	defer db.Close()
	run, err := sqlite.NewRunStore(db.DB).Get(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, job.DescriptorPath, run.DescriptorPath)
	assert.Equal(t, []int32{0, 1}, run.Classes)
	assert.Equal(t, "gradient", run.Detector)
	probes, err := sqlite.NewProbeStore(db.DB).ListByRun(report.RunID)
	require.NoError(t, err)
	assert.Len(t, probes, 2)
}

func TestRunJobConvertKeepsPointsOnEmptyDescriptor(t *testing.T) {
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "scene.asc")
	require.NoError(t, os.WriteFile(descriptor, []byte("# header only\nnot a point\n"), 0o644))
	points := testutil.PointFile(t, dir, "scene.bin", []l1points.Point3D{
		{X: 0, Y: 0, Z: 0}, {X: 3, Y: 3, Z: 1},
	})
	before, err := os.ReadFile(points)
	require.NoError(t, err)

	_, err = RunJob(context.Background(), Job{
		DescriptorPath: descriptor,
		PointsPath:     points,
		OutPath:        filepath.Join(dir, "out", "map.png"),
		Convert:        true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, l2bounds.ErrEmptyInput)

	after, err := os.ReadFile(points)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp file left behind")
}

func TestRunJobFatalWritesNothing(t *testing.T) {
	dir := t.TempDir()
	flat := []l1points.Point3D{{X: 0, Y: 0, Z: 3}, {X: 4, Y: 4, Z: 3}}
	job := Job{
		DescriptorPath: filepath.Join(dir, "scene.asc"),
		PointsPath:     testutil.PointFile(t, dir, "flat.bin", flat),
		OutPath:        filepath.Join(dir, "out", "map.png"),
		Edges:          true,
		Plots:          true,
		DBPath:         filepath.Join(dir, "catalogue.db"),
	}
	_, err := RunJob(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, l2bounds.ErrDegenerateBounds)
	assert.Contains(t, err.Error(), "bounds stage failed")

	assert.NoDirExists(t, filepath.Join(dir, "out"))
	assert.NoFileExists(t, job.DBPath)
}

func TestRunJobRejectsBadInvocations(t *testing.T) {
	dir := t.TempDir()
	points := testutil.PointFile(t, dir, "cloud.bin", []l1points.Point3D{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 2, Z: 1}})
	base := Job{DescriptorPath: "scene.asc", PointsPath: points, OutPath: filepath.Join(dir, "map.png")}

	tests := []struct {
		name   string
		modify func(*Job)
		want   string
	}{
		{"output extension", func(j *Job) { j.OutPath = filepath.Join(dir, "map.jpg") }, "unsupported raster extension"},
		{"overwrite png input", func(j *Job) { j.PointsPath = filepath.Join(dir, "map.png") }, "overwrite input"},
		{"classes", func(j *Job) { j.Classes = "1,x" }, "invalid class"},
		{"probe", func(j *Job) { j.Probes = "1;2" }, "invalid probe"},
		{"probe out of range", func(j *Job) { j.Probes = "50,50" }, "outside"},
		{"config", func(j *Job) { j.ConfigPath = filepath.Join(dir, "missing.yaml") }, "stat config"},
		{"missing points", func(j *Job) { j.PointsPath = filepath.Join(dir, "missing.bin") }, "missing.bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := base
			tt.modify(&job)
			_, err := RunJob(context.Background(), job)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseClasses(t *testing.T) {
	got, err := parseClasses(" 2,0 ,7")
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 0, 7}, got)

	got, err = parseClasses("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseClasses("1,,2")
	assert.Error(t, err)
}

func TestParseSeeds(t *testing.T) {
	got, err := parseSeeds("1,2; 30 , 4")
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{1, 2}, {30, 4}}, got)

	for _, bad := range []string{"1", "1,2,3", "a,b", "1,2;"} {
		_, err := parseSeeds(bad)
		assert.Error(t, err, bad)
	}
}
