// Package testutil provides point-cloud fixtures and HTTP helpers shared by
// the higher-level package tests.
package testutil

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
)

// EncodePoints returns points in the binary record format.
func EncodePoints(t testing.TB, points []l1points.Point3D) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := l1points.WritePoints(&buf, points); err != nil {
		t.Fatalf("encode points: %v", err)
	}
	return buf.Bytes()
}

// PointFile writes points to dir/name and returns the path.
func PointFile(t testing.TB, dir, name string, points []l1points.Point3D) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, EncodePoints(t, points), 0o644); err != nil {
		t.Fatalf("write point file: %v", err)
	}
	return path
}

// MemorySource returns a Source backed by an in-memory filesystem.
func MemorySource(t testing.TB, points []l1points.Point3D) *l1points.FileSource {
	t.Helper()
	m := fsutil.NewMemoryFileSystem()
	m.WriteFile("points.bin", EncodePoints(t, points))
	return &l1points.FileSource{FS: m, Path: "points.bin"}
}

// GridPoints samples z over a cols x rows lattice with the given spacing,
// starting at the origin. Every point carries class.
func GridPoints(cols, rows int, step float32, class int32, z func(x, y float32) float32) []l1points.Point3D {
	points := make([]l1points.Point3D, 0, cols*rows)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			x, y := float32(i)*step, float32(j)*step
			points = append(points, l1points.Point3D{X: x, Y: y, Z: z(x, y), Class: class})
		}
	}
	return points
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status code = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}
