package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
)

func TestConvertFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("scene.asc", []byte("# header\n1 2 3 4\nbad line\n5,6,7\n"))

	stats, err := convertFile(fsys, "scene.asc", "out/scene.bin")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Points)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 4, stats.Lines)

	data, err := fsys.ReadFile("out/scene.bin")
	require.NoError(t, err)
	r := l1points.NewReader(bytes.NewReader(data))
	p, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, l1points.Point3D{X: 1, Y: 2, Z: 3, Class: 4}, p)
	p, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, l1points.Point3D{X: 5, Y: 6, Z: 7}, p)
}

func TestConvertFileErrors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	_, err := convertFile(fsys, "missing.asc", "out.bin")
	assert.Error(t, err)

	_, err = convertFile(fsys, "same", "same")
	assert.Error(t, err)
	assert.Empty(t, fsys.Files())
}
