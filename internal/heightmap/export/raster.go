package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/monitoring"
	"github.com/banshee-data/heightmap/internal/security"
)

// Format is a raster file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// FormatFromPath picks the encoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unsupported raster extension %q (want .png, .bmp, .tif or .tiff)", filepath.Ext(path))
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unknown raster format %q", f)
	}
}

// WriteImage encodes img to path, choosing the format from the extension.
func WriteImage(fsys fsutil.FileSystem, path string, img image.Image) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := fsutil.WriteAtomic(fsys, path, func(w io.Writer) error {
		return Encode(w, img, f)
	}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	b := img.Bounds()
	monitoring.Logf("[export] wrote %s (%dx%d %s)", path, b.Dx(), b.Dy(), f)
	return nil
}

// LayerPath derives a sibling output path: LayerPath("out/map.png",
// "class2") is "out/map_class2.png". The suffix is sanitised.
func LayerPath(out, suffix string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "_" + security.SanitizeFilename(suffix) + ext
}

// WithExt replaces the extension of path.
func WithExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
