package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
)

// WriteCellsASC writes every non-empty raster cell as a CloudCompare ASC
// point: the cell centre in world X/Y, the intensity mapped back to a
// world Z, and the raw intensity. The output reads back through
// l1points.ConvertASC, with the intensity landing in the class column.
func WriteCellsASC(w io.Writer, r *l3raster.Raster, box l2bounds.BoundingBox3D) (int, error) {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported heightmap cells (%dx%d)\n", r.Width, r.Height)
	fmt.Fprintf(bw, "# Format: X Y Z Intensity\n")

	cellW := float64(box.DeltaX()) / float64(r.Width)
	cellH := float64(box.DeltaY()) / float64(r.Height)
	n := 0
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.At(x, y)
			if v == 0 {
				continue
			}
			wx := float64(box.MinX) + (float64(x)+0.5)*cellW
			wy := float64(box.MinY) + (float64(y)+0.5)*cellH
			wz := float64(box.MinZ) + float64(v)/255*float64(box.DeltaZ())
			fmt.Fprintf(bw, "%.6f %.6f %.6f %d\n", wx, wy, wz, v)
			n++
		}
	}
	return n, bw.Flush()
}

// WriteCellsASCFile writes WriteCellsASC output to path.
func WriteCellsASCFile(fsys fsutil.FileSystem, path string, r *l3raster.Raster, box l2bounds.BoundingBox3D) (int, error) {
	var n int
	err := fsutil.WriteAtomic(fsys, path, func(w io.Writer) error {
		var err error
		n, err = WriteCellsASC(w, r, box)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}
