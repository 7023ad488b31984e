package l2bounds

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

var (
	// ErrEmptyInput means the stream held no complete records, so no raster
	// can be sized.
	ErrEmptyInput = errors.New("no points in input")
	// ErrDegenerateBounds means an axis has zero extent, which would divide
	// by zero during binning or normalisation.
	ErrDegenerateBounds = errors.New("degenerate bounding box")
)

// BoundingBox3D is the per-axis extent of a point stream. It is computed
// once per source and treated as read-only by every later stage.
type BoundingBox3D struct {
	MinX, MaxX float32
	MinY, MaxY float32
	MinZ, MaxZ float32
}

func (b BoundingBox3D) DeltaX() float32 { return b.MaxX - b.MinX }
func (b BoundingBox3D) DeltaY() float32 { return b.MaxY - b.MinY }
func (b BoundingBox3D) DeltaZ() float32 { return b.MaxZ - b.MinZ }

// Validate returns ErrDegenerateBounds naming the first axis whose extent is
// zero (or not a finite positive number).
func (b BoundingBox3D) Validate() error {
	axes := []struct {
		name  string
		delta float32
	}{
		{"x", b.DeltaX()},
		{"y", b.DeltaY()},
		{"z", b.DeltaZ()},
	}
	for _, a := range axes {
		d := float64(a.delta)
		if !(d > 0) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: delta_%s = %g", ErrDegenerateBounds, a.name, d)
		}
	}
	return nil
}

func (b BoundingBox3D) String() string {
	return fmt.Sprintf("x[%f, %f] y[%f, %f] z[%f, %f]", b.MinX, b.MaxX, b.MinY, b.MaxY, b.MinZ, b.MaxZ)
}

// Scanner accumulates a bounding box one point at a time.
type Scanner struct {
	box       BoundingBox3D
	count     int64
	nonFinite int64
}

// NewScanner returns a Scanner whose minima start at +Inf and maxima at
// -Inf, so streams where every coordinate is negative are handled.
func NewScanner() *Scanner {
	inf := float32(math.Inf(1))
	return &Scanner{box: BoundingBox3D{
		MinX: inf, MaxX: -inf,
		MinY: inf, MaxY: -inf,
		MinZ: inf, MaxZ: -inf,
	}}
}

// Add widens the box to include p. Points with a NaN or infinite
// coordinate are counted and otherwise ignored.
func (s *Scanner) Add(p l1points.Point3D) {
	if !p.Finite() {
		s.nonFinite++
		return
	}
	s.count++
	s.box.MinX = min(s.box.MinX, p.X)
	s.box.MaxX = max(s.box.MaxX, p.X)
	s.box.MinY = min(s.box.MinY, p.Y)
	s.box.MaxY = max(s.box.MaxY, p.Y)
	s.box.MinZ = min(s.box.MinZ, p.Z)
	s.box.MaxZ = max(s.box.MaxZ, p.Z)
}

// Count returns the number of points that widened the box.
func (s *Scanner) Count() int64 { return s.count }

// NonFinite returns the number of points skipped for NaN or infinite
// coordinates.
func (s *Scanner) NonFinite() int64 { return s.nonFinite }

// Result returns the accumulated box, or ErrEmptyInput if no finite point
// was added.
func (s *Scanner) Result() (BoundingBox3D, error) {
	if s.count == 0 {
		if s.nonFinite > 0 {
			return BoundingBox3D{}, fmt.Errorf("%w: all %d points have non-finite coordinates", ErrEmptyInput, s.nonFinite)
		}
		return BoundingBox3D{}, ErrEmptyInput
	}
	return s.box, nil
}

// Scan performs one full pass over src and returns its bounding box. The box
// is not validated for degeneracy here; callers decide when to Validate.
// With strict set, a partial trailing record fails the scan.
func Scan(src l1points.Source, strict bool) (BoundingBox3D, l1points.Stats, error) {
	pass := l1points.ForEach
	if strict {
		pass = l1points.ForEachStrict
	}
	s := NewScanner()
	stats, err := pass(src, func(p l1points.Point3D) error {
		s.Add(p)
		return nil
	})
	if err != nil {
		return BoundingBox3D{}, stats, err
	}
	box, err := s.Result()
	if err != nil {
		return BoundingBox3D{}, stats, fmt.Errorf("%s: %w", src.Name(), err)
	}
	if n := s.NonFinite(); n > 0 {
		monitoring.Logf("[bounds] %s: skipped %d points with non-finite coordinates", src.Name(), n)
	}
	monitoring.Logf("[bounds] %s: %d points, %s", src.Name(), stats.Points, box)
	return box, stats, nil
}
