package l1points

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

// Reader decodes Point3D values from a byte stream. It is lazy and cannot
// be rewound; open the Source again for another pass.
type Reader struct {
	br        *bufio.Reader
	buf       [RecordSize]byte
	points    int64
	truncated int
	done      bool
}

// NewReader wraps r in a buffered record reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*RecordSize)}
}

// Next returns the next point. At a clean end of input it returns io.EOF.
// If the input ends inside a record, Next returns ErrTruncatedRecord once
// (the partial bytes are discarded) and io.EOF on every later call.
func (r *Reader) Next() (Point3D, error) {
	if r.done {
		return Point3D{}, io.EOF
	}
	n, err := io.ReadFull(r.br, r.buf[:])
	switch {
	case err == nil:
		r.points++
		return DecodeRecord(r.buf[:])
	case errors.Is(err, io.EOF):
		r.done = true
		return Point3D{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		r.truncated = n
		return Point3D{}, fmt.Errorf("%w: %d trailing bytes discarded", ErrTruncatedRecord, n)
	default:
		r.done = true
		return Point3D{}, err
	}
}

// Stats returns what the reader has consumed so far.
func (r *Reader) Stats() Stats {
	return Stats{Points: r.points, TruncatedBytes: r.truncated}
}

// TruncatedBytes is the size of the discarded partial record, if any.
func (r *Reader) TruncatedBytes() int { return r.truncated }

// Source opens a fresh point stream for each pass. Bounds discovery and
// every rasterisation layer each take one pass.
type Source interface {
	Open() (io.ReadCloser, error)
	Name() string
}

// FileSource reads points from a path on a FileSystem.
type FileSource struct {
	FS   fsutil.FileSystem
	Path string
}

// NewFileSource returns a FileSource on the operating system filesystem.
func NewFileSource(path string) *FileSource {
	return &FileSource{FS: fsutil.OSFileSystem{}, Path: path}
}

// Open opens the point file. Errors name the offending path.
func (s *FileSource) Open() (io.ReadCloser, error) {
	fsys := s.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	f, err := fsys.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open point file %s: %w", s.Path, err)
	}
	return f, nil
}

// Name returns the path of the point file.
func (s *FileSource) Name() string { return s.Path }

// ForEach performs one full pass over src, calling fn for every complete
// record. A partial trailing record is discarded and logged but is not an
// error. An error from fn stops the pass and is returned unchanged.
func ForEach(src Source, fn func(Point3D) error) (Stats, error) {
	return forEach(src, fn, false)
}

// ForEachStrict is ForEach with a partial trailing record treated as a
// fatal ErrTruncatedRecord.
func ForEachStrict(src Source, fn func(Point3D) error) (Stats, error) {
	return forEach(src, fn, true)
}

func forEach(src Source, fn func(Point3D) error, strict bool) (Stats, error) {
	rc, err := src.Open()
	if err != nil {
		return Stats{}, err
	}
	defer rc.Close()

	r := NewReader(rc)
	for {
		p, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.Stats(), nil
			}
			if errors.Is(err, ErrTruncatedRecord) {
				if strict {
					return r.Stats(), fmt.Errorf("%s: %w", src.Name(), err)
				}
				monitoring.Logf("[points] %s: discarding %d trailing bytes (partial record)", src.Name(), r.TruncatedBytes())
				continue
			}
			return r.Stats(), fmt.Errorf("read %s: %w", src.Name(), err)
		}
		if err := fn(p); err != nil {
			return r.Stats(), err
		}
	}
}
