package l1points

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// RecordSize is the width of one encoded point: float32 x, y, z followed by
// an int32 classifier, all little-endian.
const RecordSize = 16

// ErrTruncatedRecord is reported when the input ends part-way through a
// record. The partial bytes are never decoded into a point.
var ErrTruncatedRecord = errors.New("truncated point record")

// Point3D is a single LiDAR return. Points exist only for the duration of
// a stream pass and are never stored in bulk.
type Point3D struct {
	X, Y, Z float32
	Class   int32 // return type classifier (first surface, vegetation, ...)
}

// DecodeRecord decodes one RecordSize-byte record.
func DecodeRecord(b []byte) (Point3D, error) {
	if len(b) < RecordSize {
		return Point3D{}, fmt.Errorf("%w: have %d of %d bytes", ErrTruncatedRecord, len(b), RecordSize)
	}
	return Point3D{
		X:     math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		Y:     math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		Z:     math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		Class: int32(binary.LittleEndian.Uint32(b[12:16])),
	}, nil
}

// EncodeRecord writes p into b, which must hold at least RecordSize bytes.
func EncodeRecord(b []byte, p Point3D) {
	_ = b[RecordSize-1]
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(p.X))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(p.Y))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(p.Z))
	binary.LittleEndian.PutUint32(b[12:16], uint32(p.Class))
}

// Finite reports whether x, y and z are all finite. NaN or infinite
// coordinates cannot be placed in a grid and are skipped by consumers.
func (p Point3D) Finite() bool {
	for _, v := range [3]float32{p.X, p.Y, p.Z} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Stats summarises one pass over a point stream.
type Stats struct {
	Points         int64 // complete records decoded
	TruncatedBytes int   // bytes of a discarded partial trailing record
}

// Truncated reports whether the pass discarded a partial trailing record.
func (s Stats) Truncated() bool { return s.TruncatedBytes > 0 }
