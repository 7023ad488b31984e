package l1points

import (
	"bufio"
	"io"
)

// Writer encodes points into the binary record format.
type Writer struct {
	bw    *bufio.Writer
	buf   [RecordSize]byte
	count int64
}

// NewWriter returns a Writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write appends one record.
func (w *Writer) Write(p Point3D) error {
	EncodeRecord(w.buf[:], p)
	if _, err := w.bw.Write(w.buf[:]); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int64 { return w.count }

// Flush writes any buffered records to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

// WritePoints encodes all points to w.
func WritePoints(w io.Writer, points []Point3D) error {
	pw := NewWriter(w)
	for _, p := range points {
		if err := pw.Write(p); err != nil {
			return err
		}
	}
	return pw.Flush()
}
