package l1points

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/heightmap/internal/monitoring"
)

// ConvertStats describes one ASC conversion.
type ConvertStats struct {
	Lines   int // lines read, including comments and blanks
	Points  int // records written
	Skipped int // malformed lines
}

// ConvertASC reads a whitespace-separated text export ("x y z [class]" per
// line, as written by CloudCompare-style ASC exporters) and writes binary
// records to w. Blank lines and lines starting with '#' or "//" are ignored.
// Lines that do not parse are skipped and counted.
func ConvertASC(r io.Reader, w io.Writer) (ConvertStats, error) {
	var stats ConvertStats
	pw := NewWriter(w)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)

	for sc.Scan() {
		stats.Lines++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		p, err := parseASCLine(line)
		if err != nil {
			stats.Skipped++
			if stats.Skipped <= 5 {
				monitoring.Logf("[asc] line %d skipped: %v", stats.Lines, err)
			}
			continue
		}
		if err := pw.Write(p); err != nil {
			return stats, fmt.Errorf("write record: %w", err)
		}
		stats.Points++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("scan ASC input: %w", err)
	}
	if err := pw.Flush(); err != nil {
		return stats, fmt.Errorf("flush records: %w", err)
	}
	return stats, nil
}

func parseASCLine(line string) (Point3D, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';'
	})
	if len(fields) < 3 {
		return Point3D{}, fmt.Errorf("expected at least 3 columns, got %d", len(fields))
	}
	var xyz [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return Point3D{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		xyz[i] = float32(v)
	}
	p := Point3D{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	if len(fields) >= 4 {
		c, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			// Some exporters write the classifier as a float ("2.000000").
			f, ferr := strconv.ParseFloat(fields[3], 64)
			if ferr != nil {
				return Point3D{}, fmt.Errorf("column 4: %w", err)
			}
			c = int64(f)
		}
		p.Class = int32(c)
	}
	return p, nil
}
