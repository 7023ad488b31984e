// Command asc2bin converts a text point export ("x y z [class]" per line)
// into the binary record format read by heightmap.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/heightmap/internal/fsutil"
	"github.com/banshee-data/heightmap/internal/heightmap/l1points"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <in.asc> <out.bin>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	stats, err := convertFile(fsutil.OSFileSystem{}, flag.Arg(0), flag.Arg(1))
	if err != nil {
		log.Fatalf("asc2bin: %v", err)
	}
	log.Printf("wrote %d points to %s (%d lines read, %d skipped)", stats.Points, flag.Arg(1), stats.Lines, stats.Skipped)
}

func convertFile(fsys fsutil.FileSystem, in, out string) (l1points.ConvertStats, error) {
	if in == out {
		return l1points.ConvertStats{}, fmt.Errorf("input and output are the same file: %s", in)
	}
	f, err := fsys.Open(in)
	if err != nil {
		return l1points.ConvertStats{}, fmt.Errorf("open %s: %w", in, err)
	}
	defer f.Close()

	var stats l1points.ConvertStats
	err = fsutil.WriteAtomic(fsys, out, func(w io.Writer) error {
		var err error
		stats, err = l1points.ConvertASC(f, w)
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("convert %s: %w", in, err)
	}
	if stats.Points == 0 {
		log.Printf("warning: %s contained no points", in)
	}
	return stats, nil
}
