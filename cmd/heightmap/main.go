package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/heightmap/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to a tuning config file (.json, .yaml or .yml)")
	classesFlag = flag.String("classes", "", "Comma-separated classifier ids to rasterise as separate layers (overrides config)")
	edges       = flag.Bool("edges", false, "Run edge detection, binarisation and closing; writes <out>_edges")
	convert     = flag.Bool("convert", false, "Rebuild <points.bin> from the text descriptor before the run")
	plots       = flag.Bool("plot", false, "Write heat map and histogram plots next to the output")
	htmlReport  = flag.Bool("html", false, "Write an interactive HTML heat map next to the output")
	ascCells    = flag.Bool("asc", false, "Export non-empty cells as an ASC point file next to the output")
	dbFile      = flag.String("db", "", "Record the run in this SQLite catalogue")
	probes      = flag.String("probe", "", "Seed points to grow, as x,y pairs separated by ';' (e.g. \"10,4;3,7\")")
	serve       = flag.String("serve", "", "Serve the interactive probe UI on this address after the run (e.g. localhost:8082)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <descriptor> <points.bin> <out.png>\n\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("heightmap %s\n", version.String())
		return
	}
	if flag.NArg() < 3 {
		usage()
		os.Exit(2)
	}

	job := Job{
		DescriptorPath: flag.Arg(0),
		PointsPath:     flag.Arg(1),
		OutPath:        flag.Arg(2),
		ConfigPath:     *configFile,
		Classes:        *classesFlag,
		Edges:          *edges,
		Convert:        *convert,
		Plots:          *plots,
		HTML:           *htmlReport,
		ASC:            *ascCells,
		DBPath:         *dbFile,
		Probes:         *probes,
		ServeAddr:      *serve,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := RunJob(ctx, job)
	if err != nil {
		log.Fatalf("heightmap: %v", err)
	}
	for _, path := range report.Written {
		fmt.Println(path)
	}
}
