// Package export writes run outputs: rasters in the format implied by the
// file extension, gonum/plot heatmaps and histograms, an interactive
// go-echarts HTML heatmap, and CloudCompare-style ASC cell exports.
//
// Every writer goes through fsutil.WriteAtomic, so a failed encode never
// leaves a partial file at the destination.
package export
