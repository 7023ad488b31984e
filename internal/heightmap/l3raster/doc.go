// Package l3raster owns Layer 3 (Raster) of the heightmap data model.
//
// Responsibilities: binning a point stream into a dense accumulator grid
// sized from the bounding box, reducing each cell to an 8-bit intensity,
// and producing independent per-classifier layers.
// Key types: AccumulatorGrid, Raster, Rasterizer, Stats.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
//
// Known quirks, kept for output compatibility: the y axis is not flipped
// (world origin bottom-left, raster origin top-left), and cells with no
// points stay at intensity 0 rather than being interpolated.
package l3raster
