// Package l4regions owns Layer 4 (Regions) of the heightmap data model.
//
// Responsibilities: binarising rasters, edge detection through a pluggable
// detector, 3x3 binary morphology, and interactive region growing (flood
// fill) from a seed pixel.
// Key types: CellState, RGBRaster, GrowResult, Region, Probe, EdgeDetector.
//
// Dependency rule: L4 may depend on L1-L3. It never reads point files; it
// only transforms rasters that L3 (or an external detector) produced.
package l4regions
