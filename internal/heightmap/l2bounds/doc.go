// Package l2bounds owns Layer 2 (Bounds) of the heightmap data model.
//
// Responsibilities: single-pass bounding box discovery over a point stream
// and detection of empty or degenerate boxes before any binning happens.
// Key types: BoundingBox3D, Scanner.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2bounds
