// Package l1points owns Layer 1 (Points) of the heightmap data model.
//
// Responsibilities: decoding the flat 16-byte point record format,
// iterating a point file as a lazy non-restartable stream, and converting
// ASC text exports into the binary record format.
// Key types: Point3D, Reader, Source, Stats.
//
// Dependency rule: L1 depends on nothing above it. No coordinate range
// validation, filtering or transformation happens here.
package l1points
