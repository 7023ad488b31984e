// Package pipeline runs one heightmap job end to end: bounds discovery,
// validation, heightmap rasterisation, optional per-class layers, then the
// edge, binarise and closing stages that feed region probing.
//
// Run performs every fatal check before returning a Result, and it never
// writes files itself, so a failed run leaves no partial outputs behind.
// Failures are reported as *StageError naming the stage and the input path.
package pipeline
