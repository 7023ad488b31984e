// Package monitor serves a finished run over HTTP and is the UI boundary
// for interactive region probing: clicks arrive as requests, are applied
// to a single mutex-guarded Probe, and the painted raster is served back.
package monitor
