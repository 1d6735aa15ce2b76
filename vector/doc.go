// Package vector provides point adapters and the embedding codec used by
// this module:
//   - Float32s, Float64s and the generic Vector point types for kdtree
//   - stock metrics backed by viant/vec (float32) and gonum (float64)
//   - embedding encoding (BLOB) and MATCH argument parsing
package vector
