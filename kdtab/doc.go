// Package kdtab implements the kd SQLite virtual table: exact k-nearest and
// radius-bounded nearest-neighbour search over embeddings stored in a
// per-table shadow table.
//
//	CREATE VIRTUAL TABLE places USING kd(value, distance=l2sq, index=auto);
//	SELECT value, distance FROM places
//	WHERE dataset_id = 'cities' AND value MATCH '[4,-4]' AND k = 3 AND radius = 10;
//
// Rows live in the shadow table _kd_<table>(dataset_id, id, content, meta,
// embedding). Each dataset gets its own immutable index, built on first
// MATCH and cached per process; shadow triggers call kd_invalidate so any
// write discards the cached index and the next query rebuilds it.
//
// Table options:
//   - distance: l2sq (default), l2, l1 or linf; reported distances use it
//   - index: auto (default), kd or brute
//   - auto_min_docs, auto_max_dim: thresholds for index=auto
//
// The radius constraint is given in coordinate units for every metric.
package kdtab
