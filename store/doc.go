// Package store provides a SQLite-backed document store with exact
// nearest-neighbour search over document embeddings.
//
// Documents live in the docs table. Searches build an immutable index from
// every stored embedding on first use; any write discards it and the next
// search rebuilds it as a whole.
package store
