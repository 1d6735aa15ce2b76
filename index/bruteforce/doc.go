// Package bruteforce provides an exact vector index that answers kNN and
// radius queries by scanning all vectors. It shares the k-d tree's metrics,
// which makes it both the small-set fallback and the reference the tree is
// tested against.
package bruteforce
