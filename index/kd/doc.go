// Package kd provides an id-keyed vector index backed by a k-d tree.
//
// The index is immutable once built; Build replaces the whole tree. Queries
// return exact results and may run concurrently.
package kd
