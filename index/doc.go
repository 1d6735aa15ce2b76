// Package index defines the id-keyed nearest-neighbour index used by the SQL
// layers: built once from (id, embedding) pairs and queried for the k nearest
// or the k nearest within a radius. Implementations in this module are a k-d
// tree (index/kd) and an exact linear scan (index/bruteforce).
package index
