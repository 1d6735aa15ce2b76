package kd

import (
	"log/slog"

	"github.com/viant/sqlite-kd/kdtree"
)

// Option configures an Index.
type Option func(*Index)

// WithDistance sets the metric; squared Euclidean is used when unset.
func WithDistance(distance kdtree.DistanceFunction) Option {
	return func(i *Index) {
		if distance != "" {
			i.distance = distance
		}
	}
}

// WithLogger sets the logger passed to tree construction.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}
