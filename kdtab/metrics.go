package kdtab

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	indexBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kd_index_builds_total",
			Help: "Total number of dataset indexes built",
		},
		[]string{"kind"},
	)
	indexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kd_index_build_duration_seconds",
			Help:    "Dataset index build latency",
			Buckets: prometheus.DefBuckets,
		},
	)
	cacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kd_cache_invalidations_total",
			Help: "Total number of cached dataset indexes dropped by writes",
		},
	)
	queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kd_queries_total",
			Help: "Total number of kd table scans by mode",
		},
		[]string{"mode"},
	)
)

// RegisterMetrics registers the kd table collectors with reg. Collectors
// that are already registered are left in place.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{indexBuilds, indexBuildDuration, cacheInvalidations, queries} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}
