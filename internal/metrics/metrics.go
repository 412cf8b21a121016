// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SyncCreateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_create_total",
			Help: "Cumulative number of user create events applied.",
		})

	SyncUpdateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_update_total",
			Help: "Cumulative number of user update events applied.",
		})

	SyncDeleteTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_delete_total",
			Help: "Cumulative number of tenant detach events applied.",
		})

	SyncErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Cumulative number of events that failed before commit.",
		})

	CacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hit_total",
			Help: "Cumulative number of reads served from the projection cache.",
		})

	CacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_miss_total",
			Help: "Cumulative number of reads that fell through to the store.",
		})

	CacheErrorTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_error_total",
			Help: "Cumulative number of swallowed cache I/O failures.",
		})

	CacheEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_evict_total",
			Help: "Cumulative number of explicit projection evictions.",
		})
)

func init() {
	prometheus.MustRegister(
		SyncCreateTotal,
		SyncUpdateTotal,
		SyncDeleteTotal,
		SyncErrorsTotal,
		CacheHitTotal,
		CacheMissTotal,
		CacheErrorTotal,
		CacheEvictTotal,
	)
}
