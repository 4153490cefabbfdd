package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	MovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relo_moves_total",
		Help: "Total number of move operations, by outcome.",
	}, []string{"outcome"})

	MoveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relo_move_seconds",
		Help:    "Wall time of one move orchestration.",
		Buckets: prometheus.DefBuckets,
	})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relo_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesRewritten = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relo_files_rewritten_per_move",
		Help:    "Number of consumer files rewritten per move.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	RewriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relo_rewrite_failures_total",
		Help: "Total number of per-file import rewrites that degraded to a warning.",
	})

	RemovalTierTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relo_removal_tier_total",
		Help: "Source removals by the strategy tier that finally applied.",
	}, []string{"tier"})

	GraphCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relo_graph_cache_invalidations_total",
		Help: "Total number of import-graph cache invalidations.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relo_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
