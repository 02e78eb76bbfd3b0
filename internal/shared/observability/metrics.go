package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesWalkedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "protoscan_files_walked_total",
		Help: "Total number of source files yielded by the walker.",
	})

	FilesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "protoscan_files_skipped_total",
		Help: "Total number of files skipped by the quick-skip heuristic.",
	})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protoscan_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protoscan_parse_errors_total",
		Help: "Total number of files that failed to parse cleanly.",
	}, []string{"language"})

	ProtocolsExtracted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "protoscan_protocols_total",
		Help: "Number of protocol declarations extracted in the last run.",
	})

	DuplicateGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "protoscan_duplicate_groups",
		Help: "Number of accepted duplicate groups in the last run.",
	})

	NameConflicts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "protoscan_name_conflicts",
		Help: "Number of accepted name conflicts in the last run.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protoscan_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "protoscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "protoscan_rescans_total",
		Help: "Total number of watch-mode rescans triggered.",
	})
)
