package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueriesExecuted counts timed query repetitions, by measurement label.
var QueriesExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "skipbench",
	Name:      "queries_executed_total",
	Help:      "Total number of timed query repetitions executed, by measurement label.",
}, []string{"label"})

// QueryFailures counts repetitions that failed or timed out.
var QueryFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "skipbench",
	Name:      "query_failures_total",
	Help:      "Total number of query repetitions that failed or timed out.",
})

// ComparisonsCompleted counts comparisons that produced a summary.
var ComparisonsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "skipbench",
	Name:      "comparisons_completed_total",
	Help:      "Total number of benchmark comparisons that completed.",
})

// PartitionFilesMatched counts files that survived pruning across all
// counted tables.
var PartitionFilesMatched = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "skipbench",
	Name:      "partition_files_matched_total",
	Help:      "Total number of data files a pruning-aware reader would open.",
})

// PartitionFilesTotal counts files observed across all counted tables.
var PartitionFilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "skipbench",
	Name:      "partition_files_total",
	Help:      "Total number of data files observed under counted tables.",
})

// Init registers all metrics with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		QueriesExecuted,
		QueryFailures,
		ComparisonsCompleted,
		PartitionFilesMatched,
		PartitionFilesTotal,
	)
}
