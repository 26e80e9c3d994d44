package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_index_jobs_total",
			Help: "Indexing jobs processed by final status",
		},
		[]string{"status"},
	)

	JobRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_index_job_retries_total",
			Help: "Indexing job attempts that failed and were requeued",
		},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_index_batch_duration_seconds",
			Help:    "Wall time of one worker batch run",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ReindexJobsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_reindex_jobs_created_total",
			Help: "Jobs created by reindex runs, by source type",
		},
		[]string{"source_type"},
	)

	TrendsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_trends_computed_total",
			Help: "Metric trends produced by the statistical engine",
		},
	)

	InsightsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_trend_items_written_total",
			Help: "Trend knowledge items written to the knowledge store",
		},
	)

	VerificationChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_verification_checks_total",
			Help: "Numeric grounding checks by outcome",
		},
		[]string{"verified"},
	)

	UngroundedTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_verification_ungrounded_tokens",
			Help:    "Ungrounded numbers found per verified response",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)
)

func Register() {
	prometheus.MustRegister(
		JobsProcessed,
		JobRetries,
		BatchDuration,
		ReindexJobsCreated,
		TrendsComputed,
		InsightsWritten,
		VerificationChecks,
		UngroundedTokens,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
