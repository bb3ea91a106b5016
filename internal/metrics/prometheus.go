package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragdash_api_call_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	APICallTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdash_api_call_total",
			Help: "Backend API calls by outcome",
		},
		[]string{"operation", "outcome"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdash_query_total",
			Help: "Submitted questions by status",
		},
		[]string{"status"},
	)

	CitationsPerAnswer = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragdash_citations_per_answer",
			Help:    "Number of source citations attached to each answer",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	UploadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdash_upload_total",
			Help: "Document uploads by status",
		},
		[]string{"status"},
	)

	TranscriptCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdash_transcript_cache_total",
			Help: "Transcript cache lookups by result",
		},
		[]string{"result"},
	)

	ActivityPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragdash_activity_persisted_total",
			Help: "Activity events handled by the persist worker",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(APICallDuration)
		prometheus.MustRegister(APICallTotal)
		prometheus.MustRegister(QueryTotal)
		prometheus.MustRegister(CitationsPerAnswer)
		prometheus.MustRegister(UploadTotal)
		prometheus.MustRegister(TranscriptCache)
		prometheus.MustRegister(ActivityPersisted)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
