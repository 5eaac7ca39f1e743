package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the room recall service.
type Metrics struct {
	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Audio ingestion metrics
	TranscriptionRequests prometheus.Counter
	TranscriptionFailures prometheus.Counter
	AudioChunksStored     prometheus.Counter

	// Retrieval metrics
	QuestionsAnswered   prometheus.Counter
	QuestionsUnanswered prometheus.Counter
	RetrievedChunks     prometheus.Histogram
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roomrecall_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomrecall_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomrecall_transcription_requests_total",
			Help: "Total number of audio transcription requests",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomrecall_transcription_failures_total",
			Help: "Total number of failed audio transcription requests",
		}),
		AudioChunksStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomrecall_audio_chunks_stored_total",
			Help: "Total number of audio chunks persisted",
		}),

		QuestionsAnswered: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomrecall_questions_answered_total",
			Help: "Total number of questions answered with retrieved context",
		}),
		QuestionsUnanswered: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomrecall_questions_unanswered_total",
			Help: "Total number of questions with no context above the similarity threshold",
		}),
		RetrievedChunks: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "roomrecall_retrieved_chunks",
			Help:    "Number of context chunks retrieved per question",
			Buckets: []float64{0, 1, 2, 3},
		}),
	}
}
