package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "insight", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "insight", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "insight", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "insight", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "insight", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "insight", Name: "pipeline_runs_total", Help: "Dashboard render cycles by section and outcome."},
		[]string{"section", "outcome"}, // outcome: ok|no_data|error
	)
	ClassifiedReviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "insight", Name: "classified_reviews_total", Help: "Reviews classified, by sentiment label."},
		[]string{"label"},
	)
	ClassifyBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "insight", Name: "classify_batch_size",
		Help:    "Texts per outbound classifier request.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Serve exposes reg on a side listener; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		PipelineRuns, ClassifiedReviews, ClassifyBatchSize)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObservePipeline(section, outcome string) {
	PipelineRuns.WithLabelValues(section, outcome).Inc()
}

// ObserveClassifyBatch records the texts sent in one outbound classifier call.
func ObserveClassifyBatch(n int) {
	ClassifyBatchSize.Observe(float64(n))
}

// ObserveClassified records the labels of one rendered cycle, cache hits included.
func ObserveClassified(counts map[string]int) {
	for label, n := range counts {
		ClassifiedReviews.WithLabelValues(label).Add(float64(n))
	}
}
