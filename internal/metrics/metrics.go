package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecommendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_recommend_requests_total",
		Help: "Recommendation requests by outcome",
	}, []string{"outcome"})

	RecommendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_recommend_latency_seconds",
		Help:    "Latency of the recommendation endpoint",
		Buckets: prometheus.DefBuckets,
	})

	ExplanationCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_explanation_cache_lookups_total",
		Help: "Explanation cache lookups by result",
	}, []string{"result"})

	LLMFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_llm_fallback_total",
		Help: "How many times the fallback model served an explanation",
	})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(RecommendRequests, RecommendDuration, ExplanationCacheLookups, LLMFallbackTotal)
	})
}

// ObserveCacheLookup counts one explanation cache lookup.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ExplanationCacheLookups.WithLabelValues(result).Inc()
}

func ObserveFallback() {
	LLMFallbackTotal.Inc()
}
