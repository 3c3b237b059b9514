package adapters

import (
	"generate-love-video/application/ports/outbound"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	jobsStarted   prometheus.Counter
	jobsFinished  *prometheus.CounterVec
	scenesSettled *prometheus.CounterVec
	providerCalls *prometheus.HistogramVec
}

func NewPrometheusMetrics() outbound.MetricsPort {
	return &prometheusMetrics{
		jobsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "love_video_jobs_started_total",
			Help: "Number of generation jobs accepted.",
		}),
		jobsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "love_video_jobs_finished_total",
			Help: "Number of generation jobs reaching a terminal status.",
		}, []string{"status"}),
		scenesSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "love_video_scenes_settled_total",
			Help: "Number of scene attempts settled.",
		}, []string{"outcome"}),
		providerCalls: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "love_video_provider_call_seconds",
			Help:    "Wall time of provider generation calls.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"provider", "failed"}),
	}
}

func (m *prometheusMetrics) JobStarted() {
	m.jobsStarted.Inc()
}

func (m *prometheusMetrics) JobFinished(status string) {
	m.jobsFinished.WithLabelValues(status).Inc()
}

func (m *prometheusMetrics) SceneSettled(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.scenesSettled.WithLabelValues(outcome).Inc()
}

func (m *prometheusMetrics) ProviderCall(provider string, seconds float64, failed bool) {
	label := "false"
	if failed {
		label = "true"
	}
	m.providerCalls.WithLabelValues(provider, label).Observe(seconds)
}
