package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurosense_analyses_total",
		Help: "Analyses performed, by outcome",
	}, []string{"outcome"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neurosense_analysis_duration_seconds",
		Help:    "Time spent decoding and analyzing one session",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	SessionEvents = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neurosense_session_events",
		Help:    "Usable keystrokes per analyzed session",
		Buckets: prometheus.ExponentialBuckets(8, 2, 10),
	})

	SessionSpeed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neurosense_session_speed_wpm",
		Help:    "Typing speed of analyzed sessions",
		Buckets: []float64{10, 20, 30, 40, 50, 60, 80, 100, 130, 160},
	})

	PatternsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurosense_patterns_total",
		Help: "Pattern labels reported, by label",
	}, []string{"pattern"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurosense_http_requests_total",
		Help: "HTTP requests served, by route and status code",
	}, []string{"route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neurosense_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neurosense_live_connections",
		Help: "Open live analysis websocket connections",
	})

	HistoryWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neurosense_history_write_errors_total",
		Help: "Analyses that could not be saved to history",
	})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurosense_config_reloads_total",
		Help: "Config file reloads, by result",
	}, []string{"result"})
)

// Outcome labels for AnalysesTotal.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// ObserveSession records the shape of one successful analysis.
func ObserveSession(events int, speed float64, patterns []string) {
	AnalysesTotal.WithLabelValues(OutcomeOK).Inc()
	SessionEvents.Observe(float64(events))
	SessionSpeed.Observe(speed)
	for _, p := range patterns {
		PatternsDetected.WithLabelValues(p).Inc()
	}
}
