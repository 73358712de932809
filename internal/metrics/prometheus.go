package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraud_sms_remote_request_duration_seconds",
			Help:    "Classification service call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	RemoteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_sms_remote_errors_total",
			Help: "Classification service failures by operation and kind",
		},
		[]string{"operation", "kind"},
	)

	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_sms_checks_total",
			Help: "Completed SMS checks by outcome",
		},
		[]string{"outcome"},
	)

	ChecksByTier = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_sms_checks_by_risk_tier_total",
			Help: "Successful SMS checks by derived risk tier",
		},
		[]string{"tier"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraud_sms_confidence_percent",
			Help:    "Confidence reported by the classification service",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100},
		},
	)

	RejectedSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_sms_rejected_submissions_total",
			Help: "Submissions rejected before reaching the service",
		},
		[]string{"reason"},
	)

	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_sms_history_entries",
			Help: "Entries currently held in the check history",
		},
	)

	StoreSaveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_sms_history_save_failures_total",
			Help: "History persists that failed after retries",
		},
	)

	ModelMetricsFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_sms_model_metrics_fetches_total",
			Help: "Model metrics fetches by trigger and status",
		},
		[]string{"trigger", "status"},
	)

	ReportsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_sms_reports_generated_total",
			Help: "History reports generated",
		},
	)

	RateLimitedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_sms_rate_limited_requests_total",
			Help: "Requests refused by the rate limiter",
		},
		[]string{"method"},
	)
)

func Init() {
	prometheus.MustRegister(RemoteRequestDuration)
	prometheus.MustRegister(RemoteErrors)
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(ChecksByTier)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(RejectedSubmissions)
	prometheus.MustRegister(HistoryEntries)
	prometheus.MustRegister(StoreSaveFailures)
	prometheus.MustRegister(ModelMetricsFetches)
	prometheus.MustRegister(ReportsGenerated)
	prometheus.MustRegister(RateLimitedRequests)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
