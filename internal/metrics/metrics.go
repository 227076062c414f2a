package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP метрики
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Webhook метрики
	WebhookUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_total",
			Help: "Telegram updates received on the webhook",
		},
		[]string{"result"},
	)

	// Bridge метрики
	BridgeUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_units_total",
			Help: "Units of work executed by the background worker",
		},
		[]string{"mode", "outcome"},
	)
	BridgeQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_queue_depth",
			Help: "Units queued for the background worker",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsInFlight)

	prometheus.MustRegister(WebhookUpdatesTotal)

	prometheus.MustRegister(BridgeUnitsTotal)
	prometheus.MustRegister(BridgeQueueDepth)

	// Стандартные метрики Go
	prometheus.MustRegister(prometheus.NewGoCollector())
	prometheus.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}
