package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domainpricing "homestay/internal/domain/pricing"
)

const namespace = "homestay"

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Bus metrics
var (
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_messages_total",
			Help:      "Commands and queries handled, by outcome",
		},
		[]string{"kind", "key", "outcome"},
	)

	messageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_message_duration_seconds",
			Help:      "Command and query handling time",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "key"},
	)
)

// Business metrics
var (
	quotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed, labelled with the failure kind or ok",
		},
		[]string{"outcome"},
	)

	couponRedemptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Coupon uses consumed by accepted bookings",
		},
	)

	outboxRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_relayed_total",
			Help:      "Outbox records published to the broker",
		},
		[]string{"topic", "status"},
	)
)

// Metrics adapts the process-wide collectors to the observer ports of the
// application and the outbox worker.
type Metrics struct{}

func (Metrics) ObserveMessage(kind, key, outcome string, elapsed time.Duration) {
	messagesTotal.WithLabelValues(kind, key, outcome).Inc()
	messageDuration.WithLabelValues(kind, key).Observe(elapsed.Seconds())
}

func (Metrics) ObserveQuote(kind domainpricing.Kind) {
	outcome := string(kind)
	if outcome == "" {
		outcome = "ok"
	}
	quotesTotal.WithLabelValues(outcome).Inc()
}

// ObserveRedemption is not labelled by host to keep cardinality flat.
func (Metrics) ObserveRedemption(string) {
	couponRedemptionsTotal.Inc()
}

func (Metrics) ObserveRelay(topic string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	outboxRelayedTotal.WithLabelValues(topic, status).Inc()
}
