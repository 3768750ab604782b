package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus metric set. Each Server owns
// its own registry, so tests can build servers freely.
type Metrics struct {
	registry *prometheus.Registry

	MessagesTotal    prometheus.Counter
	RepliesTotal     prometheus.Counter
	OutcomesTotal    *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
	ProbeSuccess     prometheus.Gauge
}

// NewMetrics creates and registers the metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "echoreply_messages_total",
			Help: "Total number of inbound messages received.",
		}),
		RepliesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "echoreply_replies_total",
			Help: "Total number of replies sent.",
		}),
		OutcomesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echoreply_outcomes_total",
			Help: "Message handling outcomes.",
		}, []string{"outcome"}),
		RateLimitedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "echoreply_rate_limited_total",
			Help: "Replies suppressed by the rate limiter.",
		}),
		ProbeSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "echoreply_probe_success",
			Help: "Result of the most recent provider connection probe (1 = success).",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
