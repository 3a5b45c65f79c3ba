// Package observability provides Prometheus metrics for the bot.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "safebot"

// Gateway outcomes.
const (
	OutcomeHandshake     = "handshake"
	OutcomeTokenRejected = "token_rejected"
	OutcomeDedupSkipped  = "dedup_skipped"
	OutcomeDispatched    = "dispatched"
	OutcomeMalformed     = "malformed"
	OutcomeError         = "error"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Command metrics
	CommandsHandled *prometheus.CounterVec
	MessagesSent    *prometheus.CounterVec

	// Query metrics
	CacheLookups     *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Registry metrics
	ChainFallbacks prometheus.Counter
}

// NewMetrics registers all collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Webhook requests by outcome",
		}, []string{"outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Webhook request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		CommandsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Chat commands by result",
		}, []string{"result"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "messages_sent_total",
			Help:      "Outbound chat messages by type and status",
		}, []string{"msg_type", "status"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "cache_lookups_total",
			Help:      "Security report cache lookups by result",
		}, []string{"result"}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Security API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Security API request latency",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		ChainFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chains",
			Name:      "fallback_total",
			Help:      "Times the built-in chain list replaced the live one",
		}),
	}
}

// ObserveGateway records one webhook request.
func (m *Metrics) ObserveGateway(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(outcome).Inc()
	m.GatewayDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveCommand records a handled chat command.
func (m *Metrics) ObserveCommand(result string) {
	if m == nil {
		return
	}
	m.CommandsHandled.WithLabelValues(result).Inc()
}

// ObserveMessage records an outbound chat message.
func (m *Metrics) ObserveMessage(msgType string, err error) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(msgType, errLabel(err)).Inc()
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveUpstream records one security API call.
func (m *Metrics) ObserveUpstream(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, StatusLabel(status)).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveChainFallback records a fallback substitution.
func (m *Metrics) ObserveChainFallback() {
	if m == nil {
		return
	}
	m.ChainFallbacks.Inc()
}

// StatusLabel buckets an HTTP status. Zero means the request never got a response.
func StatusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	case code == 0:
		return "transport_error"
	default:
		return "unknown"
	}
}

func errLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves metrics gathered from g, or the default gatherer when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
