package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("records observations", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg, "")

		m.ObserveGateway(OutcomeDispatched, 10*time.Millisecond)
		m.ObserveGateway(OutcomeDispatched, 10*time.Millisecond)
		m.ObserveCache(true)
		m.ObserveCache(false)
		m.ObserveCache(false)
		m.ObserveUpstream("token_security", 200, time.Second)
		m.ObserveUpstream("token_security", 0, time.Second)
		m.ObserveMessage("text", nil)
		m.ObserveMessage("interactive", errors.New("x"))
		m.ObserveCommand("report")
		m.ObserveChainFallback()

		assert.Equal(t, 2.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues(OutcomeDispatched)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("token_security", "2xx")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("token_security", "transport_error")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("interactive", "error")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsHandled.WithLabelValues("report")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainFallbacks))
	})

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.ObserveGateway(OutcomeError, time.Second)
			m.ObserveCache(true)
			m.ObserveUpstream("x", 500, time.Second)
			m.ObserveMessage("text", nil)
			m.ObserveCommand("x")
			m.ObserveChainFallback()
		})
	})

	t.Run("handler exposes namespaced metrics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg, "")
		m.ObserveCache(true)

		rec := httptest.NewRecorder()
		Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "safebot_query_cache_lookups_total")
	})
}

func TestStatusLabel(t *testing.T) {
	tests := map[int]string{
		0:   "transport_error",
		200: "2xx",
		302: "3xx",
		403: "4xx",
		503: "5xx",
		100: "unknown",
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusLabel(code), "code %d", code)
	}
}
