package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewPrometheusCollector()

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.connections))

	c.SignalRelayed("offer", 3, 1)
	c.SignalRelayed("offer", 2, 0)
	assert.Equal(t, 5.0, testutil.ToFloat64(c.signalsRelayed.WithLabelValues("offer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.signalsDropped.WithLabelValues("offer")))

	c.RequestRejected("message")
	c.RequestCompleted("message", "ok", 120*time.Millisecond)
	c.RequestCompleted("message", "provider_error", time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsRejected.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("message", "provider_error")))

	c.SynthesisCompleted("ok", time.Second, 2048)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.synthesis.WithLabelValues("ok")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewPrometheusCollector()
	b := NewPrometheusCollector()
	a.ConnectionOpened()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.activeConnections))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewPrometheusCollector()
	c.ConnectionOpened()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "assist_active_connections 1")
}
