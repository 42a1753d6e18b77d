package metrics

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Begin(t *testing.T) {
	withServiceName(t, "proxy")
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry("test", reg)

	done := m.Begin()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InFlight.WithLabelValues("proxy")))

	done("/api/auth/send-otp", "POST", 429, 42)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight.WithLabelValues("proxy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("proxy", "/api/auth/send-otp", "POST", "429")))

	n, err := testutil.GatherAndCount(reg, "test_http_request_duration_seconds", "test_http_response_size_bytes")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHTTPMetrics_NilReceiver(t *testing.T) {
	var m *HTTPMetrics
	assert.NotPanics(t, func() {
		m.Begin()("/", "GET", 200, 0)
	})
}

func TestRouteSet(t *testing.T) {
	routes := newRouteSet(2)

	assert.Equal(t, "/a", routes.label("/a"))
	assert.Equal(t, "/b", routes.label("/b"))
	assert.Equal(t, "other", routes.label("/c"))
	assert.Equal(t, "/a", routes.label("/a"))
	assert.Equal(t, "unknown", routes.label(""))
	assert.Equal(t, 2, routes.size())
}

func TestRouteSet_Concurrent(t *testing.T) {
	routes := newRouteSet(10)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			routes.label(fmt.Sprintf("/p/%d", i%20))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, routes.size())
}
