package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveToolCall(t *testing.T) {
	m := New()

	m.ObserveToolCall("add_expense", StatusOK, 10*time.Millisecond)
	m.ObserveToolCall("add_expense", StatusOK, 20*time.Millisecond)
	m.ObserveToolCall("add_expense", StatusError, time.Millisecond)
	m.ObserveToolCall("net_summary", StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("add_expense", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("add_expense", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("net_summary", StatusOK)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.toolDuration))
}

func TestRecordRateLimited(t *testing.T) {
	m := New()
	m.RecordRateLimited()
	m.RecordRateLimited()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimited))
}

func TestTrackRateLimitClients(t *testing.T) {
	m := New()
	clients := 3
	require.NoError(t, m.TrackRateLimitClients(func() int { return clients }))

	expected := `
# HELP http_rate_limit_clients Clients currently tracked by the per-client rate limiter.
# TYPE http_rate_limit_clients gauge
http_rate_limit_clients 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_rate_limit_clients"))

	clients = 5
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(strings.Replace(expected, " 3\n", " 5\n", 1)), "http_rate_limit_clients"))

	assert.Error(t, m.TrackRateLimitClients(func() int { return 0 }), "second source must be rejected")
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveToolCall("list_income", StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tool_calls_total{status="ok",tool="list_income"} 1`)
	assert.Contains(t, string(body), "tool_call_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}
