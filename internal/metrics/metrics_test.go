package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("test")

	c.RecordMutation("toggle_like")
	c.RecordMutation("toggle_like")
	c.RecordNotification("like")
	c.RecordAICall("polish", "degraded", 10*time.Millisecond)
	c.RecordAmbientLike()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Mutations.WithLabelValues("toggle_like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Notifications.WithLabelValues("like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AICalls.WithLabelValues("polish", "degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AmbientLikes))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordMutation("x")
		c.RecordNotification("like")
		c.RecordAICall("x", "ok", time.Second)
		c.RecordAmbientLike()
		c.RecordVideoPoll()
		c.RecordHTTP("GET", "/", 200, time.Millisecond)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.RecordHTTP("GET", "/feed", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/feed",status="200"} 1`)
}
