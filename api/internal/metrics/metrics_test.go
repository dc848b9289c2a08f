package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsStatus(t *testing.T) {
	m := New()
	h := m.Middleware("detect", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("bad") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, target := range []string{"/detect", "/detect", "/detect?bad=1"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, target, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("detect", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("detect", "POST", "400")))
}

func TestCapabilityFailed(t *testing.T) {
	m := New()
	m.CapabilityFailed("ocr")
	m.CapabilityFailed("ocr")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failures.WithLabelValues("ocr")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.CapabilityFailed("ocr") })
}

func TestHandlerExposes(t *testing.T) {
	m := New()
	m.CapabilityFailed("speech")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `capability_failures_total{capability="speech"} 1`)
}
