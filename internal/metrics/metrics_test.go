package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInquiry("accepted")
	c.RecordInquiry("accepted")
	c.RecordInquiry("spam")
	c.RecordUpload("contact-documents", "ok")
	c.RecordLogin("failed")
	c.RecordNotificationFailure("email")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.inquiries.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.inquiries.WithLabelValues("spam")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.uploads.WithLabelValues("contact-documents", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifyFailed.WithLabelValues("email")))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest(http.MethodPost, "/api/contact", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `theta_http_requests_total{method="POST",route="/api/contact",status="200"} 1`)
}

func TestNop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordInquiry("accepted")
}
