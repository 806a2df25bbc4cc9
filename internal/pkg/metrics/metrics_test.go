package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_CountsByRoute(t *testing.T) {
	m := New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses/abc", nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/courses/:id", "404")))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.LoginAttempt("success")
	m.EnrollmentCreated()
	m.AIRequest("course_description", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrollments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiRequests.WithLabelValues("course_description", "error")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.EnrollmentCreated() })
}

func TestHandler_ServesText(t *testing.T) {
	m := New()
	m.EnrollmentCreated()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "campuspulse_enrollments_created_total 1")
}
