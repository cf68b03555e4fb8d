package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/slime/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(ingressRequests.WithLabelValues("authorized"))
	RecordIngress("authorized", 3*time.Millisecond)
	if got := testutil.ToFloat64(ingressRequests.WithLabelValues("authorized")); got != before+1 {
		t.Fatalf("expected ingress counter %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(egressEffects.WithLabelValues("written"))
	RecordEgress("written")
	if got := testutil.ToFloat64(egressEffects.WithLabelValues("written")); got != before+1 {
		t.Fatalf("expected egress counter %v, got %v", before+1, got)
	}
	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestMiddlewareCollapsesUnmatchedPaths(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()), RequestMetricsMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(dashboardRequests.WithLabelValues(http.MethodGet, "unmatched", "404"))
	for _, path := range []string{"/a", "/b/c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := testutil.ToFloat64(dashboardRequests.WithLabelValues(http.MethodGet, "unmatched", "404")); got != before+2 {
		t.Fatalf("expected unmatched counter %v, got %v", before+2, got)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := testutil.ToFloat64(dashboardRequests.WithLabelValues(http.MethodGet, "/health", "200")); got < 1 {
		t.Fatalf("expected /health counted, got %v", got)
	}
}
