package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestAdminRequestsLogsAndRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r := gin.New()
	r.Use(AdminRequests("mw-test", logger))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", "/items/:id", "418"))
	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", "/items/:id", "418"))
	if after-before != 2 {
		t.Fatalf("unexpected request delta=%v", after-before)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", "unmatched", "404")); got < 1 {
		t.Fatalf("unmatched route not recorded")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"warn"`) || !strings.Contains(lines[0], `"route":"/items/:id"`) {
		t.Fatalf("unexpected log line: %s", lines[0])
	}
}

func TestLevelForStatus(t *testing.T) {
	if levelForStatus(200) != zerolog.DebugLevel || levelForStatus(404) != zerolog.WarnLevel || levelForStatus(503) != zerolog.ErrorLevel {
		t.Fatalf("unexpected status level mapping")
	}
}
