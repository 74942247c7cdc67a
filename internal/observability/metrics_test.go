package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	logs "github.com/danmuck/tpkit/internal/logging"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordFrames("p1", 3)
	RecordMalformed("p1")
	RecordInbound("p1", "info")
	RecordWrite("p1", []string{"stateUpdate", "stateUpdate"}, 2*time.Millisecond, true)
	RecordWrite("p1", []string{"pair"}, time.Millisecond, false)
	SetCustomStates("p1", 4)
	RecordHTTPRequest("tpclient", "GET", "/health", 200, 12*time.Millisecond)

	logs.Logf("observability/metrics: registration idempotent and recording paths executed")
}

func TestRecordWriteCountsOnlySuccessfulMessages(t *testing.T) {
	before := testutil.ToFloat64(outboundMessages.WithLabelValues("p-count", "createState"))
	RecordWrite("p-count", []string{"createState", "createState"}, time.Millisecond, true)
	RecordWrite("p-count", []string{"createState"}, time.Millisecond, false)
	after := testutil.ToFloat64(outboundMessages.WithLabelValues("p-count", "createState"))
	if after-before != 2 {
		t.Fatalf("unexpected outbound delta=%v", after-before)
	}
	SetCustomStates("p-count", 7)
	if got := testutil.ToFloat64(customStates.WithLabelValues("p-count")); got != 7 {
		t.Fatalf("unexpected gauge=%v", got)
	}
}
