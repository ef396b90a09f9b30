package selfmetrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecorderExposesCountersViaHandler(t *testing.T) {
	r := New(Options{})
	r.DroppedRecord()
	r.DroppedRecord()
	r.TriggerCoalesced()
	r.ExportResult("ok", 5*time.Millisecond)
	r.SetQueueDepth(12)
	r.ObserveBatchSize(64)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "telemetrycore_queue_dropped_total 2"))
	require.True(t, strings.Contains(body, "telemetrycore_worker_trigger_coalesced_total 1"))
	require.True(t, strings.Contains(body, `telemetrycore_export_result_total{outcome="ok"} 1`))
	require.True(t, strings.Contains(body, "telemetrycore_queue_depth 12"))
}
