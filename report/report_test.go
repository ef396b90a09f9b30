package report

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type countingObserver struct {
	dropped    int
	coalesced  int
	exportCall int
}

func (o *countingObserver) DroppedRecord()                                 { o.dropped++ }
func (o *countingObserver) TriggerCoalesced()                              { o.coalesced++ }
func (o *countingObserver) ExportResult(outcome string, dur time.Duration) { o.exportCall++ }
func (o *countingObserver) SetQueueDepth(int)                              {}
func (o *countingObserver) ObserveBatchSize(int)                          {}

func TestQueueFullWarnsOnceButCountsEveryDrop(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := &countingObserver{}
	r := New(logger, 4, obs)

	for i := 0; i < 5; i++ {
		r.QueueFull()
	}

	if got := r.DroppedRecordsCount(); got != 5 {
		t.Fatalf("expected 5 drops counted, got %d", got)
	}
	if obs.dropped != 5 {
		t.Fatalf("expected observer notified 5 times, got %d", obs.dropped)
	}
	out := buf.String()
	if strings.Count(out, "queue full") != 1 {
		t.Fatalf("expected exactly one warning line, got log: %s", out)
	}
}

func TestShutdownSummaryReportsDropCount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := New(logger, 2048, nil)
	r.QueueFull()
	r.QueueFull()

	r.Shutdown(context.Background())

	out := buf.String()
	if !strings.Contains(out, "dropped_records_count=2") {
		t.Fatalf("expected summary to include drop count, got: %s", out)
	}
	if !strings.Contains(out, "max_queue_size=2048") {
		t.Fatalf("expected summary to include max queue size, got: %s", out)
	}
}

func TestExportTimeoutNotifiesObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := &countingObserver{}
	r := New(logger, 10, obs)

	r.ExportTimeout(50 * time.Millisecond)

	if obs.exportCall != 1 {
		t.Fatalf("expected export result observed once, got %d", obs.exportCall)
	}
}
