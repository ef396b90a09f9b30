package aggregation

import (
	"sync"
	"testing"
	"time"

	"github.com/99souls/telemetrycore/aggregate"
	"github.com/99souls/telemetrycore/clock"

	"go.opentelemetry.io/otel/attribute"
)

func TestRecordRoutesByAttributeSet(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{Name: "requests", Kind: KindSum, Temporality: Cumulative})

	p.Record("requests", nil, aggregate.Int64(1))
	p.Record("requests", []attribute.KeyValue{attribute.String("route", "/a")}, aggregate.Int64(1))
	p.Record("requests", []attribute.KeyValue{attribute.String("route", "/a")}, aggregate.Int64(1))
	p.Record("requests", []attribute.KeyValue{attribute.String("route", "/b")}, aggregate.Int64(1))

	points := p.Collect()
	if len(points) != 3 {
		t.Fatalf("expected 3 distinct attribute-set points (no-attr, /a, /b), got %d", len(points))
	}

	byAttrs := map[string]int64{}
	for _, pt := range points {
		key := pt.Attributes.Encoded(attribute.DefaultEncoder())
		byAttrs[key] = pt.Value.(aggregate.SumPoint).Value.AsInt64()
	}
	if byAttrs[""] != 1 {
		t.Fatalf("expected no-attribute fast path to accumulate 1, got %v", byAttrs)
	}
}

func TestRecordFiltersDisallowedAttributesAndCounts(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{
		Name:               "requests",
		Kind:               KindSum,
		Temporality:        Cumulative,
		AttributeAllowList: []attribute.Key{attribute.Key("route")},
	})

	p.Record("requests", []attribute.KeyValue{
		attribute.String("route", "/a"),
		attribute.String("secret", "x"),
	}, aggregate.Int64(1))

	if got := p.DroppedAttributes("requests"); got != 1 {
		t.Fatalf("expected 1 dropped attribute, got %d", got)
	}
}

func TestRecordIgnoresUnknownInstrument(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	if ok := p.Record("nonexistent", nil, aggregate.Int64(1)); ok {
		t.Fatalf("expected recording to an unregistered instrument to report false")
	}
}

func TestCollectCumulativeDoesNotResetSum(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{Name: "bytes", Kind: KindSum, Temporality: Cumulative, IsMonotonic: true})
	p.Record("bytes", nil, aggregate.Int64(10))

	first := p.Collect()
	second := p.Collect()

	v1 := first[0].Value.(aggregate.SumPoint).Value.AsInt64()
	v2 := second[0].Value.(aggregate.SumPoint).Value.AsInt64()
	if v1 != 10 || v2 != 10 {
		t.Fatalf("expected cumulative collection to report 10 both times, got %d then %d", v1, v2)
	}
}

func TestCollectDeltaResetsAfterEachCollection(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{Name: "bytes", Kind: KindSum, Temporality: Delta, IsMonotonic: true})
	p.Record("bytes", nil, aggregate.Int64(10))

	first := p.Collect()
	second := p.Collect()

	v1 := first[0].Value.(aggregate.SumPoint).Value.AsInt64()
	v2 := second[0].Value.(aggregate.SumPoint).Value.AsInt64()
	if v1 != 10 {
		t.Fatalf("expected first delta collection to report 10, got %d", v1)
	}
	if v2 != 0 {
		t.Fatalf("expected second delta collection to report 0 (reset), got %d", v2)
	}
}

func TestDeltaTemporalityAdvancesStartToPreviousCollectTime(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{Name: "bytes", Kind: KindSum, Temporality: Delta, IsMonotonic: true})
	p.Record("bytes", nil, aggregate.Int64(1))

	first := p.Collect()
	mc.Advance(5 * time.Second)
	p.Record("bytes", nil, aggregate.Int64(1))
	second := p.Collect()

	if !second[0].StartTime.Equal(first[0].Time) {
		t.Fatalf("expected delta start_time to equal the previous collection's time: got start=%v prevTime=%v",
			second[0].StartTime, first[0].Time)
	}
}

func TestMonotonicViolationReportedNotApplied(t *testing.T) {
	var violations []string
	var mu sync.Mutex
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, func(instrument string, value float64) {
		mu.Lock()
		violations = append(violations, instrument)
		mu.Unlock()
	}, nil)
	p.Register(Descriptor{Name: "bytes", Kind: KindSum, Temporality: Cumulative, IsMonotonic: true})

	p.Record("bytes", nil, aggregate.Int64(5))
	p.Record("bytes", nil, aggregate.Int64(-1))

	points := p.Collect()
	if got := points[0].Value.(aggregate.SumPoint).Value.AsInt64(); got != 5 {
		t.Fatalf("expected rejected negative update to leave sum at 5, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(violations) != 1 || violations[0] != "bytes" {
		t.Fatalf("expected exactly one monotonic violation report for 'bytes', got %v", violations)
	}
}

func TestLastValueNotReportedUntilFirstUpdate(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{Name: "gauge", Kind: KindLastValue, Temporality: Cumulative})

	if points := p.Collect(); len(points) != 0 {
		t.Fatalf("expected no points before any LastValue update, got %d", len(points))
	}

	p.Record("gauge", nil, aggregate.Float64(42))
	points := p.Collect()
	if len(points) != 1 {
		t.Fatalf("expected one point after first update, got %d", len(points))
	}
}

func TestConcurrentRecordingAcrossManyAttributeSets(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	p := New(mc, nil, nil)
	p.Register(Descriptor{Name: "requests", Kind: KindSum, Temporality: Cumulative})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		route := "/a"
		if i%2 == 0 {
			route = "/b"
		}
		wg.Add(1)
		go func(route string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.Record("requests", []attribute.KeyValue{attribute.String("route", route)}, aggregate.Int64(1))
			}
		}(route)
	}
	wg.Wait()

	points := p.Collect()
	var total int64
	for _, pt := range points {
		total += pt.Value.(aggregate.SumPoint).Value.AsInt64()
	}
	if total != 400 {
		t.Fatalf("expected total 400 across all attribute sets, got %d", total)
	}
}
