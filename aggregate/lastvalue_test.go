package aggregate

import (
	"testing"
	"time"
)

func TestLastValueOverwritesOnEachUpdate(t *testing.T) {
	lv := NewLastValue()
	t0 := time.Now()
	lv.Update(Int64(1), t0)
	lv.Update(Int64(2), t0.Add(time.Second))

	p, ok := lv.CollectCumulative()
	if !ok {
		t.Fatalf("expected a value to be set")
	}
	if p.Value.AsInt64() != 2 {
		t.Fatalf("expected 2, got %d", p.Value.AsInt64())
	}
}

func TestLastValueUnsetBeforeFirstUpdate(t *testing.T) {
	lv := NewLastValue()
	_, ok := lv.CollectCumulative()
	if ok {
		t.Fatalf("expected no value before first update")
	}
}

func TestLastValueDeltaDoesNotReset(t *testing.T) {
	lv := NewLastValue()
	lv.Update(Float64(3.5), time.Now())
	first, _ := lv.CollectDelta()
	second, ok := lv.CollectDelta()
	if !ok || second.Value.AsFloat64() != first.Value.AsFloat64() {
		t.Fatalf("expected CollectDelta to return the same observation until updated again")
	}
}
