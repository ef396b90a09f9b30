// Package aggregate implements the online per-attribute-set aggregators
// (spec.md §4.B): Sum, LastValue, MinMaxSumCount, Histogram (explicit
// bounds), and ExponentialHistogram. Each exposes Update/CollectCumulative/
// CollectDelta and is responsible for its own concurrency correctness, per
// spec.md: "Correctness of concurrent update calls is the aggregator's
// responsibility."
//
// Grounded in idiom on the vendored go.opentelemetry.io/otel/sdk/metric
// internal/aggregate package (retrieved in the example pack), which keys
// per-attribute-set state the same way and separates "bin/record" from
// "collect" the same way; the exponential-histogram rescaling algorithm
// itself follows spec.md §4.B.5 directly.
package aggregate

import (
	"errors"
	"math"
)

// Number is the tagged i64/u64/f64 value union from spec.md §3. u64 values
// are represented as i64 (the telemetry data model never produces negative
// counts, so the range loss is immaterial) to keep the union two-armed.
type Number struct {
	isFloat bool
	i       int64
	f       float64
}

// Int64 wraps an integer measurement.
func Int64(v int64) Number { return Number{i: v} }

// Float64 wraps a floating-point measurement.
func Float64(v float64) Number { return Number{isFloat: true, f: v} }

// IsFloat reports whether the Number was constructed via Float64.
func (n Number) IsFloat() bool { return n.isFloat }

// AsFloat64 returns the Number's value widened to float64.
func (n Number) AsFloat64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// AsInt64 returns the Number's value narrowed to int64 (truncating any
// fractional float64 component); used only where the caller already knows
// the instrument's value_type is integral.
func (n Number) AsInt64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

// errNonFinite is returned internally when a measurement must be ignored
// per spec.md §4.B.5 ("Non-finite (NaN, ±∞) values are ignored").
var errNonFinite = errors.New("aggregate: non-finite value")

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errNonFinite
	}
	return nil
}
