// Package export defines the Exporter contract (spec.md §4.E): the sink
// interface the Batch Worker drives. Concrete exporters (OTLP, vendor
// backends, their network transports) are out-of-scope collaborators; this
// package only defines the contract and a couple of reference
// implementations useful for tests and local debugging.
package export

import (
	"context"

	"github.com/99souls/telemetrycore/record"
)

// Kind distinguishes a failed export's retry-worthiness, observed but not
// acted upon by the core (spec.md §6): both Retryable and Permanent produce
// an error report without retry.
type Kind uint8

const (
	// Retryable indicates a transient failure (e.g. connection reset).
	Retryable Kind = iota
	// Permanent indicates a failure retrying would not fix (e.g. bad auth).
	Permanent
	// Timeout indicates the export_timeout bound was exceeded.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error wraps an export failure with its Kind, allowing callers to
// distinguish retryable from permanent failures via errors.As even though
// the core itself never retries.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "export: " + e.Kind.String()
	}
	return "export: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Exporter is the sink the Batch Worker drives. Implementations MUST be
// safe for serial invocation; the pipeline guarantees no concurrent calls
// into a single Exporter, and that Shutdown is called at most once, last.
type Exporter interface {
	// Export ships one batch. It may take up to export_timeout; the worker
	// enforces that bound by racing the call against a timer, and does not
	// cancel an in-flight call on timeout (cancellation correctness is the
	// exporter's responsibility if it wants to honor ctx).
	Export(ctx context.Context, batch record.Batch) error
	// ForceFlush is an optional hook for exporters that buffer internally
	// (e.g. behind a network client); the default no-op is sufficient for
	// exporters that ship synchronously inside Export.
	ForceFlush(ctx context.Context) error
	// Shutdown is terminal and called at most once, after the worker has
	// drained and exported everything it is going to.
	Shutdown(ctx context.Context) error
	// SetResource delivers a resource update. The pipeline guarantees
	// single-threaded, serialized delivery; implementations must be
	// idempotent but need not be concurrency-safe against themselves.
	SetResource(r record.Resource)
}

// NopForceFlush can be embedded by exporters that ship synchronously inside
// Export and have nothing to flush.
type NopForceFlush struct{}

func (NopForceFlush) ForceFlush(ctx context.Context) error { return nil }
