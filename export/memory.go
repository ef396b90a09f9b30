package export

import (
	"context"
	"sync"

	"github.com/99souls/telemetrycore/record"
)

// Memory is an in-process Exporter that appends every batch it receives to
// an internal slice. It is intended for tests and local debugging, the
// role engine/internal/pipeline's simulated extractContent plays for the
// teacher's pipeline tests: a controllable stand-in for a real network
// sink.
type Memory struct {
	mu        sync.Mutex
	batches   []record.Batch
	resources []record.Resource
	shutdown  bool

	// ExportFunc, when set, is called instead of the default append-only
	// behavior, letting tests simulate latency, failures, or blocking.
	ExportFunc func(ctx context.Context, batch record.Batch) error
}

// NewMemory returns an empty Memory exporter.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Export(ctx context.Context, batch record.Batch) error {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, batch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	return nil
}

func (m *Memory) ForceFlush(ctx context.Context) error { return nil }

func (m *Memory) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = true
	return nil
}

func (m *Memory) SetResource(r record.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, r)
}

// Batches returns a copy of the batches received so far.
func (m *Memory) Batches() []record.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]record.Batch, len(m.batches))
	copy(out, m.batches)
	return out
}

// ShutdownCalled reports whether Shutdown has been invoked.
func (m *Memory) ShutdownCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Resources returns every resource value delivered via SetResource, in
// order.
func (m *Memory) Resources() []record.Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]record.Resource, len(m.resources))
	copy(out, m.resources)
	return out
}
