package export

import (
	"context"
	"errors"
	"testing"

	"github.com/99souls/telemetrycore/record"
	"github.com/stretchr/testify/require"
)

func TestMemoryExporterCollectsBatchesAndResources(t *testing.T) {
	m := NewMemory()
	b := record.Batch{Scope: "test", Records: []record.Record{record.Span(&record.SpanData{Name: "a"})}}

	require.NoError(t, m.Export(context.Background(), b))
	m.SetResource("svc=demo")
	require.NoError(t, m.Shutdown(context.Background()))

	require.Len(t, m.Batches(), 1)
	require.Equal(t, "test", m.Batches()[0].Scope)
	require.Equal(t, []record.Resource{"svc=demo"}, m.Resources())
	require.True(t, m.ShutdownCalled())
}

func TestMemoryExporterExportFuncOverride(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.ExportFunc = func(ctx context.Context, batch record.Batch) error { return boom }

	err := m.Export(context.Background(), record.Batch{})
	require.ErrorIs(t, err, boom)
	require.Empty(t, m.Batches())
}

func TestErrorWrapsKindAndUnderlying(t *testing.T) {
	underlying := errors.New("conn reset")
	err := &Error{Kind: Retryable, Err: underlying}
	require.ErrorIs(t, err, underlying)
	require.Contains(t, err.Error(), "retryable")
}

func TestLoggingExporterNeverFails(t *testing.T) {
	l := NewLogging(nil)
	b := record.Batch{Records: []record.Record{
		record.Span(&record.SpanData{Name: "a"}),
		record.Log(&record.LogData{Body: "hi"}),
	}}
	require.NoError(t, l.Export(context.Background(), b))
	require.NoError(t, l.Shutdown(context.Background()))
}
