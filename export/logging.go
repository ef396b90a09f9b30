package export

import (
	"context"
	"log/slog"

	"github.com/99souls/telemetrycore/record"
)

// Logging is a reference Exporter that writes a one-line summary per batch
// through log/slog, useful for local development before a real backend is
// wired up. It never fails.
type Logging struct {
	NopForceFlush
	logger *slog.Logger
}

// NewLogging returns a Logging exporter writing through logger (or
// slog.Default when nil).
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger}
}

func (l *Logging) Export(ctx context.Context, batch record.Batch) error {
	var spans, logs, metrics int
	for _, r := range batch.Records {
		switch r.Kind {
		case record.KindSpan:
			spans++
		case record.KindLog:
			logs++
		case record.KindMetric:
			metrics++
		}
	}
	l.logger.InfoContext(ctx, "telemetrycore: exported batch",
		"scope", batch.Scope, "records", len(batch.Records),
		"spans", spans, "logs", logs, "metrics", metrics)
	return nil
}

func (l *Logging) Shutdown(ctx context.Context) error {
	l.logger.InfoContext(ctx, "telemetrycore: exporter shutdown")
	return nil
}

func (l *Logging) SetResource(r record.Resource) {
	l.logger.Info("telemetrycore: resource updated", "resource", r)
}
