// Package config holds the Batch Worker's configuration table (spec.md
// §6): a plain struct with programmatic field overrides, ApplyDefaults,
// and Validate, grounded on the teacher's
// engine/config.UnifiedBusinessConfig / DefaultGlobalSettings / Validate
// trio — a struct-plus-three-methods shape, not a builder or flag library.
package config

import (
	"fmt"
	"time"
)

// Signal selects which OTEL_B*P_* environment variable family an
// ApplyEnv call reads, per spec.md §6's "span batch processor" vs "log
// batch processor" variable prefixes.
type Signal uint8

const (
	// SignalSpan reads OTEL_BSP_*.
	SignalSpan Signal = iota
	// SignalLog reads OTEL_BLRP_*.
	SignalLog
)

// Temporality selects Cumulative or Delta collection per instrument kind
// (spec.md §6). Mirrors package aggregation's Temporality so config stays
// free of a dependency on it; callers convert at the boundary.
type Temporality uint8

const (
	Cumulative Temporality = iota
	Delta
)

// Config is the Batch Worker + Aggregation Pipeline's full configuration
// table (spec.md §6). The zero value is not valid; construct with
// Default() and override fields, or fill a Config literal and call
// ApplyDefaults().
type Config struct {
	MaxQueueSize        int
	MaxExportBatchSize  int
	ScheduledDelay      time.Duration
	ExportTimeout       time.Duration
	ForceFlushTimeout   time.Duration
	ShutdownTimeout     time.Duration
	Temporality         Temporality
	RecordMinMax        bool
	RecordSum           bool
	ExpoMaxSize         int32
	ExpoMaxScale        int8
}

// Default returns spec.md §6's default configuration for the span batch
// processor (scheduled_delay defaults to 5s; use DefaultLogs for the 1s
// log default).
func Default() *Config {
	c := &Config{ScheduledDelay: 5 * time.Second}
	c.ApplyDefaults()
	return c
}

// DefaultLogs returns spec.md §6's default configuration for the log
// batch processor (scheduled_delay 1s instead of the span default 5s).
func DefaultLogs() *Config {
	c := &Config{ScheduledDelay: 1 * time.Second}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills any zero-valued field with spec.md §6's default,
// then clamps MaxExportBatchSize to MaxQueueSize. Call after setting
// programmatic overrides and before Validate.
func (c *Config) ApplyDefaults() {
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 2048
	}
	if c.MaxExportBatchSize <= 0 {
		c.MaxExportBatchSize = 512
	}
	if c.ScheduledDelay <= 0 {
		c.ScheduledDelay = 5 * time.Second
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = 30 * time.Second
	}
	if c.ForceFlushTimeout <= 0 {
		c.ForceFlushTimeout = 5 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.ExpoMaxSize <= 0 {
		c.ExpoMaxSize = 160
	}
	if c.ExpoMaxScale == 0 {
		c.ExpoMaxScale = 20
	}
	// record_min_max and record_sum default true; a caller who explicitly
	// wants them false must set them after ApplyDefaults, since the zero
	// value (false) is indistinguishable from an explicit false here. This
	// mirrors the trade-off spec.md's table itself makes by listing
	// defaults rather than a three-valued "unset/true/false".
	c.RecordMinMax = true
	c.RecordSum = true
	if c.MaxExportBatchSize > c.MaxQueueSize {
		c.MaxExportBatchSize = c.MaxQueueSize
	}
}

// Validate reports whether c is internally consistent. Call after
// ApplyDefaults (or after fully specifying every field programmatically).
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive: %d", c.MaxQueueSize)
	}
	if c.MaxExportBatchSize <= 0 {
		return fmt.Errorf("max_export_batch_size must be positive: %d", c.MaxExportBatchSize)
	}
	if c.MaxExportBatchSize > c.MaxQueueSize {
		return fmt.Errorf("max_export_batch_size (%d) cannot exceed max_queue_size (%d)",
			c.MaxExportBatchSize, c.MaxQueueSize)
	}
	if c.ScheduledDelay < 0 {
		return fmt.Errorf("scheduled_delay cannot be negative: %v", c.ScheduledDelay)
	}
	if c.ExportTimeout <= 0 {
		return fmt.Errorf("export_timeout must be positive: %v", c.ExportTimeout)
	}
	if c.ForceFlushTimeout <= 0 {
		return fmt.Errorf("force_flush_timeout must be positive: %v", c.ForceFlushTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive: %v", c.ShutdownTimeout)
	}
	if c.ExpoMaxSize <= 0 {
		return fmt.Errorf("expo_max_size must be positive: %d", c.ExpoMaxSize)
	}
	if c.ExpoMaxScale > 20 {
		return fmt.Errorf("expo_max_scale must be <= 20: %d", c.ExpoMaxScale)
	}
	return nil
}
