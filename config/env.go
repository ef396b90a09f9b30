package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv fills any still-zero-valued field of c from the OTEL_BSP_*
// (SignalSpan) or OTEL_BLRP_* (SignalLog) environment variables named in
// spec.md §6, leaving already-set fields untouched so programmatic
// configuration always wins over the environment. Call before
// ApplyDefaults so environment values participate in the clamp between
// max_export_batch_size and max_queue_size.
func ApplyEnv(c *Config, signal Signal) {
	prefix := "OTEL_BSP_"
	if signal == SignalLog {
		prefix = "OTEL_BLRP_"
	}

	if c.MaxQueueSize == 0 {
		if v, ok := envInt(prefix + "MAX_QUEUE_SIZE"); ok {
			c.MaxQueueSize = v
		}
	}
	if c.MaxExportBatchSize == 0 {
		if v, ok := envInt(prefix + "MAX_EXPORT_BATCH_SIZE"); ok {
			c.MaxExportBatchSize = v
		}
	}
	if c.ScheduledDelay == 0 {
		if v, ok := envMillis(prefix + "SCHEDULE_DELAY"); ok {
			c.ScheduledDelay = v
		}
	}
	if c.ExportTimeout == 0 {
		if v, ok := envMillis(prefix + "EXPORT_TIMEOUT"); ok {
			c.ExportTimeout = v
		}
	}
}

func envInt(name string) (int, bool) {
	raw, set := os.LookupEnv(name)
	if !set {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func envMillis(name string) (time.Duration, bool) {
	raw, set := os.LookupEnv(name)
	if !set {
		return 0, false
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
