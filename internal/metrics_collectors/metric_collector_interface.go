package metrics_collectors

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned by sources on platforms without a sampling strategy.
var ErrUnsupportedPlatform = errors.New("metrics not supported on this platform")

// MetricsSource reads raw host metrics for one OS family.
// Implementations return errors; the MetricsSampler turns them into zero values.
type MetricsSource interface {
	Name() string                                 // OS family (e.g., "linux", "darwin")
	CPUUsage(ctx context.Context) (int, error)    // Aggregate CPU utilization, 0-100
	MemoryUsage(ctx context.Context) (int, error) // Physical memory utilization, 0-100
	UptimeHours(ctx context.Context) (int, error) // Whole hours since boot
}
