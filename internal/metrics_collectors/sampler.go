package metrics_collectors

import (
	"context"

	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/rs/zerolog"
)

// SamplerInterface produces a metric snapshot for one heartbeat cycle.
type SamplerInterface interface {
	Sample(ctx context.Context) models.MetricSnapshot
}

// MetricsSampler turns a MetricsSource into infallible readings: any source error is
// logged and reported as 0. Values are never cached between calls.
type MetricsSampler struct {
	source MetricsSource
	logger zerolog.Logger
}

// NewMetricsSampler creates a sampler over source.
func NewMetricsSampler(source MetricsSource, logger zerolog.Logger) *MetricsSampler {
	return &MetricsSampler{source: source, logger: logger}
}

// Platform returns the name of the underlying source.
func (s *MetricsSampler) Platform() string {
	return s.source.Name()
}

func (s *MetricsSampler) CPUUsage(ctx context.Context) int {
	v, err := s.source.CPUUsage(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("platform", s.source.Name()).Msg("Failed to sample CPU usage")
		return 0
	}
	return clampPercent(v)
}

func (s *MetricsSampler) MemoryUsage(ctx context.Context) int {
	v, err := s.source.MemoryUsage(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("platform", s.source.Name()).Msg("Failed to sample memory usage")
		return 0
	}
	return clampPercent(v)
}

func (s *MetricsSampler) UptimeHours(ctx context.Context) int {
	v, err := s.source.UptimeHours(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("platform", s.source.Name()).Msg("Failed to sample uptime")
		return 0
	}
	if v < 0 {
		return 0
	}
	return v
}

// Sample reads all three metrics.
func (s *MetricsSampler) Sample(ctx context.Context) models.MetricSnapshot {
	return models.MetricSnapshot{
		CPUUsage:    s.CPUUsage(ctx),
		MemoryUsage: s.MemoryUsage(ctx),
		UptimeHours: s.UptimeHours(ctx),
	}
}
