package metrics_collectors

import (
	"context"
	"fmt"
)

// UnsupportedSource reports every metric as unavailable.
type UnsupportedSource struct {
	goos string
}

func NewUnsupportedSource(goos string) *UnsupportedSource {
	return &UnsupportedSource{goos: goos}
}

func (s *UnsupportedSource) Name() string { return s.goos }

func (s *UnsupportedSource) CPUUsage(context.Context) (int, error) { return 0, s.err() }

func (s *UnsupportedSource) MemoryUsage(context.Context) (int, error) { return 0, s.err() }

func (s *UnsupportedSource) UptimeHours(context.Context) (int, error) { return 0, s.err() }

func (s *UnsupportedSource) err() error {
	return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, s.goos)
}
