package metrics_collectors

import (
	"context"
	"time"
)

// WindowsSource samples Windows hosts through wmic. Uptime is measured from
// agent start rather than host boot.
type WindowsSource struct {
	runner    CommandRunner
	startedAt time.Time
	now       func() time.Time
}

// NewWindowsSource creates a WindowsSource; uptime counts from the moment it is created.
func NewWindowsSource(runner CommandRunner) *WindowsSource {
	return &WindowsSource{
		runner:    runner,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

func (s *WindowsSource) Name() string { return "windows" }

func (s *WindowsSource) CPUUsage(ctx context.Context) (int, error) {
	out, err := s.runner.Run(ctx, "wmic", "cpu", "get", "loadpercentage")
	if err != nil {
		return 0, err
	}
	return ParseWMICLoad(string(out))
}

func (s *WindowsSource) MemoryUsage(ctx context.Context) (int, error) {
	out, err := s.runner.Run(ctx, "wmic", "os", "get", "FreePhysicalMemory,TotalVisibleMemorySize", "/value")
	if err != nil {
		return 0, err
	}
	return ParseWMICMemory(string(out))
}

func (s *WindowsSource) UptimeHours(_ context.Context) (int, error) {
	elapsed := s.now().Sub(s.startedAt)
	if elapsed < 0 {
		return 0, nil
	}
	return int(elapsed.Hours()), nil
}
