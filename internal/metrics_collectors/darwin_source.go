package metrics_collectors

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
)

// DarwinSource samples macOS hosts through ps and vm_stat, with boot time from gopsutil.
type DarwinSource struct {
	runner    CommandRunner
	coreCount func() (int, error)
	bootTime  func(ctx context.Context) (uint64, error)
	now       func() time.Time
}

// NewDarwinSource creates a DarwinSource that runs commands with runner.
func NewDarwinSource(runner CommandRunner) *DarwinSource {
	return &DarwinSource{
		runner:    runner,
		coreCount: func() (int, error) { return cpu.Counts(true) },
		bootTime:  host.BootTimeWithContext,
		now:       time.Now,
	}
}

func (s *DarwinSource) Name() string { return "darwin" }

func (s *DarwinSource) CPUUsage(ctx context.Context) (int, error) {
	out, err := s.runner.Run(ctx, "ps", "-A", "-o", "%cpu")
	if err != nil {
		return 0, err
	}
	sum, err := ParsePsCPU(string(out))
	if err != nil {
		return 0, err
	}

	cores, err := s.coreCount()
	if err != nil {
		cores = 0
	}
	return CPUUsageFromProcessSum(sum, cores), nil
}

func (s *DarwinSource) MemoryUsage(ctx context.Context) (int, error) {
	out, err := s.runner.Run(ctx, "vm_stat")
	if err != nil {
		return 0, err
	}
	return MemoryUsageFromVMStat(ParseVMStat(string(out))), nil
}

func (s *DarwinSource) UptimeHours(ctx context.Context) (int, error) {
	boot, err := s.bootTime(ctx)
	if err != nil {
		return 0, err
	}
	return UptimeHoursSince(int64(boot), s.now().Unix()), nil
}
