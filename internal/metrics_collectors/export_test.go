package metrics_collectors

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

func NewLinuxSourceWithReaders(
	cpuTimes func(ctx context.Context) (cpu.TimesStat, error),
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error),
	uptime func(ctx context.Context) (uint64, error),
	sleep func(ctx context.Context, d time.Duration) error,
) *LinuxSource {
	s := NewLinuxSource()
	s.cpuTimes = cpuTimes
	s.virtualMemory = virtualMemory
	s.uptime = uptime
	s.sleep = sleep
	return s
}

func NewDarwinSourceWithClock(runner CommandRunner, cores func() (int, error), bootTime func(ctx context.Context) (uint64, error), now func() time.Time) *DarwinSource {
	s := NewDarwinSource(runner)
	s.coreCount = cores
	s.bootTime = bootTime
	s.now = now
	return s
}

func NewWindowsSourceWithClock(runner CommandRunner, startedAt time.Time, now func() time.Time) *WindowsSource {
	s := NewWindowsSource(runner)
	s.startedAt = startedAt
	s.now = now
	return s
}
