package metrics_collectors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

const firstCPUSampleDelay = time.Second

// CPUCounterState holds the aggregate CPU times seen on the previous sample so
// consecutive cycles measure utilization over the interval between them.
type CPUCounterState struct {
	mu       sync.Mutex
	previous *cpu.TimesStat
}

// Previous returns the stored times, or false before the first sample.
func (s *CPUCounterState) Previous() (cpu.TimesStat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previous == nil {
		return cpu.TimesStat{}, false
	}
	return *s.previous, true
}

// Store replaces the stored times.
func (s *CPUCounterState) Store(times cpu.TimesStat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = &times
}

// LinuxSource samples Linux hosts through gopsutil.
type LinuxSource struct {
	cpuTimes         func(ctx context.Context) (cpu.TimesStat, error)
	virtualMemory    func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	uptime           func(ctx context.Context) (uint64, error)
	cpuState         *CPUCounterState
	firstSampleDelay time.Duration
	sleep            func(ctx context.Context, d time.Duration) error
}

// NewLinuxSource creates a LinuxSource reading the host's aggregate counters.
func NewLinuxSource() *LinuxSource {
	return &LinuxSource{
		cpuTimes:         aggregateCPUTimes,
		virtualMemory:    mem.VirtualMemoryWithContext,
		uptime:           host.UptimeWithContext,
		cpuState:         &CPUCounterState{},
		firstSampleDelay: firstCPUSampleDelay,
		sleep:            sleepContext,
	}
}

func (s *LinuxSource) Name() string { return "linux" }

// CPUUsage compares the current times with those from the previous call. On the
// first call there is nothing to compare with, so it reads twice, firstSampleDelay apart.
func (s *LinuxSource) CPUUsage(ctx context.Context) (int, error) {
	current, err := s.cpuTimes(ctx)
	if err != nil {
		return 0, err
	}

	previous, ok := s.cpuState.Previous()
	if !ok {
		if err := s.sleep(ctx, s.firstSampleDelay); err != nil {
			return 0, err
		}
		previous = current
		if current, err = s.cpuTimes(ctx); err != nil {
			return 0, err
		}
	}

	s.cpuState.Store(current)
	return CPUUsageFromTimes(previous, current)
}

func (s *LinuxSource) MemoryUsage(ctx context.Context) (int, error) {
	vm, err := s.virtualMemory(ctx)
	if err != nil {
		return 0, err
	}
	return MemoryUsageFromAvailable(vm.Total, vm.Available)
}

func (s *LinuxSource) UptimeHours(ctx context.Context) (int, error) {
	seconds, err := s.uptime(ctx)
	if err != nil {
		return 0, err
	}
	return int(seconds / 3600), nil
}

func aggregateCPUTimes(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, errors.New("no aggregate cpu times reported")
	}
	return times[0], nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
