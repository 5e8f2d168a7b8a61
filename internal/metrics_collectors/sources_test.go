package metrics_collectors_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	mc "github.com/benmeehan/fleet-agent/internal/metrics_collectors"
	"github.com/benmeehan/fleet-agent/internal/mocks"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func noSleep(calls *int) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*calls++
		return nil
	}
}

type cpuTimesSequence struct {
	samples []cpu.TimesStat
	err     error
	calls   int
}

func (c *cpuTimesSequence) read(context.Context) (cpu.TimesStat, error) {
	c.calls++
	if c.err != nil {
		return cpu.TimesStat{}, c.err
	}
	sample := c.samples[0]
	if len(c.samples) > 1 {
		c.samples = c.samples[1:]
	}
	return sample, nil
}

func times(user, nice, system, idle float64) cpu.TimesStat {
	return cpu.TimesStat{CPU: "cpu-total", User: user, Nice: nice, System: system, Idle: idle}
}

func noMemory(context.Context) (*mem.VirtualMemoryStat, error) { return nil, errors.New("unused") }

func noUptime(context.Context) (uint64, error) { return 0, errors.New("unused") }

func TestLinuxSource_CPUUsage_FirstSampleWaitsAndReadsTwice(t *testing.T) {
	reader := &cpuTimesSequence{samples: []cpu.TimesStat{times(100, 0, 10, 200), times(110, 0, 11, 210)}}

	sleeps := 0
	source := mc.NewLinuxSourceWithReaders(reader.read, noMemory, noUptime, noSleep(&sleeps))

	usage, err := source.CPUUsage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 52, usage)
	assert.Equal(t, 1, sleeps)
	assert.Equal(t, 2, reader.calls)
}

func TestLinuxSource_CPUUsage_KeepsCountersAcrossCycles(t *testing.T) {
	reader := &cpuTimesSequence{samples: []cpu.TimesStat{
		times(100, 0, 10, 200),
		times(110, 0, 11, 210),
		times(210, 0, 11, 210),
	}}

	sleeps := 0
	source := mc.NewLinuxSourceWithReaders(reader.read, noMemory, noUptime, noSleep(&sleeps))

	_, err := source.CPUUsage(context.Background())
	require.NoError(t, err)

	usage, err := source.CPUUsage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 100, usage)
	assert.Equal(t, 1, sleeps, "only the first sample waits")
	assert.Equal(t, 3, reader.calls)
}

func TestLinuxSource_CPUUsage_ReadError(t *testing.T) {
	reader := &cpuTimesSequence{err: errors.New("permission denied")}

	sleeps := 0
	source := mc.NewLinuxSourceWithReaders(reader.read, noMemory, noUptime, noSleep(&sleeps))

	_, err := source.CPUUsage(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, sleeps)
}

func TestLinuxSource_CPUUsage_CancelledDuringFirstWait(t *testing.T) {
	reader := &cpuTimesSequence{samples: []cpu.TimesStat{times(100, 0, 10, 200)}}

	source := mc.NewLinuxSourceWithReaders(reader.read, noMemory, noUptime, func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.CPUUsage(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, reader.calls)
}

func TestLinuxSource_MemoryAndUptime(t *testing.T) {
	virtualMemory := func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 1000 * 1024, Available: 400 * 1024}, nil
	}
	uptime := func(context.Context) (uint64, error) { return 36000, nil }

	sleeps := 0
	reader := &cpuTimesSequence{samples: []cpu.TimesStat{times(1, 0, 0, 1)}}
	source := mc.NewLinuxSourceWithReaders(reader.read, virtualMemory, uptime, noSleep(&sleeps))

	memUsage, err := source.MemoryUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, memUsage)

	hours, err := source.UptimeHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, hours)
}

func TestLinuxSource_MemoryError(t *testing.T) {
	source := mc.NewLinuxSourceWithReaders((&cpuTimesSequence{}).read, noMemory, noUptime, nil)

	_, err := source.MemoryUsage(context.Background())
	assert.Error(t, err)

	_, err = source.UptimeHours(context.Background())
	assert.Error(t, err)
}

func TestDarwinSource(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, "ps", []string{"-A", "-o", "%cpu"}).Return([]byte("%CPU\n 10.0\n 20.0\n"), nil)
	runner.On("Run", mock.Anything, "vm_stat", []string(nil)).Return([]byte("Pages free: 50.\nPages active: 25.\nPages wired down: 25.\n"), nil)

	bootTime := func(context.Context) (uint64, error) { return 1700000000, nil }
	now := func() time.Time { return time.Unix(1700000000+7*3600+59, 0) }
	source := mc.NewDarwinSourceWithClock(runner, func() (int, error) { return 4, nil }, bootTime, now)

	cpuUsage, err := source.CPUUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, cpuUsage)

	memUsage, err := source.MemoryUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, memUsage)

	hours, err := source.UptimeHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, hours)
}

func TestDarwinSource_UnknownCoreCountDefaultsToFour(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, "ps", []string{"-A", "-o", "%cpu"}).Return([]byte("%CPU\n80.0\n"), nil)

	source := mc.NewDarwinSourceWithClock(runner, func() (int, error) { return 0, errors.New("sysctl failed") }, host.BootTimeWithContext, time.Now)

	cpuUsage, err := source.CPUUsage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 20, cpuUsage)
}

func TestDarwinSource_CommandFailure(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, "vm_stat", []string(nil)).Return(nil, errors.New("not found"))

	source := mc.NewDarwinSource(runner)

	_, err := source.MemoryUsage(context.Background())
	assert.Error(t, err)
}

func TestDarwinSource_BootTimeFailure(t *testing.T) {
	bootTime := func(context.Context) (uint64, error) { return 0, errors.New("sysctl failed") }
	source := mc.NewDarwinSourceWithClock(new(mocks.MockCommandRunner), func() (int, error) { return 4, nil }, bootTime, time.Now)

	_, err := source.UptimeHours(context.Background())
	assert.Error(t, err)
}

func TestWindowsSource(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, "wmic", []string{"cpu", "get", "loadpercentage"}).Return([]byte("LoadPercentage\r\n50\r\n"), nil)
	runner.On("Run", mock.Anything, "wmic", []string{"os", "get", "FreePhysicalMemory,TotalVisibleMemorySize", "/value"}).
		Return([]byte("FreePhysicalMemory=400\r\nTotalVisibleMemorySize=1000\r\n"), nil)

	started := time.Unix(1000, 0)
	source := mc.NewWindowsSourceWithClock(runner, started, func() time.Time { return started.Add(3*time.Hour + time.Minute) })

	cpuUsage, err := source.CPUUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, cpuUsage)

	memUsage, err := source.MemoryUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, memUsage)

	hours, err := source.UptimeHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, hours)
}

func TestWindowsSource_UptimeFromElapsedDuration(t *testing.T) {
	started := time.Now()
	// Round(0) drops the monotonic reading, leaving a wall clock two hours behind the start.
	wallSteppedBack := started.Add(-2 * time.Hour).Round(0)
	source := mc.NewWindowsSourceWithClock(new(mocks.MockCommandRunner), started, func() time.Time {
		return started.Add(5 * time.Hour)
	})

	hours, err := source.UptimeHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, hours)

	source = mc.NewWindowsSourceWithClock(new(mocks.MockCommandRunner), started, func() time.Time { return wallSteppedBack })
	hours, err = source.UptimeHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, hours)
}

func TestUnsupportedSource(t *testing.T) {
	source := mc.NewUnsupportedSource("plan9")

	_, err := source.CPUUsage(context.Background())
	assert.ErrorIs(t, err, mc.ErrUnsupportedPlatform)
	_, err = source.MemoryUsage(context.Background())
	assert.ErrorIs(t, err, mc.ErrUnsupportedPlatform)
	_, err = source.UptimeHours(context.Background())
	assert.ErrorIs(t, err, mc.ErrUnsupportedPlatform)
	assert.Equal(t, "plan9", source.Name())
}

func TestMetricsRegistry_SourceFor(t *testing.T) {
	deps := mc.SourceDeps{Runner: new(mocks.MockCommandRunner)}
	registry := mc.NewMetricsRegistry()

	assert.IsType(t, &mc.LinuxSource{}, registry.SourceFor("linux", deps))
	assert.IsType(t, &mc.DarwinSource{}, registry.SourceFor("darwin", deps))
	assert.IsType(t, &mc.WindowsSource{}, registry.SourceFor("windows", deps))
	assert.IsType(t, &mc.UnsupportedSource{}, registry.SourceFor("solaris", deps))

	custom := new(mocks.MockMetricsSource)
	registry.Register("solaris", func(mc.SourceDeps) mc.MetricsSource { return custom })
	assert.Same(t, custom, registry.SourceFor("solaris", deps))
}

func TestNewMetricsSource_CurrentPlatform(t *testing.T) {
	source := mc.NewMetricsSource(runtime.GOOS, mc.SourceDeps{})
	assert.Equal(t, runtime.GOOS, source.Name())
}
