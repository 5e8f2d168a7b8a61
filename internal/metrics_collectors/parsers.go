package metrics_collectors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/cpu"
)

// idleIndex is the position of the idle counter in the slice built by CPUCounters.
const idleIndex = 3

// CPUCounters orders aggregate CPU times the way the kernel lists them:
// user, nice, system, idle, iowait, irq, softirq, steal, guest, guest_nice.
func CPUCounters(t cpu.TimesStat) []float64 {
	return []float64{t.User, t.Nice, t.System, t.Idle, t.Iowait, t.Irq, t.Softirq, t.Steal, t.Guest, t.GuestNice}
}

// CPUUsageFromTimes computes utilization between two aggregate CPU time samples.
func CPUUsageFromTimes(prev, curr cpu.TimesStat) (int, error) {
	return CPUUsageFromDelta(CPUCounters(prev), CPUCounters(curr))
}

// CPUUsageFromDelta computes 100 * (total_delta - idle_delta) / total_delta between two
// counter snapshots. A zero total delta yields 0.
func CPUUsageFromDelta(prev, curr []float64) (int, error) {
	n := min(len(prev), len(curr))
	if n <= idleIndex {
		return 0, fmt.Errorf("need at least %d cpu counters, got %d", idleIndex+1, n)
	}

	var total, idle float64
	for i := 0; i < n; i++ {
		d := curr[i] - prev[i]
		total += d
		if i == idleIndex {
			idle = d
		}
	}
	if total <= 0 {
		return 0, nil
	}
	return clampPercent(int(100 * (total - idle) / total)), nil
}

// MemoryUsageFromAvailable computes 100 * (total - available) / total.
func MemoryUsageFromAvailable(total, available uint64) (int, error) {
	if total == 0 {
		return 0, errors.New("total memory not reported")
	}
	if available > total {
		return 0, nil
	}
	return clampPercent(int(100 * (total - available) / total)), nil
}

// ParsePsCPU sums the per-process CPU percentages printed by `ps -A -o %cpu`.
// The first line is the column header.
func ParsePsCPU(output string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return 0, errors.New("no process rows in ps output")
	}

	var sum float64
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid cpu percentage %q: %w", line, err)
		}
		sum += v
	}
	return sum, nil
}

// CPUUsageFromProcessSum divides a summed per-process CPU percentage by the logical
// core count (4 when unknown) and caps the result at 100.
func CPUUsageFromProcessSum(sum float64, cores int) int {
	if cores <= 0 {
		cores = 4
	}
	return clampPercent(int(sum / float64(cores)))
}

// ParseVMStat parses `vm_stat` output into page counts keyed by label.
// Lines whose value is not a plain integer (such as the page size header) are skipped.
func ParseVMStat(output string) map[string]uint64 {
	pages := make(map[string]uint64)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSuffix(strings.TrimSpace(value), ".")
		if !isDigits(value) {
			continue
		}
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			continue
		}
		pages[strings.TrimSpace(key)] = v
	}
	return pages
}

// MemoryUsageFromVMStat computes 100 * (active + wired) / (active + wired + free + speculative).
// The denominator is floored at 1.
func MemoryUsageFromVMStat(pages map[string]uint64) int {
	used := pages["Pages active"] + pages["Pages wired down"]
	total := used + pages["Pages free"] + pages["Pages speculative"]
	if total < 1 {
		total = 1
	}
	return clampPercent(int(100 * used / total))
}

// ParseWMICLoad returns the first purely numeric line of `wmic cpu get loadpercentage`.
func ParseWMICLoad(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !isDigits(line) {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return 0, err
		}
		return clampPercent(v), nil
	}
	return 0, errors.New("no load percentage in wmic output")
}

// ParseWMICMemory computes memory utilization from
// `wmic os get FreePhysicalMemory,TotalVisibleMemorySize /value`.
func ParseWMICMemory(output string) (int, error) {
	values := make(map[string]uint64)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid wmic value for %s: %w", key, err)
		}
		values[strings.TrimSpace(key)] = v
	}

	total, ok := values["TotalVisibleMemorySize"]
	if !ok || total == 0 {
		return 0, errors.New("TotalVisibleMemorySize missing from wmic output")
	}
	free, ok := values["FreePhysicalMemory"]
	if !ok {
		return 0, errors.New("FreePhysicalMemory missing from wmic output")
	}
	if free > total {
		return 0, nil
	}
	return clampPercent(int(100 * (total - free) / total)), nil
}

// UptimeHoursSince returns whole hours between bootEpoch and nowEpoch, never negative.
func UptimeHoursSince(bootEpoch, nowEpoch int64) int {
	if nowEpoch <= bootEpoch {
		return 0
	}
	return int((nowEpoch - bootEpoch) / 3600)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
