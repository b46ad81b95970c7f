package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// SystemStatsCollector reads host metrics through gopsutil. It keeps one
// process handle per live pid so per-process CPU is measured between polls.
type SystemStatsCollector struct {
	mu      sync.Mutex
	tracked map[int32]*process.Process
}

func NewSystemStatsCollector() *SystemStatsCollector {
	return &SystemStatsCollector{
		tracked: make(map[int32]*process.Process),
	}
}

// CPUPercent is non-blocking: it measures against the CPU times recorded by
// the previous call, so the first call after start-up is only a baseline.
func (ssc *SystemStatsCollector) CPUPercent(ctx context.Context) (float64, error) {
	cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(cpuUsage) == 0 {
		return 0, errors.New("cpu percent: no samples returned")
	}
	return cpuUsage[0], nil
}

func (ssc *SystemStatsCollector) VirtualMemory(ctx context.Context) (*MemoryUsage, error) {
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	return &MemoryUsage{
		Total:       memStats.Total,
		Available:   memStats.Available,
		Used:        memStats.Used,
		UsedPercent: memStats.UsedPercent,
	}, nil
}

func (ssc *SystemStatsCollector) DiskUsage(ctx context.Context, path string) (*DiskUsage, error) {
	diskUsageStat, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("disk usage for %s: %w", path, err)
	}
	return &DiskUsage{
		Path:        path,
		Total:       diskUsageStat.Total,
		Used:        diskUsageStat.Used,
		Free:        diskUsageStat.Free,
		UsedPercent: diskUsageStat.UsedPercent,
	}, nil
}
