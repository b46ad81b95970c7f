package collector

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"ChintuIdrive/host-health-watchdog/conf"
	"ChintuIdrive/host-health-watchdog/dto"
)

const bytesPerGB = 1 << 30

type SnapshotBuilder struct {
	source    MetricsSource
	partition string
	topN      int
	now       func() time.Time
}

func NewSnapshotBuilder(source MetricsSource, thresholds *conf.ThresholdConfig) *SnapshotBuilder {
	return &SnapshotBuilder{
		source:    source,
		partition: thresholds.DiskPartition,
		topN:      thresholds.TopN,
		now:       time.Now,
	}
}

// WarmUp takes the discarded CPU reading that later non-blocking reads are
// measured against. Without it the first snapshot reports a meaningless CPU value.
func (sb *SnapshotBuilder) WarmUp(ctx context.Context) error {
	if _, err := sb.source.CPUPercent(ctx); err != nil {
		return fmt.Errorf("cpu warm-up: %w", err)
	}
	return nil
}

func (sb *SnapshotBuilder) Build(ctx context.Context) (*dto.MetricsSnapshot, error) {
	timestamp := sb.now().UTC()

	cpuPercent, err := sb.source.CPUPercent(ctx)
	if err != nil {
		return nil, err
	}
	memUsage, err := sb.source.VirtualMemory(ctx)
	if err != nil {
		return nil, err
	}
	diskUsage, err := sb.source.DiskUsage(ctx, sb.partition)
	if err != nil {
		return nil, err
	}
	topProcesses, err := sb.topProcesses(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.MetricsSnapshot{
		Timestamp:  timestamp,
		CPUPercent: round2(cpuPercent),
		Memory: dto.MemoryStats{
			TotalGB:     bytesToGB(memUsage.Total),
			AvailableGB: bytesToGB(memUsage.Available),
			UsedGB:      bytesToGB(memUsage.Used),
			Percent:     round2(memUsage.UsedPercent),
		},
		Disk: dto.DiskStats{
			Path:    sb.partition,
			TotalGB: bytesToGB(diskUsage.Total),
			UsedGB:  bytesToGB(diskUsage.Used),
			FreeGB:  bytesToGB(diskUsage.Free),
			Percent: round2(diskUsage.UsedPercent),
		},
		TopProcesses: topProcesses,
	}, nil
}

func (sb *SnapshotBuilder) topProcesses(ctx context.Context) ([]dto.ProcessStats, error) {
	processes, err := sb.source.Processes(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]dto.ProcessStats, 0)
	for info, err := range processes {
		if err != nil {
			if IsRecoverable(err) {
				continue
			}
			return nil, err
		}
		stats = append(stats, dto.ProcessStats{
			PID:           info.PID,
			Name:          info.Name,
			CPUPercent:    round2(info.CPUPercent),
			MemoryPercent: round2(info.MemoryPercent),
		})
	}

	slices.SortStableFunc(stats, func(a, b dto.ProcessStats) int {
		if c := cmp.Compare(b.CPUPercent, a.CPUPercent); c != 0 {
			return c
		}
		return cmp.Compare(b.MemoryPercent, a.MemoryPercent)
	})

	if len(stats) > sb.topN {
		stats = stats[:sb.topN]
	}
	return stats, nil
}

func bytesToGB(b uint64) float64 {
	return round2(float64(b) / bytesPerGB)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
