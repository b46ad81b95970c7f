package collector

import (
	"context"
	"iter"
)

// MetricsSource is the point-in-time view of the host the snapshot builder
// reads from. Per-process reads in Processes may fail independently.
type MetricsSource interface {
	// CPUPercent returns overall CPU usage since the previous call.
	CPUPercent(ctx context.Context) (float64, error)
	VirtualMemory(ctx context.Context) (*MemoryUsage, error)
	DiskUsage(ctx context.Context, path string) (*DiskUsage, error)
	Processes(ctx context.Context) (iter.Seq2[ProcessInfo, error], error)
}

type MemoryUsage struct {
	Total       uint64
	Available   uint64
	Used        uint64
	UsedPercent float64
}

type DiskUsage struct {
	Path        string
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
}

type ProcessInfo struct {
	PID           int32
	Name          string
	CPUPercent    float64
	MemoryPercent float64
}
