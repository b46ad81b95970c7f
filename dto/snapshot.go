package dto

import "time"

// MetricsSnapshot is one point-in-time capture of host resource usage.
// It is built once per poll cycle and never modified afterwards.
type MetricsSnapshot struct {
	Timestamp    time.Time      `json:"timestamp"`
	CPUPercent   float64        `json:"cpu_percent"`
	Memory       MemoryStats    `json:"memory"`
	Disk         DiskStats      `json:"disk"`
	TopProcesses []ProcessStats `json:"top_processes"`
}

type MemoryStats struct {
	TotalGB     float64 `json:"total_gb"`
	AvailableGB float64 `json:"available_gb"`
	UsedGB      float64 `json:"used_gb"`
	Percent     float64 `json:"percent"`
}

type DiskStats struct {
	Path    string  `json:"path"`
	TotalGB float64 `json:"total_gb"`
	UsedGB  float64 `json:"used_gb"`
	FreeGB  float64 `json:"free_gb"`
	Percent float64 `json:"percent"`
}

type ProcessStats struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}
