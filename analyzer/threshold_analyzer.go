package analyzer

import (
	"ChintuIdrive/host-health-watchdog/conf"
	"ChintuIdrive/host-health-watchdog/dto"
)

// Evaluate checks cpu, memory and disk in that order and reports the first
// dimension whose value meets or exceeds its threshold. Only one dimension is
// reported even when several breach at once; the alert body carries the full
// snapshot either way.
func Evaluate(snapshot *dto.MetricsSnapshot, thresholds *conf.ThresholdConfig) (bool, dto.Dimension) {
	metric, breached := BreachedMetric(snapshot, thresholds)
	if !breached {
		return false, dto.DimensionNone
	}
	return true, dto.Dimension(metric.Name)
}

// BreachedMetric is Evaluate returning the value/threshold pair that
// triggered, for callers that want to report it.
func BreachedMetric(snapshot *dto.MetricsSnapshot, thresholds *conf.ThresholdConfig) (dto.Metric[float64], bool) {
	for _, metric := range dimensionMetrics(snapshot, thresholds) {
		if metric.Breached() {
			return metric, true
		}
	}
	return dto.Metric[float64]{}, false
}

func dimensionMetrics(snapshot *dto.MetricsSnapshot, thresholds *conf.ThresholdConfig) []dto.Metric[float64] {
	return []dto.Metric[float64]{
		{Name: string(dto.DimensionCPU), Value: snapshot.CPUPercent, Threshold: thresholds.CPUPercent},
		{Name: string(dto.DimensionMemory), Value: snapshot.Memory.Percent, Threshold: thresholds.MemPercent},
		{Name: string(dto.DimensionDisk), Value: snapshot.Disk.Percent, Threshold: thresholds.DiskPercent},
	}
}
