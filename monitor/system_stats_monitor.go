package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ChintuIdrive/host-health-watchdog/analyzer"
	"ChintuIdrive/host-health-watchdog/conf"
	"ChintuIdrive/host-health-watchdog/dto"
)

var breachLabels = map[string]string{
	string(dto.DimensionCPU):    "CPU",
	string(dto.DimensionMemory): "Memory",
	string(dto.DimensionDisk):   "Disk",
}

// SystemStatsMonitor polls the host, checks the thresholds and raises alerts.
// It runs on the caller's goroutine until ctx is cancelled.
type SystemStatsMonitor struct {
	source     SnapshotSource
	notifier   Notifier
	recorder   Recorder
	thresholds *conf.ThresholdConfig
	logger     *zap.Logger

	// tick is the sleep granularity; cancellation is noticed within one tick.
	tick time.Duration
}

func NewSystemStatsMonitor(source SnapshotSource, notifier Notifier, thresholds *conf.ThresholdConfig, logger *zap.Logger) *SystemStatsMonitor {
	return &SystemStatsMonitor{
		source:     source,
		notifier:   notifier,
		recorder:   nopRecorder{},
		thresholds: thresholds,
		logger:     logger,
		tick:       time.Second,
	}
}

// WithRecorder makes the monitor report snapshots, alerts and dispatch
// outcomes to recorder.
func (ssm *SystemStatsMonitor) WithRecorder(recorder Recorder) *SystemStatsMonitor {
	ssm.recorder = recorder
	return ssm
}

// Run warms up the CPU sampler and polls until ctx is done. It returns nil on
// a graceful shutdown and a wrapped error when a snapshot cannot be built.
func (ssm *SystemStatsMonitor) Run(ctx context.Context) error {
	if err := ssm.start(ctx); err != nil {
		return err
	}
	for ctx.Err() == nil {
		if err := ssm.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if !ssm.sleep(ctx) {
			break
		}
	}
	ssm.logger.Info("Received termination signal. Exiting gracefully...")
	return nil
}

// RunOnce warms up and performs a single poll cycle.
func (ssm *SystemStatsMonitor) RunOnce(ctx context.Context) error {
	if err := ssm.start(ctx); err != nil {
		return err
	}
	return ssm.Poll(ctx)
}

func (ssm *SystemStatsMonitor) start(ctx context.Context) error {
	if err := ssm.source.WarmUp(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	ssm.logger.Info(fmt.Sprintf("Starting system health monitor. Polling every %d seconds",
		ssm.thresholds.PollIntervalSeconds))
	return nil
}

// Poll runs one cycle: snapshot, summary log, evaluation and, on a breach,
// dispatch to every channel.
func (ssm *SystemStatsMonitor) Poll(ctx context.Context) error {
	snapshot, err := ssm.source.Build(ctx)
	if err != nil {
		return fmt.Errorf("poll cycle: %w", err)
	}
	ssm.logger.Info(fmt.Sprintf("Snapshot: CPU=%.2f%%, MEM=%.2f%%, DISK=%.2f%%",
		snapshot.CPUPercent, snapshot.Memory.Percent, snapshot.Disk.Percent))
	ssm.recorder.ObserveSnapshot(snapshot)

	triggered, dimension := analyzer.Evaluate(snapshot, ssm.thresholds)
	if !triggered {
		return nil
	}
	if metric, ok := analyzer.BreachedMetric(snapshot, ssm.thresholds); ok {
		ssm.logger.Debug(fmt.Sprintf("%s threshold breached: %.2f%% >= %.2f%%",
			breachLabels[metric.Name], metric.Value, metric.Threshold))
	}
	ssm.logger.Warn(fmt.Sprintf("Threshold breached (%s). Sending alerts.", dimension))
	ssm.recorder.AlertRaised(dimension)

	result := ssm.notifier.NotifyAll(ctx, dto.AlertEvent{Snapshot: snapshot, Dimension: dimension})
	ssm.logger.Info("alert dispatch finished", zap.Any("result", result))
	ssm.recorder.RecordDispatch(result)
	return nil
}

// sleep waits for one poll interval in tick sized steps. It reports false
// when ctx ended first.
func (ssm *SystemStatsMonitor) sleep(ctx context.Context) bool {
	ticks := int(ssm.thresholds.PollInterval() / ssm.tick)
	if ticks < 1 {
		ticks = 1
	}
	ticker := time.NewTicker(ssm.tick)
	defer ticker.Stop()

	for range ticks {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return ctx.Err() == nil
}
