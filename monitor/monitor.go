package monitor

import (
	"context"

	"ChintuIdrive/host-health-watchdog/dto"
)

// SnapshotSource is the part of collector.SnapshotBuilder the loop drives.
type SnapshotSource interface {
	WarmUp(ctx context.Context) error
	Build(ctx context.Context) (*dto.MetricsSnapshot, error)
}

// Notifier delivers one alert to every configured channel.
type Notifier interface {
	NotifyAll(ctx context.Context, event dto.AlertEvent) dto.DispatchResult
}

// Recorder receives what the loop observes. api.Recorder implements it.
type Recorder interface {
	ObserveSnapshot(snapshot *dto.MetricsSnapshot)
	AlertRaised(dimension dto.Dimension)
	RecordDispatch(result dto.DispatchResult)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSnapshot(*dto.MetricsSnapshot) {}
func (nopRecorder) AlertRaised(dto.Dimension)            {}
func (nopRecorder) RecordDispatch(dto.DispatchResult)    {}
