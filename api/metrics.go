package api

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"ChintuIdrive/host-health-watchdog/dto"
)

// Recorder exposes the watchdog's own view of the host as Prometheus metrics
// and keeps the latest snapshot for the JSON handlers.
type Recorder struct {
	registry *prometheus.Registry
	latest   atomic.Pointer[dto.MetricsSnapshot]

	cpuUsage      prometheus.Gauge
	memUsage      prometheus.Gauge
	diskUsage     *prometheus.GaugeVec
	lastSnapshot  prometheus.Gauge
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostwatch_cpu_usage_percent",
			Help: "System wide CPU usage percentage from the latest snapshot",
		}),
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostwatch_memory_used_percent",
			Help: "Virtual memory used percentage from the latest snapshot",
		}),
		diskUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hostwatch_disk_used_percent",
			Help: "Used percentage of the monitored partition",
		}, []string{"path"}),
		lastSnapshot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostwatch_last_snapshot_timestamp_seconds",
			Help: "Unix timestamp of the latest snapshot",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostwatch_alerts_total",
			Help: "Threshold breaches that triggered an alert, by dimension",
		}, []string{"dimension"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostwatch_notifications_total",
			Help: "Channel send attempts, by channel and result",
		}, []string{"channel", "result"}),
	}
	r.registry.MustRegister(
		r.cpuUsage, r.memUsage, r.diskUsage, r.lastSnapshot,
		r.alerts, r.notifications,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Latest returns the most recent snapshot, or nil before the first poll.
func (r *Recorder) Latest() *dto.MetricsSnapshot {
	return r.latest.Load()
}

func (r *Recorder) ObserveSnapshot(snapshot *dto.MetricsSnapshot) {
	r.latest.Store(snapshot)
	r.cpuUsage.Set(snapshot.CPUPercent)
	r.memUsage.Set(snapshot.Memory.Percent)
	r.diskUsage.WithLabelValues(snapshot.Disk.Path).Set(snapshot.Disk.Percent)
	r.lastSnapshot.Set(float64(snapshot.Timestamp.Unix()))
}

func (r *Recorder) AlertRaised(dimension dto.Dimension) {
	r.alerts.WithLabelValues(string(dimension)).Inc()
}

func (r *Recorder) RecordDispatch(result dto.DispatchResult) {
	for channel, ok := range result {
		r.notifications.WithLabelValues(channel, strconv.FormatBool(ok)).Inc()
	}
}
