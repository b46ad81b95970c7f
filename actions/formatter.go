package actions

import (
	"fmt"
	"strings"
	"time"

	"ChintuIdrive/host-health-watchdog/dto"
)

const subjectMarker = "[ALERT]"

// AlertFormatter renders snapshots into the subject and body shared by every
// channel.
type AlertFormatter struct {
	hostname string
}

func NewAlertFormatter(hostname string) *AlertFormatter {
	return &AlertFormatter{hostname: hostname}
}

func (af *AlertFormatter) Subject() string {
	return fmt.Sprintf("%s System health issue on %s", subjectMarker, af.hostname)
}

func (af *AlertFormatter) Body(snapshot *dto.MetricsSnapshot) string {
	lines := []string{
		fmt.Sprintf("Host: %s", af.hostname),
		fmt.Sprintf("Time: %s", snapshot.Timestamp.UTC().Format(time.RFC3339)),
		fmt.Sprintf("CPU: %.2f%%", snapshot.CPUPercent),
		fmt.Sprintf("Memory: used=%.2fGB total=%.2fGB percent=%.2f%%",
			snapshot.Memory.UsedGB, snapshot.Memory.TotalGB, snapshot.Memory.Percent),
		fmt.Sprintf("Disk (%s): used=%.2fGB total=%.2fGB percent=%.2f%%",
			snapshot.Disk.Path, snapshot.Disk.UsedGB, snapshot.Disk.TotalGB, snapshot.Disk.Percent),
		"Top processes:",
	}
	for _, proc := range snapshot.TopProcesses {
		lines = append(lines, fmt.Sprintf("  %d %s cpu%%=%.2f mem%%=%.2f",
			proc.PID, proc.Name, proc.CPUPercent, proc.MemoryPercent))
	}
	return strings.Join(lines, "\n")
}
