package dto

// Dimension names the resource whose threshold triggered an alert.
type Dimension string

const (
	DimensionNone   Dimension = ""
	DimensionCPU    Dimension = "cpu"
	DimensionMemory Dimension = "memory"
	DimensionDisk   Dimension = "disk"
)

// AlertEvent is a snapshot together with the dimension that breached.
// It only lives for the duration of one dispatch.
type AlertEvent struct {
	Snapshot  *MetricsSnapshot
	Dimension Dimension
}

// DispatchResult maps a channel name to whether its send succeeded.
// Skipped (disabled) channels report false.
type DispatchResult map[string]bool
