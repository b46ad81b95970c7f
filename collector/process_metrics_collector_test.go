package collector

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackReusesHandlesAndForgetsGonePids(t *testing.T) {
	ssc := NewSystemStatsCollector()

	first := ssc.track([]int32{10, 20, 30})
	require.Len(t, first, 3)

	second := ssc.track([]int32{20, 40})
	require.Len(t, second, 2)
	assert.Same(t, first[1], second[0], "pid 20 keeps its handle")
	assert.Equal(t, int32(40), second[1].Pid)

	assert.Len(t, ssc.tracked, 2)
	assert.NotContains(t, ssc.tracked, int32(10))
	assert.NotContains(t, ssc.tracked, int32(30))

	third := ssc.track([]int32{10})
	assert.NotSame(t, first[0], third[0], "a pid that went away starts fresh")
}

func TestProcessCPUCoversOnlyTheLastWindow(t *testing.T) {
	ctx := context.Background()
	vm, err := mem.VirtualMemoryWithContext(ctx)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for n := 0; time.Now().Before(deadline); n++ {
		_ = n * n
	}

	ssc := NewSystemStatsCollector()
	self := int32(os.Getpid())
	procs := ssc.track([]int32{self})
	info, err := readProcess(ctx, procs[0], vm.Total)
	require.NoError(t, err)
	assert.Zero(t, info.CPUPercent, "first sighting of a pid reports 0")
	assert.Greater(t, info.MemoryPercent, 0.0)

	time.Sleep(1500 * time.Millisecond)

	procs = ssc.track([]int32{self})
	info, err = readProcess(ctx, procs[0], vm.Total)
	require.NoError(t, err)
	assert.Less(t, info.CPUPercent, 15.0, "busy second before the window must not count")
}

func TestProcessesYieldsCurrentProcess(t *testing.T) {
	ssc := NewSystemStatsCollector()
	seq, err := ssc.Processes(context.Background())
	require.NoError(t, err)

	self := int32(os.Getpid())
	found := false
	for info, err := range seq {
		if err != nil {
			continue
		}
		if info.PID == self {
			found = true
			assert.NotEmpty(t, info.Name)
			break
		}
	}
	assert.True(t, found)
	assert.Contains(t, ssc.tracked, self)
}

func TestMemoryPercent(t *testing.T) {
	assert.Equal(t, 25.0, memoryPercent(1<<30, 4<<30))
	assert.Zero(t, memoryPercent(1<<30, 0))
}
