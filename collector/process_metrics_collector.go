package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"syscall"

	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// Processes lists the visible pids once and reads each process lazily as the
// sequence is consumed. A process that exits between listing and reading
// surfaces as an error for that entry only.
//
// CPU percent covers the time since the previous Processes call; a pid seen
// for the first time reports 0.
func (ssc *SystemStatsCollector) Processes(ctx context.Context) (iter.Seq2[ProcessInfo, error], error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	processList := ssc.track(pids)

	return func(yield func(ProcessInfo, error) bool) {
		for _, proc := range processList {
			if !yield(readProcess(ctx, proc, memStats.Total)) {
				return
			}
		}
	}, nil
}

// track returns a handle for every pid, reusing the handle from the previous
// call when the pid was already known. Pids that are gone are forgotten.
func (ssc *SystemStatsCollector) track(pids []int32) []*process.Process {
	ssc.mu.Lock()
	defer ssc.mu.Unlock()

	live := make(map[int32]*process.Process, len(pids))
	processList := make([]*process.Process, 0, len(pids))
	for _, pid := range pids {
		proc, ok := ssc.tracked[pid]
		if !ok {
			proc = &process.Process{Pid: pid}
		}
		live[pid] = proc
		processList = append(processList, proc)
	}
	ssc.tracked = live
	return processList
}

func readProcess(ctx context.Context, proc *process.Process, totalMem uint64) (ProcessInfo, error) {
	info := ProcessInfo{PID: proc.Pid}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return info, fmt.Errorf("pid %d name: %w", proc.Pid, err)
	}
	cpuPercent, err := proc.PercentWithContext(ctx, 0)
	if err != nil {
		return info, fmt.Errorf("pid %d cpu percent: %w", proc.Pid, err)
	}
	memInfo, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return info, fmt.Errorf("pid %d memory info: %w", proc.Pid, err)
	}

	info.Name = name
	info.CPUPercent = cpuPercent
	info.MemoryPercent = memoryPercent(memInfo.RSS, totalMem)
	return info, nil
}

func memoryPercent(rss, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(rss) / float64(total)
}

// IsRecoverable reports whether a per-process read failed because the
// process is gone or not readable by us. Such entries are dropped from the
// snapshot instead of failing it.
func IsRecoverable(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ESRCH)
}
