package stats

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"mcpanel/internal/models"
)

// cpuSample is the last observed tick pair for one game process, used to
// compute a CPU-percent delta between consecutive stats requests. A changed
// pid invalidates the sample (server restarted under a new process).
type cpuSample struct {
	pid       int32
	procTicks float64
	hostTicks float64
}

// findServerProcess scans the process table for the process whose command
// line contains the server's filesystem root. Best effort: scan errors and
// unreadable entries are skipped.
func findServerProcess(ctx context.Context, serverRoot string) *process.Process {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil
	}
	for _, proc := range procs {
		cmdline, cerr := proc.CmdlineWithContext(ctx)
		if cerr != nil || cmdline == "" {
			continue
		}
		if strings.Contains(cmdline, serverRoot) {
			return proc
		}
	}
	return nil
}

// sampleProcess builds the target-process stats field. Returns nil when no
// matching process exists; the first sample after a process (re)start
// reports 0% CPU by construction, there is no prior delta to compare with.
func (c *Collector) sampleProcess(ctx context.Context, serverID, serverRoot string) *models.ProcessStats {
	proc := findServerProcess(ctx, serverRoot)
	if proc == nil {
		c.clearSample(serverID)
		return nil
	}

	times, err := proc.TimesWithContext(ctx)
	if err != nil {
		c.clearSample(serverID)
		return nil
	}
	hostTimes, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(hostTimes) == 0 {
		c.clearSample(serverID)
		return nil
	}

	sample := cpuSample{
		pid:       proc.Pid,
		procTicks: times.Total(),
		hostTicks: hostTotal(hostTimes[0]),
	}
	cpuPercent := c.swapSample(serverID, sample)

	var rss uint64
	if memInfo, merr := proc.MemoryInfoWithContext(ctx); merr == nil && memInfo != nil {
		rss = memInfo.RSS
	}

	return &models.ProcessStats{
		PID:        proc.Pid,
		CPUPercent: cpuPercent,
		RSSBytes:   rss,
	}
}

// swapSample stores the new tick pair and returns the CPU percent computed
// from the previous one. A missing or stale (different pid) previous sample
// yields 0.
func (c *Collector) swapSample(serverID string, sample cpuSample) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.samples[serverID]
	c.samples[serverID] = sample
	if !ok || prev.pid != sample.pid {
		return 0
	}
	deltaProc := sample.procTicks - prev.procTicks
	deltaHost := sample.hostTicks - prev.hostTicks
	if deltaProc <= 0 || deltaHost <= 0 {
		return 0
	}
	return clampPercent(deltaProc / deltaHost * 100)
}

func (c *Collector) clearSample(serverID string) {
	c.mu.Lock()
	delete(c.samples, serverID)
	c.mu.Unlock()
}

func hostTotal(stat cpu.TimesStat) float64 {
	return stat.User + stat.System + stat.Nice + stat.Idle + stat.Iowait +
		stat.Irq + stat.Softirq + stat.Steal + stat.Guest + stat.GuestNice
}

func clampPercent(val float64) float64 {
	if val < 0 {
		return 0
	}
	if val > 100 {
		return 100
	}
	return val
}
