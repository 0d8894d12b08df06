package sysinfo

import (
	"context"
	"fmt"
	"sort"

	psproc "github.com/shirou/gopsutil/v4/process"

	"github.com/rusenback/vitalviz/internal/model"
)

// Processes lists the top limit processes by CPU usage. Individual processes
// that exit mid-scan are skipped.
func (p *HostProvider) Processes(ctx context.Context, limit int) ([]model.Process, error) {
	if limit <= 0 {
		return nil, nil
	}

	procs, err := psproc.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("process list: %w", err)
	}

	rows := make([]model.Process, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			// Gone between listing and inspection.
			continue
		}
		cpuPct, _ := proc.CPUPercentWithContext(ctx)
		memPct, _ := proc.MemoryPercentWithContext(ctx)
		user, _ := proc.UsernameWithContext(ctx)
		status := ""
		if st, err := proc.StatusWithContext(ctx); err == nil && len(st) > 0 {
			status = st[0]
		}
		rows = append(rows, model.Process{
			PID:        proc.Pid,
			User:       user,
			Name:       name,
			CPUPercent: cpuPct,
			MemPercent: float64(memPct),
			Status:     status,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CPUPercent > rows[j].CPUPercent })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Terminate asks the process to exit (SIGTERM on unix).
func (p *HostProvider) Terminate(ctx context.Context, pid int32) error {
	proc, err := psproc.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("process %d: %w", pid, err)
	}
	if err := proc.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("terminate %d: %w", pid, err)
	}
	return nil
}
