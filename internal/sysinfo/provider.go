package sysinfo

import (
	"context"

	"github.com/rusenback/vitalviz/internal/model"
)

// Provider supplies raw host telemetry. Every call honors ctx so the
// sampling loop can bound it with a timeout; a failed call degrades that
// category for one tick and must not be treated as fatal by callers.
type Provider interface {
	// CPUPerCore returns load percentages per core since the previous call.
	CPUPerCore(ctx context.Context) ([]float64, error)
	// Memory returns physical memory occupancy.
	Memory(ctx context.Context) (*model.Memory, error)
	// Disks returns usage for mounted volumes, ordered by mount path.
	Disks(ctx context.Context) ([]model.Disk, error)
	// NetCounters returns cumulative network totals over all interfaces.
	NetCounters(ctx context.Context) (*model.NetCounters, error)
	// Host returns identity of the sampled machine.
	Host(ctx context.Context) (model.HostInfo, error)
	// Processes returns the top limit processes by CPU usage.
	Processes(ctx context.Context, limit int) ([]model.Process, error)
	// Terminate asks the process with the given pid to exit.
	Terminate(ctx context.Context, pid int32) error
}

var _ Provider = (*HostProvider)(nil)
