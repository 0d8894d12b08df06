// internal/model/sample.go
package model

import "time"

// Sample is one point-in-time reading of host telemetry. A nil or empty
// category means that category could not be read this tick and renders as
// unavailable rather than stale.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`

	// CPU load per core, 0-100, ordered by core index.
	CPU []float64 `json:"cpu"`

	Memory *Memory      `json:"memory,omitempty"`
	Disks  []Disk       `json:"disks,omitempty"`
	Net    *NetCounters `json:"net,omitempty"`

	// Top processes by CPU usage, empty when listing is disabled.
	Processes []Process `json:"processes,omitempty"`
}

// CPUMean returns the average of per-core percentages, 0 for an empty set.
func CPUMean(cores []float64) float64 {
	if len(cores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range cores {
		sum += v
	}
	return sum / float64(len(cores))
}

// Memory describes physical memory occupancy.
type Memory struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Used      uint64  `json:"used"`
	Free      uint64  `json:"free"`
	Percent   float64 `json:"percent"`
}

// Disk describes usage of one mounted volume.
type Disk struct {
	Device  string  `json:"device"`
	Mount   string  `json:"mount"`
	Fstype  string  `json:"fstype"`
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// NetCounters holds cumulative network totals since boot, summed over all
// interfaces. Counters only grow, but an interface restart or a counter
// wraparound can send one back to zero.
type NetCounters struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}
