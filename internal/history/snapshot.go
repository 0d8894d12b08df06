package history

import "time"

// Snapshot is the record handed to renderers and exporters: the timestamp
// track plus every recorded series, oldest first.
type Snapshot struct {
	Timestamps []time.Time       `json:"timestamps"`
	CPU        map[int][]float64 `json:"cpu"`
	Memory     []float64         `json:"memory"`
	Net        NetSeries         `json:"network"`
}

// NetSeries pairs the derived send and receive rate histories.
type NetSeries struct {
	Sent []float64 `json:"sent"`
	Recv []float64 `json:"received"`
}

// Snapshot copies the buffer contents into an export record.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Timestamps: b.times.values(),
		CPU:        make(map[int][]float64),
	}
	for id, s := range b.series {
		if core, ok := coreIndex(id); ok {
			snap.CPU[core] = s.values()
		}
	}
	if s, ok := b.series[SeriesMemory]; ok {
		snap.Memory = s.values()
	}
	if s, ok := b.series[SeriesNetSent]; ok {
		snap.Net.Sent = s.values()
	}
	if s, ok := b.series[SeriesNetRecv]; ok {
		snap.Net.Recv = s.values()
	}
	return snap
}
