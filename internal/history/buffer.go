package history

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of points kept per series unless configured
// otherwise.
const DefaultCapacity = 60

// Series IDs the engine records. Core series are built with CoreSeries.
const (
	SeriesMemory  = "memory.percent"
	SeriesNetSent = "net.sent"
	SeriesNetRecv = "net.recv"
)

const coreSeriesPrefix = "cpu.core."

// CoreSeries returns the series ID for one CPU core.
func CoreSeries(core int) string {
	return coreSeriesPrefix + strconv.Itoa(core)
}

func coreIndex(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, coreSeriesPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Buffer keeps bounded per-metric history plus an aligned timestamp track.
// The sampling tick is the only writer; renderers and exporters snapshot
// concurrently through the same lock, so a reader never sees half a tick.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	times    *ring[time.Time]
	series   map[string]*ring[float64]
}

// New returns an empty Buffer. Capacities below 1 are raised to 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		capacity: capacity,
		times:    newRing[time.Time](capacity),
		series:   make(map[string]*ring[float64]),
	}
}

// Append records one completed tick: the timestamp plus one point per
// series. The whole tick lands atomically.
func (b *Buffer) Append(ts time.Time, points map[string]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.times.push(ts)
	for id, v := range points {
		b.seriesLocked(id).push(v)
	}
}

// Push appends one point to one series without advancing the timestamp
// track.
func (b *Buffer) Push(id string, v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seriesLocked(id).push(v)
}

func (b *Buffer) seriesLocked(id string) *ring[float64] {
	s, ok := b.series[id]
	if !ok {
		s = newRing[float64](b.capacity)
		b.series[id] = s
	}
	return s
}

// Values returns a copy of one series, oldest first. Unknown IDs yield nil.
func (b *Buffer) Values(id string) []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.series[id]
	if !ok {
		return nil
	}
	return s.values()
}

// Timestamps returns the recorded tick instants, oldest first.
func (b *Buffer) Timestamps() []time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.times.values()
}

func (b *Buffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.capacity
}

// SetCapacity changes the bound for every series. Shrinking truncates from
// the front, oldest points dropped first.
func (b *Buffer) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if capacity == b.capacity {
		return
	}
	b.capacity = capacity
	b.times = b.times.resize(capacity)
	for id, s := range b.series {
		b.series[id] = s.resize(capacity)
	}
}

// Reset clears every series and the timestamp track.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.times = newRing[time.Time](b.capacity)
	b.series = make(map[string]*ring[float64])
}
