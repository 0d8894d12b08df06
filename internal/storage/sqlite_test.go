package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/model"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"30m", Range30Min, false},
		{"1h", Range1Hour, false},
		{"6hours", Range6Hour, false},
		{"24h", Range1Day, false},
		{"1w", Range1Week, false},
		{"fortnight", Range30Min, true},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStorageWriteAndQuery(t *testing.T) {
	s := newTestStorage(t)

	now := time.Now()
	s.batchWrite([]*SampleEntry{
		{Timestamp: now.Add(-2 * time.Minute), CPUMean: 10, MemoryPercent: 40, NetSentRate: 100, NetRecvRate: 200},
		{Timestamp: now.Add(-1 * time.Minute), CPUMean: 20, MemoryPercent: 50, NetSentRate: 300, NetRecvRate: 400},
	})

	points, err := s.Query(Range30Min)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 10.0, points[0].CPUMean)
	assert.Equal(t, 50.0, points[1].MemoryPercent)
	assert.Equal(t, 300.0, points[1].NetSentRate)
	assert.Equal(t, 400.0, points[1].NetRecvRate)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
}

func TestStorageQueryWindow(t *testing.T) {
	s := newTestStorage(t)

	now := time.Now()
	s.batchWrite([]*SampleEntry{
		{Timestamp: now.Add(-2 * time.Hour), CPUMean: 99},
		{Timestamp: now.Add(-10 * time.Second), CPUMean: 5},
	})

	// The short window only sees the fresh row.
	points, err := s.Query(Range30Min)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 5.0, points[0].CPUMean)

	// The longer window sees both, snapped into buckets.
	points, err = s.Query(Range6Hour)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestStorageBatchDelete(t *testing.T) {
	s := newTestStorage(t)

	now := time.Now()
	s.batchWrite([]*SampleEntry{
		{Timestamp: now.Add(-8 * 24 * time.Hour), CPUMean: 1},
		{Timestamp: now, CPUMean: 2},
	})
	s.batchDelete(now.Add(-retention).Unix())

	points, err := s.Query(Range1Week)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].CPUMean)
}

func TestEntryFromTick(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := engine.Tick{
		Sample: model.Sample{
			Timestamp: ts,
			CPU:       []float64{10, 30},
			Memory:    &model.Memory{Percent: 55},
		},
		Rates: &model.Rates{BytesSentPerSec: 123, BytesRecvPerSec: 456},
	}

	entry := entryFromTick(tick)
	assert.Equal(t, ts, entry.Timestamp)
	assert.Equal(t, 20.0, entry.CPUMean)
	assert.Equal(t, 55.0, entry.MemoryPercent)
	assert.Equal(t, 123.0, entry.NetSentRate)
	assert.Equal(t, 456.0, entry.NetRecvRate)

	// Degraded tick: zeros, not garbage.
	entry = entryFromTick(engine.Tick{Sample: model.Sample{Timestamp: ts}})
	assert.Zero(t, entry.CPUMean)
	assert.Zero(t, entry.MemoryPercent)
	assert.Zero(t, entry.NetSentRate)
}
