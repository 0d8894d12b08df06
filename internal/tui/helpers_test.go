package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/storage"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a ver...", truncate("a very long name", 8))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestRenderBarClamps(t *testing.T) {
	assert.Equal(t, "██────────", renderBar(20, 10))
	assert.Equal(t, "██████████", renderBar(150, 10))
	assert.Equal(t, "──────────", renderBar(-5, 10))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "10.00 KB", formatBytes(10_000))
	assert.Equal(t, "2.50 MB", formatBytes(2_500_000))
	assert.Equal(t, "1.20 GB", formatBytes(1_200_000_000))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0 B/s", formatRate(0))
	assert.Equal(t, "1.5 KB/s", formatRate(1500))
	assert.Equal(t, "3.0 MB/s", formatRate(3_000_000))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42m", formatUptime(42*time.Minute))
	assert.Equal(t, "3h 5m", formatUptime(3*time.Hour+5*time.Minute))
	assert.Equal(t, "2d 4h", formatUptime(52*time.Hour))
}

func TestCPUMeanSeries(t *testing.T) {
	snap := history.Snapshot{CPU: map[int][]float64{
		0: {10, 20, 30},
		1: {30, 40, 50},
	}}
	assert.Equal(t, []float64{20, 30, 40}, cpuMeanSeries(snap))
}

func TestCPUMeanSeriesAlignsShortCores(t *testing.T) {
	// Core 1 missed the oldest sample; the mean there comes from core 0
	// alone.
	snap := history.Snapshot{CPU: map[int][]float64{
		0: {10, 20, 30},
		1: {40, 50},
	}}
	assert.Equal(t, []float64{10, 30, 40}, cpuMeanSeries(snap))
}

func TestCPUMeanSeriesEmpty(t *testing.T) {
	assert.Nil(t, cpuMeanSeries(history.Snapshot{}))
}

func TestAlignSeries(t *testing.T) {
	a, b := alignSeries([]float64{1, 2}, []float64{3, 4, 5, 6})
	assert.Equal(t, []float64{0, 0, 1, 2}, a)
	assert.Equal(t, []float64{3, 4, 5, 6}, b)

	a, b = alignSeries([]float64{1, 2}, []float64{3, 4})
	assert.Equal(t, []float64{1, 2}, a)
	assert.Equal(t, []float64{3, 4}, b)
}

func TestSecondsPerPoint(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points := []storage.DataPoint{
		{Timestamp: base},
		{Timestamp: base.Add(30 * time.Second)},
		{Timestamp: base.Add(60 * time.Second)},
	}
	assert.Equal(t, 30.0, secondsPerPoint(points))
	assert.Equal(t, 1.0, secondsPerPoint(points[:1]))
}

func TestRenderSparklinePadsToWidth(t *testing.T) {
	line := renderSparkline(nil, 12)
	assert.Equal(t, 12, len([]rune(line)))

	line = renderSparkline([]float64{1, 2, 3}, 8)
	assert.Equal(t, 8, len([]rune(line)))
}
