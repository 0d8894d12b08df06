package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorHysteresis(t *testing.T) {
	m := NewMonitor(map[string]Thresholds{
		QuantityCPU: {Enter: 90, Clear: 70},
	})
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 95 raises, 85 and 75 sit in or above the dead band, 65 clears.
	events := make([]*Event, 0, 4)
	for _, v := range []float64{95, 85, 75, 65} {
		events = append(events, m.Observe(QuantityCPU, v, at))
	}

	require.NotNil(t, events[0])
	assert.Equal(t, Raised, events[0].Kind)
	assert.Equal(t, 95.0, events[0].Value)
	assert.Equal(t, QuantityCPU, events[0].Quantity)

	assert.Nil(t, events[1])
	assert.Nil(t, events[2])

	require.NotNil(t, events[3])
	assert.Equal(t, Cleared, events[3].Kind)
	assert.Equal(t, 65.0, events[3].Value)

	assert.Equal(t, Normal, m.State(QuantityCPU))
}

func TestMonitorThresholdsExclusive(t *testing.T) {
	m := NewMonitor(map[string]Thresholds{
		QuantityMemory: {Enter: 85, Clear: 75},
	})
	at := time.Now()

	assert.Nil(t, m.Observe(QuantityMemory, 85, at), "value equal to enter must not raise")
	require.NotNil(t, m.Observe(QuantityMemory, 85.1, at))

	assert.Nil(t, m.Observe(QuantityMemory, 75, at), "value equal to clear must not clear")
	require.NotNil(t, m.Observe(QuantityMemory, 74.9, at))
}

func TestMonitorRaisesOnce(t *testing.T) {
	m := NewMonitor(DefaultThresholds())
	at := time.Now()

	require.NotNil(t, m.Observe(QuantityCPU, 99, at))
	for i := 0; i < 5; i++ {
		assert.Nil(t, m.Observe(QuantityCPU, 99, at))
	}
	assert.Equal(t, Alerted, m.State(QuantityCPU))
}

func TestMonitorTracksConfiguredQuantities(t *testing.T) {
	m := NewMonitor(DefaultThresholds())

	// Every configured quantity reports Normal before any observation,
	// so status lines can render a full set from the first frame.
	states := m.States()
	assert.Len(t, states, 2)
	assert.Equal(t, Normal, states[QuantityCPU])
	assert.Equal(t, Normal, states[QuantityMemory])
}

func TestMonitorUnknownQuantity(t *testing.T) {
	m := NewMonitor(DefaultThresholds())
	assert.Nil(t, m.Observe("swap", 100, time.Now()))
	assert.Equal(t, Normal, m.State("swap"))
}

func TestMonitorSetThresholds(t *testing.T) {
	m := NewMonitor(map[string]Thresholds{
		QuantityCPU:    {Enter: 90, Clear: 70},
		QuantityMemory: {Enter: 85, Clear: 75},
	})
	at := time.Now()
	require.NotNil(t, m.Observe(QuantityCPU, 95, at))

	// Tightening keeps the alerted state; dropping a quantity forgets it.
	m.SetThresholds(map[string]Thresholds{
		QuantityCPU: {Enter: 50, Clear: 40},
	})
	assert.Equal(t, Alerted, m.State(QuantityCPU))
	assert.NotContains(t, m.States(), QuantityMemory)

	require.NotNil(t, m.Observe(QuantityCPU, 30, at))
	assert.Equal(t, Normal, m.State(QuantityCPU))
}
