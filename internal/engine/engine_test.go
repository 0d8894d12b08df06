package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusenback/vitalviz/internal/alert"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

// fakeProvider serves scripted readings and can fail per category.
type fakeProvider struct {
	cpu    []float64
	cpuErr error
	mem    *model.Memory
	memErr error
	disks  []model.Disk
	net    *model.NetCounters
	netErr error
	procs  []model.Process
}

var _ sysinfo.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) CPUPerCore(context.Context) ([]float64, error) {
	if f.cpuErr != nil {
		return nil, f.cpuErr
	}
	return f.cpu, nil
}

func (f *fakeProvider) Memory(context.Context) (*model.Memory, error) {
	if f.memErr != nil {
		return nil, f.memErr
	}
	return f.mem, nil
}

func (f *fakeProvider) Disks(context.Context) ([]model.Disk, error) {
	return f.disks, nil
}

func (f *fakeProvider) NetCounters(context.Context) (*model.NetCounters, error) {
	if f.netErr != nil {
		return nil, f.netErr
	}
	if f.net == nil {
		return nil, errors.New("no counters scripted")
	}
	c := *f.net
	return &c, nil
}

func (f *fakeProvider) Host(context.Context) (model.HostInfo, error) {
	return model.HostInfo{Hostname: "testhost"}, nil
}

func (f *fakeProvider) Processes(context.Context, int) ([]model.Process, error) {
	return f.procs, nil
}

func (f *fakeProvider) Terminate(context.Context, int32) error { return nil }

func TestEngineRateScenario(t *testing.T) {
	p := &fakeProvider{
		cpu: []float64{10, 20},
		mem: &model.Memory{Percent: 40},
		net: &model.NetCounters{BytesSent: 1000},
	}
	e := New(p, WithTopProcesses(0))
	sink := &recordingConsumer{}
	e.Register(sink)

	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e.tick(ctx, t0)

	p.net = &model.NetCounters{BytesSent: 3000}
	e.tick(ctx, t0.Add(time.Second))

	// Counter reset: no negative rate, no panic.
	p.net = &model.NetCounters{BytesSent: 500}
	e.tick(ctx, t0.Add(2*time.Second))

	e.disp.close()
	ticks := sink.seen()
	require.Len(t, ticks, 3)

	require.NotNil(t, ticks[0].Rates)
	assert.Zero(t, ticks[0].Rates.BytesSentPerSec, "first tick has no baseline")

	require.NotNil(t, ticks[1].Rates)
	assert.Equal(t, 2000.0, ticks[1].Rates.BytesSentPerSec)

	require.NotNil(t, ticks[2].Rates)
	assert.Zero(t, ticks[2].Rates.BytesSentPerSec, "reset clamps to zero")

	// History carries the derived send rates in tick order.
	assert.Equal(t, []float64{0, 2000, 0}, ticks[2].History.Net.Sent)
	assert.Equal(t, []float64{10, 10, 10}, ticks[2].History.CPU[0])
}

func TestEngineClockAnomalyKeepsPreviousRates(t *testing.T) {
	p := &fakeProvider{
		cpu: []float64{5},
		mem: &model.Memory{Percent: 30},
		net: &model.NetCounters{BytesSent: 1000},
	}
	e := New(p, WithTopProcesses(0))
	sink := &recordingConsumer{}
	e.Register(sink)

	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e.tick(ctx, t0)
	p.net = &model.NetCounters{BytesSent: 2000}
	e.tick(ctx, t0.Add(time.Second)) // 1000 B/s

	// Same instant again: elapsed is zero, previous rates must survive.
	p.net = &model.NetCounters{BytesSent: 999999}
	e.tick(ctx, t0.Add(time.Second))

	e.disp.close()
	ticks := sink.seen()
	require.Len(t, ticks, 3)
	require.NotNil(t, ticks[2].Rates)
	assert.Equal(t, 1000.0, ticks[2].Rates.BytesSentPerSec)
}

func TestEngineDegradedCategory(t *testing.T) {
	p := &fakeProvider{
		cpu: []float64{50},
		mem: &model.Memory{Percent: 60},
		net: &model.NetCounters{BytesSent: 100},
	}
	e := New(p, WithTopProcesses(0))
	sink := &recordingConsumer{}
	e.Register(sink)

	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e.tick(ctx, t0)

	p.memErr = errors.New("permission denied")
	p.netErr = errors.New("transient syscall failure")
	e.tick(ctx, t0.Add(time.Second))

	p.memErr, p.netErr = nil, nil
	p.net = &model.NetCounters{BytesSent: 300}
	e.tick(ctx, t0.Add(2*time.Second))

	e.disp.close()
	ticks := sink.seen()
	require.Len(t, ticks, 3)

	// Degraded categories are absent, not stale.
	assert.Nil(t, ticks[1].Sample.Memory)
	assert.Nil(t, ticks[1].Sample.Net)
	assert.Nil(t, ticks[1].Rates)

	// Memory series skipped the bad tick; cpu kept recording throughout.
	assert.Len(t, ticks[2].History.Memory, 2)
	assert.Len(t, ticks[2].History.CPU[0], 3)

	// Elapsed is measured between good readings, so the gap does not
	// inflate the next rate: (300-100)/2s.
	require.NotNil(t, ticks[2].Rates)
	assert.Equal(t, 100.0, ticks[2].Rates.BytesSentPerSec)
}

func TestEngineEmitsAlertEvents(t *testing.T) {
	p := &fakeProvider{
		cpu: []float64{98, 96},
		mem: &model.Memory{Percent: 50},
		net: &model.NetCounters{},
	}
	e := New(p, WithTopProcesses(0))
	sink := &recordingConsumer{}
	e.Register(sink)

	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e.tick(ctx, t0) // cpu mean 97 > 90

	p.cpu = []float64{60, 60} // 60 < 70 clears
	e.tick(ctx, t0.Add(time.Second))

	e.disp.close()
	ticks := sink.seen()
	require.Len(t, ticks, 2)

	require.Len(t, ticks[0].Events, 1)
	assert.Equal(t, alert.Raised, ticks[0].Events[0].Kind)
	assert.Equal(t, alert.QuantityCPU, ticks[0].Events[0].Quantity)
	assert.Equal(t, 97.0, ticks[0].Events[0].Value)

	require.Len(t, ticks[1].Events, 1)
	assert.Equal(t, alert.Cleared, ticks[1].Events[0].Kind)

	assert.Equal(t, alert.Normal, e.AlertStates()[alert.QuantityCPU])
}

func TestEngineResetHistory(t *testing.T) {
	p := &fakeProvider{
		cpu: []float64{10},
		mem: &model.Memory{Percent: 20},
		net: &model.NetCounters{},
	}
	e := New(p, WithTopProcesses(0))

	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.tick(ctx, t0)
	e.tick(ctx, t0.Add(time.Second))
	require.Len(t, e.Snapshot().Timestamps, 2)

	e.ResetHistory()
	assert.Empty(t, e.Snapshot().Timestamps)
	assert.Empty(t, e.Snapshot().CPU)

	e.tick(ctx, t0.Add(2*time.Second))
	assert.Len(t, e.Snapshot().Timestamps, 1)
	assert.Len(t, e.Snapshot().CPU[0], 1)
}

func TestEngineIntervalClamped(t *testing.T) {
	p := &fakeProvider{}
	e := New(p, WithInterval(10*time.Millisecond))
	assert.Equal(t, MinInterval, e.Interval())

	e.SetInterval(30 * time.Millisecond)
	assert.Equal(t, MinInterval, e.Interval())

	e.SetInterval(2 * time.Second)
	assert.Equal(t, 2*time.Second, e.Interval())
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	p := &fakeProvider{
		cpu: []float64{1},
		mem: &model.Memory{Percent: 1},
		net: &model.NetCounters{},
	}
	e := New(p, WithTopProcesses(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond) // let the first tick land
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
