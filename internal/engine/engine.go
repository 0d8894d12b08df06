package engine

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rusenback/vitalviz/internal/alert"
	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

// Sampling cadence bounds. Intervals below MinInterval are clamped up.
const (
	DefaultInterval = time.Second
	MinInterval     = 100 * time.Millisecond
)

const (
	defaultProviderTimeout = 5 * time.Second
	defaultTopProcesses    = 10
)

// Options configure an Engine.
type Options struct {
	Interval        time.Duration
	HistoryCapacity int
	Thresholds      map[string]alert.Thresholds
	TopProcesses    int
	ProviderTimeout time.Duration
}

// Option mutates Options before the Engine is built.
type Option func(*Options)

func WithInterval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

func WithHistoryCapacity(n int) Option {
	return func(o *Options) { o.HistoryCapacity = n }
}

func WithThresholds(t map[string]alert.Thresholds) Option {
	return func(o *Options) { o.Thresholds = t }
}

// WithTopProcesses sets how many processes each sample carries; 0 disables
// process listing.
func WithTopProcesses(n int) Option {
	return func(o *Options) { o.TopProcesses = n }
}

func WithProviderTimeout(d time.Duration) Option {
	return func(o *Options) { o.ProviderTimeout = d }
}

func defaultOptions() Options {
	return Options{
		Interval:        DefaultInterval,
		HistoryCapacity: history.DefaultCapacity,
		Thresholds:      alert.DefaultThresholds(),
		TopProcesses:    defaultTopProcesses,
		ProviderTimeout: defaultProviderTimeout,
	}
}

// Engine owns the sampling loop: every interval it reads one Sample from
// the provider, derives network rates, records history, evaluates alert
// thresholds and fans the completed tick out to registered consumers.
//
// The tick path is the sole writer of rate and history state. Consumers
// read through snapshots, so they never see a partially recorded tick.
type Engine struct {
	provider sysinfo.Provider
	history  *history.Buffer
	alerts   *alert.Monitor
	disp     *dispatcher

	providerTimeout time.Duration

	mu           sync.Mutex
	interval     time.Duration
	topProcesses int
	seq          uint64
	prevNet      *model.NetCounters
	prevNetAt    time.Time
	lastRates    model.Rates
}

// New builds an Engine around a provider. Call Run to start sampling.
func New(provider sysinfo.Provider, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		provider:        provider,
		history:         history.New(o.HistoryCapacity),
		alerts:          alert.NewMonitor(o.Thresholds),
		disp:            newDispatcher(),
		providerTimeout: o.ProviderTimeout,
		interval:        clampInterval(o.Interval),
		topProcesses:    o.TopProcesses,
	}
}

// Run drives the sampling loop until ctx is canceled. The first tick fires
// immediately. Run is one-shot: once it returns, consumers have been
// released and the Engine is done.
func (e *Engine) Run(ctx context.Context) {
	defer e.disp.close()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			e.tick(ctx, time.Now())
			timer.Reset(e.Interval())
		}
	}
}

// tick runs one pass of the pipeline at the given instant.
func (e *Engine) tick(ctx context.Context, now time.Time) {
	sample := e.collect(ctx, now)

	e.mu.Lock()
	e.seq++
	seq := e.seq

	var rates *model.Rates
	if sample.Net != nil {
		switch {
		case e.prevNet == nil:
			// First reading, no baseline: all rates report zero.
			rates = &model.Rates{}
		default:
			elapsed := now.Sub(e.prevNetAt).Seconds()
			if elapsed <= 0 {
				// Clock did not advance or moved backwards. Keep the
				// previous rates instead of dividing by it.
				log.Warnf("non-positive elapsed time between samples (%.3fs), keeping previous rates", elapsed)
				r := e.lastRates
				rates = &r
			} else {
				r := deriveRates(*e.prevNet, *sample.Net, elapsed)
				rates = &r
			}
		}
		e.prevNet = sample.Net
		e.prevNetAt = now
		e.lastRates = *rates
	}

	points := make(map[string]float64, len(sample.CPU)+3)
	for core, pct := range sample.CPU {
		points[history.CoreSeries(core)] = pct
	}
	if sample.Memory != nil {
		points[history.SeriesMemory] = sample.Memory.Percent
	}
	if rates != nil {
		points[history.SeriesNetSent] = rates.BytesSentPerSec
		points[history.SeriesNetRecv] = rates.BytesRecvPerSec
	}
	e.mu.Unlock()

	e.history.Append(now, points)

	var events []alert.Event
	if len(sample.CPU) > 0 {
		if ev := e.alerts.Observe(alert.QuantityCPU, model.CPUMean(sample.CPU), now); ev != nil {
			events = append(events, *ev)
		}
	}
	if sample.Memory != nil {
		if ev := e.alerts.Observe(alert.QuantityMemory, sample.Memory.Percent, now); ev != nil {
			events = append(events, *ev)
		}
	}

	// Dispatch happens outside every lock; a slow consumer blocks nothing.
	e.disp.dispatch(Tick{
		Seq:     seq,
		Sample:  sample,
		Rates:   rates,
		History: e.history.Snapshot(),
		Events:  events,
	})
}

// collect reads every category, each under its own timeout. A category that
// fails is logged and left unset; the tick still happens.
func (e *Engine) collect(ctx context.Context, now time.Time) model.Sample {
	sample := model.Sample{Timestamp: now}

	e.bounded(ctx, "cpu", func(c context.Context) error {
		cpu, err := e.provider.CPUPerCore(c)
		if err == nil {
			sample.CPU = cpu
		}
		return err
	})
	e.bounded(ctx, "memory", func(c context.Context) error {
		mem, err := e.provider.Memory(c)
		if err == nil {
			sample.Memory = mem
		}
		return err
	})
	e.bounded(ctx, "disks", func(c context.Context) error {
		disks, err := e.provider.Disks(c)
		if err == nil {
			sample.Disks = disks
		}
		return err
	})
	e.bounded(ctx, "network", func(c context.Context) error {
		net, err := e.provider.NetCounters(c)
		if err == nil {
			sample.Net = net
		}
		return err
	})

	if top := e.TopProcesses(); top > 0 {
		e.bounded(ctx, "processes", func(c context.Context) error {
			procs, err := e.provider.Processes(c, top)
			if err == nil {
				sample.Processes = procs
			}
			return err
		})
	}
	return sample
}

// bounded runs one provider call under its own timeout. Failure, timeout
// included, degrades the category for this tick only.
func (e *Engine) bounded(ctx context.Context, category string, read func(context.Context) error) {
	cctx, cancel := context.WithTimeout(ctx, e.providerTimeout)
	defer cancel()
	if err := read(cctx); err != nil {
		log.Warnf("%s read failed, category degraded for this tick: %v", category, err)
	}
}

// Register adds a consumer; it starts receiving ticks immediately.
func (e *Engine) Register(c Consumer) { e.disp.register(c) }

// Unregister removes a consumer. Already queued ticks are still delivered.
func (e *Engine) Unregister(c Consumer) { e.disp.unregister(c) }

// Snapshot returns the current history in export shape.
func (e *Engine) Snapshot() history.Snapshot { return e.history.Snapshot() }

// AlertStates returns the current state per monitored quantity.
func (e *Engine) AlertStates() map[string]alert.State { return e.alerts.States() }

// ResetHistory clears every recorded series. Alert state is left alone; an
// active alert still needs to clear through its threshold.
func (e *Engine) ResetHistory() {
	log.Info("history reset")
	e.history.Reset()
}

func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// SetInterval changes the sampling period from the next tick on.
func (e *Engine) SetInterval(d time.Duration) {
	d = clampInterval(d)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interval = d
}

func (e *Engine) TopProcesses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.topProcesses
}

func (e *Engine) SetTopProcesses(n int) {
	if n < 0 {
		n = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topProcesses = n
}

// SetHistoryCapacity rebounds every series, truncating oldest points when
// shrinking.
func (e *Engine) SetHistoryCapacity(n int) { e.history.SetCapacity(n) }

// SetThresholds replaces the alerting policy at runtime.
func (e *Engine) SetThresholds(t map[string]alert.Thresholds) { e.alerts.SetThresholds(t) }

func clampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}
