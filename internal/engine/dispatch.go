package engine

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Consumer receives completed ticks. OnTick is invoked once per tick, in
// tick order, never concurrently with itself. Errors count against the
// consumer; enough consecutive errors get it unregistered.
type Consumer interface {
	OnTick(Tick) error
}

const (
	// consumerQueueSize bounds each consumer's inbox. A consumer that falls
	// further behind loses the newest ticks until it catches up.
	consumerQueueSize = 32
	// maxConsecutiveFailures is how many ticks in a row a consumer may fail
	// before it is dropped.
	maxConsecutiveFailures = 5
)

// dispatcher fans completed ticks out to registered consumers. Every
// consumer runs on its own goroutine behind a bounded inbox, so one slow or
// broken consumer cannot stall the sampling loop or its peers.
type dispatcher struct {
	mu      sync.Mutex
	closed  bool
	workers map[Consumer]*worker
	wg      sync.WaitGroup
}

type worker struct {
	consumer Consumer
	inbox    chan Tick
	dropped  uint64
}

func newDispatcher() *dispatcher {
	return &dispatcher{workers: make(map[Consumer]*worker)}
}

func (d *dispatcher) register(c Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if _, ok := d.workers[c]; ok {
		return
	}
	w := &worker{consumer: c, inbox: make(chan Tick, consumerQueueSize)}
	d.workers[c] = w
	d.wg.Add(1)
	go d.run(w)
}

func (d *dispatcher) unregister(c Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.workers[c]; ok {
		delete(d.workers, c)
		close(w.inbox)
	}
}

// dispatch hands the tick to every inbox without blocking. A full inbox
// drops the tick for that consumer only; order of what does arrive is
// preserved.
func (d *dispatcher) dispatch(t Tick) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.workers {
		select {
		case w.inbox <- t:
		default:
			w.dropped++
			if w.dropped == 1 || w.dropped%100 == 0 {
				log.Warnf("consumer %T lagging, dropped %d ticks so far", w.consumer, w.dropped)
			}
		}
	}
}

// close drops all consumers and waits for in-flight deliveries to finish.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for c, w := range d.workers {
		delete(d.workers, c)
		close(w.inbox)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *dispatcher) run(w *worker) {
	defer d.wg.Done()
	failures := 0
	for t := range w.inbox {
		if err := deliver(w.consumer, t); err != nil {
			failures++
			log.Errorf("consumer %T failed on tick %d: %v", w.consumer, t.Seq, err)
			if failures >= maxConsecutiveFailures {
				log.Errorf("consumer %T failed %d ticks in a row, unregistering", w.consumer, failures)
				d.unregister(w.consumer)
				return
			}
			continue
		}
		failures = 0
	}
}

// deliver invokes the consumer, converting a panic into an error so one bad
// consumer cannot take the process down.
func deliver(c Consumer, t Tick) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.OnTick(t)
}
