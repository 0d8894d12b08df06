package alert

import (
	"sync"
	"time"
)

// Monitored quantity names. Threshold configuration is keyed by these.
const (
	QuantityCPU    = "cpu"
	QuantityMemory = "memory"
)

// State of one monitored quantity.
type State int

const (
	Normal State = iota
	Alerted
)

func (s State) String() string {
	if s == Alerted {
		return "alerted"
	}
	return "normal"
}

// Kind of threshold transition.
type Kind int

const (
	Raised Kind = iota
	Cleared
)

func (k Kind) String() string {
	if k == Cleared {
		return "cleared"
	}
	return "raised"
}

// MarshalJSON serializes the kind by name so API consumers see
// "raised"/"cleared" rather than enum ordinals.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Thresholds is a hysteresis pair: a quantity alerts above Enter and returns
// to normal below Clear. Clear must stay below Enter; values between the two
// cause no transition.
type Thresholds struct {
	Enter float64
	Clear float64
}

// DefaultThresholds returns the stock policy: CPU mean 90/70, memory
// percent 85/75.
func DefaultThresholds() map[string]Thresholds {
	return map[string]Thresholds{
		QuantityCPU:    {Enter: 90, Clear: 70},
		QuantityMemory: {Enter: 85, Clear: 75},
	}
}

// Event is one threshold transition.
type Event struct {
	Quantity string    `json:"quantity"`
	Kind     Kind      `json:"kind"`
	Value    float64   `json:"value"`
	At       time.Time `json:"at"`
}

// Monitor tracks alert state per quantity. The sampling tick feeds it one
// value per quantity per tick; threshold changes may come from a config
// watcher, hence the lock.
type Monitor struct {
	mu         sync.Mutex
	thresholds map[string]Thresholds
	states     map[string]State
}

// NewMonitor returns a Monitor with every quantity in Normal state.
func NewMonitor(thresholds map[string]Thresholds) *Monitor {
	m := &Monitor{states: make(map[string]State)}
	m.SetThresholds(thresholds)
	return m
}

// SetThresholds replaces the threshold table. Quantities that remain
// configured keep their current state; dropped ones are forgotten.
func (m *Monitor) SetThresholds(thresholds map[string]Thresholds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = make(map[string]Thresholds, len(thresholds))
	for q, th := range thresholds {
		m.thresholds[q] = th
		if _, ok := m.states[q]; !ok {
			m.states[q] = Normal
		}
	}
	for q := range m.states {
		if _, ok := m.thresholds[q]; !ok {
			delete(m.states, q)
		}
	}
}

// Observe feeds one value and returns the transition it caused, or nil.
// Unconfigured quantities never transition.
func (m *Monitor) Observe(quantity string, value float64, at time.Time) *Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	th, ok := m.thresholds[quantity]
	if !ok {
		return nil
	}
	switch m.states[quantity] {
	case Normal:
		if value > th.Enter {
			m.states[quantity] = Alerted
			return &Event{Quantity: quantity, Kind: Raised, Value: value, At: at}
		}
	case Alerted:
		if value < th.Clear {
			m.states[quantity] = Normal
			return &Event{Quantity: quantity, Kind: Cleared, Value: value, At: at}
		}
	}
	return nil
}

// State reports the current state of one quantity.
func (m *Monitor) State(quantity string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[quantity]
}

// States returns a copy of every tracked quantity's state.
func (m *Monitor) States() map[string]State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]State, len(m.states))
	for q, s := range m.states {
		out[q] = s
	}
	return out
}
