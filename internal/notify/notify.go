package notify

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/rusenback/vitalviz/internal/alert"
	"github.com/rusenback/vitalviz/internal/engine"
)

// Log writes alert transitions to the log, standing in for desktop
// notifications: raised alerts at warning level, cleared ones at info.
// It is an ordinary consumer, so a stuck log destination can never hold
// up sampling.
type Log struct {
	enabled atomic.Bool
}

var _ engine.Consumer = (*Log)(nil)

// NewLog returns a sink. enabled mirrors the notifications_enabled setting.
func NewLog(enabled bool) *Log {
	l := &Log{}
	l.enabled.Store(enabled)
	return l
}

// SetEnabled flips delivery at runtime.
func (l *Log) SetEnabled(enabled bool) { l.enabled.Store(enabled) }

// Enabled reports whether events are currently written.
func (l *Log) Enabled() bool { return l.enabled.Load() }

// OnTick logs any transitions the tick carried.
func (l *Log) OnTick(t engine.Tick) error {
	if !l.enabled.Load() {
		return nil
	}
	for _, ev := range t.Events {
		switch ev.Kind {
		case alert.Raised:
			log.Warnf("high %s usage: %.1f%%", ev.Quantity, ev.Value)
		case alert.Cleared:
			log.Infof("%s usage back to normal: %.1f%%", ev.Quantity, ev.Value)
		}
	}
	return nil
}
