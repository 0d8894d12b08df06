package tui

import (
	"github.com/rusenback/vitalviz/internal/engine"
)

// Listener adapts the engine's consumer callback to bubbletea's message
// pump. OnTick never blocks: if the UI is behind, the tick is skipped
// and the next one catches the screen up.
type Listener struct {
	ch chan engine.Tick
}

var _ engine.Consumer = (*Listener)(nil)

func NewListener() *Listener {
	return &Listener{ch: make(chan engine.Tick, 8)}
}

func (l *Listener) OnTick(t engine.Tick) error {
	select {
	case l.ch <- t:
	default:
	}
	return nil
}
