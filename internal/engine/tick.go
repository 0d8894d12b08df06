package engine

import (
	"github.com/rusenback/vitalviz/internal/alert"
	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/model"
)

// Tick is one completed pass of the sampling pipeline: the raw sample, the
// rates derived from it, a history snapshot taken after the sample was
// recorded, and any alert transitions the pass caused. Rates is nil when
// the network category was unavailable this tick.
type Tick struct {
	Seq     uint64           `json:"seq"`
	Sample  model.Sample     `json:"sample"`
	Rates   *model.Rates     `json:"rates,omitempty"`
	History history.Snapshot `json:"history"`
	Events  []alert.Event    `json:"events,omitempty"`
}
