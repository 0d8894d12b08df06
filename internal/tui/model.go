package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/notify"
	"github.com/rusenback/vitalviz/internal/storage"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

// Model represents the TUI application state
type Model struct {
	engine   *engine.Engine
	provider sysinfo.Provider
	listener *Listener

	tick    *engine.Tick
	host    *model.HostInfo
	cursor  int
	err     error
	loading bool
	message string
	width   int
	height  int

	// Storage and time range for the graph panel. Storage may be nil,
	// in which case the graph falls back to the in-memory history.
	storage   *storage.Storage
	timeRange storage.TimeRange

	notifier  *notify.Log
	exportDir string
}

// Message types for Bubbletea update loop
type tickMsg engine.Tick

type hostMsg struct {
	info model.HostInfo
	err  error
}

type actionMsg struct {
	message string
	err     error
}

// NewModel creates a new TUI model
func NewModel(eng *engine.Engine, provider sysinfo.Provider, store *storage.Storage, notifier *notify.Log, exportDir string) Model {
	return Model{
		engine:    eng,
		provider:  provider,
		listener:  NewListener(),
		loading:   true,
		storage:   store,
		timeRange: storage.Range30Min,
		notifier:  notifier,
		exportDir: exportDir,
	}
}

// Listener returns the consumer to register with the engine.
func (m Model) Listener() *Listener {
	return m.listener
}

// Init initializes the model and returns initial commands
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchHost(m.provider), m.waitForTick())
}

// waitForTick blocks until the engine publishes the next tick.
func (m Model) waitForTick() tea.Cmd {
	return func() tea.Msg {
		return tickMsg(<-m.listener.ch)
	}
}
