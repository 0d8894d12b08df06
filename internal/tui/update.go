package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rusenback/vitalviz/internal/alert"
	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/storage"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.processes())-1 {
				m.cursor++
			}

		case "x":
			if procs := m.processes(); len(procs) > 0 {
				p := procs[m.cursor]
				return m, terminateProcess(m.provider, p.PID, p.Name)
			}

		case "z":
			m.engine.ResetHistory()
			m.message = "History cleared"

		case "e":
			return m, exportSnapshot(m.engine.Snapshot(), m.exportDir)

		case "n":
			if m.notifier != nil {
				enabled := !m.notifier.Enabled()
				m.notifier.SetEnabled(enabled)
				if enabled {
					m.message = "Notifications: on"
				} else {
					m.message = "Notifications: off"
				}
			}

		case "1":
			m.timeRange = storage.Range30Min
		case "2":
			m.timeRange = storage.Range1Hour
		case "3":
			m.timeRange = storage.Range6Hour
		case "4":
			m.timeRange = storage.Range1Day
		case "5":
			m.timeRange = storage.Range1Week
		}

	case tickMsg:
		m.loading = false
		t := engine.Tick(msg)
		m.tick = &t

		// Keep the cursor on a valid row when the process list shrinks
		if n := len(m.processes()); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		}

		for _, ev := range t.Events {
			m.message = formatEvent(ev)
		}
		return m, m.waitForTick()

	case hostMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.host = &msg.info
		}

	case actionMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.message = msg.message
		}
	}

	return m, nil
}

// processes returns the process list of the latest tick.
func (m Model) processes() []model.Process {
	if m.tick == nil {
		return nil
	}
	return m.tick.Sample.Processes
}

func formatEvent(ev alert.Event) string {
	if ev.Kind == alert.Raised {
		return fmt.Sprintf("⚠ High %s usage: %.1f%%", ev.Quantity, ev.Value)
	}
	return fmt.Sprintf("%s usage back to normal: %.1f%%", ev.Quantity, ev.Value)
}
