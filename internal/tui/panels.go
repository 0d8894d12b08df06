package tui

import (
	"fmt"
	"strings"
)

// renderProcessPanel renders the process list panel
func (m Model) renderProcessPanel(width, height int) string {
	content := m.renderProcessPanelContent(width, height)
	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(content)
}

// renderProcessPanelContent renders the content of the process list panel
func (m Model) renderProcessPanelContent(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("⚙ Processes") + "\n")
	s.WriteString(m.hostLine() + "\n\n")

	if m.err != nil {
		s.WriteString(fmt.Sprintf("Error: %v\n", m.err))
		return s.String()
	}

	if m.loading {
		s.WriteString("Waiting for first sample...\n")
		return s.String()
	}

	procs := m.processes()
	if len(procs) == 0 {
		s.WriteString("Process listing disabled\n")
	} else {
		// Adjusted column widths for the panel
		colWidth := width - 10
		nameWidth := colWidth - 38
		if nameWidth < 10 {
			nameWidth = 10
		}

		header := fmt.Sprintf("%-8s %-10s %6s %6s %-9s %-*s",
			"PID", "USER", "%CPU", "%MEM", "STATUS", nameWidth, "NAME")
		s.WriteString(headerStyle.Render(header) + "\n")

		maxRows := height - 11 // Reserve space for header, help, message
		for i, p := range procs {
			if i >= maxRows {
				break
			}

			line := fmt.Sprintf("%-8d %-10s %6.1f %6.1f %-9s %-*s",
				p.PID,
				truncate(p.User, 10),
				p.CPUPercent,
				p.MemPercent,
				truncate(p.Status, 9),
				nameWidth, truncate(p.Name, nameWidth))

			if i == m.cursor {
				s.WriteString(selectedStyle.Render("> " + line))
			} else {
				s.WriteString("  " + line)
			}
			s.WriteString("\n")
		}
	}

	if m.message != "" {
		s.WriteString("\n" + m.message + "\n")
	}

	help := "\n[↑/k] up  [↓/j] down  [x] terminate  [z] clear history  [e] export  [n] notify  [q] quit"
	s.WriteString(helpStyle.Render(help))

	return s.String()
}

// hostLine summarizes host identity in one line
func (m Model) hostLine() string {
	if m.host == nil {
		return helpStyle.Render("resolving host...")
	}
	h := m.host
	return helpStyle.Render(fmt.Sprintf("%s | %s %s (%s) | up %s | %d procs",
		h.Hostname, h.Platform, h.PlatformVersion, h.KernelArch,
		formatUptime(h.Uptime()), h.Procs))
}

// renderVitalsPanel renders the live vitals panel
func (m Model) renderVitalsPanel(width, height int) string {
	content := RenderVitals(m.tick, m.engine.AlertStates())
	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(content)
}

// renderGraphPanel renders the graph panel with historical data
func (m Model) renderGraphPanel(width, height int) string {
	var content string

	// Query from storage if available; fall back to the in-memory
	// history otherwise.
	rendered := false
	if m.storage != nil {
		points, err := m.storage.Query(m.timeRange)
		if err == nil && len(points) > 0 {
			cpuData := make([]float64, len(points))
			memData := make([]float64, len(points))
			for i, p := range points {
				cpuData[i] = p.CPUMean
				memData[i] = p.MemoryPercent
			}
			secs := secondsPerPoint(points)
			content = renderDualGraphWithRange(cpuData, memData, width-4, height-4, m.timeRange, secs)
			rendered = true
		}
	}
	if !rendered {
		cpuData, memData := m.memorySeries()
		content = renderDualGraphWithRange(cpuData, memData, width-4, height-4, m.timeRange, m.engine.Interval().Seconds())
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(content)
}

// memorySeries extracts graph series from the in-memory history of the
// latest tick.
func (m Model) memorySeries() (cpu, mem []float64) {
	if m.tick == nil {
		return nil, nil
	}
	return cpuMeanSeries(m.tick.History), m.tick.History.Memory
}

// renderDiskPanel renders the mounted volumes panel
func (m Model) renderDiskPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("▤ Disks") + "\n\n")

	var disks []diskRow
	if m.tick != nil {
		for _, d := range m.tick.Sample.Disks {
			disks = append(disks, diskRow{d.Mount, d.Used, d.Total, d.Percent})
		}
	}

	if len(disks) == 0 {
		s.WriteString("No disk data yet...")
	} else {
		mountWidth := 14
		barLength := width - 50
		if barLength < 10 {
			barLength = 10
		}

		maxRows := height - 7
		for i, d := range disks {
			if i >= maxRows {
				break
			}
			bar := renderBar(d.percent, barLength)
			line := fmt.Sprintf("%-*s %9s / %-9s %5.1f%% |%s|",
				mountWidth, truncate(d.mount, mountWidth),
				formatBytes(d.used), formatBytes(d.total),
				d.percent, bar)
			s.WriteString(colorize(d.percent, line) + "\n")
		}
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

type diskRow struct {
	mount   string
	used    uint64
	total   uint64
	percent float64
}
