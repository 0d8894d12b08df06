package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rusenback/vitalviz/internal/alert"
	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/model"
)

// RenderVitals renders the live readings of the latest tick
func RenderVitals(tick *engine.Tick, states map[string]alert.State) string {
	if tick == nil {
		return helpStyle.Render("No samples yet")
	}

	s := tick.Sample
	barLength := 24

	// CPU box
	var cpu strings.Builder
	if len(s.CPU) == 0 {
		cpu.WriteString("unavailable this tick")
	} else {
		mean := model.CPUMean(s.CPU)
		cpu.WriteString(colorize(mean, fmt.Sprintf("mean  %6.2f%% |%s|", mean, renderBar(mean, barLength))))
		for i, v := range s.CPU {
			cpu.WriteString("\n" + colorize(v, fmt.Sprintf("cpu%-3d %6.2f%% |%s|", i, v, renderBar(v, barLength))))
		}
	}
	cpuBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#89B4FA")).
		Padding(0, 1).
		Render("CPU\n" + cpu.String())

	// Memory box
	var mem string
	if s.Memory == nil {
		mem = "unavailable this tick"
	} else {
		bar := renderBar(s.Memory.Percent, barLength)
		mem = colorize(s.Memory.Percent, fmt.Sprintf("%s / %s (%.1f%%) |%s|",
			formatBytes(s.Memory.Used), formatBytes(s.Memory.Total), s.Memory.Percent, bar))
	}
	memBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#A6E3A1")).
		Padding(0, 1).
		Render("MEM\n" + mem)

	// Network rates with a short trend of the send rate
	var net string
	if tick.Rates == nil {
		net = "Network: unavailable this tick"
	} else {
		net = fmt.Sprintf("Network: ↑ %9s  ↓ %9s  (%.0f/%.0f pkt/s)",
			formatRate(tick.Rates.BytesSentPerSec), formatRate(tick.Rates.BytesRecvPerSec),
			tick.Rates.PacketsSentPerSec, tick.Rates.PacketsRecvPerSec)
	}
	netStr := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89B4FA")).
		Render(net)
	trend := graphAxisStyle.Render("send    ") + cpuGraphStyle.Render(renderSparkline(tick.History.Net.Sent, barLength)) + "\n" +
		graphAxisStyle.Render("receive ") + memGraphStyle.Render(renderSparkline(tick.History.Net.Recv, barLength))

	return lipgloss.JoinVertical(lipgloss.Left,
		cpuBox,
		memBox,
		netStr,
		trend,
		renderAlertStates(states),
	)
}

// renderAlertStates renders one line per monitored quantity
func renderAlertStates(states map[string]alert.State) string {
	if len(states) == 0 {
		return ""
	}

	quantities := make([]string, 0, len(states))
	for q := range states {
		quantities = append(quantities, q)
	}
	sort.Strings(quantities)

	parts := make([]string, 0, len(quantities))
	for _, q := range quantities {
		if states[q] == alert.Alerted {
			parts = append(parts, alertedStyle.Render(fmt.Sprintf("%s: ALERT", q)))
		} else {
			parts = append(parts, normalStyle.Render(fmt.Sprintf("%s: ok", q)))
		}
	}
	return "\n" + strings.Join(parts, "   ")
}
