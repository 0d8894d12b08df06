package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to a maximum length
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// renderBar renders a fixed-width usage bar for a 0-100 percentage
func renderBar(percent float64, length int) string {
	filled := int(percent / 100 * float64(length))
	if filled > length {
		filled = length
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("─", length-filled)
}

// colorize colors text by how hot a percentage is
func colorize(percent float64, text string) string {
	var color string
	switch {
	case percent > 80:
		color = "#F38BA8" // red/pink
	case percent > 50:
		color = "#FAB387" // orange
	default:
		color = "#A6E3A1" // green
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// formatBytes renders a byte count in human units
func formatBytes(b uint64) string {
	switch {
	case b > 1_000_000_000:
		return fmt.Sprintf("%.2f GB", float64(b)/1_000_000_000)
	case b > 1_000_000:
		return fmt.Sprintf("%.2f MB", float64(b)/1_000_000)
	case b > 1_000:
		return fmt.Sprintf("%.2f KB", float64(b)/1_000)
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatRate renders a bytes-per-second rate in human units
func formatRate(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.1f GB/s", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.1f MB/s", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1f KB/s", v/1_000)
	default:
		return fmt.Sprintf("%.0f B/s", v)
	}
}

// formatUptime renders a duration as the largest two units
func formatUptime(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		days := int(d.Hours()) / 24
		hours := int(d.Hours()) % 24
		return fmt.Sprintf("%dd %dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}
