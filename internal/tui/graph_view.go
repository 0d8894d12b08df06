package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/storage"
)

var (
	graphTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B4BEFE"))
	graphAxisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	cpuGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))
	memGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
)

// renderSparkline creates a compact sparkline
func renderSparkline(data []float64, width int) string {
	if len(data) == 0 {
		return strings.Repeat("▁", width)
	}

	// Take last 'width' points
	start := 0
	if len(data) > width {
		start = len(data) - width
	}
	displayData := data[start:]

	// Find min and max
	min, max := math.MaxFloat64, 0.0
	for _, v := range displayData {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		min = math.Max(0, max-10)
		max = max + 10
	}

	dataRange := max - min
	if dataRange == 0 {
		dataRange = 1
	}

	chars := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	var result strings.Builder

	for _, value := range displayData {
		normalized := (value - min) / dataRange
		charIndex := int(normalized * float64(len(chars)-1))
		if charIndex >= len(chars) {
			charIndex = len(chars) - 1
		}
		if charIndex < 0 {
			charIndex = 0
		}
		result.WriteString(chars[charIndex])
	}

	// Pad if needed
	for i := len(displayData); i < width; i++ {
		result.WriteString("▁")
	}

	return result.String()
}

// renderDualGraphWithRange renders CPU and Memory on a single combined graph with time range indicator
func renderDualGraphWithRange(
	cpuData, memData []float64,
	width, height int,
	timeRange storage.TimeRange,
	secondsPerPoint float64,
) string {
	var s strings.Builder

	// Title with time range
	title := fmt.Sprintf("📈 Resource History - %s", timeRange.String())
	s.WriteString(graphTitleStyle.Render(title) + "\n")

	// Time range selector hint
	hint := "[1]30m [2]1h [3]6h [4]1d [5]1w"
	s.WriteString(graphAxisStyle.Render(hint) + "\n\n")

	if len(cpuData) == 0 && len(memData) == 0 {
		s.WriteString("Waiting for data...\n")
		s.WriteString("The graph fills in as samples arrive.")
		return s.String()
	}

	cpuData, memData = alignSeries(cpuData, memData)

	// Calculate available height for the combined graph
	graphHeight := height - 14
	if graphHeight < 5 {
		graphHeight = 5
	}

	combinedGraph := renderCombinedGraph(cpuData, memData, width-8, graphHeight, secondsPerPoint)
	s.WriteString(combinedGraph)

	return s.String()
}

// renderCombinedGraph creates a multi-line ASCII graph with both CPU and Memory
func renderCombinedGraph(cpuData, memData []float64, width, height int, secondsPerPoint float64) string {
	var s strings.Builder

	if len(cpuData) == 0 || len(memData) == 0 {
		return "Waiting for data..."
	}

	cpuCurrent := cpuData[len(cpuData)-1]
	memCurrent := memData[len(memData)-1]

	// Legend with overlap color
	cpuLegend := cpuGraphStyle.Render(
		"█",
	) + " CPU: " + cpuGraphStyle.Render(
		fmt.Sprintf("%.1f%%", cpuCurrent),
	)
	memLegend := memGraphStyle.Render(
		"█",
	) + " Memory: " + memGraphStyle.Render(
		fmt.Sprintf("%.1f%%", memCurrent),
	)
	overlapLegend := lipgloss.NewStyle().Foreground(lipgloss.Color("#CBA6F7")).Render("█") + " Both"
	s.WriteString(cpuLegend + "  " + memLegend + "  " + overlapLegend + "\n\n")

	// Percent scale is fixed so the graph does not jump between ticks
	minVal, maxVal := 0.0, 100.0

	// Limit data points to available width (leave room for Y-axis labels)
	maxWidth := width - 10
	if maxWidth < 20 {
		maxWidth = 20
	}
	dataPointsToShow := len(cpuData)
	if dataPointsToShow > maxWidth {
		dataPointsToShow = maxWidth
	}

	startIdx := len(cpuData) - dataPointsToShow
	if startIdx < 0 {
		startIdx = 0
	}
	displayCPU := cpuData[startIdx:]
	displayMem := memData[startIdx:]

	// Render the vertical graph (top to bottom)
	for row := height; row >= 0; row-- {
		var line strings.Builder

		// Grid line rows at 25%, 50%, 75%, 100%
		isGridLine := false
		if row == height || row == height*3/4 || row == height/2 || row == height/4 || row == 0 {
			isGridLine = true
		}

		// Y-axis label (every few rows)
		if row == height {
			line.WriteString(graphAxisStyle.Render(fmt.Sprintf("%3.0f%% ", maxVal)))
		} else if row == height*3/4 {
			line.WriteString(graphAxisStyle.Render(" 75% "))
		} else if row == height/2 {
			line.WriteString(graphAxisStyle.Render(" 50% "))
		} else if row == height/4 {
			line.WriteString(graphAxisStyle.Render(" 25% "))
		} else if row == 0 {
			line.WriteString(graphAxisStyle.Render(fmt.Sprintf("%3.0f%% ", minVal)))
		} else {
			line.WriteString("     ")
		}

		line.WriteString(graphAxisStyle.Render("│"))

		threshold := minVal + (float64(row)/float64(height))*(maxVal-minVal)

		for i := 0; i < len(displayCPU); i++ {
			cpuVal := displayCPU[i]
			memVal := displayMem[i]

			cpuAbove := cpuVal >= threshold
			memAbove := memVal >= threshold

			if isGridLine && !cpuAbove && !memAbove {
				line.WriteString(graphAxisStyle.Render("·"))
			} else if cpuAbove && memAbove {
				line.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#CBA6F7")).Render("█"))
			} else if cpuAbove {
				line.WriteString(cpuGraphStyle.Render("█"))
			} else if memAbove {
				line.WriteString(memGraphStyle.Render("█"))
			} else {
				line.WriteString(" ")
			}
		}

		s.WriteString(line.String() + "\n")
	}

	// X-axis
	axisLength := len(displayCPU)
	if axisLength < 1 {
		axisLength = 1
	}
	s.WriteString(
		"     " + graphAxisStyle.Render(
			"└",
		) + graphAxisStyle.Render(
			strings.Repeat("─", axisLength),
		) + "\n",
	)

	// Time labels - show multiple time markers along the axis
	s.WriteString(renderTimeLabels(axisLength, len(displayCPU), secondsPerPoint) + "\n")

	// Data info
	s.WriteString("\n")
	infoText := fmt.Sprintf("Tracking %d data points | one per %.0fs", len(cpuData), secondsPerPoint)
	s.WriteString(graphAxisStyle.Render(infoText))

	return s.String()
}

// renderTimeLabels creates time markers along the X-axis
func renderTimeLabels(axisLength, dataPoints int, secondsPerPoint float64) string {
	totalSeconds := int(float64(dataPoints) * secondsPerPoint)

	if axisLength < 20 {
		// Too narrow for labels
		return graphAxisStyle.Render(fmt.Sprintf("     %ds ago → Now", totalSeconds))
	}

	// Determine number of markers based on width
	numMarkers := 5
	if axisLength < 50 {
		numMarkers = 3
	}

	// Pre-calculate all labels and their positions
	type marker struct {
		position int
		label    string
	}
	markers := make([]marker, numMarkers)

	for i := 0; i < numMarkers; i++ {
		position := (i * axisLength) / (numMarkers - 1)
		if i == numMarkers-1 {
			position = axisLength - 1
		}

		// Calculate time for this position (reverse: leftmost is oldest)
		dataPointIndex := (position * dataPoints) / axisLength
		secondsAgo := totalSeconds - int(float64(dataPointIndex)*secondsPerPoint)

		var label string
		if secondsAgo < 60 {
			label = "Now"
		} else if secondsAgo < 3600 {
			label = fmt.Sprintf("%dm ago", secondsAgo/60)
		} else if secondsAgo < 86400 {
			label = fmt.Sprintf("%dh ago", secondsAgo/3600)
		} else {
			days := secondsAgo / 86400
			label = fmt.Sprintf("%dd ago", days)
		}

		markers[i] = marker{position: position, label: label}
	}

	// Build the output string with proper spacing
	var s strings.Builder
	s.WriteString("     ") // Y-axis label space

	currentCol := 0
	for _, m := range markers {
		// Center the label on its position
		labelStart := m.position - len(m.label)/2
		if labelStart < currentCol {
			labelStart = currentCol
		}

		spacesNeeded := labelStart - currentCol
		if spacesNeeded > 0 {
			s.WriteString(strings.Repeat(" ", spacesNeeded))
		}

		s.WriteString(m.label)
		currentCol = labelStart + len(m.label)
	}

	return graphAxisStyle.Render(s.String())
}

// cpuMeanSeries reduces the per-core history to one mean series. Series
// are aligned at the newest sample; cores missing older points do not
// drag the mean down.
func cpuMeanSeries(snap history.Snapshot) []float64 {
	n := 0
	for _, s := range snap.CPU {
		if len(s) > n {
			n = len(s)
		}
	}
	if n == 0 {
		return nil
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum, cores := 0.0, 0
		for _, s := range snap.CPU {
			j := i - (n - len(s))
			if j >= 0 {
				sum += s[j]
				cores++
			}
		}
		if cores > 0 {
			out[i] = sum / float64(cores)
		}
	}
	return out
}

// alignSeries pads the shorter series with leading zeros so both can be
// drawn against the same x positions.
func alignSeries(a, b []float64) ([]float64, []float64) {
	if len(a) == len(b) {
		return a, b
	}
	pad := func(s []float64, n int) []float64 {
		out := make([]float64, n)
		copy(out[n-len(s):], s)
		return out
	}
	if len(a) < len(b) {
		return pad(a, len(b)), b
	}
	return a, pad(b, len(a))
}

// secondsPerPoint derives the spacing of stored points from their
// timestamps.
func secondsPerPoint(points []storage.DataPoint) float64 {
	if len(points) < 2 {
		return 1
	}
	span := points[len(points)-1].Timestamp.Sub(points[0].Timestamp).Seconds()
	secs := span / float64(len(points)-1)
	if secs <= 0 {
		return 1
	}
	return secs
}
