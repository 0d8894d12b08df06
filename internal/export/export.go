package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/storage"
)

// csvHeader is shared by the live-snapshot dump and the recorded-history
// dump so both open in the same spreadsheet template.
var csvHeader = []string{"Timestamp", "CPU Avg %", "Memory %", "Network Send (B/s)", "Network Receive (B/s)"}

// WriteSnapshotCSV dumps in-memory history, one row per recorded tick.
// A series that skipped degraded ticks is shorter than the timestamp
// track; missing cells are zero-filled so rows stay rectangular.
func WriteSnapshotCSV(w io.Writer, snap history.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, ts := range snap.Timestamps {
		row := []string{
			ts.Format(time.RFC3339),
			formatFloat(cpuMeanAt(snap.CPU, i)),
			formatFloat(at(snap.Memory, i)),
			formatFloat(at(snap.Net.Sent, i)),
			formatFloat(at(snap.Net.Recv, i)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePointsCSV dumps rows recorded by storage, bucket-averaged or not.
func WritePointsCSV(w io.Writer, points []storage.DataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range points {
		row := []string{
			p.Timestamp.Format(time.RFC3339),
			formatFloat(p.CPUMean),
			formatFloat(p.MemoryPercent),
			formatFloat(p.NetSentRate),
			formatFloat(p.NetRecvRate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSnapshotJSON dumps host identity plus the full per-series history.
func WriteSnapshotJSON(w io.Writer, host model.HostInfo, snap history.Snapshot) error {
	doc := struct {
		Host model.HostInfo `json:"host"`
		history.Snapshot
	}{Host: host, Snapshot: snap}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

// WritePointsJSON dumps recorded rows. Recorded data only keeps the CPU
// mean, so the cpu key differs from the live snapshot's per-core map.
func WritePointsJSON(w io.Writer, host model.HostInfo, points []storage.DataPoint) error {
	doc := struct {
		Host       model.HostInfo    `json:"host"`
		Timestamps []time.Time       `json:"timestamps"`
		CPUMean    []float64         `json:"cpu_mean"`
		Memory     []float64         `json:"memory"`
		Network    history.NetSeries `json:"network"`
	}{Host: host}

	for _, p := range points {
		doc.Timestamps = append(doc.Timestamps, p.Timestamp)
		doc.CPUMean = append(doc.CPUMean, p.CPUMean)
		doc.Memory = append(doc.Memory, p.MemoryPercent)
		doc.Network.Sent = append(doc.Network.Sent, p.NetSentRate)
		doc.Network.Recv = append(doc.Network.Recv, p.NetRecvRate)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

// at zero-fills reads past the end of a series.
func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}

// cpuMeanAt averages the cores that have a point at index i.
func cpuMeanAt(cpu map[int][]float64, i int) float64 {
	var sum float64
	var n int
	for _, series := range cpu {
		if i < len(series) {
			sum += series[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
