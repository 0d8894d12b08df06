package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rusenback/vitalviz/internal/export"
	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

const commandTimeout = 5 * time.Second

// fetchHost creates a command that loads host identity once at startup
func fetchHost(provider sysinfo.Provider) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		info, err := provider.Host(ctx)
		return hostMsg{info: info, err: err}
	}
}

// terminateProcess creates a command that asks a process to exit
func terminateProcess(provider sysinfo.Provider, pid int32, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := provider.Terminate(ctx, pid); err != nil {
			return actionMsg{err: fmt.Errorf("terminate %s: %w", name, err)}
		}
		return actionMsg{message: fmt.Sprintf("Terminated: %s (pid %d)", name, pid)}
	}
}

// exportSnapshot creates a command that writes the current history to a
// timestamped CSV file in dir
func exportSnapshot(snap history.Snapshot, dir string) tea.Cmd {
	return func() tea.Msg {
		name := fmt.Sprintf("vitalviz-%s.csv", time.Now().Format("20060102-150405"))
		path := filepath.Join(dir, name)

		f, err := os.Create(path)
		if err != nil {
			return actionMsg{err: fmt.Errorf("export: %w", err)}
		}
		defer f.Close()

		if err := export.WriteSnapshotCSV(f, snap); err != nil {
			return actionMsg{err: fmt.Errorf("export: %w", err)}
		}
		return actionMsg{message: "Exported: " + path}
	}
}
