package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rusenback/vitalviz/internal/config"
	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/notify"
	"github.com/rusenback/vitalviz/internal/storage"
	"github.com/rusenback/vitalviz/internal/sysinfo"
	"github.com/rusenback/vitalviz/internal/tui"
)

var configPath string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "vitalviz",
	Short: "Terminal dashboard for live host vitals",
	Long: `Vitalviz samples CPU, memory, disk and network readings on a fixed
cadence, keeps a bounded history, raises threshold alerts and renders
everything in a terminal dashboard. Use "serve" for the web dashboard
and "export" to pull recorded history out of the database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(logLvl)
		return nil
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath,
		"config",
		config.DefaultPath(),
		"Path to the YAML configuration file",
	)
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		"info",
		"Log level. One of debug, info, warn, error, fatal, panic.",
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file in the state dir.
	// The file stays open for the life of the process.
	if dir, err := config.StateDir(); err == nil {
		logPath := filepath.Join(dir, "vitalviz.log")
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			log.SetOutput(f)
		}
	}

	eng, provider, store, notifier := buildEngine(cfg)
	if store != nil {
		defer store.Close()
	}

	exportDir, err := config.StateDir()
	if err != nil {
		exportDir = "."
	}

	m := tui.NewModel(eng, provider, store, notifier, exportDir)
	eng.Register(m.Listener())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)
	watchConfig(ctx, eng, notifier)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// buildEngine assembles the sampling engine with the consumers every mode
// shares. A storage failure downgrades to running without history rather
// than refusing to start.
func buildEngine(cfg *config.Config) (*engine.Engine, sysinfo.Provider, *storage.Storage, *notify.Log) {
	provider := sysinfo.NewHostProvider()
	eng := engine.New(provider,
		engine.WithInterval(cfg.Interval()),
		engine.WithHistoryCapacity(cfg.HistoryCapacity),
		engine.WithThresholds(cfg.Thresholds()),
		engine.WithTopProcesses(cfg.TopProcesses),
	)

	notifier := notify.NewLog(cfg.Notifications)
	eng.Register(notifier)

	var store *storage.Storage
	dbPath, err := cfg.DatabasePath()
	if err == nil {
		store, err = storage.NewStorage(dbPath)
	}
	if err != nil {
		log.Warnf("history storage disabled: %v", err)
		store = nil
	} else {
		eng.Register(store)
	}

	return eng, provider, store, notifier
}

// watchConfig applies config file edits to the running engine.
func watchConfig(ctx context.Context, eng *engine.Engine, notifier *notify.Log) {
	err := config.Watch(ctx, configPath, func(c *config.Config) {
		eng.SetInterval(c.Interval())
		eng.SetHistoryCapacity(c.HistoryCapacity)
		eng.SetThresholds(c.Thresholds())
		eng.SetTopProcesses(c.TopProcesses)
		notifier.SetEnabled(c.Notifications)
	})
	if err != nil {
		log.Warnf("config watch disabled: %v", err)
	}
}
