package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rusenback/vitalviz/internal/config"
	"github.com/rusenback/vitalviz/internal/export"
	"github.com/rusenback/vitalviz/internal/storage"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

var exportRange string
var exportFormat string
var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded history as CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		rng, err := storage.ParseRange(exportRange)
		if err != nil {
			return err
		}

		dbPath, err := cfg.DatabasePath()
		if err != nil {
			return err
		}
		store, err := storage.NewStorage(dbPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		points, err := store.Query(rng)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		switch exportFormat {
		case "csv":
			err = export.WritePointsCSV(out, points)
		case "json":
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			host, herr := sysinfo.NewHostProvider().Host(ctx)
			if herr != nil {
				log.Warnf("host info unavailable: %v", herr)
			}
			err = export.WritePointsJSON(out, host, points)
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
		}
		if err != nil {
			return err
		}

		log.Infof("exported %d points covering %s", len(points), rng)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRange, "range", "1h", "Time window to export (30m, 1h, 6h, 1d, 1w)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format, csv or json")
	exportCmd.Flags().StringVar(&exportOut, "output", "", "Output file (defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}
