package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rusenback/vitalviz/internal/config"
	"github.com/rusenback/vitalviz/internal/web"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard instead of the TUI",
	Long: `Serve runs the sampling engine headless and exposes the dashboard
over HTTP: a live websocket stream, JSON endpoints for host identity,
the current snapshot and the process list, and a minimal built-in page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		eng, provider, store, notifier := buildEngine(cfg)
		if store != nil {
			defer store.Close()
		}

		server := web.NewServer(eng, provider)
		eng.Register(server)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go eng.Run(ctx)
		watchConfig(ctx, eng, notifier)

		addr := cfg.Listen
		if listenAddr != "" {
			addr = listenAddr
		}
		return server.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides the config file)")
	rootCmd.AddCommand(serveCmd)
}
