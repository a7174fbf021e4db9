package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/waheeda129/face-attendance/internal/archive"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/engine"
	"github.com/waheeda129/face-attendance/internal/store"
	"github.com/waheeda129/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server and the sync engine",
	Long: `Start the attendance dashboard API server. The sync engine runs
alongside it: camera frames are sampled on an interval, recognized
students are logged with cooldown-based deduplication, and the local
attendance view is kept reconciled with the backend.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("no-sync", false, "Serve the API without starting the sampling loop")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	source, err := buildFrameSource(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var storeOpts []store.Option
	mirror, err := archive.Open(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to open reporting mirror: %w", err)
	}
	if mirror != nil {
		fmt.Printf("Reporting mirror enabled (%s)\n", cfg.Archive.Driver)
		defer mirror.Close()
		storeOpts = append(storeOpts, store.WithArchiver(mirror))
	}

	coordinator := engine.NewCoordinator(source, engine.NewBroadcaster(), storeOpts...)

	if !mustGetBool(cmd, "no-sync") {
		syncCfg, err := buildSyncConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := coordinator.Start(syncCfg); err != nil {
			return fmt.Errorf("failed to start sync engine: %w", err)
		}
		defer coordinator.Stop()

		if mirror != nil {
			// Mirror the hydrated roster so reporting has names even
			// before the first confirmed record.
			if err := mirror.SyncRoster(ctx, coordinator.Store().Students()); err != nil {
				fmt.Printf("Warning: roster mirror failed: %v\n", err)
			}
		}
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(coordinator, cfg.Defaults, host, port, mirror)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance dashboard on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
