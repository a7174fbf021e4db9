package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/engine"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync engine headless and print events",
	Long: `Run the recognition sampling loop without the dashboard server,
printing every engine event to stdout. Useful for checking camera and
backend connectivity before deploying.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("json", false, "Print events as JSON lines")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	jsonOutput := mustGetBool(cmd, "json")

	source, err := buildFrameSource(cfg)
	if err != nil {
		return err
	}

	syncCfg, err := buildSyncConfig(context.Background(), cfg)
	if err != nil {
		return err
	}

	if client, err := newClient(cfg); err == nil {
		if health, err := client.Health(cmd.Context()); err != nil {
			fmt.Printf("Warning: backend health check failed: %v\n", err)
		} else {
			fmt.Printf("Backend status: %s\n", health.Status)
		}
	}

	events := engine.NewBroadcaster()
	listener := events.AddListener()
	defer events.RemoveListener(listener)

	coordinator := engine.NewCoordinator(source, events)
	if err := coordinator.Start(syncCfg); err != nil {
		return fmt.Errorf("failed to start sync engine: %w", err)
	}
	defer coordinator.Stop()

	fmt.Printf("Watching %s (threshold %d%%, cooldown %s)\n",
		syncCfg.BaseURL, syncCfg.ConfidenceThresholdPercent, syncCfg.CooldownWindow)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopping...")
			return nil
		case event := <-listener:
			printEvent(event, jsonOutput)
		}
	}
}

func printEvent(event engine.Event, jsonOutput bool) {
	if jsonOutput {
		line, _ := json.Marshal(event)
		fmt.Println(string(line))
		return
	}

	switch event.Type {
	case "telemetry":
		// Too chatty for the human-readable view.
	case "attendance_logged":
		fmt.Printf("LOGGED   %s\n", event.Message)
	case "reconciled":
		fmt.Printf("SYNCED   %v\n", event.Data)
	case "tick":
		fmt.Printf("tick     %v\n", event.Data)
	default:
		fmt.Printf("%-8s %s\n", event.Type, event.Message)
	}
}
