package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waheeda129/face-attendance/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and edit the persisted dashboard settings",
}

var settingsGetCmd = &cobra.Command{
	Use:     "get",
	Aliases: []string{"show"},
	Short:   "Print the persisted settings",
	RunE:    runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update persisted settings",
	RunE:  runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().Int("threshold", -1, "Minimum confidence threshold in percent (0-100)")
	settingsSetCmd.Flags().String("camera", "", "Camera device id")
	settingsSetCmd.Flags().String("theme", "", "Dashboard theme")
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	settings, err := client.GetSettings(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Confidence threshold: %d%%\n", settings.MinConfidenceThreshold)
	fmt.Printf("Camera device:        %s\n", settings.CameraDeviceID)
	fmt.Printf("Backend URL:          %s\n", settings.APIURL)
	fmt.Printf("Theme:                %s\n", settings.Theme)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	settings, err := client.GetSettings(cmd.Context())
	if err != nil {
		return fmt.Errorf("could not read current settings: %w", err)
	}

	if threshold := mustGetInt(cmd, "threshold"); threshold >= 0 {
		if threshold > 100 {
			return fmt.Errorf("threshold must be between 0 and 100, got %d", threshold)
		}
		settings.MinConfidenceThreshold = threshold
	}
	if camera := mustGetString(cmd, "camera"); camera != "" {
		settings.CameraDeviceID = camera
	}
	if theme := mustGetString(cmd, "theme"); theme != "" {
		settings.Theme = theme
	}

	saved, err := client.UpdateSettings(cmd.Context(), *settings)
	if err != nil {
		return err
	}

	fmt.Printf("Settings saved (threshold %d%%)\n", saved.MinConfidenceThreshold)
	return nil
}
