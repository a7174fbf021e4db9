package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/engine"
	"github.com/waheeda129/face-attendance/internal/store"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect and edit the attendance log",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records, newest first",
	RunE:  runAttendanceList,
}

var attendanceLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Append a manual attendance entry",
	RunE:  runAttendanceLog,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)
	attendanceCmd.AddCommand(attendanceLogCmd)

	attendanceListCmd.Flags().Int("limit", 0, "Show at most N records (0 = all)")

	attendanceLogCmd.Flags().String("student-id", "", "Student id (required)")
	attendanceLogCmd.Flags().String("name", "", "Student display name")
	attendanceLogCmd.Flags().String("status", "Present", "Present, Late or Absent")
	_ = attendanceLogCmd.MarkFlagRequired("student-id")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	records, err := client.ListAttendance(cmd.Context())
	if err != nil {
		return err
	}

	if limit := mustGetInt(cmd, "limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTUDENT\tSTATUS\tCONFIDENCE")
	for _, r := range records {
		ts := r.Timestamp
		if parsed, ok := attendapi.ParseTimestamp(r.Timestamp); ok {
			ts = parsed.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\n", ts, r.StudentName, r.Status, r.Confidence)
	}
	return w.Flush()
}

func runAttendanceLog(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	record := engine.NewManualRecord(
		mustGetString(cmd, "student-id"),
		mustGetString(cmd, "name"),
		store.AttendanceStatus(mustGetString(cmd, "status")),
	)

	remote := store.NewAPIRemote(client)
	created, err := remote.AppendAttendance(cmd.Context(), record)
	if err != nil {
		return fmt.Errorf("failed to log attendance: %w", err)
	}

	fmt.Printf("Logged %s for %s at %s\n", created.Status, created.StudentName, created.Timestamp.Local().Format("15:04:05"))
	return nil
}
