package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/waheeda129/face-attendance/internal/archive"
	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/roster"
	"github.com/waheeda129/face-attendance/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <roster.csv>",
	Short: "Bulk-enroll students from a CSV file",
	Long: `Bulk-enroll students from a CSV file with a header row and the
columns name, student_id, department, email. Missing values get the
same defaults as single enrollment.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("mirror", false, "Also sync the imported roster into the reporting archive")
}

// parseRosterCSV reads the roster file into enrollment payloads.
func parseRosterCSV(path string) ([]attendapi.NewStudent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, fmt.Errorf("roster file has no name column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var students []attendapi.NewStudent
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		s := attendapi.NewStudent{
			Name:       field(row, "name"),
			StudentID:  field(row, "student_id"),
			Department: field(row, "department"),
			Email:      field(row, "email"),
		}
		roster.FillDefaults(&s)
		students = append(students, s)
	}
	return students, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	students, err := parseRosterCSV(args[0])
	if err != nil {
		return err
	}
	if len(students) == 0 {
		fmt.Println("Nothing to import")
		return nil
	}

	bar := progressbar.NewOptions(len(students),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("students"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	ctx := cmd.Context()
	var created []store.Student
	var failed int
	for _, s := range students {
		record, err := client.CreateStudent(ctx, s)
		if err != nil {
			failed++
			fmt.Printf("\nWarning: failed to enroll %s: %v\n", s.Name, err)
		} else {
			created = append(created, store.StudentFromWire(*record))
		}
		_ = bar.Add(1)
	}
	fmt.Printf("\nEnrolled %d students (%d failed)\n", len(created), failed)

	if mustGetBool(cmd, "mirror") && len(created) > 0 {
		if err := mirrorRoster(ctx, cfg, created); err != nil {
			return err
		}
	}
	return nil
}

// mirrorRoster pushes the imported roster into the reporting archive.
func mirrorRoster(ctx context.Context, cfg *config.Config, students []store.Student) error {
	mirror, err := archive.Open(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to open reporting mirror: %w", err)
	}
	if mirror == nil {
		return fmt.Errorf("--mirror requires ARCHIVE_DRIVER and ARCHIVE_URL")
	}
	defer mirror.Close()

	if err := mirror.SyncRoster(ctx, students); err != nil {
		return fmt.Errorf("roster mirror failed: %w", err)
	}
	fmt.Printf("Mirrored %d roster entries to %s archive\n", len(students), cfg.Archive.Driver)
	return nil
}
