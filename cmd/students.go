package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/roster"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage the student roster",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled students",
	RunE:  runStudentsList,
}

var studentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Enroll a student",
	RunE:  runStudentsAdd,
}

var studentsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a student by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsRemove,
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	studentsCmd.AddCommand(studentsListCmd)
	studentsCmd.AddCommand(studentsAddCmd)
	studentsCmd.AddCommand(studentsRemoveCmd)

	studentsAddCmd.Flags().String("name", "", "Display name")
	studentsAddCmd.Flags().String("student-id", "", "Registration number (auto-generated when empty)")
	studentsAddCmd.Flags().String("department", "", "Department")
	studentsAddCmd.Flags().String("email", "", "Email address")
	studentsAddCmd.Flags().String("photo", "", "Path to an enrollment photo")
	studentsAddCmd.Flags().String("embedding", "", "Path to a precomputed face embedding (JSON array)")
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	students, err := client.ListStudents(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTUDENT ID\tDEPARTMENT\tSTATUS")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.StudentID, s.Department, s.Status)
	}
	return w.Flush()
}

func runStudentsAdd(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	payload := attendapi.NewStudent{
		Name:       mustGetString(cmd, "name"),
		StudentID:  mustGetString(cmd, "student-id"),
		Department: mustGetString(cmd, "department"),
		Email:      mustGetString(cmd, "email"),
	}
	roster.FillDefaults(&payload)

	if photoPath := mustGetString(cmd, "photo"); photoPath != "" {
		data, err := os.ReadFile(photoPath)
		if err != nil {
			return fmt.Errorf("failed to read enrollment photo: %w", err)
		}
		payload.PhotoBase64 = base64.StdEncoding.EncodeToString(data)
	}

	created, err := client.CreateStudent(cmd.Context(), payload)
	if err != nil {
		return err
	}

	if embPath := mustGetString(cmd, "embedding"); embPath != "" {
		data, err := os.ReadFile(embPath)
		if err != nil {
			return fmt.Errorf("failed to read embedding file: %w", err)
		}
		var vector []float32
		if err := json.Unmarshal(data, &vector); err != nil {
			return fmt.Errorf("embedding file is not a JSON float array: %w", err)
		}
		if err := client.UpsertEmbedding(cmd.Context(), created.ID, vector); err != nil {
			return err
		}
	}

	fmt.Printf("Enrolled %s (%s, id %s)\n", created.Name, created.StudentID, created.ID)
	return nil
}

func runStudentsRemove(cmd *cobra.Command, args []string) error {
	client, err := newClient(config.Load())
	if err != nil {
		return err
	}

	if err := client.DeleteStudent(cmd.Context(), args[0]); err != nil {
		if attendapi.IsNotFoundError(err) {
			return fmt.Errorf("student %s not found", args[0])
		}
		return err
	}

	fmt.Printf("Removed student %s\n", args[0])
	return nil
}
