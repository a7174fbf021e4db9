package roster

import (
	"strings"

	"github.com/google/uuid"

	"github.com/waheeda129/face-attendance/internal/attendapi"
)

// Enrollment defaults applied by the backend; applied here too so a
// locally created student renders the same before and after its
// creation round-trips.
const (
	DefaultName       = "Unnamed"
	DefaultDepartment = "General"
	DefaultStatus     = "Active"
)

// AutoStudentID generates a registration number for students enrolled
// without one.
func AutoStudentID() string {
	return "AUTO-" + strings.ToUpper(uuid.NewString()[:6])
}

// FillDefaults populates the enrollment fields the backend would
// default anyway.
func FillDefaults(s *attendapi.NewStudent) {
	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.Department == "" {
		s.Department = DefaultDepartment
	}
	if s.Status == "" {
		s.Status = DefaultStatus
	}
	if s.StudentID == "" {
		s.StudentID = AutoStudentID()
	}
}
