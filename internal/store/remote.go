package store

import (
	"context"

	"github.com/waheeda129/face-attendance/internal/attendapi"
)

// APIRemote adapts the attendance backend client to the RemoteWriter
// interface, converting between wire and store representations.
type APIRemote struct {
	client *attendapi.Client
}

// NewAPIRemote wraps a backend client as a RemoteWriter.
func NewAPIRemote(client *attendapi.Client) *APIRemote {
	return &APIRemote{client: client}
}

func (r *APIRemote) AppendAttendance(ctx context.Context, record AttendanceRecord) (*AttendanceRecord, error) {
	wire := attendapi.AttendanceRecord{
		ID:          record.ID,
		StudentID:   record.StudentID,
		StudentName: record.StudentName,
		Timestamp:   attendapi.FormatTimestamp(record.Timestamp),
		Status:      string(record.Status),
		Confidence:  record.Confidence,
	}

	canonical, err := r.client.AppendAttendance(ctx, wire)
	if err != nil {
		return nil, err
	}

	converted := FromWire(*canonical)
	return &converted, nil
}

func (r *APIRemote) DeleteAttendance(ctx context.Context, id string) error {
	return r.client.DeleteAttendance(ctx, id)
}

func (r *APIRemote) DeleteStudent(ctx context.Context, id string) error {
	return r.client.DeleteStudent(ctx, id)
}

// FromWire converts a backend attendance record into the store
// representation. Unparseable timestamps come back zero so Reconcile
// keeps the local time instead.
func FromWire(record attendapi.AttendanceRecord) AttendanceRecord {
	ts, _ := attendapi.ParseTimestamp(record.Timestamp)
	return AttendanceRecord{
		ID:          record.ID,
		StudentID:   record.StudentID,
		StudentName: record.StudentName,
		Timestamp:   ts,
		Status:      AttendanceStatus(record.Status),
		Confidence:  record.Confidence,
		State:       StateConfirmed,
	}
}

// StudentFromWire converts a backend roster record.
func StudentFromWire(student attendapi.Student) Student {
	return Student{
		ID:         student.ID,
		Name:       student.Name,
		StudentID:  student.StudentID,
		Department: student.Department,
		Email:      student.Email,
		PhotoURL:   student.PhotoURL,
		Status:     student.Status,
	}
}
