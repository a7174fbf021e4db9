package attendapi

import (
	"context"
	"fmt"
)

// ListAttendance fetches all attendance records, newest first.
func (c *Client) ListAttendance(ctx context.Context) ([]AttendanceRecord, error) {
	records, err := doGetJSON[[]AttendanceRecord](ctx, c, "attendance")
	if err != nil {
		return nil, fmt.Errorf("could not list attendance: %w", err)
	}
	return *records, nil
}

// AppendAttendance persists an attendance record and returns the
// canonical record as the backend stored it.
func (c *Client) AppendAttendance(ctx context.Context, record AttendanceRecord) (*AttendanceRecord, error) {
	created, err := doPostJSONCreated[AttendanceRecord](ctx, c, "attendance", record)
	if err != nil {
		return nil, fmt.Errorf("could not append attendance: %w", err)
	}
	return created, nil
}

// DeleteAttendance removes an attendance record from the backend.
func (c *Client) DeleteAttendance(ctx context.Context, id string) error {
	if _, err := doDeleteJSON[DeleteResponse](ctx, c, "attendance/"+id); err != nil {
		return fmt.Errorf("could not delete attendance record %s: %w", id, err)
	}
	return nil
}
