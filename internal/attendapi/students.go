package attendapi

import (
	"context"
	"fmt"
)

// ListStudents fetches the full roster.
func (c *Client) ListStudents(ctx context.Context) ([]Student, error) {
	students, err := doGetJSON[[]Student](ctx, c, "students")
	if err != nil {
		return nil, fmt.Errorf("could not list students: %w", err)
	}
	return *students, nil
}

// CreateStudent creates a roster record and returns it with backend
// defaults applied.
func (c *Client) CreateStudent(ctx context.Context, student NewStudent) (*Student, error) {
	created, err := doPostJSONCreated[Student](ctx, c, "students", student)
	if err != nil {
		return nil, fmt.Errorf("could not create student: %w", err)
	}
	return created, nil
}

// DeleteStudent removes a roster record by id.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	if _, err := doDeleteJSON[DeleteResponse](ctx, c, "students/"+id); err != nil {
		return fmt.Errorf("could not delete student %s: %w", id, err)
	}
	return nil
}
