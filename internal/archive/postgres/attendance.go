package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/waheeda129/face-attendance/internal/store"
)

// RecordAttendance mirrors one confirmed attendance record. Re-mirroring
// the same record id updates the canonical fields in place.
func (p *Pool) RecordAttendance(ctx context.Context, record store.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_log
			(record_id, remote_id, student_id, student_name, recorded_at, status, confidence, manual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (record_id) DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			recorded_at = EXCLUDED.recorded_at,
			status = EXCLUDED.status,
			confidence = EXCLUDED.confidence
	`

	_, err := p.Exec(ctx, query,
		record.ID,
		record.RemoteID,
		record.StudentID,
		record.StudentName,
		record.Timestamp,
		string(record.Status),
		record.Confidence,
		record.Manual,
	)
	if err != nil {
		return fmt.Errorf("mirror attendance record: %w", err)
	}
	return nil
}

// SyncRoster upserts a roster snapshot. Students missing from the
// snapshot are kept; the mirror is a history, not a replica.
func (p *Pool) SyncRoster(ctx context.Context, students []store.Student) error {
	query := `
		INSERT INTO roster (student_id, name, registration, department, email, status, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (student_id) DO UPDATE SET
			name = EXCLUDED.name,
			registration = EXCLUDED.registration,
			department = EXCLUDED.department,
			email = EXCLUDED.email,
			status = EXCLUDED.status,
			synced_at = NOW()
	`

	for _, s := range students {
		if _, err := p.Exec(ctx, query, s.ID, s.Name, s.StudentID, s.Department, s.Email, s.Status); err != nil {
			return fmt.Errorf("mirror roster entry %s: %w", s.ID, err)
		}
	}
	return nil
}

// StoreEmbedding mirrors an enrollment embedding.
func (p *Pool) StoreEmbedding(ctx context.Context, studentID string, embedding []float32) error {
	query := `
		INSERT INTO enrollment_embeddings (student_id, embedding, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (student_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_at = NOW()
	`

	vec := pgvector.NewVector(embedding)
	if _, err := p.Exec(ctx, query, studentID, vec); err != nil {
		return fmt.Errorf("mirror embedding for %s: %w", studentID, err)
	}
	return nil
}

// AttendanceCount reports the number of mirrored records, for the
// archive status command.
func (p *Pool) AttendanceCount(ctx context.Context) (int64, error) {
	var count int64
	if err := p.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_log").Scan(&count); err != nil {
		return 0, fmt.Errorf("count mirrored attendance: %w", err)
	}
	return count, nil
}
