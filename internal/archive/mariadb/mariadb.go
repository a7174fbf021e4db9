// Package mariadb implements the reporting mirror on MariaDB/MySQL.
// No vector support; enrollment embeddings are not mirrored here.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/waheeda129/face-attendance/internal/store"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string, maxOpenConns, maxIdleConns int) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Migrate creates the mirror tables.
func (p *Pool) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS attendance_log (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			record_id VARCHAR(64) NOT NULL UNIQUE,
			remote_id VARCHAR(64),
			student_id VARCHAR(64) NOT NULL,
			student_name TEXT NOT NULL,
			recorded_at DATETIME(6) NOT NULL,
			status VARCHAR(16) NOT NULL,
			confidence DOUBLE NOT NULL,
			manual BOOLEAN NOT NULL DEFAULT FALSE,
			INDEX idx_attendance_log_student (student_id, recorded_at)
		)`,
		`CREATE TABLE IF NOT EXISTS roster (
			student_id VARCHAR(64) PRIMARY KEY,
			name TEXT NOT NULL,
			registration VARCHAR(64),
			department TEXT,
			email TEXT,
			status VARCHAR(32),
			synced_at DATETIME(6) NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create mirror table: %w", err)
		}
	}
	return nil
}

// RecordAttendance mirrors one confirmed attendance record.
func (p *Pool) RecordAttendance(ctx context.Context, record store.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_log
			(record_id, remote_id, student_id, student_name, recorded_at, status, confidence, manual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			remote_id = VALUES(remote_id),
			recorded_at = VALUES(recorded_at),
			status = VALUES(status),
			confidence = VALUES(confidence)
	`

	_, err := p.db.ExecContext(ctx, query,
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

// SyncRoster upserts a roster snapshot.
func (p *Pool) SyncRoster(ctx context.Context, students []store.Student) error {
	query := `
		INSERT INTO roster (student_id, name, registration, department, email, status, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(6))
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			registration = VALUES(registration),
			department = VALUES(department),
			email = VALUES(email),
			status = VALUES(status),
			synced_at = NOW(6)
	`

	for _, s := range students {
		if _, err := p.db.ExecContext(ctx, query, s.ID, s.Name, s.StudentID, s.Department, s.Email, s.Status); err != nil {
			return fmt.Errorf("mirror roster entry %s: %w", s.ID, err)
		}
	}
	return nil
}

// AttendanceCount reports the number of mirrored records.
func (p *Pool) AttendanceCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_log`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count mirrored attendance: %w", err)
	}
	return count, nil
}
