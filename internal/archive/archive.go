// Package archive mirrors confirmed attendance and roster snapshots
// into a local database for offline reporting. The mirror is write-only
// from the sync engine's point of view and never feeds hydration.
package archive

import (
	"context"
	"fmt"

	"github.com/waheeda129/face-attendance/internal/archive/mariadb"
	"github.com/waheeda129/face-attendance/internal/archive/postgres"
	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/store"
)

// Archive is a reporting mirror backend.
type Archive interface {
	// RecordAttendance mirrors one confirmed attendance record.
	// Idempotent on the record id.
	RecordAttendance(ctx context.Context, record store.AttendanceRecord) error
	// SyncRoster upserts a roster snapshot.
	SyncRoster(ctx context.Context, students []store.Student) error
	// AttendanceCount reports the number of mirrored records across
	// all sessions, for the dashboard history panel.
	AttendanceCount(ctx context.Context) (int64, error)
	Close() error
}

// EmbeddingSink is implemented by backends that can mirror enrollment
// embeddings (postgres only).
type EmbeddingSink interface {
	StoreEmbedding(ctx context.Context, studentID string, embedding []float32) error
}

// Open connects the configured backend and applies its schema. An empty
// driver disables the mirror and returns nil without error.
func Open(ctx context.Context, cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "postgres":
		pool, err := postgres.NewPool(cfg.URL, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres archive: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate postgres archive: %w", err)
		}
		return pool, nil
	case "mysql", "mariadb":
		pool, err := mariadb.NewPool(cfg.URL, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("failed to open mariadb archive: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate mariadb archive: %w", err)
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
