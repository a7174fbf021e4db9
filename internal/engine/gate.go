package engine

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waheeda129/face-attendance/internal/store"
)

// Gate converts per-tick detection lists into attendance events,
// enforcing a confidence floor and an at-most-one-acceptance-per-identity
// cooldown window. All mutation goes through Filter under a single lock,
// so overlapping tick completions cannot double-accept an identity
// within one window.
type Gate struct {
	mu               sync.Mutex
	thresholdPercent int
	window           time.Duration
	lastAccepted     map[string]time.Time // cooldown table; stale entries are harmless
	now              func() time.Time
}

// NewGate creates a gate with the given confidence floor (percent,
// 0-100) and cooldown window. A zero window disables dedup entirely.
func NewGate(thresholdPercent int, window time.Duration) *Gate {
	return &Gate{
		thresholdPercent: thresholdPercent,
		window:           window,
		lastAccepted:     make(map[string]time.Time),
		now:              time.Now,
	}
}

// SetConfig replaces the threshold and window. The cooldown table is
// kept: a config change must not re-open windows already consumed.
func (g *Gate) SetConfig(thresholdPercent int, window time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thresholdPercent = thresholdPercent
	g.window = window
}

// Filter applies the confidence floor and cooldown window to a batch of
// detections and returns the accepted attendance records, status
// Present, confidence scaled to 0-100. The cooldown table is updated
// before the next detection in the same batch is considered, so
// multiple detections of one identity in a single tick collapse to one
// acceptance.
func (g *Gate) Filter(detections []Detection) []store.AttendanceRecord {
	g.mu.Lock()
	defer g.mu.Unlock()

	var accepted []store.AttendanceRecord
	now := g.now()

	for _, d := range detections {
		if !d.Identified() {
			continue
		}
		if d.Confidence*100 < float64(g.thresholdPercent) {
			continue
		}
		if g.window > 0 {
			if last, ok := g.lastAccepted[d.StudentID]; ok && now.Sub(last) < g.window {
				continue
			}
		}
		g.lastAccepted[d.StudentID] = now

		accepted = append(accepted, store.AttendanceRecord{
			ID:          uuid.NewString(),
			StudentID:   d.StudentID,
			StudentName: d.StudentName,
			Timestamp:   now.UTC(),
			Status:      store.StatusPresent,
			Confidence:  math.Round(d.Confidence*10000) / 100,
			State:       store.StateProvisional,
		})
	}

	return accepted
}

// NewManualRecord builds an attendance record for a manual logging
// request. Manual entries bypass the threshold and cooldown checks
// entirely and carry confidence 0.
func NewManualRecord(studentID, studentName string, status store.AttendanceStatus) store.AttendanceRecord {
	if status == "" {
		status = store.StatusPresent
	}
	return store.AttendanceRecord{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		StudentName: studentName,
		Timestamp:   time.Now().UTC(),
		Status:      status,
		Confidence:  0,
		Manual:      true,
		State:       store.StateProvisional,
	}
}
