package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// RecordState tags where an attendance record sits in its two-phase
// lifecycle: provisional until the backend confirms it, confirmed after.
type RecordState string

const (
	StateProvisional RecordState = "provisional"
	StateConfirmed   RecordState = "confirmed"
)

// AttendanceStatus is the presence status of an attendance record.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusLate    AttendanceStatus = "Late"
	StatusAbsent  AttendanceStatus = "Absent"
)

// Student is a roster record. Records are replaced, never mutated in place.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StudentID  string `json:"studentId"`
	Department string `json:"department"`
	Email      string `json:"email"`
	PhotoURL   string `json:"photoUrl"`
	Status     string `json:"status"`
}

// AttendanceRecord is an attendance entry. ID is generated locally at
// creation time and stays stable across reconciliation; RemoteID carries
// the backend's canonical id when it differs.
type AttendanceRecord struct {
	ID          string           `json:"id"`
	RemoteID    string           `json:"remoteId,omitempty"`
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName"`
	Timestamp   time.Time        `json:"timestamp"`
	Status      AttendanceStatus `json:"status"`
	Confidence  float64          `json:"confidence"`
	Manual      bool             `json:"manual,omitempty"`
	State       RecordState      `json:"state"`
}

// RemoteWriter is the slice of the backend API the store drives
// asynchronously: attendance appends and deletions.
type RemoteWriter interface {
	AppendAttendance(ctx context.Context, record AttendanceRecord) (*AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, id string) error
	DeleteStudent(ctx context.Context, id string) error
}

// EventFunc receives store status events (reconciliation results,
// remote delete failures). Never called while the store lock is held.
type EventFunc func(eventType, message string, data any)

// Archiver mirrors confirmed attendance records into local reporting
// storage. Failures are reported as events, never propagated.
type Archiver interface {
	RecordAttendance(ctx context.Context, record AttendanceRecord) error
}

// ErrAppendInFlight signals a second optimistic append for a record id
// whose reconciliation has not completed. This is a caller bug, fatal to
// the call but not to the process.
var ErrAppendInFlight = errors.New("append already in flight for record id")

// remoteTimeout bounds each asynchronous backend call so a hung request
// cannot pin a reconciliation forever.
const remoteTimeout = 15 * time.Second

// RecordStore is the single authoritative in-memory view of roster and
// attendance. Mutations are optimistic: local state changes first, the
// backend write happens asynchronously, and Reconcile folds the result
// back in. Readers always get consistent snapshots.
type RecordStore struct {
	mu         sync.RWMutex
	students   []Student
	attendance []AttendanceRecord
	inflight   map[string]struct{}
	version    uint64

	remote   RemoteWriter
	archiver Archiver
	onEvent  EventFunc
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithEventFunc sets the status event callback.
func WithEventFunc(fn EventFunc) Option {
	return func(s *RecordStore) { s.onEvent = fn }
}

// WithArchiver sets the optional reporting mirror.
func WithArchiver(a Archiver) Option {
	return func(s *RecordStore) { s.archiver = a }
}

// New creates a RecordStore backed by the given remote writer.
func New(remote RemoteWriter, opts ...Option) *RecordStore {
	s := &RecordStore{
		inflight: make(map[string]struct{}),
		remote:   remote,
		onEvent:  func(string, string, any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendOptimistic inserts the record at the head of the attendance
// collection immediately and kicks off an asynchronous backend write.
// The record is visible to readers before any network call resolves.
func (s *RecordStore) AppendOptimistic(record AttendanceRecord) error {
	s.mu.Lock()
	if _, ok := s.inflight[record.ID]; ok {
		s.mu.Unlock()
		return ErrAppendInFlight
	}
	if record.State == "" {
		record.State = StateProvisional
	}
	s.inflight[record.ID] = struct{}{}
	s.attendance = append([]AttendanceRecord{record}, s.attendance...)
	s.version++
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		canonical, err := s.remote.AppendAttendance(ctx, record)
		s.Reconcile(record.ID, canonical, err)
	}()

	return nil
}

// Reconcile folds the outcome of an asynchronous backend append back
// into the store. On success the provisional record is replaced exactly
// once by the canonical data, keeping its local id so client-held
// references stay valid. On failure the optimistic record is retained
// unchanged; resolution is left to a later user action. A reconciliation
// for an id no longer present (removed meanwhile) is discarded.
func (s *RecordStore) Reconcile(localID string, canonical *AttendanceRecord, remoteErr error) {
	s.mu.Lock()
	delete(s.inflight, localID)

	idx := -1
	for i := range s.attendance {
		if s.attendance[i].ID == localID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		s.onEvent("reconcile_stale", "reconciliation for removed record discarded", localID)
		return
	}

	if remoteErr != nil {
		s.mu.Unlock()
		s.onEvent("reconcile_failed", remoteErr.Error(), localID)
		return
	}

	rec := s.attendance[idx]
	if canonical != nil {
		if canonical.ID != "" && canonical.ID != localID {
			rec.RemoteID = canonical.ID
		}
		if !canonical.Timestamp.IsZero() {
			rec.Timestamp = canonical.Timestamp
		}
		if canonical.Status != "" {
			rec.Status = canonical.Status
		}
		rec.Confidence = canonical.Confidence
		if canonical.StudentName != "" {
			rec.StudentName = canonical.StudentName
		}
	}
	rec.State = StateConfirmed
	s.attendance[idx] = rec

	// The backend orders attendance by timestamp; match it so hydrated
	// and reconciled views agree.
	sort.SliceStable(s.attendance, func(i, j int) bool {
		return s.attendance[i].Timestamp.After(s.attendance[j].Timestamp)
	})
	s.version++
	s.mu.Unlock()

	s.onEvent("reconciled", "attendance record confirmed", rec)

	if s.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		if err := s.archiver.RecordAttendance(ctx, rec); err != nil {
			s.onEvent("archive_failed", err.Error(), rec.ID)
		}
	}
}

// RemoveStudent removes a roster record from the local view immediately
// and requests the backend deletion asynchronously. A remote failure
// does not roll back the local removal; UI responsiveness wins over
// strict consistency here.
func (s *RecordStore) RemoveStudent(id string) {
	s.mu.Lock()
	kept := s.students[:0]
	removed := false
	for _, st := range s.students {
		if st.ID == id {
			removed = true
			continue
		}
		kept = append(kept, st)
	}
	s.students = kept
	if removed {
		s.version++
	}
	s.mu.Unlock()

	if !removed {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		if err := s.remote.DeleteStudent(ctx, id); err != nil {
			s.onEvent("delete_failed", err.Error(), id)
		}
	}()
}

// RemoveAttendance removes an attendance record from the local view
// immediately and requests the backend deletion asynchronously, same
// trade-off as RemoveStudent. Confirmed records are deleted by their
// backend id; a provisional record never reached the backend, so only
// the local copy goes.
func (s *RecordStore) RemoveAttendance(id string) bool {
	s.mu.Lock()
	var removed *AttendanceRecord
	for i := range s.attendance {
		if s.attendance[i].ID == id {
			rec := s.attendance[i]
			removed = &rec
			s.attendance = append(s.attendance[:i], s.attendance[i+1:]...)
			s.version++
			break
		}
	}
	s.mu.Unlock()

	if removed == nil {
		return false
	}
	if removed.State != StateConfirmed {
		return true
	}

	remoteID := removed.RemoteID
	if remoteID == "" {
		remoteID = removed.ID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		if err := s.remote.DeleteAttendance(ctx, remoteID); err != nil {
			s.onEvent("delete_failed", err.Error(), remoteID)
		}
	}()
	return true
}

// AddStudent inserts a roster record into the local view. Creation goes
// through the backend first (the caller holds the canonical record), so
// this is a plain insert, not an optimistic mutation.
func (s *RecordStore) AddStudent(student Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = append(s.students, student)
	sort.SliceStable(s.students, func(i, j int) bool {
		return s.students[i].Name < s.students[j].Name
	})
	s.version++
}

// ReplaceAllStudents atomically replaces the roster collection.
func (s *RecordStore) ReplaceAllStudents(students []Student) {
	copied := make([]Student, len(students))
	copy(copied, students)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = copied
	s.version++
}

// ReplaceAllAttendance atomically replaces the attendance collection.
// Readers never observe a partial replacement.
func (s *RecordStore) ReplaceAllAttendance(records []AttendanceRecord) {
	copied := make([]AttendanceRecord, len(records))
	copy(copied, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = copied
	s.version++
}

// Students returns a snapshot of the roster.
func (s *RecordStore) Students() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

// Attendance returns a snapshot of the attendance collection, newest first.
func (s *RecordStore) Attendance() []AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AttendanceRecord, len(s.attendance))
	copy(out, s.attendance)
	return out
}

// Version returns the mutation counter. It bumps on every write, so
// pollers can cheaply detect changes.
func (s *RecordStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
