package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRemote is a controllable RemoteWriter. Append calls block until
// release is closed, so tests can observe the optimistic state first.
type fakeRemote struct {
	mu        sync.Mutex
	release   chan struct{}
	appendErr error
	canonical *AttendanceRecord
	deleted   []string
	deleteErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{release: make(chan struct{})}
}

func (f *fakeRemote) AppendAttendance(ctx context.Context, record AttendanceRecord) (*AttendanceRecord, error) {
	<-f.release
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	if f.canonical != nil {
		return f.canonical, nil
	}
	confirmed := record
	confirmed.State = StateConfirmed
	return &confirmed, nil
}

func (f *fakeRemote) DeleteAttendance(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeRemote) DeleteStudent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

// eventRecorder collects store events and signals each arrival.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
	ch     chan string
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan string, 16)}
}

func (r *eventRecorder) record(eventType, message string, data any) {
	r.mu.Lock()
	r.events = append(r.events, eventType)
	r.mu.Unlock()
	r.ch <- eventType
}

func (r *eventRecorder) wait(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-r.ch:
		if got != want {
			t.Fatalf("expected event %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event %q", want)
	}
}

func testRecord(id string) AttendanceRecord {
	return AttendanceRecord{
		ID:          id,
		StudentID:   "s1",
		StudentName: "Amina Yusuf",
		Timestamp:   time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
		Status:      StatusPresent,
		Confidence:  92,
	}
}

func TestAppendOptimisticVisibleBeforeRemoteResolves(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote)

	if err := s.AppendOptimistic(testRecord("r1")); err != nil {
		t.Fatalf("AppendOptimistic failed: %v", err)
	}

	// The remote call has not completed; the record must already be readable.
	records := s.Attendance()
	if len(records) != 1 {
		t.Fatalf("expected 1 record before reconciliation, got %d", len(records))
	}
	if records[0].State != StateProvisional {
		t.Errorf("expected provisional state, got %q", records[0].State)
	}

	close(remote.release)
}

func TestAppendRejectsDuplicateInFlight(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote)

	if err := s.AppendOptimistic(testRecord("r1")); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := s.AppendOptimistic(testRecord("r1")); !errors.Is(err, ErrAppendInFlight) {
		t.Errorf("expected ErrAppendInFlight, got: %v", err)
	}

	close(remote.release)
}

func TestReconcileSuccessReplacesExactlyOnce(t *testing.T) {
	remote := newFakeRemote()
	canonical := testRecord("server-id-99")
	canonical.Timestamp = time.Date(2026, 8, 25, 9, 0, 1, 0, time.UTC)
	remote.canonical = &canonical

	events := newEventRecorder()
	s := New(remote, WithEventFunc(events.record))

	if err := s.AppendOptimistic(testRecord("r1")); err != nil {
		t.Fatalf("AppendOptimistic failed: %v", err)
	}
	close(remote.release)
	events.wait(t, "reconciled")

	records := s.Attendance()
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record after reconciliation, got %d", len(records))
	}
	rec := records[0]
	if rec.ID != "r1" {
		t.Errorf("local id must survive reconciliation, got %q", rec.ID)
	}
	if rec.RemoteID != "server-id-99" {
		t.Errorf("expected canonical remote id recorded, got %q", rec.RemoteID)
	}
	if rec.State != StateConfirmed {
		t.Errorf("expected confirmed state, got %q", rec.State)
	}
	if !rec.Timestamp.Equal(canonical.Timestamp) {
		t.Errorf("expected canonical timestamp adopted, got %v", rec.Timestamp)
	}
}

func TestReconcileFailureRetainsOptimisticRecord(t *testing.T) {
	remote := newFakeRemote()
	remote.appendErr = errors.New("backend unreachable")

	events := newEventRecorder()
	s := New(remote, WithEventFunc(events.record))

	if err := s.AppendOptimistic(testRecord("r1")); err != nil {
		t.Fatalf("AppendOptimistic failed: %v", err)
	}
	close(remote.release)
	events.wait(t, "reconcile_failed")

	records := s.Attendance()
	if len(records) != 1 {
		t.Fatalf("expected original record retained, got %d records", len(records))
	}
	if records[0].State != StateProvisional {
		t.Errorf("failed reconciliation must leave record provisional, got %q", records[0].State)
	}
	if records[0].ID != "r1" {
		t.Errorf("record must be unchanged, got id %q", records[0].ID)
	}
}

func TestReconcileAfterFailureAllowsRetry(t *testing.T) {
	remote := newFakeRemote()
	remote.appendErr = errors.New("backend unreachable")

	events := newEventRecorder()
	s := New(remote, WithEventFunc(events.record))

	rec := testRecord("r1")
	if err := s.AppendOptimistic(rec); err != nil {
		t.Fatalf("AppendOptimistic failed: %v", err)
	}
	close(remote.release)
	events.wait(t, "reconcile_failed")

	// The in-flight slot is released after failure, so a user-driven
	// retry must be accepted again. The record is already present, so
	// the retry path goes through Reconcile directly.
	confirmed := rec
	confirmed.State = StateConfirmed
	s.Reconcile("r1", &confirmed, nil)
	events.wait(t, "reconciled")

	records := s.Attendance()
	if len(records) != 1 || records[0].State != StateConfirmed {
		t.Fatalf("expected single confirmed record after retry, got %+v", records)
	}
}

func TestStaleReconcileDiscarded(t *testing.T) {
	remote := newFakeRemote()
	events := newEventRecorder()
	s := New(remote, WithEventFunc(events.record))

	rec := testRecord("r1")
	if err := s.AppendOptimistic(rec); err != nil {
		t.Fatalf("AppendOptimistic failed: %v", err)
	}
	if !s.RemoveAttendance("r1") {
		t.Fatal("expected local removal to succeed")
	}

	close(remote.release)
	events.wait(t, "reconcile_stale")

	if got := len(s.Attendance()); got != 0 {
		t.Errorf("expected removed record to stay removed, got %d records", got)
	}
}

func TestRemoveStudentNoRollbackOnRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.deleteErr = errors.New("remote deletion failed")

	events := newEventRecorder()
	s := New(remote, WithEventFunc(events.record))
	s.ReplaceAllStudents([]Student{{ID: "s1", Name: "Amina Yusuf"}})

	s.RemoveStudent("s1")
	events.wait(t, "delete_failed")

	if got := len(s.Students()); got != 0 {
		t.Errorf("local removal must not be rolled back, got %d students", got)
	}
}

func TestRemoveAttendanceDeletesRemoteCopy(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote)

	rec := testRecord("r1")
	rec.RemoteID = "srv-9"
	rec.State = StateConfirmed
	s.ReplaceAllAttendance([]AttendanceRecord{rec})

	if !s.RemoveAttendance("r1") {
		t.Fatal("expected local removal to succeed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		remote.mu.Lock()
		deleted := append([]string(nil), remote.deleted...)
		remote.mu.Unlock()
		if len(deleted) > 0 {
			if deleted[0] != "srv-9" {
				t.Fatalf("expected backend deletion of srv-9, got %v", deleted)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for remote deletion")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReplaceAllIsAtomic(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote)

	batchA := make([]AttendanceRecord, 50)
	batchB := make([]AttendanceRecord, 70)
	for i := range batchA {
		batchA[i] = testRecord("a")
	}
	for i := range batchB {
		batchB[i] = testRecord("b")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.ReplaceAllAttendance(batchA)
			s.ReplaceAllAttendance(batchB)
		}
	}()

	// Readers must only ever see a full batch, never a mix.
	for i := 0; i < 200; i++ {
		records := s.Attendance()
		if n := len(records); n != 0 && n != 50 && n != 70 {
			t.Fatalf("observed partial replacement: %d records", n)
		}
		if len(records) > 0 {
			first := records[0].ID
			for _, r := range records {
				if r.ID != first {
					t.Fatal("observed mixed batches in one snapshot")
				}
			}
		}
	}
	<-done
}

func TestVersionBumpsOnMutation(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote)

	v0 := s.Version()
	s.ReplaceAllStudents([]Student{{ID: "s1"}})
	if s.Version() <= v0 {
		t.Error("expected version bump after roster replacement")
	}
}

type fakeArchive struct {
	mu      sync.Mutex
	records []AttendanceRecord
}

func (f *fakeArchive) RecordAttendance(ctx context.Context, record AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func TestConfirmedRecordMirroredToArchive(t *testing.T) {
	remote := newFakeRemote()
	archive := &fakeArchive{}
	events := newEventRecorder()
	s := New(remote, WithEventFunc(events.record), WithArchiver(archive))

	if err := s.AppendOptimistic(testRecord("r1")); err != nil {
		t.Fatalf("AppendOptimistic failed: %v", err)
	}
	close(remote.release)
	events.wait(t, "reconciled")

	archive.mu.Lock()
	defer archive.mu.Unlock()
	if len(archive.records) != 1 {
		t.Fatalf("expected 1 archived record, got %d", len(archive.records))
	}
	if archive.records[0].State != StateConfirmed {
		t.Errorf("only confirmed records belong in the archive, got %q", archive.records[0].State)
	}
}
