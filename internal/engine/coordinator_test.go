package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/store"
)

// backend is a mock attendance server covering the endpoints the
// coordinator touches during a session.
type backend struct {
	mu         sync.Mutex
	students   []attendapi.Student
	attendance []attendapi.AttendanceRecord
	posted     []attendapi.AttendanceRecord
	failLists  bool
	recognize  http.HandlerFunc

	server *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/students", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failLists {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(b.students)
	})
	mux.HandleFunc("/api/attendance", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			if b.failLists {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(b.attendance)
		case http.MethodPost:
			var rec attendapi.AttendanceRecord
			if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.ID = fmt.Sprintf("srv-%d", len(b.posted)+1)
			b.posted = append(b.posted, rec)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(rec)
		}
	})
	mux.HandleFunc("/api/recognize", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		h := b.recognize
		b.mu.Unlock()
		if h == nil {
			json.NewEncoder(w).Encode(attendapi.RecognizeResult{Available: true})
			return
		}
		h(w, r)
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) baseURL() string {
	return b.server.URL + "/api"
}

func (b *backend) postedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.posted)
}

// recognizeFace configures the mock to recognize one student on every
// frame.
func (b *backend) recognizeFace(studentID, studentName string, confidence float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recognize = func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(attendapi.RecognizeResult{
			Available: true,
			Faces: []attendapi.RecognizedFace{
				{StudentID: &studentID, StudentName: &studentName, Confidence: confidence, Status: "recognized"},
			},
		})
	}
}

func testSyncConfig(baseURL string) SyncConfig {
	return SyncConfig{
		BaseURL:                    baseURL,
		ConfidenceThresholdPercent: 85,
		CooldownWindow:             60 * time.Second,
		SampleInterval:             10 * time.Millisecond,
		TelemetryInterval:          time.Hour,
	}
}

// waitEvent blocks until an event of the given type arrives.
func waitEvent(t *testing.T, ch chan Event, eventType string) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-ch:
			if event.Type == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", eventType)
		}
	}
}

func TestStartHydratesFromBackend(t *testing.T) {
	b := newBackend(t)
	b.students = []attendapi.Student{{ID: "s1", Name: "Amina Yusuf", Status: "Active"}}
	b.attendance = []attendapi.AttendanceRecord{
		{ID: "a1", StudentID: "s1", StudentName: "Amina Yusuf", Timestamp: "2026-08-25T09:00:00", Status: "Present"},
	}

	events := NewBroadcaster()
	ch := events.AddListener()
	defer events.RemoveListener(ch)

	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	cfg := testSyncConfig(b.baseURL())
	cfg.SampleInterval = time.Hour // hydration only
	if err := c.Start(cfg); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()

	waitEvent(t, ch, "hydrated")

	students := c.Store().Students()
	if len(students) != 1 || students[0].Name != "Amina Yusuf" {
		t.Errorf("unexpected roster after hydration: %+v", students)
	}
	records := c.Store().Attendance()
	if len(records) != 1 || records[0].State != store.StateConfirmed {
		t.Errorf("unexpected attendance after hydration: %+v", records)
	}
}

func TestStartHydrationFailureFallsBackToEmpty(t *testing.T) {
	b := newBackend(t)
	b.failLists = true

	events := NewBroadcaster()
	ch := events.AddListener()
	defer events.RemoveListener(ch)

	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	c.Store().ReplaceAllStudents([]store.Student{{ID: "stale", Name: "Stale"}})
	c.Store().ReplaceAllAttendance([]store.AttendanceRecord{{ID: "stale"}})

	cfg := testSyncConfig(b.baseURL())
	cfg.SampleInterval = time.Hour
	if err := c.Start(cfg); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()

	waitEvent(t, ch, "hydrate_failed")

	if got := c.Store().Students(); len(got) != 0 {
		t.Errorf("expected empty roster after failed hydration, got %+v", got)
	}
	if got := c.Store().Attendance(); len(got) != 0 {
		t.Errorf("expected empty attendance after failed hydration, got %+v", got)
	}
}

func TestTickLoopLogsAttendanceOnce(t *testing.T) {
	b := newBackend(t)
	b.recognizeFace("s1", "Amina Yusuf", 0.95)

	events := NewBroadcaster()
	ch := events.AddListener()
	defer events.RemoveListener(ch)

	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	if err := c.Start(testSyncConfig(b.baseURL())); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()

	logged := waitEvent(t, ch, "attendance_logged")
	if logged.Message != "Amina Yusuf" {
		t.Errorf("unexpected logged event: %+v", logged)
	}
	waitEvent(t, ch, "reconciled")

	// Several more ticks elapse; the cooldown keeps the count at one.
	for i := 0; i < 3; i++ {
		waitEvent(t, ch, "tick")
	}

	records := c.Store().Attendance()
	if len(records) != 1 {
		t.Fatalf("expected exactly one attendance record, got %d", len(records))
	}
	if records[0].State != store.StateConfirmed {
		t.Errorf("expected confirmed record, got %q", records[0].State)
	}
	if records[0].RemoteID != "srv-1" {
		t.Errorf("expected canonical remote id adopted, got %q", records[0].RemoteID)
	}
	if got := b.postedCount(); got != 1 {
		t.Errorf("expected one backend write, got %d", got)
	}
}

func TestRecognitionUnsupportedKeepsTicking(t *testing.T) {
	b := newBackend(t)
	b.mu.Lock()
	b.recognize = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not implemented", http.StatusNotImplemented)
	}
	b.mu.Unlock()

	events := NewBroadcaster()
	ch := events.AddListener()
	defer events.RemoveListener(ch)

	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	if err := c.Start(testSyncConfig(b.baseURL())); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()

	for i := 0; i < 2; i++ {
		tick := waitEvent(t, ch, "tick")
		data := tick.Data.(map[string]any)
		if data["outcome"] != OutcomeUnsupported {
			t.Errorf("tick %d: expected capability-unavailable outcome, got %v", i, data["outcome"])
		}
	}

	if !c.Running() {
		t.Error("loop must keep running when recognition is unsupported")
	}
	if got := c.Store().Attendance(); len(got) != 0 {
		t.Errorf("expected no attendance records, got %d", len(got))
	}
}

func TestStopDiscardsLateTick(t *testing.T) {
	b := newBackend(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	b.mu.Lock()
	b.recognize = func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		studentID, studentName := "s1", "Amina Yusuf"
		json.NewEncoder(w).Encode(attendapi.RecognizeResult{
			Available: true,
			Faces: []attendapi.RecognizedFace{
				{StudentID: &studentID, StudentName: &studentName, Confidence: 0.95, Status: "recognized"},
			},
		})
	}
	b.mu.Unlock()

	events := NewBroadcaster()
	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	if err := c.Start(testSyncConfig(b.baseURL())); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recognition request")
	}

	c.Stop()
	close(release)

	// Give the late completion a chance to run before asserting it was
	// discarded.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if len(c.Store().Attendance()) != 0 {
			t.Fatal("tick completing after Stop must not emit attendance")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUpdateConfigRehydratesOnURLChange(t *testing.T) {
	first := newBackend(t)
	first.students = []attendapi.Student{{ID: "s1", Name: "Amina Yusuf"}}
	second := newBackend(t)
	second.students = []attendapi.Student{{ID: "s9", Name: "Jan Novak"}}

	events := NewBroadcaster()
	ch := events.AddListener()
	defer events.RemoveListener(ch)

	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	cfg := testSyncConfig(first.baseURL())
	cfg.SampleInterval = time.Hour
	if err := c.Start(cfg); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()
	waitEvent(t, ch, "hydrated")

	cfg.BaseURL = second.baseURL()
	if err := c.UpdateConfig(cfg); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	waitEvent(t, ch, "hydrated")

	students := c.Store().Students()
	if len(students) != 1 || students[0].Name != "Jan Novak" {
		t.Errorf("expected roster from the new backend, got %+v", students)
	}
}

func TestUpdateConfigRejectsInvalidURL(t *testing.T) {
	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, NewBroadcaster())
	if err := c.UpdateConfig(testSyncConfig("not-a-url")); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func TestLogManualBypassesGate(t *testing.T) {
	b := newBackend(t)

	events := NewBroadcaster()
	ch := events.AddListener()
	defer events.RemoveListener(ch)

	c := NewCoordinator(&fakeSource{frame: []byte("jpeg")}, events)
	cfg := testSyncConfig(b.baseURL())
	cfg.SampleInterval = time.Hour
	if err := c.Start(cfg); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()
	waitEvent(t, ch, "hydrated")

	rec, err := c.LogManual("s1", "Amina Yusuf", store.StatusLate)
	if err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}
	if !rec.Manual || rec.Status != store.StatusLate {
		t.Errorf("unexpected manual record: %+v", rec)
	}

	waitEvent(t, ch, "reconciled")
	records := c.Store().Attendance()
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Fatalf("expected the manual record in the store, got %+v", records)
	}
	if records[0].State != store.StateConfirmed {
		t.Errorf("expected manual record confirmed after reconciliation, got %q", records[0].State)
	}
}
