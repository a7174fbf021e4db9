package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/waheeda129/face-attendance/internal/store"
)

type fakeHistory struct {
	count int64
	err   error
}

func (f *fakeHistory) AttendanceCount(ctx context.Context) (int64, error) {
	return f.count, f.err
}

func TestStatsOverview(t *testing.T) {
	backend := setupMockBackend(t, nil)
	coordinator := setupCoordinator(t, backend)

	coordinator.Store().ReplaceAllStudents([]store.Student{
		{ID: "s1", Name: "Amina Yusuf", Department: "CS"},
		{ID: "s2", Name: "Jan Novak", Department: "CS"},
		{ID: "s3", Name: "Mei Lin", Department: "EE"},
	})

	today := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	coordinator.Store().ReplaceAllAttendance([]store.AttendanceRecord{
		{ID: "a1", StudentID: "s1", Timestamp: today, Status: store.StatusPresent, State: store.StateConfirmed},
		{ID: "a2", StudentID: "s2", Timestamp: today.Add(-time.Hour), Status: store.StatusPresent, State: store.StateProvisional},
		{ID: "a3", StudentID: "s1", Timestamp: yesterday, Status: store.StatusPresent, State: store.StateConfirmed},
	})

	handler := NewStatsHandler(coordinator, nil)
	recorder := httptest.NewRecorder()
	handler.Overview(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var stats statsResponse
	parseJSONResponse(t, recorder, &stats)

	if stats.TotalStudents != 3 || stats.TotalRecords != 3 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.PresentToday != 2 {
		t.Errorf("expected 2 present today, got %d", stats.PresentToday)
	}
	if stats.PendingRecords != 1 {
		t.Errorf("expected 1 provisional record, got %d", stats.PendingRecords)
	}

	if len(stats.PerDay) != 2 || stats.PerDay[0].Date != "2026-08-25" || stats.PerDay[0].Count != 2 {
		t.Errorf("unexpected per-day counts: %+v", stats.PerDay)
	}

	if len(stats.PerDepartment) != 2 {
		t.Fatalf("expected 2 departments, got %+v", stats.PerDepartment)
	}
	cs := stats.PerDepartment[0]
	if cs.Department != "CS" || cs.Present != 2 || cs.Total != 2 {
		t.Errorf("unexpected CS stats: %+v", cs)
	}
	ee := stats.PerDepartment[1]
	if ee.Department != "EE" || ee.Present != 0 || ee.Total != 1 {
		t.Errorf("unexpected EE stats: %+v", ee)
	}
}

func TestStatsOverviewIncludesArchiveTotal(t *testing.T) {
	backend := setupMockBackend(t, nil)
	coordinator := setupCoordinator(t, backend)

	handler := NewStatsHandler(coordinator, &fakeHistory{count: 1204})
	recorder := httptest.NewRecorder()
	handler.Overview(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var stats statsResponse
	parseJSONResponse(t, recorder, &stats)
	if stats.ArchivedTotal == nil || *stats.ArchivedTotal != 1204 {
		t.Errorf("expected archived total 1204, got %+v", stats.ArchivedTotal)
	}
}

func TestStatsOverviewOmitsArchiveTotalOnError(t *testing.T) {
	backend := setupMockBackend(t, nil)
	coordinator := setupCoordinator(t, backend)

	handler := NewStatsHandler(coordinator, &fakeHistory{err: errors.New("connection refused")})
	recorder := httptest.NewRecorder()
	handler.Overview(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var stats statsResponse
	parseJSONResponse(t, recorder, &stats)
	if stats.ArchivedTotal != nil {
		t.Errorf("expected no archived total on error, got %d", *stats.ArchivedTotal)
	}
}

func TestStatsOverviewEmptyStore(t *testing.T) {
	backend := setupMockBackend(t, nil)
	coordinator := setupCoordinator(t, backend)

	handler := NewStatsHandler(coordinator, nil)
	recorder := httptest.NewRecorder()
	handler.Overview(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var stats statsResponse
	parseJSONResponse(t, recorder, &stats)
	if stats.TotalStudents != 0 || stats.TotalRecords != 0 || stats.PresentToday != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
