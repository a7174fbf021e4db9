package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"

	"github.com/waheeda129/face-attendance/internal/engine"
	"github.com/waheeda129/face-attendance/internal/store"
)

// AttendanceHistory reports totals from the reporting archive. The
// archive is a sink for the sync engine; this read path serves only the
// dashboard history panel and never feeds hydration.
type AttendanceHistory interface {
	AttendanceCount(ctx context.Context) (int64, error)
}

// StatsHandler computes dashboard metrics from the local record store,
// plus the all-time mirrored total when an archive is configured.
type StatsHandler struct {
	engine  *engine.Coordinator
	history AttendanceHistory
}

// NewStatsHandler creates a stats handler. history may be nil.
func NewStatsHandler(coordinator *engine.Coordinator, history AttendanceHistory) *StatsHandler {
	return &StatsHandler{engine: coordinator, history: history}
}

type dayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type departmentCount struct {
	Department string `json:"department"`
	Present    int    `json:"present"`
	Total      int    `json:"total"`
}

type statsResponse struct {
	TotalStudents  int               `json:"totalStudents"`
	TotalRecords   int               `json:"totalRecords"`
	PresentToday   int               `json:"presentToday"`
	PerDay         []dayCount        `json:"perDay"`
	PerDepartment  []departmentCount `json:"perDepartment"`
	PendingRecords int               `json:"pendingRecords"`
	ArchivedTotal  *int64            `json:"archivedTotal,omitempty"`
}

// Overview returns per-day attendance counts and per-department
// presence for the metrics panel.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	students := h.engine.Store().Students()
	records := h.engine.Store().Attendance()

	departmentByStudent := make(map[string]string, len(students))
	departmentTotals := make(map[string]int)
	for _, s := range students {
		departmentByStudent[s.ID] = s.Department
		departmentTotals[s.Department]++
	}

	perDay := make(map[string]int)
	presentByDepartment := make(map[string]map[string]struct{})
	pending := 0
	var today string
	if len(records) > 0 {
		// Records are newest first; the newest record's day is "today".
		today = records[0].Timestamp.Format("2006-01-02")
	}
	presentToday := 0

	for _, rec := range records {
		day := rec.Timestamp.Format("2006-01-02")
		perDay[day]++
		if day == today {
			presentToday++
		}
		if rec.State != store.StateConfirmed {
			pending++
		}
		dept := departmentByStudent[rec.StudentID]
		if presentByDepartment[dept] == nil {
			presentByDepartment[dept] = make(map[string]struct{})
		}
		presentByDepartment[dept][rec.StudentID] = struct{}{}
	}

	days := make([]dayCount, 0, len(perDay))
	for day, count := range perDay {
		days = append(days, dayCount{Date: day, Count: count})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	departments := make([]departmentCount, 0, len(departmentTotals))
	for dept, total := range departmentTotals {
		departments = append(departments, departmentCount{
			Department: dept,
			Present:    len(presentByDepartment[dept]),
			Total:      total,
		})
	}
	sort.Slice(departments, func(i, j int) bool { return departments[i].Department < departments[j].Department })

	resp := statsResponse{
		TotalStudents:  len(students),
		TotalRecords:   len(records),
		PresentToday:   presentToday,
		PerDay:         days,
		PerDepartment:  departments,
		PendingRecords: pending,
	}
	if h.history != nil {
		if count, err := h.history.AttendanceCount(r.Context()); err != nil {
			log.Printf("Warning: archive attendance count failed: %v", err)
		} else {
			resp.ArchivedTotal = &count
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
