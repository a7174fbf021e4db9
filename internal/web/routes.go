package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes(defaults config.Defaults) {
	studentsHandler := handlers.NewStudentsHandler(s.coordinator)
	attendanceHandler := handlers.NewAttendanceHandler(s.coordinator)
	liveHandler := handlers.NewLiveHandler(s.coordinator)
	settingsHandler := handlers.NewSettingsHandler(s.coordinator, defaults)
	statsHandler := handlers.NewStatsHandler(s.coordinator, s.history)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Roster
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Create)
		r.Delete("/students/{id}", studentsHandler.Delete)

		// Attendance log
		r.Get("/attendance", attendanceHandler.List)
		r.Post("/attendance", attendanceHandler.Log)
		r.Delete("/attendance/{id}", attendanceHandler.Delete)

		// Live recognition
		r.Get("/live/status", liveHandler.Status)
		r.Get("/live/events", liveHandler.Events)

		// Settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)

		// Metrics
		r.Get("/stats", statsHandler.Overview)
	})
}
