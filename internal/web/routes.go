package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	registerHandler := handlers.NewRegisterHandler(s.deps.Embedder, s.deps.Registry, s.deps.Audit)
	recognizeHandler := handlers.NewRecognizeHandler(s.deps.Embedder, s.deps.Recognizer)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Ledger, s.deps.Registry)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", registerHandler.Register)
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/identities", attendanceHandler.Roster)
	})
}
