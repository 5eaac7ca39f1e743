package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomrecall/roomrecall/internal/metrics"
)

func NewRouter(apiHandler *APIHandler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(requestMetrics(m))

	r.Get("/health", apiHandler.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/rooms", apiHandler.ListRoomsHandler)
	r.Post("/rooms", apiHandler.CreateRoomHandler)

	r.Route("/rooms/{roomID}", func(r chi.Router) {
		r.Get("/questions", apiHandler.ListQuestionsHandler)
		r.Post("/questions", apiHandler.CreateQuestionHandler)
		r.Post("/audio", apiHandler.UploadAudioHandler)
	})

	return r
}
