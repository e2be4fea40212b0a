package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the full HTTP surface. Combat routes sit behind client
// token auth; health, readiness and metrics stay open.
func (h *Handler) Router(allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/combat", func(r chi.Router) {
		r.Use(h.ClientAuthMiddleware)

		r.Get("/adversaries", h.ListAdversaries)
		r.Delete("/", h.ResetAll)

		r.Route("/{adversary}", func(r chi.Router) {
			r.Post("/attacks", h.IngestAttacks)
			r.Post("/prediction", h.Predict)
			r.Get("/progress", h.Progress)
			r.Get("/stats", h.Stats)
			r.Get("/backtest", h.Backtest)
			r.Post("/export", h.Export)
			r.Delete("/", h.Reset)

			r.Post("/ticks", h.IngestTicks)
			r.Post("/ticks/prediction", h.TickPredict)
			r.Get("/weights", h.GetWeights)
			r.Put("/weights", h.PutWeights)

			r.Post("/reward/ticks", h.RewardTicks)
			r.Post("/reward/prediction", h.RewardPrediction)
			r.Post("/reward/outcome", h.RewardOutcome)
			r.Get("/reward", h.RewardScores)
		})
	})

	return r
}
