package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/config"
	matchingsvc "github.com/dottenv/dating-bot/internal/services/matching"
	sessionsvc "github.com/dottenv/dating-bot/internal/services/sessions"
	"github.com/dottenv/dating-bot/internal/transport/http/handlers"
)

type Dependencies struct {
	MatchingService *matchingsvc.Service
	SessionService  *sessionsvc.Service
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	searchHandler := handlers.NewSearchHandler(deps.MatchingService)
	sessionHandler := handlers.NewSessionHandler(deps.SessionService)
	revealHandler := handlers.NewRevealHandler(deps.SessionService)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Post("/", searchHandler.Start)
			r.Get("/", searchHandler.Status)
			r.Delete("/", searchHandler.Cancel)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.End)
			r.Post("/message", sessionHandler.Message)

			r.Route("/reveal", func(r chi.Router) {
				r.Post("/", revealHandler.Request)
				r.Post("/decision", revealHandler.Decide)
			})
		})
	})
}
