package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jacobneff/scorebugger/handlers"
	"github.com/jacobneff/scorebugger/middleware"
)

type Handlers struct {
	Format    *handlers.FormatHandler
	Stage     *handlers.StageHandler
	Match     *handlers.MatchHandler
	Standings *handlers.StandingsHandler
	Playoff   *handlers.PlayoffHandler
	WebSocket *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string, rateLimitRPS float64) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.RateLimit(rateLimitRPS, int(rateLimitRPS)*2))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/formats", func(r chi.Router) {
		r.Get("/", h.Format.ListFormats)
		r.Get("/suggest", h.Format.SuggestFormats)
		r.Get("/{formatID}", h.Format.GetFormat)
	})

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		// Read endpoints are public: venue displays poll them unauthenticated.
		r.Get("/stages/{stageKey}/pools", h.Stage.ListPools)
		r.Get("/stages/{stageKey}/matches", h.Match.ListMatches)
		r.Get("/stages/{stageKey}/standings", h.Standings.StageStandings)
		r.Get("/standings", h.Standings.CumulativeStandings)

		// Mutations require an organizer or admin token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))

			r.Post("/format", h.Stage.ApplyFormat)
			r.Post("/stages/{stageKey}/pools", h.Stage.GeneratePools)
			r.Put("/stages/{stageKey}/pools", h.Stage.ReassignPools)
			r.Patch("/pools/{poolID}/rank-override", h.Stage.SetRankOverride)
			r.Post("/stages/{stageKey}/matches", h.Match.GenerateMatches)
			r.Patch("/matches/{matchID}/unfinalize", h.Match.UnfinalizeMatch)
			r.Post("/playoffs", h.Playoff.GeneratePlayoffs)
			r.Post("/playoffs/next-round", h.Playoff.GenerateNextRound)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeTournament)

	return router
}
