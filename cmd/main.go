package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacobneff/scorebugger/config"
	"github.com/jacobneff/scorebugger/db"
	"github.com/jacobneff/scorebugger/handlers"
	"github.com/jacobneff/scorebugger/live"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/routes"
	"github.com/jacobneff/scorebugger/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	hub := live.NewHub()
	go hub.Run()

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	scoreboardRepo := repositories.NewPostgresScoreboardRepository(dbConn)
	venueRepo := repositories.NewPostgresVenueRepository(dbConn)

	locks := services.NewTournamentLocks()
	formatService := services.NewFormatService()
	stageService := services.NewStageService(tournamentRepo, teamRepo, poolRepo, matchRepo, scoreboardRepo, venueRepo, locks)
	matchService := services.NewMatchService(tournamentRepo, poolRepo, matchRepo, scoreboardRepo, venueRepo, locks)
	standingsService := services.NewStandingsService(tournamentRepo, teamRepo, poolRepo, matchRepo)
	playoffService := services.NewPlayoffService(tournamentRepo, teamRepo, poolRepo, matchRepo, scoreboardRepo, venueRepo, locks)
	poolService := services.NewPoolService(tournamentRepo, teamRepo, poolRepo, matchRepo, locks)
	logger.Info("services initialized")

	router := routes.InitRoutes(routes.Handlers{
		Format:    handlers.NewFormatHandler(formatService),
		Stage:     handlers.NewStageHandler(stageService, poolService, hub),
		Match:     handlers.NewMatchHandler(matchService, hub),
		Standings: handlers.NewStandingsHandler(standingsService),
		Playoff:   handlers.NewPlayoffHandler(playoffService, hub),
		WebSocket: handlers.NewWebSocketHandler(hub),
	}, cfg.JWTSecretKey, cfg.RateLimitRPS)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
