package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/relaychat/relay/internal/chat"
	"github.com/relaychat/relay/internal/config"
	"github.com/relaychat/relay/internal/handlers"
	"github.com/relaychat/relay/internal/middleware"
	"github.com/relaychat/relay/internal/websocket"
)

func main() {
	// Load configuration from environment
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Initialize the chat coordinator with the fixed room catalog
	chatServer := chat.NewServer(logger, cfg.Rooms, cfg.HistoryLimit)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(chatServer)
	wsHandler := websocket.NewHandler(chatServer, logger, cfg.MaxMessageSize)

	// Set up router with middleware
	r := chi.NewRouter()

	r.Use(middleware.Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	logger.Info().Strs("origins", cfg.CORSOrigins).Msg("CORS allowed origins")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	r.Get("/health", handlers.HealthCheck)

	// WebSocket endpoint
	r.Get("/ws", wsHandler.ServeWS)

	// Read-only API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/messages", chatHandler.ListMessages)
		r.Get("/users", chatHandler.ListUsers)
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", chatHandler.ListRooms)
			r.Get("/{id}/messages", chatHandler.GetRoomMessages)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Int("rooms", len(cfg.Rooms)).
			Msg("starting relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
