package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/easelhq/easel/backend/internal/api"
	"github.com/easelhq/easel/backend/internal/board"
	"github.com/easelhq/easel/backend/internal/config"
	"github.com/easelhq/easel/backend/internal/identity"
	"github.com/easelhq/easel/backend/internal/metrics"
	"github.com/easelhq/easel/backend/internal/snapshot"
	"github.com/easelhq/easel/backend/internal/store"
	"github.com/easelhq/easel/backend/internal/ws"
)

func main() {
	// Local .env is dev-only; missing files are fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	registry := board.NewRegistry(cfg.MaxBoards, cfg.MaxElements)
	resolver := identity.NewJWT(cfg.JWTSecret)

	hub := ws.NewHub(registry, st, resolver, ws.RejoinPolicy(cfg.RejoinPolicy), logger)
	go hub.Run(ctx)

	saver := snapshot.New(registry, st, cfg.SnapshotInterval, logger)
	saver.Start()

	apiHandler := api.New(hub, registry, st, saver, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)
	mux.HandleFunc("/api/boards", apiHandler.BoardsRouter)
	mux.HandleFunc("/api/boards/", apiHandler.BoardsRouter)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           corsMiddleware(cfg.CORSAllowOrigin, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Msg("easel server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server crashed")
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	// Flushes dirty boards before the store closes.
	saver.Stop()
	logger.Info().Msg("shutdown complete")
}

func newLogger(env string) zerolog.Logger {
	if env == "prod" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
