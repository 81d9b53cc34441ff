package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/config"
	"github.com/citylink/citylink/internal/handlers"
	"github.com/citylink/citylink/internal/middleware"
	"github.com/citylink/citylink/internal/store/sqlstore"
	"github.com/citylink/citylink/internal/ws"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.Load()

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	verifier := auth.NewVerifier(store, []byte(cfg.JWTSecret), logger)
	authn := &middleware.Authenticator{Verifier: verifier}

	hub := ws.NewHub(store, logger)
	go hub.Run()

	authHandler := &handlers.AuthHandler{Store: store, Verifier: verifier}
	adminHandler := &handlers.AdminHandler{Store: store}
	chatHandler := &handlers.ChatHandler{Store: store, HistoryLimit: cfg.HistoryLimit}
	wsHandler := ws.NewHandler(hub, verifier, cfg.AllowedOrigins, logger)

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))

	r.HandleFunc("/api/health", handlers.Health).Methods("GET")
	r.HandleFunc("/api/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")

	session := r.NewRoute().Subrouter()
	session.Use(authn.RequireSession)
	session.HandleFunc("/api/profile", authHandler.UpdateProfile).Methods("PUT")
	session.HandleFunc("/api/profile", authHandler.DeleteProfile).Methods("DELETE")
	session.HandleFunc("/api/personal-api-token", authHandler.GenerateAPIToken).Methods("POST")
	session.HandleFunc("/api/personal-api-token", authHandler.APITokenInfo).Methods("GET")

	admin := r.NewRoute().Subrouter()
	admin.Use(authn.RequireSession, authn.RequireAdmin)
	admin.HandleFunc("/api/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/api/users/{id}", adminHandler.UpdateUser).Methods("PUT")
	admin.HandleFunc("/api/users/{id}", adminHandler.DeleteUser).Methods("DELETE")

	authed := r.NewRoute().Subrouter()
	authed.Use(authn.RequireAuth)
	authed.HandleFunc("/api/me", authHandler.Me).Methods("GET")
	authed.HandleFunc("/api/rooms/{city}/messages", chatHandler.RoomMessages).Methods("GET")

	r.Handle("/ws", wsHandler)

	server := &http.Server{Addr: cfg.Addr, Handler: r}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
