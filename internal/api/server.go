package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"courtvision/backend/internal/repository"

	"github.com/gorilla/mux"
)

// Server is the summary API HTTP server
type Server struct {
	server *http.Server
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer wires the router, middleware and handlers
func NewServer(cfg ServerConfig, db *repository.Database, summaries SummaryProvider, cacheHealth CacheChecker) *Server {
	handler := NewHandler(summaries, &dbPlayerLister{db: db}, db, cacheHealth)

	router := mux.NewRouter()
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/players", handler.ListPlayers).Methods("GET")
	api.HandleFunc("/players/{playerID}/summary", handler.GetPlayerSummary).Methods("GET")

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// dbPlayerLister adapts the player repository to the list endpoint
type dbPlayerLister struct {
	db *repository.Database
}

func (l *dbPlayerLister) ListPlayers(ctx context.Context) ([]PlayerInfo, error) {
	players, err := l.db.Players.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, PlayerInfo{PlayerID: p.PlayerID, Name: p.Name})
	}
	return infos, nil
}
