package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"courtvision/backend/internal/repository"
	"courtvision/backend/internal/service"

	"github.com/gorilla/mux"
)

// SummaryProvider builds player summaries. Satisfied by
// service.SummaryService; narrowed to an interface so handlers are
// testable without Postgres and Redis.
type SummaryProvider interface {
	GetPlayerSummary(ctx context.Context, playerID int) (*service.PlayerSummary, error)
}

// PlayerLister lists known players
type PlayerLister interface {
	ListPlayers(ctx context.Context) ([]PlayerInfo, error)
}

// PlayerInfo is the list-endpoint projection of a player
type PlayerInfo struct {
	PlayerID int    `json:"playerId"`
	Name     string `json:"name"`
}

// HealthChecker reports backing-store health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CacheChecker reports cache connectivity. A nil checker means the
// server runs without a cache.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	summaries   SummaryProvider
	players     PlayerLister
	health      HealthChecker
	cacheHealth CacheChecker
}

// NewHandler creates a handler over the given providers
func NewHandler(summaries SummaryProvider, players PlayerLister, health HealthChecker, cacheHealth CacheChecker) *Handler {
	return &Handler{summaries: summaries, players: players, health: health, cacheHealth: cacheHealth}
}

// HealthCheck reports service, database and cache health. The cache is
// optional, so an unreachable cache degrades the report instead of
// failing it; only the database gates the status code.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Health(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}

	cacheStatus := "disabled"
	if h.cacheHealth != nil {
		cacheStatus = "ok"
		if err := h.cacheHealth.HealthCheck(r.Context()); err != nil {
			cacheStatus = "degraded"
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "courtvision",
		"cache":   cacheStatus,
	})
}

// ListPlayers returns all known players
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.ListPlayers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch players", err)
		return
	}

	respondJSON(w, http.StatusOK, players)
}

// GetPlayerSummary returns the aggregated summary for one player
func (h *Handler) GetPlayerSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID, err := strconv.Atoi(vars["playerID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player id", err)
		return
	}

	summary, err := h.summaries.GetPlayerSummary(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Player not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to build player summary", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
