package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// StatsProvider reports on the loaded question bank.
type StatsProvider interface {
	Stats(ctx context.Context) (domain.BankStats, error)
}

// APIHandler serves the read-only JSON endpoints next to the websocket.
type APIHandler struct {
	ranking         *app.RankingService
	profiles        *app.ProfileService
	catalog         *app.CatalogService
	stats           StatsProvider
	leaderboardSize int
	now             func() time.Time
}

func NewAPIHandler(ranking *app.RankingService, profiles *app.ProfileService, catalog *app.CatalogService, stats StatsProvider, leaderboardSize int) *APIHandler {
	return &APIHandler{
		ranking:         ranking,
		profiles:        profiles,
		catalog:         catalog,
		stats:           stats,
		leaderboardSize: leaderboardSize,
		now:             time.Now,
	}
}

// Register mounts the endpoints on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/leaderboard", h.Leaderboard)
	mux.HandleFunc("/profile", h.Profile)
	mux.HandleFunc("/stats", h.Stats)
	mux.HandleFunc("/categories", h.Categories)
	mux.HandleFunc("/home", h.Home)
}

// Leaderboard serves GET /leaderboard?tab=weekly|all-time&userId=&limit=.
func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	mode := domain.RankMode(q.Get("tab"))
	if mode != "" && mode != domain.RankWeekly && mode != domain.RankAllTime {
		writeError(w, http.StatusBadRequest, "unknown tab")
		return
	}
	limit := h.leaderboardSize
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	lb, err := h.ranking.Leaderboard(r.Context(), q.Get("userId"), mode, limit, h.now())
	if err != nil {
		log.Printf("leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// Profile serves GET /profile?userId=.
func (h *APIHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}
	summary, err := h.profiles.Summary(r.Context(), userID)
	if err != nil {
		log.Printf("profile %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Categories serves GET /categories?search=.
func (h *APIHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	categories, err := h.catalog.Discover(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		log.Printf("categories: %v", err)
		writeError(w, http.StatusInternalServerError, "categories unavailable")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// Home serves GET /home?userId=.
func (h *APIHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}
	home, err := h.catalog.Home(r.Context(), userID)
	if err != nil {
		log.Printf("home %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "home unavailable")
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		log.Printf("bank stats: %v", err)
		writeError(w, http.StatusServiceUnavailable, "question bank unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}
