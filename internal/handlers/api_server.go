// internal/handlers/api_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/ciziko/internal/database"
	"github.com/sirupsen/logrus"
)

// HealthHandler reports that the process is up.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}
}

// ListRoomsHandler returns a summary of every live room.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rooms := gs.Coordinator.Rooms()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rooms)
	}
}

// MatchLister reads finished and running matches from history storage.
type MatchLister interface {
	ListRecent(ctx context.Context, limit int) ([]database.MatchSummary, error)
}

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

// ListMatchesHandler returns recent matches from history. Accepts ?limit=N.
func ListMatchesHandler(logger *logrus.Logger, matches MatchLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := defaultMatchLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			if n > maxMatchLimit {
				n = maxMatchLimit
			}
			limit = n
		}

		list, err := matches.ListRecent(r.Context(), limit)
		if err != nil {
			logger.Warnf("list matches: %v", err)
			http.Error(w, "could not load matches", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}
