package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kaboomlabs/tntlauncher/ledger"
	"github.com/kaboomlabs/tntlauncher/telemetry"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db      *sql.DB
	store   *ledger.Store
	started time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(db *sql.DB, store *ledger.Store) *Handlers {
	return &Handlers{
		db:      db,
		store:   store,
		started: time.Now(),
	}
}

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleStatus reports uptime and ledger aggregates as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	players, totalPoints, err := h.store.Stats(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	telemetry.SetTrackedPlayers(players)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"players":        players,
		"total_points":   totalPoints,
	})
}
