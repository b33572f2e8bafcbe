package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/qqqqqqq1/discord-thread-bot/db"
	"github.com/qqqqqqq1/discord-thread-bot/telemetry"
)

const maxStatusThreads = 100

type statusResponse struct {
	DiscordConnected bool              `json:"discord_connected"`
	Uptime           string            `json:"uptime"`
	LedgerSize       int               `json:"ledger_size"`
	LedgerURLs       []string          `json:"ledger_urls,omitempty"`
	HistoryEnabled   bool              `json:"history_enabled"`
	RecentThreads    []db.ThreadRecord `json:"recent_threads,omitempty"`
}

// HandleStatus returns a lightweight summary of the bot: gateway state, ledger size and,
// when history is enabled, the most recent thread records. ?urls=1 includes the
// ledger contents; ?limit=N bounds the history rows (default 20, max 100).
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		DiscordConnected: h.gateway != nil && h.gateway.Connected(),
		Uptime:           time.Since(h.started).Truncate(time.Second).String(),
		HistoryEnabled:   h.db != nil,
	}
	if h.ledger != nil {
		resp.LedgerSize = h.ledger.Len()
		if r.URL.Query().Get("urls") == "1" {
			resp.LedgerURLs = h.ledger.Snapshot()
		}
	}
	if h.db != nil {
		limit := parseIntQuery(r, "limit", 20)
		if limit <= 0 || limit > maxStatusThreads {
			limit = maxStatusThreads
		}
		recent, err := db.RecentThreads(r.Context(), h.db, limit)
		if err != nil {
			telemetry.LoggerWithCorr(r.Context()).Error("failed to load thread history", slog.Any("err", err), slog.String("component", "http"))
			http.Error(w, "failed to load thread history", http.StatusInternalServerError)
			return
		}
		resp.RecentThreads = recent
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
