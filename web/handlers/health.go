package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/scrypster/eigentalk/internal/llm"
)

// HealthHandler reports liveness plus the configured completion backend and
// the number of active sessions.
type HealthHandler struct {
	relay     *SocketRelay
	completer llm.ChatCompleter
	provider  string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(relay *SocketRelay, completer llm.ChatCompleter, provider string) *HealthHandler {
	return &HealthHandler{relay: relay, completer: completer, provider: provider}
}

// healthResponse is the body of GET /api/health.
type healthResponse struct {
	Status         string `json:"status"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	ActiveSessions int    `json:"active_sessions"`
}

// ServeHTTP handles GET /api/health. The visualization frontend may be
// served from anywhere, so CORS is permissive here.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:         "ok",
		Provider:       h.provider,
		Model:          h.completer.GetModel(),
		ActiveSessions: h.relay.ActiveSessions(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("ERROR: Failed to encode health response: %v", err)
	}
}
