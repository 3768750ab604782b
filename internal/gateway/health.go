package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/echoreply/echoreply/internal/ai"
	"github.com/echoreply/echoreply/internal/engine"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string    `json:"status"` // "ok" or "degraded"
	Provider ai.Status `json:"provider"`
}

// handleHealth reports liveness. 200 when healthy; 503 when the AI
// path is enabled but its provider is not ready. A rules-only
// deployment is healthy without any provider.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		client := s.engine.AI()
		resp := HealthResponse{
			Status:   "ok",
			Provider: client.ProviderStatus(),
		}
		if client.Enabled() && !resp.Provider.Connected {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime   time.Duration             `json:"uptime_seconds"`
	Provider ai.Status                 `json:"provider"`
	Outcomes map[engine.Outcome]uint64 `json:"outcomes"`
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:   time.Since(s.startedAt).Truncate(time.Second),
			Provider: s.engine.AI().ProviderStatus(),
			Outcomes: s.engine.Counters(),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
