package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/echoreply/echoreply/internal/engine"
	"github.com/echoreply/echoreply/pkg/message"
)

// outcomeRateLimited is minted by the gateway, not the engine: the
// reply budget is a boundary concern.
const outcomeRateLimited engine.Outcome = "rate_limited"

// MessageResponse is the JSON response for POST /v1/messages when a
// reply is produced.
type MessageResponse struct {
	Outcome engine.Outcome    `json:"outcome"`
	Reply   *message.Outbound `json:"reply"`
}

// handleMessage accepts one inbound message and runs the decision
// pipeline. 200 with the reply when one is produced, 204 otherwise.
func (s *Server) handleMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in message.Inbound
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if in.Sender == "" || in.Text == "" {
			http.Error(w, "sender and text are required", http.StatusBadRequest)
			return
		}

		s.metrics.MessagesTotal.Inc()

		out, outcome := s.engine.HandleMessage(r.Context(), &in)
		if out != nil && s.limiter != nil && !s.limiter.Allow() {
			s.logger.Warn("reply suppressed by rate limit", "conversation", out.ConversationID)
			s.metrics.RateLimitedTotal.Inc()
			out, outcome = nil, outcomeRateLimited
		}
		s.metrics.OutcomesTotal.WithLabelValues(string(outcome)).Inc()

		if out == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.metrics.RepliesTotal.Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(MessageResponse{Outcome: outcome, Reply: out})
	}
}
