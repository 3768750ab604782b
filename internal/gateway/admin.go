package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/echoreply/echoreply/internal/memory"
)

// memoryRequest is the JSON body for POST /v1/memory.
type memoryRequest struct {
	Username  string `json:"username"`
	Direction string `json:"direction"` // "them" or "me"
	Text      string `json:"text"`
}

// handleRememberMemory appends a snippet to a user's memory record.
func (s *Server) handleRememberMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.Error(w, "memory store not configured", http.StatusServiceUnavailable)
			return
		}

		var req memoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Text == "" {
			http.Error(w, "username and text are required", http.StatusBadRequest)
			return
		}
		dir := memory.Direction(req.Direction)
		if dir != memory.DirectionThem && dir != memory.DirectionMe {
			http.Error(w, "direction must be \"them\" or \"me\"", http.StatusBadRequest)
			return
		}

		snip := memory.Snippet{Direction: dir, Text: req.Text, CreatedAt: time.Now()}
		if err := s.store.Remember(r.Context(), req.Username, snip); err != nil {
			s.logger.Error("memory write failed", "user", req.Username, "error", err)
			http.Error(w, "memory write failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleForgetMemory drops a user's memory record.
func (s *Server) handleForgetMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.Error(w, "memory store not configured", http.StatusServiceUnavailable)
			return
		}

		username := chi.URLParam(r, "username")
		if err := s.store.Forget(r.Context(), username); err != nil {
			s.logger.Error("memory delete failed", "user", username, "error", err)
			http.Error(w, "memory delete failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleResetConversation clears stored history for one conversation.
func (s *Server) handleResetConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.ResetConversation(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleReloadConfig re-reads and applies the configuration file.
func (s *Server) handleReloadConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.reload == nil {
			http.Error(w, "reload not configured", http.StatusServiceUnavailable)
			return
		}
		if err := s.reload(r.Context()); err != nil {
			s.logger.Error("config reload failed", "error", err)
			http.Error(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.logger.Info("config reloaded via admin endpoint")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}
