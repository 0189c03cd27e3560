package kernel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/services"
)

// Agent is the minimal planner interface the API needs.
type Agent interface {
	Run(ctx context.Context, userMessage string, priorTurns []domain.Turn) domain.LoopResult
}

// Server exposes the chat API: SSE chat, session management, health.
type Server struct {
	logger   *slog.Logger
	agent    Agent
	sessions *services.SessionStore
	health   interface {
		Ping(ctx context.Context) error
	}
}

func NewServer(
	logger *slog.Logger,
	agent Agent,
	sessions *services.SessionStore,
	health interface {
		Ping(ctx context.Context) error
	},
) *Server {
	return &Server{
		logger:   logger,
		agent:    agent,
		sessions: sessions,
		health:   health,
	}
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleSessionHistory)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	code := http.StatusOK
	if err := s.health.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		status["status"] = "unhealthy"
		status["database"] = "disconnected"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	list := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		entry := map[string]any{
			"session_id": string(sess.ID),
			"created_at": sess.CreatedAt.Format(time.RFC3339),
		}
		if msgs, err := s.sessions.GetMessages(ctx, sess.ID, 0); err == nil {
			entry["message_count"] = len(msgs)
			if len(msgs) > 0 {
				entry["last_activity"] = msgs[len(msgs)-1].CreatedAt.Format(time.RFC3339)
			}
		}
		list = append(list, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := domain.SessionID(r.PathValue("id"))

	sess, err := s.sessions.GetSession(ctx, id)
	if err == domain.ErrSessionNotFound {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load session", "session_id", string(id), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	messages, err := s.sessions.GetMessages(ctx, id, 0)
	if err != nil {
		s.logger.Error("failed to load history", "session_id", string(id), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": string(sess.ID),
		"created_at": sess.CreatedAt.Format(time.RFC3339),
		"messages":   messages,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	err := s.sessions.DeleteSession(r.Context(), id)
	if err == domain.ErrSessionNotFound {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete session", "session_id", string(id), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Session deleted"})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
