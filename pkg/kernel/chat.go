package kernel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/talentops/hragent/internal/core/domain"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// handleChat is the main chat endpoint. It resolves the session, runs the
// planner, and streams the run back as SSE: status, reasoning_step,
// tool_call, final_answer (or error), done.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	ctx := r.Context()

	// Get or create the session.
	var sess domain.Session
	if req.SessionID != "" {
		existing, err := s.sessions.GetSession(ctx, domain.SessionID(req.SessionID))
		if err == nil {
			sess = existing
		}
	}
	if sess.ID == "" {
		created, err := s.sessions.CreateSession(ctx)
		if err != nil {
			s.logger.Error("failed to create session", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		sess = created
	}

	history, err := s.sessions.History(ctx, sess.ID)
	if err != nil {
		s.logger.Error("failed to load session history", "session_id", string(sess.ID), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Session-ID", string(sess.ID))
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if err := s.sessions.AddMessage(ctx, domain.SessionMessage{
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Content:   req.Message,
		CreatedAt: time.Now(),
	}); err != nil {
		s.logger.Error("failed to persist user message", "session_id", string(sess.ID), "error", err)
	}

	s.writeEvent(w, flusher, map[string]any{"type": "status", "content": "Processing your request..."})

	result := s.agent.Run(ctx, req.Message, history)

	if result.Success {
		for i, step := range result.Steps {
			s.writeEvent(w, flusher, map[string]any{
				"type":        "reasoning_step",
				"step_number": i + 1,
				"thought":     step.Thought,
				"action":      step.Action,
				"observation": step.Observation,
				"is_final":    step.IsFinal,
			})
		}
		for _, call := range result.ToolCalls {
			s.writeEvent(w, flusher, map[string]any{
				"type":    "tool_call",
				"action":  call.Action,
				"result":  call.Result,
				"success": call.Success,
			})
		}
		s.writeEvent(w, flusher, map[string]any{"type": "final_answer", "content": result.FinalAnswer})
	} else {
		errText := result.Error
		if errText == "" {
			errText = "Unknown error"
		}
		s.writeEvent(w, flusher, map[string]any{
			"type":    "error",
			"content": fmt.Sprintf("I apologize, but I encountered an error: %s", errText),
		})
	}

	s.writeEvent(w, flusher, map[string]any{"type": "done"})

	assistantContent := result.FinalAnswer
	if err := s.sessions.AddMessage(ctx, domain.SessionMessage{
		SessionID: sess.ID,
		Role:      domain.RoleAssistant,
		Content:   assistantContent,
		Metadata: map[string]any{
			"reasoning_steps": len(result.Steps),
			"tool_calls":      len(result.ToolCalls),
			"success":         result.Success,
		},
		CreatedAt: time.Now(),
	}); err != nil {
		s.logger.Error("failed to persist assistant message", "session_id", string(sess.ID), "error", err)
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, payload map[string]any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode SSE event", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", encoded)
	flusher.Flush()
}
