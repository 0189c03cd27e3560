package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talentops/hragent/internal/core/domain"
)

// OllamaReasoner implements the Reasoner port against a local Ollama
// instance using its native chat API. Useful when no OpenAI-compatible
// endpoint is available.
type OllamaReasoner struct {
	client  *http.Client
	baseURL string
	model   string
}

func NewOllamaReasoner(baseURL, model string) *OllamaReasoner {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaReasoner{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: baseURL,
		model:   model,
	}
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
}

// Reason sends the transcript and returns the next block of reasoning text.
func (r *OllamaReasoner) Reason(ctx context.Context, transcript []domain.Turn) (string, error) {
	messages := make([]chatMessage, 0, len(transcript))
	for _, turn := range transcript {
		messages = append(messages, chatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    r.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Message.Content, nil
}
