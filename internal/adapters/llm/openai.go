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

// OpenAIReasoner implements the Reasoner port over an OpenAI-compatible
// chat completions API. Works with: OpenAI, Azure OpenAI, Together AI,
// local Ollama /v1, etc.
type OpenAIReasoner struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

// NewOpenAIReasoner creates a new OpenAI-compatible reasoner client.
func NewOpenAIReasoner(baseURL, apiKey, model string) *OpenAIReasoner {
	if model == "" {
		model = "gpt-4"
	}

	return &OpenAIReasoner{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.1,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reason sends the transcript and returns the next block of reasoning text.
func (r *OpenAIReasoner) Reason(ctx context.Context, transcript []domain.Turn) (string, error) {
	url := fmt.Sprintf("%s/chat/completions", r.baseURL)

	messages := make([]chatMessage, 0, len(transcript))
	for _, turn := range transcript {
		messages = append(messages, chatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	payload := map[string]any{
		"model":       r.model,
		"messages":    messages,
		"temperature": r.temperature,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}
