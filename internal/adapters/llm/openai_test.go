package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentops/hragent/internal/core/domain"
)

func TestReasonSendsTranscriptAndReturnsContent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Thought: checking records"}},
			},
		})
	}))
	defer server.Close()

	reasoner := NewOpenAIReasoner(server.URL, "sk-test", "gpt-4")
	text, err := reasoner.Reason(context.Background(), []domain.Turn{
		{Role: domain.RoleSystem, Content: "prompt"},
		{Role: domain.RoleUser, Content: "mark me present"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Thought: checking records", text)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4", gotBody["model"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestReasonAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	reasoner := NewOpenAIReasoner(server.URL, "sk-test", "")
	_, err := reasoner.Reason(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestReasonEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	reasoner := NewOpenAIReasoner(server.URL, "", "")
	_, err := reasoner.Reason(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	assert.ErrorContains(t, err, "no choices")
}
