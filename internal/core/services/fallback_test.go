package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/talentops/hragent/internal/core/domain"
)

func TestExtractFinalAnswerLabeled(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  string
	}{
		{"final answer", "Thought: done\nFinal Answer: All tasks are closed.", "All tasks are closed."},
		{"bare answer", "Answer: three meetings tomorrow", "three meetings tomorrow"},
		{"conclusion", "Conclusion: the report is empty", "the report is empty"},
		{"result", "Result: attendance marked", "attendance marked"},
		{"final response", "Final Response: you have no pending tasks", "you have no pending tasks"},
		{"based on", "Based on my review of the records, here is the summary: two employees were present.", "the summary: two employees were present."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractFinalAnswer(tt.block, tt.block))
		})
	}
}

func TestExtractFinalAnswerLastSentenceFallback(t *testing.T) {
	full := "Thought: checking attendance records first. The meeting room was double booked on Tuesday."
	got := extractFinalAnswer("ok", full)
	assert.Equal(t, "The meeting room was double booked on Tuesday.", got)
}

func TestExtractFinalAnswerCollapsedBlockFallback(t *testing.T) {
	// No labels and no sentence longer than 20 chars anywhere.
	got := extractFinalAnswer("short note here", "ok. fine. done.")
	assert.Equal(t, "short note here", got)
}

func TestExtractFinalAnswerEmpty(t *testing.T) {
	assert.Equal(t, completionSentence, extractFinalAnswer("", ""))
	assert.Equal(t, completionSentence, extractFinalAnswer("   \n\t", ""))
}

func TestExtractFinalAnswerCapsLength(t *testing.T) {
	long := "Final Answer: " + strings.Repeat("x", 3*maxAnswerLength)
	got := extractFinalAnswer(long, long)
	assert.Len(t, got, maxAnswerLength)
}

func TestExtractFinalAnswerTruncatesOnRuneBoundary(t *testing.T) {
	// Fill to just under the cap so a multi-byte rune straddles it.
	long := "Final Answer: " + strings.Repeat("x", maxAnswerLength-1) + strings.Repeat("é", 10)
	got := extractFinalAnswer(long, long)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxAnswerLength)
}

func TestExtractFinalAnswerCollapsesBlankLines(t *testing.T) {
	block := "Final Answer: first line\n\n\n\nsecond line"
	got := extractFinalAnswer(block, block)
	assert.Equal(t, "first line\n\nsecond line", got)
}

func TestComposeFallbackTemplates(t *testing.T) {
	steps := make([]domain.ReasoningStep, 3)
	calls := []domain.ToolCallRecord{{Success: true}, {Success: false}}

	timeout := composeFallback(stateTimedOut, "list everything", steps, calls)
	assert.Contains(t, timeout, "ran out of time")
	assert.Contains(t, timeout, `"list everything"`)
	assert.Contains(t, timeout, "3 reasoning step(s)")
	assert.Contains(t, timeout, "1 of 2 tool call(s)")

	errored := composeFallback(stateErrored, "list everything", steps, calls)
	assert.Contains(t, errored, "hit a problem")

	maxed := composeFallback(stateMaxSteps, "list everything", nil, nil)
	assert.Contains(t, maxed, "reasoning limit")
	assert.Contains(t, maxed, "0 reasoning step(s)")
}

func TestComposeFallbackTruncatesRequest(t *testing.T) {
	long := strings.Repeat("please do this thing ", 30)
	got := composeFallback(stateMaxSteps, long, nil, nil)
	assert.NotContains(t, got, long)
}
