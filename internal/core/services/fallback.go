package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/talentops/hragent/internal/core/domain"
)

const maxAnswerLength = 1000

// completionSentence is returned when no answer text can be recovered at all.
const completionSentence = "Task completed."

// answerPatterns are tried in order against the last reasoning block; the
// first capture wins.
var answerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)final\s*answer\s*:\s*(.+)`),
	regexp.MustCompile(`(?is)\banswer\s*:\s*(.+)`),
	regexp.MustCompile(`(?is)\bconclusion\s*:\s*(.+)`),
	regexp.MustCompile(`(?is)\bresult\s*:\s*(.+)`),
	regexp.MustCompile(`(?is)final\s*response\s*:\s*(.+)`),
	regexp.MustCompile(`(?is)\bbased\s+on\b.{0,120}?\b(?:here|this)\s+(?:is|are)\s*[:,]?\s*(.+)`),
}

var blankLineRun = regexp.MustCompile(`\n\s*\n+`)

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// extractFinalAnswer recovers a user-facing answer from the last reasoning
// block, degrading through labeled patterns, the last substantial sentence
// of the full reasoning text, and a collapsed prefix of the block.
func extractFinalAnswer(lastBlock, fullReasoning string) string {
	for _, pattern := range answerPatterns {
		if m := pattern.FindStringSubmatch(lastBlock); len(m) > 1 {
			return tidyAnswer(m[1])
		}
	}

	if sentence := lastSubstantialSentence(fullReasoning); sentence != "" {
		return tidyAnswer(sentence)
	}

	if strings.TrimSpace(lastBlock) != "" {
		return collapsePrefix(lastBlock, maxAnswerLength)
	}

	return completionSentence
}

func tidyAnswer(text string) string {
	answer := strings.TrimSpace(blankLineRun.ReplaceAllString(text, "\n\n"))
	return truncateAtRune(answer, maxAnswerLength)
}

// lastSubstantialSentence returns the final sentence longer than 20
// characters, or "".
func lastSubstantialSentence(text string) string {
	sentences := sentenceEnd.Split(text, -1)
	for i := len(sentences) - 1; i >= 0; i-- {
		sentence := strings.TrimSpace(sentences[i])
		if len(sentence) > 20 {
			return sentence
		}
	}
	return ""
}

// composeFallback builds the degraded, still-helpful response used when the
// loop cannot reach a genuine final answer. Pure text templating keyed on
// the terminal state.
func composeFallback(state loopState, userMessage string, steps []domain.ReasoningStep, toolCalls []domain.ToolCallRecord) string {
	succeeded := 0
	for _, call := range toolCalls {
		if call.Success {
			succeeded++
		}
	}

	request := collapsePrefix(userMessage, 120)
	progress := fmt.Sprintf("I worked through %d reasoning step(s) and completed %d of %d tool call(s) successfully.",
		len(steps), succeeded, len(toolCalls))

	switch state {
	case stateTimedOut:
		return fmt.Sprintf(
			"I ran out of time while working on your request (%q). %s Please try narrowing the request or asking for one thing at a time.",
			request, progress)
	case stateErrored:
		return fmt.Sprintf(
			"I hit a problem while working on your request (%q). %s You can retry, or simplify the request and try again.",
			request, progress)
	default: // stateMaxSteps
		return fmt.Sprintf(
			"I was unable to complete your request (%q) within the reasoning limit. %s Please try breaking down your request into smaller parts.",
			request, progress)
	}
}
