package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/talentops/hragent/internal/core/domain"
)

// StepParser converts one block of raw reasoning text into a structured
// ReasoningStep. The reasoner's output format is requested but not
// guaranteed, so every label has synonym patterns and the parser degrades
// gracefully instead of failing on near-miss formatting.
type StepParser struct {
	logger *slog.Logger
}

func NewStepParser(logger *slog.Logger) *StepParser {
	return &StepParser{logger: logger}
}

// finalityMarkers conclude a reasoning block outright. Checked first; a
// match short-circuits thought/action extraction for the whole block.
var finalityMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)final\s*answer\s*:`),
	regexp.MustCompile(`(?i)final\s*response\s*:`),
	regexp.MustCompile(`(?i)\banswer\s*:`),
	regexp.MustCompile(`(?i)\bconclusion\s*:`),
	regexp.MustCompile(`(?i)\bresult\s*:`),
	regexp.MustCompile(`(?is)\bbased\s+on\b.{0,120}\bhere\s+(?:is|are)\b`),
	regexp.MustCompile(`(?i)\bI\s+(?:can|will)\s+(?:conclude|answer|respond)\b`),
}

// Label patterns capture up to the next label or end of text. RE2 has no
// lookahead, so the terminator is consumed by a non-capturing group instead.
var thoughtPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\bThought:\s*(.+?)(?:\n\s*(?:Action|Act|Tool|Observation):|$)`),
	regexp.MustCompile(`(?is)\bThink:\s*(.+?)(?:\n\s*(?:Action|Act|Tool|Observation):|$)`),
	regexp.MustCompile(`(?is)\bReasoning:\s*(.+?)(?:\n\s*(?:Action|Act|Tool|Observation):|$)`),
}

var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\bAction:\s*(.+?)(?:\n\s*(?:Observation|Thought|Think|Reasoning):|$)`),
	regexp.MustCompile(`(?is)\bAct:\s*(.+?)(?:\n\s*(?:Observation|Thought|Think|Reasoning):|$)`),
	regexp.MustCompile(`(?is)\bTool:\s*(.+?)(?:\n\s*(?:Observation|Thought|Think|Reasoning):|$)`),
}

var funcCallPattern = regexp.MustCompile(`(?s)^(\w+)\((.*)\)$`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Parse extracts a ReasoningStep from one block of reasoning text.
func (p *StepParser) Parse(reasoningText string) domain.ReasoningStep {
	for _, marker := range finalityMarkers {
		if marker.MatchString(reasoningText) {
			return domain.ReasoningStep{
				Thought: "Providing final answer",
				IsFinal: true,
			}
		}
	}

	step := domain.ReasoningStep{}

	for _, pattern := range thoughtPatterns {
		if m := pattern.FindStringSubmatch(reasoningText); len(m) > 1 {
			step.Thought = strings.TrimSpace(m[1])
			break
		}
	}
	if step.Thought == "" && strings.TrimSpace(reasoningText) != "" {
		// Never an empty thought for non-empty input: fall back to a
		// collapsed prefix of the raw text.
		step.Thought = collapsePrefix(reasoningText, 200)
	}

	for _, pattern := range actionPatterns {
		if m := pattern.FindStringSubmatch(reasoningText); len(m) > 1 {
			step.Action = p.ParseAction(m[1])
			break
		}
	}

	return step
}

// ParseAction parses action text into an intent. Accepts a JSON object, a
// name(arg1=val1, arg2=val2) call form, or a bare action type. Parse
// failures are logged and yield nil; they never abort the loop.
func (p *StepParser) ParseAction(actionText string) *domain.ActionIntent {
	text := strings.TrimSpace(actionText)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "{") {
		return p.parseJSONAction(text)
	}

	if m := funcCallPattern.FindStringSubmatch(text); m != nil {
		intent := &domain.ActionIntent{
			ActionType: m[1],
			Args:       map[string]string{},
		}
		body := strings.TrimSpace(m[2])
		if body != "" {
			for _, pair := range strings.Split(body, ",") {
				key, value, found := strings.Cut(pair, "=")
				if !found {
					// No positional arguments: segments without '=' are dropped.
					continue
				}
				key = strings.TrimSpace(key)
				value = strings.Trim(strings.TrimSpace(value), `"'`)
				if key != "" {
					intent.Args[key] = value
				}
			}
		}
		return intent
	}

	return &domain.ActionIntent{ActionType: text}
}

func (p *StepParser) parseJSONAction(text string) *domain.ActionIntent {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		p.logger.Warn("failed to parse action JSON", "error", err, "text", text)
		return nil
	}

	actionType, _ := raw["action_type"].(string)
	if actionType == "" {
		p.logger.Warn("action JSON missing action_type", "text", text)
		return nil
	}

	intent := &domain.ActionIntent{
		ActionType: actionType,
		Args:       map[string]string{},
	}
	for key, value := range raw {
		if key == "action_type" {
			continue
		}
		intent.Args[key] = stringifyArg(value)
	}
	return intent
}

// stringifyArg renders a decoded JSON value as a flat string argument.
func stringifyArg(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}

// collapsePrefix collapses runs of whitespace and truncates to at most
// limit bytes, never splitting a rune.
func collapsePrefix(text string, limit int) string {
	return truncateAtRune(strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " ")), limit)
}

// truncateAtRune caps text at limit bytes, backing off to the nearest rune
// boundary so an answer never ends in a partial UTF-8 sequence.
func truncateAtRune(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
