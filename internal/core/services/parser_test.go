package services

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseThoughtAndAction(t *testing.T) {
	parser := NewStepParser(testLogger())

	step := parser.Parse("Thought: checking records\nAction: tasks_my_recent(employee_id=E2)")

	assert.Equal(t, "checking records", step.Thought)
	assert.False(t, step.IsFinal)
	require.NotNil(t, step.Action)
	assert.Equal(t, "tasks_my_recent", step.Action.ActionType)
	assert.Equal(t, map[string]string{"employee_id": "E2"}, step.Action.Args)
}

func TestParseFinalityShortCircuits(t *testing.T) {
	parser := NewStepParser(testLogger())

	for _, text := range []string{
		"Final Answer: all done",
		"final answer: all done",
		"Conclusion: records look fine",
		"Final Response: here you go",
		"Based on the attendance data, here is the summary you asked for.",
		"I will conclude that no action is needed.",
	} {
		step := parser.Parse(text)
		assert.True(t, step.IsFinal, text)
		assert.Nil(t, step.Action, text)
		assert.NotEmpty(t, step.Thought, text)
	}
}

func TestParseLabelSynonyms(t *testing.T) {
	parser := NewStepParser(testLogger())

	step := parser.Parse("Think: need the task list\nTool: tasks_report()")
	assert.Equal(t, "need the task list", step.Thought)
	require.NotNil(t, step.Action)
	assert.Equal(t, "tasks_report", step.Action.ActionType)

	step = parser.Parse("Reasoning: look up meetings\nAct: meet_list")
	assert.Equal(t, "look up meetings", step.Thought)
	require.NotNil(t, step.Action)
	assert.Equal(t, "meet_list", step.Action.ActionType)
}

func TestParseThoughtFallbackNeverEmpty(t *testing.T) {
	parser := NewStepParser(testLogger())

	step := parser.Parse("just  some   unlabeled\n\nreasoning text")
	assert.Equal(t, "just some unlabeled reasoning text", step.Thought)
	assert.Nil(t, step.Action)
}

func TestParseThoughtFallbackKeepsValidUTF8(t *testing.T) {
	parser := NewStepParser(testLogger())

	step := parser.Parse(strings.Repeat("é", 300))
	assert.True(t, utf8.ValidString(step.Thought))
	assert.LessOrEqual(t, len(step.Thought), 200)
	assert.NotEmpty(t, step.Thought)
}

func TestParseEmptyInput(t *testing.T) {
	parser := NewStepParser(testLogger())

	step := parser.Parse("")
	assert.Empty(t, step.Thought)
	assert.Nil(t, step.Action)
	assert.False(t, step.IsFinal)
}

func TestParseActionJSON(t *testing.T) {
	parser := NewStepParser(testLogger())

	intent := parser.ParseAction(`{"action_type": "tasks_log", "employee_id": "E1", "status": "deleted"}`)
	require.NotNil(t, intent)
	assert.Equal(t, "tasks_log", intent.ActionType)
	assert.Equal(t, "E1", intent.Args["employee_id"])
	assert.Equal(t, "deleted", intent.Args["status"])
}

func TestParseActionJSONNonStringArgs(t *testing.T) {
	parser := NewStepParser(testLogger())

	intent := parser.ParseAction(`{"action_type": "tasks_my_recent", "employee_id": "E2", "limit": 5}`)
	require.NotNil(t, intent)
	assert.Equal(t, "5", intent.Args["limit"])
}

func TestParseActionFunctionCall(t *testing.T) {
	parser := NewStepParser(testLogger())

	intent := parser.ParseAction(`tasks_log(employee_id=E1, status=deleted)`)
	require.NotNil(t, intent)
	assert.Equal(t, "tasks_log", intent.ActionType)
	assert.Equal(t, map[string]string{"employee_id": "E1", "status": "deleted"}, intent.Args)
}

func TestParseActionQuotedValues(t *testing.T) {
	parser := NewStepParser(testLogger())

	intent := parser.ParseAction(`meet_create(title="Weekly sync", organizer='HR')`)
	require.NotNil(t, intent)
	assert.Equal(t, "Weekly sync", intent.Args["title"])
	assert.Equal(t, "HR", intent.Args["organizer"])
}

func TestParseActionDropsPositionalArgs(t *testing.T) {
	parser := NewStepParser(testLogger())

	intent := parser.ParseAction(`tasks_my_recent(E2, limit=3)`)
	require.NotNil(t, intent)
	assert.Equal(t, map[string]string{"limit": "3"}, intent.Args)
}

func TestParseActionBareType(t *testing.T) {
	parser := NewStepParser(testLogger())

	intent := parser.ParseAction("employee_overview")
	require.NotNil(t, intent)
	assert.Equal(t, "employee_overview", intent.ActionType)
	assert.Empty(t, intent.Args)
}

func TestParseActionFailures(t *testing.T) {
	parser := NewStepParser(testLogger())

	assert.Nil(t, parser.ParseAction(""))
	assert.Nil(t, parser.ParseAction("   "))
	assert.Nil(t, parser.ParseAction(`{"broken json`))
	assert.Nil(t, parser.ParseAction(`{"no_action_type": "x"}`))
}

func TestParseActionIdempotent(t *testing.T) {
	parser := NewStepParser(testLogger())

	text := `tasks_log(employee_id=E1, status=deleted)`
	first := parser.ParseAction(text)
	second := parser.ParseAction(text)
	assert.Equal(t, first, second)
}
