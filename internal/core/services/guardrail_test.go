package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentops/hragent/internal/core/domain"
)

// fakeExecutor records calls and returns scripted results.
type fakeExecutor struct {
	executeResult domain.ExecResult
	executeErr    error
	restoreResult bool
	restoreErr    error

	executed []string
	restored [][2]string
}

func (f *fakeExecutor) Execute(_ context.Context, actionType string, _ map[string]string) (domain.ExecResult, error) {
	f.executed = append(f.executed, actionType)
	return f.executeResult, f.executeErr
}

func (f *fakeExecutor) Restore(_ context.Context, table, id string) (bool, error) {
	f.restored = append(f.restored, [2]string{table, id})
	return f.restoreResult, f.restoreErr
}

func TestAuthorizeNonDestructiveProceeds(t *testing.T) {
	executor := &fakeExecutor{}
	gate := NewGuardrailGate(testLogger(), executor)

	decision := gate.Authorize(context.Background(), domain.ActionIntent{ActionType: "meet_list"}, "list my meetings")

	assert.True(t, decision.Proceed)
	assert.Empty(t, executor.executed, "gate must not execute non-destructive actions itself")
}

func TestAuthorizeEmptyActionType(t *testing.T) {
	gate := NewGuardrailGate(testLogger(), &fakeExecutor{})

	decision := gate.Authorize(context.Background(), domain.ActionIntent{}, "do something")

	assert.False(t, decision.Proceed)
	assert.Contains(t, decision.Narrative, "No action_type")
}

func TestAuthorizeDestructiveWithConfirmation(t *testing.T) {
	executor := &fakeExecutor{}
	gate := NewGuardrailGate(testLogger(), executor)

	decision := gate.Authorize(context.Background(),
		domain.ActionIntent{ActionType: "delete_employee", Args: map[string]string{"employee_id": "EMP003"}},
		"please confirm delete now")

	assert.True(t, decision.Proceed)
	assert.Empty(t, executor.executed)
}

func TestAuthorizeDestructiveNeverProceedsWithoutConfirmation(t *testing.T) {
	for _, action := range []string{
		"delete_document", "delete_employee", "delete_task", "delete_meeting",
		"remove_employee", "terminate_employee", "cancel_meeting", "remove_task",
	} {
		executor := &fakeExecutor{executeResult: domain.ExecResult{Success: true}}
		gate := NewGuardrailGate(testLogger(), executor)

		decision := gate.Authorize(context.Background(),
			domain.ActionIntent{ActionType: action}, "remove this record")

		assert.False(t, decision.Proceed, action)
	}
}

func TestAuthorizeAttemptThenUndo(t *testing.T) {
	executor := &fakeExecutor{
		executeResult: domain.ExecResult{Success: true, Data: map[string]any{"id": "row-42"}},
		restoreResult: true,
	}
	gate := NewGuardrailGate(testLogger(), executor)

	intent := domain.ActionIntent{ActionType: "delete_employee", Args: map[string]string{"employee_id": "EMP003"}}
	decision := gate.Authorize(context.Background(), intent, "delete_employee EMP003")

	assert.False(t, decision.Proceed)
	assert.Equal(t, []string{"delete_employee"}, executor.executed)
	require.Len(t, executor.restored, 1)
	assert.Equal(t, [2]string{"employees", "row-42"}, executor.restored[0])

	require.NotNil(t, decision.Record)
	assert.True(t, decision.Record.Success)
	assert.Equal(t, intent, decision.Record.Action)

	assert.Contains(t, decision.Narrative, "immediately undone")
	for _, phrase := range domain.ConfirmationPhrases() {
		assert.Contains(t, decision.Narrative, phrase)
	}
}

func TestAuthorizeUndoNarrativeSurvivesRestoreFailure(t *testing.T) {
	executor := &fakeExecutor{
		executeResult: domain.ExecResult{Success: true, Data: map[string]any{"id": "row-42"}},
		restoreResult: false,
	}
	gate := NewGuardrailGate(testLogger(), executor)

	decision := gate.Authorize(context.Background(),
		domain.ActionIntent{ActionType: "delete_document"}, "drop the document")

	assert.False(t, decision.Proceed)
	require.Len(t, executor.restored, 1)
	require.NotNil(t, decision.Record)
	assert.Contains(t, decision.Narrative, "immediately undone")
}

func TestAuthorizeNonRestorableDestructiveRefuses(t *testing.T) {
	// terminate_employee has no restore table; the executor result id
	// cannot be undone, so the gate refuses without claiming a mutation.
	executor := &fakeExecutor{
		executeResult: domain.ExecResult{Success: true, Data: map[string]any{"id": "row-9"}},
	}
	gate := NewGuardrailGate(testLogger(), executor)

	decision := gate.Authorize(context.Background(),
		domain.ActionIntent{ActionType: "terminate_employee"}, "terminate EMP003")

	assert.False(t, decision.Proceed)
	assert.Nil(t, decision.Record)
	assert.Empty(t, executor.restored)
	assert.Contains(t, decision.Narrative, "requires explicit confirmation")
}

func TestAuthorizeMissingIDFailsSafe(t *testing.T) {
	executor := &fakeExecutor{
		executeResult: domain.ExecResult{Success: true, Data: map[string]any{"rows": 1}},
	}
	gate := NewGuardrailGate(testLogger(), executor)

	decision := gate.Authorize(context.Background(),
		domain.ActionIntent{ActionType: "delete_task"}, "get rid of the task")

	assert.False(t, decision.Proceed)
	assert.Nil(t, decision.Record)
	assert.Empty(t, executor.restored)
	assert.Contains(t, decision.Narrative, "requires explicit confirmation")
}

func TestAuthorizeExecutorError(t *testing.T) {
	executor := &fakeExecutor{executeErr: errors.New("db down")}
	gate := NewGuardrailGate(testLogger(), executor)

	decision := gate.Authorize(context.Background(),
		domain.ActionIntent{ActionType: "delete_meeting"}, "drop that meeting")

	assert.False(t, decision.Proceed)
	assert.Nil(t, decision.Record)
	assert.Contains(t, decision.Narrative, "Cannot proceed")
	assert.Contains(t, decision.Narrative, "delete_meeting")
}

func TestStatusTransitionGuarded(t *testing.T) {
	executor := &fakeExecutor{
		executeResult: domain.ExecResult{Success: true, Data: map[string]any{"id": "t-1"}},
		restoreResult: true,
	}
	gate := NewGuardrailGate(testLogger(), executor)

	intent := domain.ActionIntent{
		ActionType: "tasks_log",
		Args:       map[string]string{"task_id": "t-1", "status": "deleted"},
	}
	decision := gate.Authorize(context.Background(), intent, "mark the task deleted")

	// tasks_log has no restore table entry, so this is a plain refusal
	// after the attempted execute.
	assert.False(t, decision.Proceed)
	assert.Equal(t, []string{"tasks_log"}, executor.executed)
	assert.Empty(t, executor.restored)
}
