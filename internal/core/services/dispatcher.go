package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/ports"
)

// Dispatcher invokes the action executor and renders the outcome as an
// observation string. Every dispatch produces exactly one ToolCallRecord,
// success or failure; the observation is always human-readable text so the
// reasoner can adapt its next step.
type Dispatcher struct {
	logger   *slog.Logger
	executor ports.Executor
}

func NewDispatcher(logger *slog.Logger, executor ports.Executor) *Dispatcher {
	return &Dispatcher{logger: logger, executor: executor}
}

// Dispatch executes an action and returns the observation text plus the
// audit record for the attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, intent domain.ActionIntent) (string, domain.ToolCallRecord) {
	result, err := d.executor.Execute(ctx, intent.ActionType, intent.Args)
	if err != nil {
		observation := fmt.Sprintf("Action execution failed: %v", err)
		d.logger.Error("action execution failed", "action", intent.ActionType, "error", err)
		return observation, domain.ToolCallRecord{
			Action:  intent,
			Result:  observation,
			Success: false,
		}
	}

	if !result.Success {
		d.logger.Warn("action failed", "action", intent.ActionType, "error", result.Error)
		return fmt.Sprintf("Action failed: %s", result.Error), domain.ToolCallRecord{
			Action:  intent,
			Result:  result.Error,
			Success: false,
		}
	}

	payload, merr := json.Marshal(result.Data)
	if merr != nil {
		payload = []byte(fmt.Sprintf("%v", result.Data))
	}
	return fmt.Sprintf("Action completed successfully: %s", payload), domain.ToolCallRecord{
		Action:  intent,
		Result:  result.Data,
		Success: true,
	}
}
