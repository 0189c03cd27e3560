package ports

import (
	"context"

	"github.com/talentops/hragent/internal/core/domain"
)

// Reasoner abstracts the LLM that produces the next block of reasoning text
// for a transcript. A failed call ends the current run; the planner does not
// retry within an iteration.
type Reasoner interface {
	Reason(ctx context.Context, transcript []domain.Turn) (string, error)
}

// Executor abstracts the side-effecting action backend (database mutations,
// reports, meeting scheduling). Argument validation is the executor's
// responsibility, not the parser's.
type Executor interface {
	// Execute performs a single action. Destructive actions that succeed
	// must expose the affected record's id in ExecResult.Data["id"] so the
	// guardrail restore path can key on it.
	Execute(ctx context.Context, actionType string, args map[string]string) (domain.ExecResult, error)

	// Restore reactivates a soft-deleted record. Idempotent; reports
	// whether a row was actually restored.
	Restore(ctx context.Context, table string, id string) (bool, error)
}

// Repository abstracts persistent session storage (DuckDB)
type Repository interface {
	CreateSession(ctx context.Context, sess domain.Session) error
	GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)
	DeleteSession(ctx context.Context, id domain.SessionID) error

	AddMessage(ctx context.Context, msg domain.SessionMessage) error
	ListMessages(ctx context.Context, id domain.SessionID, limit int) ([]domain.SessionMessage, error)
}
