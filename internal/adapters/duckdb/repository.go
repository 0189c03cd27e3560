package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/ports"
)

// Repository persists sessions, messages and the HR tables in DuckDB.
// All reads filter soft-deleted rows; deletes set deleted_at instead of
// removing data so the guardrail restore path can undo them.
type Repository struct {
	logger *slog.Logger
	db     *sql.DB
}

var _ ports.Repository = (*Repository)(nil)

// NewRepository opens (or creates) the database at path and bootstraps the
// schema.
func NewRepository(logger *slog.Logger, path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	repo := &Repository{logger: logger, db: db}
	if err := repo.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id         VARCHAR PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			session_id VARCHAR NOT NULL,
			role       VARCHAR NOT NULL,
			content    VARCHAR NOT NULL,
			metadata   VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id          VARCHAR PRIMARY KEY,
			employee_id VARCHAR NOT NULL,
			name        VARCHAR NOT NULL,
			email       VARCHAR,
			department  VARCHAR,
			created_at  TIMESTAMP NOT NULL,
			deleted_at  TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id          VARCHAR PRIMARY KEY,
			employee_id VARCHAR NOT NULL,
			title       VARCHAR NOT NULL,
			status      VARCHAR NOT NULL,
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL,
			deleted_at  TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id           VARCHAR PRIMARY KEY,
			title        VARCHAR NOT NULL,
			organizer    VARCHAR,
			scheduled_at TIMESTAMP,
			created_at   TIMESTAMP NOT NULL,
			deleted_at   TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id         VARCHAR PRIMARY KEY,
			title      VARCHAR NOT NULL,
			content    VARCHAR,
			created_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id          VARCHAR PRIMARY KEY,
			employee_id VARCHAR NOT NULL,
			date        DATE NOT NULL,
			check_in    TIMESTAMP,
			check_out   TIMESTAMP,
			status      VARCHAR,
			created_at  TIMESTAMP NOT NULL,
			deleted_at  TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS leave_requests (
			id          VARCHAR PRIMARY KEY,
			employee_id VARCHAR NOT NULL,
			type        VARCHAR NOT NULL,
			start_date  DATE,
			end_date    DATE,
			reason      VARCHAR,
			status      VARCHAR NOT NULL,
			created_at  TIMESTAMP NOT NULL,
			deleted_at  TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			actor      VARCHAR NOT NULL,
			action     VARCHAR NOT NULL,
			details    VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, sess domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		string(sess.ID), sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	var sess domain.Session
	var rawID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM sessions WHERE id = ?`, string(id)).
		Scan(&rawID, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	sess.ID = domain.SessionID(rawID)
	return sess, nil
}

func (r *Repository) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var sess domain.Session
		var rawID string
		if err := rows.Scan(&rawID, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.ID = domain.SessionID(rawID)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (r *Repository) DeleteSession(ctx context.Context, id domain.SessionID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) AddMessage(ctx context.Context, msg domain.SessionMessage) error {
	var metadata any
	if msg.Metadata != nil {
		encoded, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encode message metadata: %w", err)
		}
		metadata = string(encoded)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(msg.SessionID), string(msg.Role), msg.Content, metadata, createdAt)
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, id domain.SessionID, limit int) ([]domain.SessionMessage, error) {
	query := `SELECT session_id, role, content, metadata, created_at
	          FROM messages WHERE session_id = ? ORDER BY created_at ASC`
	args := []any{string(id)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.SessionMessage{}
	for rows.Next() {
		var msg domain.SessionMessage
		var sessionID, role string
		var metadata sql.NullString
		if err := rows.Scan(&sessionID, &role, &msg.Content, &metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.SessionID = domain.SessionID(sessionID)
		msg.Role = domain.MessageRole(role)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				r.logger.Warn("undecodable message metadata", "session_id", sessionID, "error", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// logAction appends an audit entry. Audit failures are logged, never fatal.
func (r *Repository) logAction(ctx context.Context, actor, action string, details map[string]any) {
	if actor == "" {
		actor = "system"
	}
	encoded, _ := json.Marshal(details)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, details, created_at) VALUES (?, ?, ?, ?)`,
		actor, action, string(encoded), time.Now())
	if err != nil {
		r.logger.Error("failed to write audit log", "action", action, "error", err)
	}
}
