// Package store persists usage statistics and chat transcripts in a local
// SQLite database (~/.sarathi/sarathi.db).
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abhishek9sharma/sarathi/internal/llm"
)

// FileName is the database file inside ~/.sarathi
const FileName = "sarathi.db"

// DefaultPath returns the database path for a home directory
func DefaultPath(home string) string {
	return filepath.Join(home, ".sarathi", FileName)
}

// Store is a handle on the history database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS usage (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			agent         TEXT    NOT NULL,
			model         TEXT    NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			duration_ms   INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_sessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT    NOT NULL DEFAULT '',
			model      TEXT    NOT NULL,
			directory  TEXT    NOT NULL,
			created_at TEXT    NOT NULL,
			updated_at TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_messages (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   INTEGER NOT NULL,
			role         TEXT    NOT NULL,
			content      TEXT    NOT NULL DEFAULT '',
			tool_calls   TEXT,
			tool_call_id TEXT,
			name         TEXT,
			created_at   TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);
	`)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RecordUsage stores one call; it makes Store an llm.UsageSink
func (s *Store) RecordUsage(rec llm.UsageRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO usage (agent, model, input_tokens, output_tokens, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Agent, rec.Model, rec.InputTokens, rec.OutputTokens, rec.Duration.Milliseconds(), at.UTC().Format(time.RFC3339),
	)
	return err
}

// UsageTotals sums every recorded call
func (s *Store) UsageTotals() (llm.UsageTotals, error) {
	var totals llm.UsageTotals
	var ms int64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(duration_ms), 0) FROM usage`,
	).Scan(&totals.Calls, &totals.InputTokens, &totals.OutputTokens, &ms)
	if err != nil {
		return llm.UsageTotals{}, err
	}
	totals.Elapsed = time.Duration(ms) * time.Millisecond
	return totals, nil
}

// ModelUsage is the usage of one agent/model pair
type ModelUsage struct {
	Agent string
	Model string
	llm.UsageTotals
}

// UsageByModel groups usage by agent and model, busiest first
func (s *Store) UsageByModel() ([]ModelUsage, error) {
	rows, err := s.db.Query(`
		SELECT agent, model, COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(duration_ms)
		FROM usage
		GROUP BY agent, model
		ORDER BY COUNT(*) DESC, agent, model`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		var ms int64
		if err := rows.Scan(&u.Agent, &u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens, &ms); err != nil {
			return nil, err
		}
		u.Elapsed = time.Duration(ms) * time.Millisecond
		out = append(out, u)
	}
	return out, rows.Err()
}

// ResetUsage deletes all usage records
func (s *Store) ResetUsage() error {
	_, err := s.db.Exec(`DELETE FROM usage`)
	return err
}

// Session is a saved chat
type Session struct {
	ID           int64
	Title        string
	Model        string
	Directory    string
	CreatedAt    string
	UpdatedAt    string
	MessageCount int
}

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = errors.New("chat session not found")

// CreateSession starts a new chat transcript
func (s *Store) CreateSession(model, directory string) (int64, error) {
	ts := now()
	res, err := s.db.Exec(
		`INSERT INTO chat_sessions (model, directory, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		model, directory, ts, ts,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddMessage appends a message to a session. The first user message becomes the title.
func (s *Store) AddMessage(sessionID int64, msg llm.Message) error {
	var toolCalls sql.NullString
	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("store: encode tool calls: %w", err)
		}
		toolCalls = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	if _, err := tx.Exec(
		`INSERT INTO chat_messages (session_id, role, content, tool_calls, tool_call_id, name, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, msg.Role, msg.Content, toolCalls, nullable(msg.ToolCallID), nullable(msg.Name), ts,
	); err != nil {
		return err
	}

	title := ""
	if msg.Role == llm.RoleUser {
		title = Preview(msg.Content, 60)
	}
	if _, err := tx.Exec(
		`UPDATE chat_sessions SET updated_at = ?, title = CASE WHEN title = '' THEN ? ELSE title END WHERE id = ?`,
		ts, title, sessionID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Messages returns a session's transcript in order
func (s *Store) Messages(sessionID int64) ([]llm.Message, error) {
	rows, err := s.db.Query(
		`SELECT role, content, tool_calls, tool_call_id, name FROM chat_messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []llm.Message
	for rows.Next() {
		var msg llm.Message
		var toolCalls, toolCallID, name sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Content, &toolCalls, &toolCallID, &name); err != nil {
			return nil, err
		}
		if toolCalls.Valid {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("store: decode tool calls: %w", err)
			}
		}
		msg.ToolCallID = toolCallID.String
		msg.Name = name.String
		out = append(out, msg)
	}
	return out, rows.Err()
}

const sessionColumns = `
	SELECT s.id, s.title, s.model, s.directory, s.created_at, s.updated_at, COUNT(m.id)
	FROM chat_sessions s
	LEFT JOIN chat_messages m ON m.session_id = s.id`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.Title, &sess.Model, &sess.Directory, &sess.CreatedAt, &sess.UpdatedAt, &sess.MessageCount)
	return sess, err
}

// Session returns one session
func (s *Store) Session(id int64) (*Session, error) {
	sess, err := scanSession(s.db.QueryRow(sessionColumns+` WHERE s.id = ? GROUP BY s.id`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Sessions lists the most recently updated sessions
func (s *Store) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(sessionColumns+` GROUP BY s.id ORDER BY s.updated_at DESC, s.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its messages
func (s *Store) DeleteSession(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM chat_messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM chat_sessions WHERE id = ?`, id)
	return err
}

// Preview shortens s to n runes on a single line
func Preview(s string, n int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return string(runes)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
