package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deepmodel/agenthub/internal/model"

	_ "modernc.org/sqlite"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    user_input       TEXT NOT NULL,
    detected_intents TEXT NOT NULL,
    status           TEXT NOT NULL,
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL
)`

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
    task_id        TEXT PRIMARY KEY,
    session_id     TEXT NOT NULL,
    agent_type     TEXT NOT NULL,
    agent_name     TEXT NOT NULL,
    status         TEXT NOT NULL,
    input_data     TEXT,
    result         TEXT,
    execution_time REAL,
    error_message  TEXT,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	for _, stmt := range []string{createSessionsTable, createTasksTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migration: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *Session) error {
	intents, err := json.Marshal(sess.DetectedIntents)
	if err != nil {
		return fmt.Errorf("encode intents: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_input, detected_intents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserInput, string(intents), sess.Status, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	sess := &Session{}
	var intents string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_input, detected_intents, status, created_at, updated_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserInput, &intents, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := json.Unmarshal([]byte(intents), &sess.DetectedIntents); err != nil {
		return nil, fmt.Errorf("decode intents: %w", err)
	}
	return sess, nil
}

// UpdateSessionStatus updates the status of a session.
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return checkAffected(result)
}

// CreateTask inserts a new task record.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *TaskRecord) error {
	result, err := encodeResult(t.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (
			task_id, session_id, agent_type, agent_name, status,
			input_data, result, execution_time, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.SessionID, t.AgentType, t.AgentName, t.Status,
		t.InputData, result, t.ExecutionTime, t.ErrorMessage, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*TaskRecord, error) {
	t, err := s.scanTask(s.db.QueryRowContext(ctx,
		`SELECT task_id, session_id, agent_type, agent_name, status,
			input_data, result, execution_time, error_message, created_at, updated_at
		FROM tasks WHERE task_id = ?`, taskID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListSessionTasks returns all tasks of a session in creation order.
func (s *SQLiteStore) ListSessionTasks(ctx context.Context, sessionID string) ([]*TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, session_id, agent_type, agent_name, status,
			input_data, result, execution_time, error_message, created_at, updated_at
		FROM tasks WHERE session_id = ? ORDER BY created_at ASC, task_id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*TaskRecord
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus transitions a task to the given status and records its
// outcome. Transitions not allowed by the task lifecycle are rejected with
// ErrInvalidTransition.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, taskID, status string, upd TaskUpdate) error {
	var current string
	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM tasks WHERE task_id = ?", taskID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get task status: %w", err)
	}

	if !model.ValidTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	result, err := encodeResult(upd.Result)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, result = ?, execution_time = ?, error_message = ?, updated_at = ?
		WHERE task_id = ?`,
		status, result, upd.ExecutionTime, upd.ErrorMessage, time.Now().UTC(), taskID,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return checkAffected(res)
}

// GetTaskStats returns aggregate statistics over all tasks.
func (s *SQLiteStore) GetTaskStats(ctx context.Context) (*TaskStats, error) {
	stats := &TaskStats{
		CountByStatus:    make(map[string]int),
		CountByAgentType: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	typeRows, err := s.db.QueryContext(ctx,
		"SELECT agent_type, COUNT(*) FROM tasks GROUP BY agent_type")
	if err != nil {
		return nil, fmt.Errorf("count by agent type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var agentType string
		var count int
		if err := typeRows.Scan(&agentType, &count); err != nil {
			return nil, fmt.Errorf("scan agent type count: %w", err)
		}
		stats.CountByAgentType[agentType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent type counts: %w", err)
	}

	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		"SELECT AVG(execution_time) FROM tasks WHERE execution_time > 0").Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average execution time: %w", err)
	}
	if avg.Valid {
		stats.AvgExecutionTime = avg.Float64
	}

	return stats, nil
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanTask(row scanner) (*TaskRecord, error) {
	t := &TaskRecord{}
	var result sql.NullString
	var inputData, errorMessage sql.NullString
	var executionTime sql.NullFloat64
	if err := row.Scan(
		&t.TaskID, &t.SessionID, &t.AgentType, &t.AgentName, &t.Status,
		&inputData, &result, &executionTime, &errorMessage, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.InputData = inputData.String
	t.ErrorMessage = errorMessage.String
	t.ExecutionTime = executionTime.Float64
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &t.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return t, nil
}

// encodeResult marshals a result map for storage; nil maps store as NULL.
func encodeResult(result map[string]any) (any, error) {
	if result == nil {
		return nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
