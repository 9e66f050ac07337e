package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session or task is not found.
var ErrNotFound = errors.New("record not found")

// ErrInvalidTransition is returned when a task status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// Session is one planning-and-execution session.
type Session struct {
	ID              string    `json:"session_id"`
	UserInput       string    `json:"user_input"`
	DetectedIntents []string  `json:"detected_intents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TaskRecord is the persisted view of one task. Result holds the opaque
// result map produced by the agent, stored as JSON.
type TaskRecord struct {
	TaskID        string         `json:"task_id"`
	SessionID     string         `json:"session_id"`
	AgentType     string         `json:"agent_type"`
	AgentName     string         `json:"agent_name"`
	Status        string         `json:"status"`
	InputData     string         `json:"input_data"`
	Result        map[string]any `json:"result,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TaskUpdate carries the terminal outcome of a task.
type TaskUpdate struct {
	Result        map[string]any
	ExecutionTime float64
	ErrorMessage  string
}

// TaskStats holds aggregate execution statistics.
type TaskStats struct {
	Total            int            `json:"total"`
	CountByStatus    map[string]int `json:"count_by_status"`
	CountByAgentType map[string]int `json:"count_by_agent_type"`
	AvgExecutionTime float64        `json:"avg_execution_time"`
}

// Store defines the persistence operations for sessions and tasks. The
// engine treats every call as best-effort: failures are logged by the caller
// and never abort orchestration.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string) error

	CreateTask(ctx context.Context, t *TaskRecord) error
	GetTask(ctx context.Context, taskID string) (*TaskRecord, error)
	ListSessionTasks(ctx context.Context, sessionID string) ([]*TaskRecord, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string, upd TaskUpdate) error

	GetTaskStats(ctx context.Context) (*TaskStats, error)
	Close() error
}
