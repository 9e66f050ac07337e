package model

import "time"

// Overall plan status constants.
const (
	OverallCompleted      = "completed"
	OverallPartialSuccess = "partial_success"
	OverallFailed         = "failed"
)

// TaskSpec is one task descriptor inside an ExecutionPlan, as produced by the
// planner. TimeoutS of zero means the engine default applies.
type TaskSpec struct {
	TaskID    string `json:"task_id"`
	AgentType string `json:"agent_type"`
	AgentName string `json:"agent_name"`
	InputData string `json:"input_data"`
	Priority  string `json:"priority"`
	TimeoutS  int    `json:"timeout_s,omitempty"`
	Phase     string `json:"phase"`
}

// ExecutionPlan is the engine's input: an ordered list of task descriptors
// with phase tags, plus planning metadata. DetectedIntents and
// ExecutionStrategy are informational; the engine does not branch on them.
type ExecutionPlan struct {
	SessionID         string     `json:"session_id"`
	DetectedIntents   []string   `json:"detected_intents"`
	ExecutionStrategy string     `json:"execution_strategy"`
	Tasks             []TaskSpec `json:"tasks"`
	EstimatedTime     int        `json:"estimated_time"`
}

// TaskDigest is the per-task entry of an AggregatedResult.
type TaskDigest struct {
	TaskID        string  `json:"task_id"`
	AgentType     string  `json:"agent_type"`
	AgentName     string  `json:"agent_name"`
	Status        string  `json:"status"`
	ExecutionTime float64 `json:"execution_time"`
	ResultSummary string  `json:"result_summary"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

// AggregatedResult is the engine's output: one report reduced from all task
// responses of a plan execution. Created once per execution and never mutated
// after return. TotalExecutionTime is in seconds.
type AggregatedResult struct {
	SessionID          string       `json:"session_id"`
	OverallStatus      string       `json:"overall_status"`
	ExecutionSummary   string       `json:"execution_summary"`
	TaskResults        []TaskDigest `json:"task_results"`
	FinalOutput        string       `json:"final_output"`
	TotalExecutionTime float64      `json:"total_execution_time"`
	Timestamp          time.Time    `json:"timestamp"`
}
