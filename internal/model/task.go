package model

import "time"

// Task status constants. Pending and Running exist only in the persistence
// side-channel; a TaskResponse always carries one of the terminal statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimedOut  = "timeout"
)

// Execution phase constants. Phases run sequentially in this order; tasks
// within a phase run concurrently.
const (
	PhaseWorker     = "worker"
	PhaseValidation = "validation"
	PhaseSummary    = "summary"
)

// Agent type tags for the built-in worker kinds. The tag set is open: any
// string registered against the agent registry is dispatchable.
const (
	AgentSummary     = "summary"
	AgentAnalyst     = "analyst"
	AgentValidation  = "validation"
	AgentAggregation = "aggregation"
)

// Phases lists the execution phases in scheduling order.
var Phases = []string{PhaseWorker, PhaseValidation, PhaseSummary}

// NormalizePhase maps a phase tag to a known phase. Unrecognized tags fall
// back to the worker phase so that a malformed plan still executes.
func NormalizePhase(phase string) string {
	switch phase {
	case PhaseWorker, PhaseValidation, PhaseSummary:
		return phase
	default:
		return PhaseWorker
	}
}

// Terminal reports whether a task status is terminal.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusTimedOut
}

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning:  true,
		StatusFailed:   true,
		StatusTimedOut: true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusTimedOut:  true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// TaskRequest describes one unit of work to dispatch to an agent. It is
// constructed per plan task at dispatch time; the scheduler mutates
// TaskContext to inject prior-phase results before the task's phase runs,
// never after.
type TaskRequest struct {
	TaskID      string         `json:"task_id"`
	AgentType   string         `json:"agent_type"`
	AgentName   string         `json:"agent_name"`
	InputData   string         `json:"input_data"`
	TaskContext map[string]any `json:"task_context"`
	Priority    string         `json:"priority"`
	Timeout     time.Duration  `json:"timeout"`
	Phase       string         `json:"phase"`
}

// TaskResponse is the uniform outcome record for one task. It is produced
// exactly once per TaskRequest and is immutable afterwards. ExecutionTime is
// measured wall-clock, in seconds.
type TaskResponse struct {
	TaskID        string         `json:"task_id"`
	AgentType     string         `json:"agent_type"`
	AgentName     string         `json:"agent_name"`
	Status        string         `json:"status"`
	ResultData    map[string]any `json:"result_data"`
	ExecutionTime float64        `json:"execution_time"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// PhaseResult is one prior-phase outcome injected into a later-phase task's
// context under the "worker_results" and "validation_results" keys.
type PhaseResult struct {
	AgentType  string         `json:"agent_type"`
	ResultData map[string]any `json:"result_data"`
}

// Context keys the scheduler injects between phases.
const (
	ContextWorkerResults     = "worker_results"
	ContextValidationResults = "validation_results"
)
