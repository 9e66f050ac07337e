package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deepmodel/agenthub/internal/agent"
	"github.com/deepmodel/agenthub/internal/model"
	"github.com/deepmodel/agenthub/internal/store"
)

// Engine executes plans end to end: it builds task requests from the plan,
// runs them through the phase scheduler, persists task lifecycle records, and
// reduces all responses into one AggregatedResult.
type Engine struct {
	store          store.Store
	registry       *agent.Registry
	dispatcher     *Dispatcher
	broker         *EventBroker
	logger         *slog.Logger
	defaultTimeout time.Duration
}

// NewEngine creates an execution engine. A defaultTimeout of zero selects
// DefaultTaskTimeout.
func NewEngine(s store.Store, reg *agent.Registry, logger *slog.Logger, defaultTimeout time.Duration) *Engine {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTaskTimeout
	}
	return &Engine{
		store:          s,
		registry:       reg,
		dispatcher:     NewDispatcher(reg, logger),
		broker:         NewEventBroker(),
		logger:         logger,
		defaultTimeout: defaultTimeout,
	}
}

// Broker returns the engine's event broker for SSE subscription.
func (e *Engine) Broker() *EventBroker {
	return e.broker
}

// ExecutePlan runs every task of the plan and always returns a well-formed
// result. Task faults are expressed in the per-task digests; only an
// engine-internal fault collapses into an overall-failed result, never a
// panic crossing this boundary.
func (e *Engine) ExecutePlan(ctx context.Context, plan *model.ExecutionPlan) (result *model.AggregatedResult) {
	start := time.Now()

	// Close the event stream when execution finishes, regardless of outcome.
	defer e.broker.Close(plan.SessionID)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("plan execution fault", "session_id", plan.SessionID, "panic", r)
			result = failedResult(plan.SessionID, start, fmt.Sprintf("internal fault: %v", r))
			plansTotal.WithLabelValues(result.OverallStatus).Inc()
		}
	}()

	requests := e.buildRequests(plan)
	e.recordTasks(ctx, plan.SessionID, requests)

	sched := NewScheduler(e.dispatcher, e.broker, e.logger)
	sched.OnPhaseStart = func(ctx context.Context, phase string, reqs []*model.TaskRequest) {
		for _, req := range reqs {
			if err := e.store.UpdateTaskStatus(ctx, req.TaskID, model.StatusRunning, store.TaskUpdate{}); err != nil {
				e.logger.Warn("failed to mark task running", "task_id", req.TaskID, "error", err)
			}
		}
	}
	sched.OnPhaseDone = func(_ context.Context, phase string, resps []model.TaskResponse) {
		for _, resp := range resps {
			upd := store.TaskUpdate{
				Result:        resp.ResultData,
				ExecutionTime: resp.ExecutionTime,
				ErrorMessage:  resp.ErrorMessage,
			}
			if err := e.store.UpdateTaskStatus(context.Background(), resp.TaskID, resp.Status, upd); err != nil {
				e.logger.Warn("failed to record task outcome", "task_id", resp.TaskID, "error", err)
			}
		}
	}

	responses := sched.Run(ctx, plan.SessionID, requests)

	result = Aggregate(plan.SessionID, responses, start)
	plansTotal.WithLabelValues(result.OverallStatus).Inc()

	if err := e.store.UpdateSessionStatus(context.Background(), plan.SessionID, result.OverallStatus); err != nil {
		e.logger.Warn("failed to update session status", "session_id", plan.SessionID, "error", err)
	}

	e.logger.Info("plan executed",
		"session_id", plan.SessionID,
		"overall_status", result.OverallStatus,
		"tasks", len(responses),
		"seconds", result.TotalExecutionTime)
	return result
}

// buildRequests constructs one TaskRequest per plan task, filling defaults
// for missing fields and seeding each task context with plan metadata.
func (e *Engine) buildRequests(plan *model.ExecutionPlan) []*model.TaskRequest {
	requests := make([]*model.TaskRequest, 0, len(plan.Tasks))
	for _, spec := range plan.Tasks {
		taskID := spec.TaskID
		if taskID == "" {
			taskID = model.NewID()
		}
		agentType := spec.AgentType
		if agentType == "" {
			agentType = model.AgentSummary
		}
		agentName := spec.AgentName
		if agentName == "" {
			agentName = "Unknown Agent"
		}
		priority := spec.Priority
		if priority == "" {
			priority = "medium"
		}
		timeout := e.defaultTimeout
		if spec.TimeoutS > 0 {
			timeout = time.Duration(spec.TimeoutS) * time.Second
		}

		requests = append(requests, &model.TaskRequest{
			TaskID:    taskID,
			AgentType: agentType,
			AgentName: agentName,
			InputData: spec.InputData,
			TaskContext: map[string]any{
				"session_id":         plan.SessionID,
				"detected_intents":   plan.DetectedIntents,
				"execution_strategy": plan.ExecutionStrategy,
			},
			Priority: priority,
			Timeout:  timeout,
			Phase:    model.NormalizePhase(spec.Phase),
		})
	}
	return requests
}

// recordTasks persists a pending record per task. Failures are logged and do
// not block execution.
func (e *Engine) recordTasks(ctx context.Context, sessionID string, requests []*model.TaskRequest) {
	now := time.Now().UTC()
	for _, req := range requests {
		rec := &store.TaskRecord{
			TaskID:    req.TaskID,
			SessionID: sessionID,
			AgentType: req.AgentType,
			AgentName: req.AgentName,
			Status:    model.StatusPending,
			InputData: req.InputData,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := e.store.CreateTask(ctx, rec); err != nil {
			e.logger.Warn("failed to create task record", "task_id", req.TaskID, "error", err)
		}
	}
}

// failedResult shapes the top-level catch outcome for plan-level faults.
func failedResult(sessionID string, start time.Time, reason string) *model.AggregatedResult {
	return &model.AggregatedResult{
		SessionID:          sessionID,
		OverallStatus:      model.OverallFailed,
		ExecutionSummary:   "Executed 0 tasks: 0 completed, 0 failed, 0 timed out",
		TaskResults:        []model.TaskDigest{},
		FinalOutput:        "Execution failed: " + reason,
		TotalExecutionTime: time.Since(start).Seconds(),
		Timestamp:          time.Now().UTC(),
	}
}
