package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deepmodel/agenthub/internal/agent"
	"github.com/deepmodel/agenthub/internal/model"
)

// DefaultTaskTimeout is the per-task timeout when a request does not carry one.
const DefaultTaskTimeout = 300 * time.Second

// Dispatcher executes single tasks against the agent registry. Every dispatch
// produces exactly one TaskResponse; agent errors, panics, unknown agent
// types, and timeouts all shape into a terminal response instead of
// propagating.
type Dispatcher struct {
	registry *agent.Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given agent registry.
func NewDispatcher(reg *agent.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		logger:   logger,
	}
}

// agentOutcome carries the result of one agent run across the goroutine
// boundary.
type agentOutcome struct {
	result map[string]any
	err    error
}

// Execute runs one task to completion. The agent runs under a deadline
// derived from the request timeout; on expiry the response carries the
// timeout status and the agent goroutine is abandoned.
func (d *Dispatcher) Execute(ctx context.Context, req *model.TaskRequest) model.TaskResponse {
	start := time.Now()

	a, err := d.registry.Resolve(req.AgentType)
	if err != nil {
		d.logger.Error("no agent for task", "task_id", req.TaskID, "agent_type", req.AgentType)
		return d.finish(req, start, model.StatusFailed, nil, err.Error())
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome := make(chan agentOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- agentOutcome{err: fmt.Errorf("agent panic: %v", r)}
			}
		}()
		result, err := a.Run(ctx, req.InputData, req.TaskContext)
		outcome <- agentOutcome{result: result, err: err}
	}()

	select {
	case out := <-outcome:
		if out.err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return d.finish(req, start, model.StatusTimedOut, nil,
					fmt.Sprintf("task timed out after %ds", int(timeout.Seconds())))
			}
			return d.finish(req, start, model.StatusFailed, nil, out.err.Error())
		}
		return d.finish(req, start, model.StatusCompleted, out.result, "")
	case <-ctx.Done():
		// The agent goroutine keeps running until it observes the canceled
		// context; its late result is discarded via the buffered channel.
		return d.finish(req, start, model.StatusTimedOut, nil,
			fmt.Sprintf("task timed out after %ds", int(timeout.Seconds())))
	}
}

// finish shapes the uniform terminal response and records metrics.
func (d *Dispatcher) finish(req *model.TaskRequest, start time.Time, status string, result map[string]any, errMsg string) model.TaskResponse {
	elapsed := time.Since(start).Seconds()
	observeTask(req.AgentType, status, elapsed)

	if status == model.StatusCompleted {
		d.logger.Info("task completed", "task_id", req.TaskID, "agent_type", req.AgentType, "seconds", elapsed)
	} else {
		d.logger.Warn("task did not complete", "task_id", req.TaskID, "agent_type", req.AgentType, "status", status, "error", errMsg)
	}

	return model.TaskResponse{
		TaskID:        req.TaskID,
		AgentType:     req.AgentType,
		AgentName:     req.AgentName,
		Status:        status,
		ResultData:    result,
		ExecutionTime: elapsed,
		ErrorMessage:  errMsg,
		Timestamp:     time.Now().UTC(),
	}
}
