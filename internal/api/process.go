package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/deepmodel/agenthub/internal/model"
)

const maxBodySize = 1 << 20 // 1 MB

// processRequest is the JSON body for POST /v1/process.
type processRequest struct {
	Input string `json:"input"`
}

// planningResult summarizes the planning stage in a process response.
type planningResult struct {
	DetectedIntents   []string `json:"detected_intents"`
	ExecutionStrategy string   `json:"execution_strategy"`
	TaskCount         int      `json:"task_count"`
	EstimatedTime     int      `json:"estimated_time"`
}

// processResponse is the JSON response for POST /v1/process.
type processResponse struct {
	Status          string                  `json:"status"`
	SessionID       string                  `json:"session_id"`
	PlanningResult  planningResult          `json:"planning_result"`
	ExecutionResult *model.AggregatedResult `json:"execution_result"`
	FinalOutput     string                  `json:"final_output"`
	Timestamp       time.Time               `json:"timestamp"`
}

// asyncProcessResponse is the JSON response for POST /v1/process/async. The
// caller follows up via the session endpoints and the event stream.
type asyncProcessResponse struct {
	Status         string         `json:"status"`
	SessionID      string         `json:"session_id"`
	PlanningResult planningResult `json:"planning_result"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.planFromRequest(w, r)
	if !ok {
		return
	}

	result := s.engine.ExecutePlan(r.Context(), plan)

	s.writeJSON(w, http.StatusOK, processResponse{
		Status:          result.OverallStatus,
		SessionID:       plan.SessionID,
		PlanningResult:  summarizePlan(plan),
		ExecutionResult: result,
		FinalOutput:     result.FinalOutput,
		Timestamp:       time.Now().UTC(),
	})
}

func (s *Server) handleProcessAsync(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.planFromRequest(w, r)
	if !ok {
		return
	}

	// Execution outlives the request; progress streams via the session's
	// event endpoint.
	go s.engine.ExecutePlan(context.Background(), plan)

	s.writeJSON(w, http.StatusAccepted, asyncProcessResponse{
		Status:         "accepted",
		SessionID:      plan.SessionID,
		PlanningResult: summarizePlan(plan),
	})
}

// planFromRequest decodes and validates the process body and runs planning.
// It writes the error response itself and reports success via ok.
func (s *Server) planFromRequest(w http.ResponseWriter, r *http.Request) (*model.ExecutionPlan, bool) {
	var req processRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return nil, false
	}

	plan, err := s.planner.Plan(r.Context(), req.Input)
	if err != nil {
		s.logger.Error("plan request", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to plan request")
		return nil, false
	}
	return plan, true
}

func summarizePlan(plan *model.ExecutionPlan) planningResult {
	return planningResult{
		DetectedIntents:   plan.DetectedIntents,
		ExecutionStrategy: plan.ExecutionStrategy,
		TaskCount:         len(plan.Tasks),
		EstimatedTime:     plan.EstimatedTime,
	}
}
