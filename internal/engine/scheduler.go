package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/deepmodel/agenthub/internal/model"
)

// Scheduler runs a plan's tasks phase by phase. Tasks are partitioned by
// phase tag preserving input order, each phase's group fans out concurrently,
// and a phase starts only after the previous one fully settles. Prior-phase
// results are injected into later-phase task contexts before dispatch.
type Scheduler struct {
	dispatcher *Dispatcher
	broker     *EventBroker
	logger     *slog.Logger

	// OnPhaseStart and OnPhaseDone run sequentially at phase boundaries,
	// before a phase's group is dispatched and after it settles. Both are
	// optional.
	OnPhaseStart func(ctx context.Context, phase string, requests []*model.TaskRequest)
	OnPhaseDone  func(ctx context.Context, phase string, responses []model.TaskResponse)
}

// NewScheduler creates a scheduler. The broker may be nil to disable event
// streaming.
func NewScheduler(d *Dispatcher, broker *EventBroker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		dispatcher: d,
		broker:     broker,
		logger:     logger,
	}
}

// Run executes all tasks and returns one response per task, in input order.
// Task failures never abort the schedule: later phases still run and see the
// earlier outcomes in their injected context.
func (s *Scheduler) Run(ctx context.Context, sessionID string, tasks []*model.TaskRequest) []model.TaskResponse {
	indexesByPhase := make(map[string][]int, len(model.Phases))
	for i, req := range tasks {
		phase := model.NormalizePhase(req.Phase)
		indexesByPhase[phase] = append(indexesByPhase[phase], i)
	}

	responses := make([]model.TaskResponse, len(tasks))
	var produced []model.TaskResponse
	var validation []model.TaskResponse

	for _, phase := range model.Phases {
		group := indexesByPhase[phase]
		if len(group) == 0 {
			continue
		}

		requests := make([]*model.TaskRequest, 0, len(group))
		for _, i := range group {
			requests = append(requests, tasks[i])
		}

		injectResults(phase, requests, produced, validation)
		if s.OnPhaseStart != nil {
			s.OnPhaseStart(ctx, phase, requests)
		}

		s.logger.Info("phase started", "session_id", sessionID, "phase", phase, "tasks", len(group))

		var wg sync.WaitGroup
		for _, i := range group {
			i := i
			req := tasks[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.publish(sessionID, req.TaskID, req.AgentType, model.StatusRunning, "")
				resp := s.dispatcher.Execute(ctx, req)
				responses[i] = resp
				s.publish(sessionID, resp.TaskID, resp.AgentType, resp.Status, resp.ErrorMessage)
			}()
		}
		wg.Wait()

		phaseResponses := make([]model.TaskResponse, 0, len(group))
		for _, i := range group {
			phaseResponses = append(phaseResponses, responses[i])
		}
		produced = append(produced, phaseResponses...)
		if phase == model.PhaseValidation {
			validation = append(validation, phaseResponses...)
		}

		if s.OnPhaseDone != nil {
			s.OnPhaseDone(ctx, phase, phaseResponses)
		}
	}

	return responses
}

// injectResults mutates the group's task contexts with the outcomes of all
// earlier phases. Summary-phase tasks additionally see the validation-phase
// outcomes under their own key.
func injectResults(phase string, requests []*model.TaskRequest, produced, validation []model.TaskResponse) {
	if len(produced) == 0 {
		return
	}

	workerResults := toPhaseResults(produced)
	var validationResults []model.PhaseResult
	if phase == model.PhaseSummary && len(validation) > 0 {
		validationResults = toPhaseResults(validation)
	}

	for _, req := range requests {
		if req.TaskContext == nil {
			req.TaskContext = make(map[string]any)
		}
		req.TaskContext[model.ContextWorkerResults] = workerResults
		if validationResults != nil {
			req.TaskContext[model.ContextValidationResults] = validationResults
		}
	}
}

func toPhaseResults(responses []model.TaskResponse) []model.PhaseResult {
	results := make([]model.PhaseResult, 0, len(responses))
	for _, resp := range responses {
		results = append(results, model.PhaseResult{
			AgentType:  resp.AgentType,
			ResultData: resp.ResultData,
		})
	}
	return results
}

func (s *Scheduler) publish(sessionID, taskID, agentType, status, message string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(sessionID, TaskEvent{
		TaskID:    taskID,
		AgentType: agentType,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}
