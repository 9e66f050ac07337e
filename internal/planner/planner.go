package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deepmodel/agenthub/internal/agent"
	"github.com/deepmodel/agenthub/internal/agent/llm"
	"github.com/deepmodel/agenthub/internal/model"
	"github.com/deepmodel/agenthub/internal/store"
)

// perTaskEstimateS is the per-task contribution to a fallback plan's
// estimated execution time.
const perTaskEstimateS = 30

// Planner turns free-form user input into an ExecutionPlan. It asks the LLM
// for a structured plan first and falls back to keyword-based intent
// detection when the model fails, so planning never blocks execution.
type Planner struct {
	client   llm.Completer
	registry *agent.Registry
	store    store.Store
	logger   *slog.Logger
	prompt   string
}

// New creates a planner over the given completion client and agent registry.
func New(client llm.Completer, reg *agent.Registry, s store.Store, logger *slog.Logger) (*Planner, error) {
	prompt, err := llm.PlanningPrompt()
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return &Planner{
		client:   client,
		registry: reg,
		store:    s,
		logger:   logger,
		prompt:   prompt,
	}, nil
}

// llmPlan is the JSON shape the planning prompt asks the model for.
type llmPlan struct {
	DetectedIntents []string  `json:"detected_intents"`
	Tasks           []llmTask `json:"tasks"`
	EstimatedTime   int       `json:"estimated_time"`
}

type llmTask struct {
	AgentType string `json:"agent_type"`
	InputData string `json:"input_data"`
	Priority  string `json:"priority"`
	Phase     string `json:"phase"`
}

// Plan analyzes the user input and produces an execution plan with a fresh
// session. The session record is persisted best-effort; a store failure is
// logged and planning proceeds.
func (p *Planner) Plan(ctx context.Context, userInput string) (*model.ExecutionPlan, error) {
	sessionID := model.NewID()

	plan, err := p.planWithLLM(ctx, userInput)
	if err != nil {
		p.logger.Warn("llm planning failed, using keyword fallback", "session_id", sessionID, "error", err)
		plan = p.fallbackPlan(userInput)
	}

	plan.SessionID = sessionID
	// The engine runs each phase's tasks concurrently regardless of what the
	// model suggested.
	plan.ExecutionStrategy = "parallel"
	for i := range plan.Tasks {
		plan.Tasks[i].Phase = model.NormalizePhase(plan.Tasks[i].Phase)
	}

	now := time.Now().UTC()
	sess := &store.Session{
		ID:              sessionID,
		UserInput:       userInput,
		DetectedIntents: plan.DetectedIntents,
		Status:          "planning",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.store.CreateSession(ctx, sess); err != nil {
		p.logger.Warn("failed to persist session", "session_id", sessionID, "error", err)
	}

	p.logger.Info("plan created",
		"session_id", sessionID,
		"intents", plan.DetectedIntents,
		"tasks", len(plan.Tasks))
	return plan, nil
}

// planWithLLM asks the model for a structured plan and keeps only tasks whose
// agent type is actually registered.
func (p *Planner) planWithLLM(ctx context.Context, userInput string) (*model.ExecutionPlan, error) {
	content, err := p.client.Complete(ctx, llm.Request{
		System:   p.prompt,
		User:     p.buildPlanningMessage(userInput),
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	var parsed llmPlan
	if err := json.Unmarshal([]byte(llm.StripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(parsed.Tasks) == 0 {
		return nil, fmt.Errorf("plan has no tasks")
	}

	var tasks []model.TaskSpec
	for _, t := range parsed.Tasks {
		a, err := p.registry.Resolve(t.AgentType)
		if err != nil {
			p.logger.Warn("plan names unknown agent type, dropping task", "agent_type", t.AgentType)
			continue
		}
		input := t.InputData
		if input == "" {
			input = userInput
		}
		tasks = append(tasks, model.TaskSpec{
			TaskID:    model.NewID(),
			AgentType: t.AgentType,
			AgentName: a.Info().Name,
			InputData: input,
			Priority:  t.Priority,
			Phase:     t.Phase,
		})
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("plan has no dispatchable tasks")
	}

	return &model.ExecutionPlan{
		DetectedIntents: parsed.DetectedIntents,
		Tasks:           tasks,
		EstimatedTime:   parsed.EstimatedTime,
	}, nil
}

// buildPlanningMessage lists the registered agents so the model only assigns
// work to agents that exist.
func (p *Planner) buildPlanningMessage(userInput string) string {
	var b strings.Builder
	b.WriteString("User Request: ")
	b.WriteString(userInput)
	b.WriteString("\n\nAvailable Agents:\n")
	for _, info := range p.registry.List() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", info.Type, info.Name, info.Description)
	}
	return b.String()
}

// fallbackPlan builds a plan from keyword intent detection when the model is
// unavailable. Detected intents map to one task each; a summary task always
// closes the plan.
func (p *Planner) fallbackPlan(userInput string) *model.ExecutionPlan {
	intents := DetectIntents(userInput)

	var tasks []model.TaskSpec
	seen := make(map[string]bool)
	add := func(agentType, phase string) {
		if seen[agentType] {
			return
		}
		a, err := p.registry.Resolve(agentType)
		if err != nil {
			return
		}
		seen[agentType] = true
		tasks = append(tasks, model.TaskSpec{
			TaskID:    model.NewID(),
			AgentType: agentType,
			AgentName: a.Info().Name,
			InputData: userInput,
			Priority:  "medium",
			Phase:     phase,
		})
	}

	for _, intent := range intents {
		switch intent {
		case "data_analysis", "market_analysis":
			add(model.AgentAnalyst, model.PhaseWorker)
		case "validation":
			add(model.AgentValidation, model.PhaseValidation)
		}
	}
	add(model.AgentSummary, model.PhaseSummary)

	return &model.ExecutionPlan{
		DetectedIntents: intents,
		Tasks:           tasks,
		EstimatedTime:   perTaskEstimateS * len(tasks),
	}
}

// intentKeywords maps each detectable intent to its trigger keywords. Order
// fixes the intent order in the plan.
var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{"data_analysis", []string{"analyze", "analysis", "data", "performance"}},
	{"market_analysis", []string{"market", "trend", "competitor"}},
	{"validation", []string{"validate", "verify", "check", "fact"}},
	{"summarization", []string{"summarize", "summary", "condense", "brief"}},
}

// DetectIntents scans the input for known intent keywords. An input matching
// nothing gets the summarization intent so a plan always has work to do.
func DetectIntents(userInput string) []string {
	lower := strings.ToLower(userInput)

	var intents []string
	for _, ik := range intentKeywords {
		for _, k := range ik.keywords {
			if strings.Contains(lower, k) {
				intents = append(intents, ik.intent)
				break
			}
		}
	}
	if len(intents) == 0 {
		intents = []string{"summarization"}
	}
	return intents
}
