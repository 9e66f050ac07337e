package llm

import (
	"fmt"

	"github.com/deepmodel/agenthub/internal/agent"
	"github.com/deepmodel/agenthub/internal/model"
	"github.com/deepmodel/agenthub/internal/tools"
)

// NewSummarizer creates the summary worker.
func NewSummarizer(c Completer) (*Worker, error) {
	prompt, err := loadPrompt("summary")
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}
	return &Worker{
		client: c,
		info: agent.Info{
			Type:         model.AgentSummary,
			Name:         "Summary Agent",
			Description:  "Condenses documents and results into concise summaries",
			Capabilities: []string{"document_summarization"},
		},
		systemPrompt: prompt,
		invoker: agent.Invoker{
			Required: []string{"summary"},
			RawField: "summary",
		},
	}, nil
}

// NewAnalyst creates the analyst worker. It enhances its input through web
// search, knowledge-base retrieval, and SQL tools when the input mentions
// the matching topics.
func NewAnalyst(c Completer, tm *tools.Manager) (*Worker, error) {
	prompt, err := loadPrompt("analyst")
	if err != nil {
		return nil, fmt.Errorf("analyst: %w", err)
	}
	return &Worker{
		client:      c,
		toolManager: tm,
		info: agent.Info{
			Type:         model.AgentAnalyst,
			Name:         "Analyst Agent",
			Description:  "Performs data and market analysis with tool-backed evidence",
			Capabilities: []string{"data_analysis", "market_analysis"},
		},
		systemPrompt: prompt,
		invoker: agent.Invoker{
			Required: []string{"executive_summary"},
			RawField: "executive_summary",
		},
		enhancements: []enhancement{
			{tool: "websearch", label: "Market Research", keywords: []string{"market", "trend"}},
			{tool: "rag", label: "Knowledge Base", keywords: []string{"analysis", "data"}},
			{tool: "sql", label: "Data Query", keywords: []string{"performance", "metrics"}},
		},
	}, nil
}

// NewValidator creates the validation worker.
func NewValidator(c Completer, tm *tools.Manager) (*Worker, error) {
	prompt, err := loadPrompt("validation")
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	return &Worker{
		client:      c,
		toolManager: tm,
		info: agent.Info{
			Type:         model.AgentValidation,
			Name:         "Validation Agent",
			Description:  "Checks prior results for accuracy and consistency",
			Capabilities: []string{"data_validation", "fact_checking"},
		},
		systemPrompt: prompt,
		invoker: agent.Invoker{
			Required:    []string{"overall_status", "validation_summary"},
			RawField:    "validation_summary",
			RawDefaults: map[string]any{"overall_status": "UNCERTAIN"},
		},
		enhancements: []enhancement{
			{tool: "websearch", label: "Fact Check Sources", keywords: []string{"fact", "claim", "statement", "data"}},
			{tool: "rag", label: "Knowledge Verification", keywords: []string{"information", "knowledge", "reference"}},
			{tool: "sql", label: "Data Validation", keywords: []string{"database", "record", "metrics"}},
		},
	}, nil
}

// NewAggregator creates the aggregation worker, which combines all prior
// agent results into one final report.
func NewAggregator(c Completer) (*Worker, error) {
	prompt, err := loadPrompt("aggregation")
	if err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	return &Worker{
		client: c,
		info: agent.Info{
			Type:         model.AgentAggregation,
			Name:         "Aggregation Agent",
			Description:  "Combines all agent results into a final report",
			Capabilities: []string{"result_aggregation"},
		},
		systemPrompt: prompt,
		invoker: agent.Invoker{
			Required:    []string{"final_summary"},
			RawField:    "final_summary",
			RawDefaults: map[string]any{"confidence_score": 0.8},
		},
	}, nil
}

// RegisterAll constructs the built-in worker set and registers each under its
// type tag.
func RegisterAll(reg *agent.Registry, c Completer, tm *tools.Manager) error {
	summarizer, err := NewSummarizer(c)
	if err != nil {
		return err
	}
	analyst, err := NewAnalyst(c, tm)
	if err != nil {
		return err
	}
	validator, err := NewValidator(c, tm)
	if err != nil {
		return err
	}
	aggregator, err := NewAggregator(c)
	if err != nil {
		return err
	}

	reg.Register(model.AgentSummary, summarizer)
	reg.Register(model.AgentAnalyst, analyst)
	reg.Register(model.AgentValidation, validator)
	reg.Register(model.AgentAggregation, aggregator)
	return nil
}
