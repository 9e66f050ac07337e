package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deepmodel/agenthub/internal/agent"
	"github.com/deepmodel/agenthub/internal/tools"
)

// enhancement triggers a tool call when the input mentions one of its
// keywords; the tool output is appended to the input under a label before
// the LLM sees it.
type enhancement struct {
	tool     string
	label    string
	keywords []string
}

// Worker is an LLM-backed agent. It implements both agent.Agent and
// agent.StructuredRunner: Run drives the retry invoker over the worker's own
// structured and raw completion paths.
type Worker struct {
	client       Completer
	toolManager  *tools.Manager
	info         agent.Info
	systemPrompt string
	invoker      agent.Invoker
	enhancements []enhancement
}

// Compile-time interface satisfaction checks.
var (
	_ agent.Agent            = (*Worker)(nil)
	_ agent.StructuredRunner = (*Worker)(nil)
)

// Info implements agent.Agent.
func (w *Worker) Info() agent.Info { return w.info }

// Run enhances the input through the worker's tools, then invokes the LLM
// through the retry/fallback wrapper.
func (w *Worker) Run(ctx context.Context, input string, taskContext map[string]any) (map[string]any, error) {
	enhanced, used := w.enhanceInput(ctx, input)
	result, err := w.invoker.Invoke(ctx, w, enhanced, taskContext)
	if err != nil {
		return nil, fmt.Errorf("%s agent: %w", w.info.Type, err)
	}
	if len(used) > 0 {
		result["tools_used"] = used
	}
	return result, nil
}

// RunStructured implements the structured output path: a JSON-mode
// completion parsed into a result map.
func (w *Worker) RunStructured(ctx context.Context, input string, taskContext map[string]any) (map[string]any, error) {
	content, err := w.client.Complete(ctx, Request{
		System:   w.systemPrompt,
		User:     buildUserMessage(input, taskContext),
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(StripFences(content)), &result); err != nil {
		return nil, fmt.Errorf("parse structured output: %w", err)
	}
	return result, nil
}

// RunRaw implements the unstructured fallback path: a plain completion whose
// text the invoker wraps into the minimal valid shape.
func (w *Worker) RunRaw(ctx context.Context, input string, taskContext map[string]any) (string, error) {
	return w.client.Complete(ctx, Request{
		System: w.systemPrompt,
		User:   buildUserMessage(input, taskContext),
	})
}

// enhanceInput appends keyword-triggered tool output to the input. Tool
// failures are ignored; the LLM call proceeds on the original input.
func (w *Worker) enhanceInput(ctx context.Context, input string) (string, []string) {
	if w.toolManager == nil || len(w.enhancements) == 0 {
		return input, nil
	}

	lower := strings.ToLower(input)
	enhanced := input
	var used []string
	for _, e := range w.enhancements {
		if !containsAny(lower, e.keywords) {
			continue
		}
		out, err := w.toolManager.Invoke(ctx, e.tool, truncate(input, 80))
		if err != nil {
			continue
		}
		enhanced += fmt.Sprintf("\n\n%s: %s", e.label, out)
		used = append(used, e.tool)
	}
	return enhanced, used
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// buildUserMessage composes the human message the way every worker prompt
// expects it: the input payload followed by the task context as JSON.
func buildUserMessage(input string, taskContext map[string]any) string {
	ctxJSON, err := json.Marshal(taskContext)
	if err != nil {
		ctxJSON = []byte("{}")
	}
	return fmt.Sprintf("Input Data: %s\nTask Context: %s", input, ctxJSON)
}

// StripFences removes a markdown code fence around a JSON payload, which
// some models emit even in JSON mode.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
